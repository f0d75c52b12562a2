package mcu

import (
	"fmt"
	"strings"

	"priamsmart/protocol"
)

// field is one argument of a message format
type field struct {
	name  string
	bytes bool // %.*s byte string, otherwise a VLQ integer
}

// messageFormat describes a command or response from its dictionary key,
// e.g. "priam_seek drive=%c head=%c cylinder=%hu retry=%c"
type messageFormat struct {
	id     uint16
	name   string
	fields []field
}

func parseFormat(id uint16, signature string) (messageFormat, error) {
	parts := strings.Fields(signature)
	if len(parts) == 0 {
		return messageFormat{}, fmt.Errorf("empty message format for id %d", id)
	}

	f := messageFormat{id: id, name: parts[0]}
	for _, p := range parts[1:] {
		name, conv, ok := strings.Cut(p, "=")
		if !ok || !strings.HasPrefix(conv, "%") {
			return messageFormat{}, fmt.Errorf("bad field %q in %s", p, f.name)
		}
		f.fields = append(f.fields, field{name: name, bytes: strings.HasSuffix(conv, "s")})
	}
	return f, nil
}

// Response is a decoded firmware response
type Response struct {
	Name string
	Args map[string]uint32
	Data []byte
}

// Get returns the named integer argument, zero when absent
func (r Response) Get(name string) uint32 {
	return r.Args[name]
}

// decode parses the arguments that follow the message ID
func (f messageFormat) decode(data *[]byte) (Response, error) {
	resp := Response{Name: f.name, Args: make(map[string]uint32, len(f.fields))}
	for _, fl := range f.fields {
		if fl.bytes {
			b, err := protocol.DecodeVLQBytes(data)
			if err != nil {
				return resp, fmt.Errorf("%s.%s: %w", f.name, fl.name, err)
			}
			resp.Data = append([]byte(nil), b...)
			continue
		}
		v, err := protocol.DecodeVLQUint(data)
		if err != nil {
			return resp, fmt.Errorf("%s.%s: %w", f.name, fl.name, err)
		}
		resp.Args[fl.name] = v
	}
	return resp, nil
}

// encode writes integer arguments in format order
func (f messageFormat) encode(args []uint32) (func(protocol.OutputBuffer), error) {
	if len(args) != len(f.fields) {
		return nil, fmt.Errorf("%s takes %d arguments, got %d", f.name, len(f.fields), len(args))
	}
	for _, fl := range f.fields {
		if fl.bytes {
			return nil, fmt.Errorf("%s: byte string arguments are not supported", f.name)
		}
	}
	return func(output protocol.OutputBuffer) {
		for _, a := range args {
			protocol.EncodeVLQUint(output, a)
		}
	}, nil
}
