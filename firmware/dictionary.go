package firmware

import (
	"slices"
	"strconv"
)

// Dictionary is the identify data: version, constants and the command and
// response IDs, as JSON. It is built once after registration and served
// uncompressed in identify chunks.
type Dictionary struct {
	registry      *Registry
	version       string
	buildVersions string
	constants     map[string]string
	cached        []byte
}

func NewDictionary(registry *Registry, version, buildVersions string) *Dictionary {
	return &Dictionary{
		registry:      registry,
		version:       version,
		buildVersions: buildVersions,
		constants:     make(map[string]string),
	}
}

// AddConstant exposes a value in the config section
func (d *Dictionary) AddConstant(name string, value any) {
	var s string
	switch v := value.(type) {
	case string:
		s = v
	case int:
		s = strconv.Itoa(v)
	case uint32:
		s = strconv.FormatUint(uint64(v), 10)
	case bool:
		s = strconv.FormatBool(v)
	default:
		s = "?"
	}
	d.constants[name] = s
	d.cached = nil
}

// Build serializes the dictionary. Call after every command is registered.
func (d *Dictionary) Build() []byte {
	out := make([]byte, 0, 1024)
	out = append(out, `{"version":`...)
	out = strconv.AppendQuote(out, d.version)
	out = append(out, `,"build_versions":`...)
	out = strconv.AppendQuote(out, d.buildVersions)

	out = append(out, `,"config":{`...)
	names := make([]string, 0, len(d.constants))
	for name := range d.constants {
		names = append(names, name)
	}
	slices.Sort(names)
	for i, name := range names {
		if i > 0 {
			out = append(out, ',')
		}
		out = strconv.AppendQuote(out, name)
		out = append(out, ':')
		out = strconv.AppendQuote(out, d.constants[name])
	}

	var commands, responses []byte
	d.registry.Each(func(cmd *Command) {
		entry := &responses
		if cmd.Handler != nil {
			entry = &commands
		}
		if len(*entry) > 0 {
			*entry = append(*entry, ',')
		}
		*entry = strconv.AppendQuote(*entry, cmd.Signature())
		*entry = append(*entry, ':')
		*entry = strconv.AppendUint(*entry, uint64(cmd.ID), 10)
	})

	out = append(out, `},"commands":{`...)
	out = append(out, commands...)
	out = append(out, `},"responses":{`...)
	out = append(out, responses...)
	out = append(out, "}}"...)

	d.cached = out
	return out
}

// Data returns the serialized dictionary, building it on first use
func (d *Dictionary) Data() []byte {
	if d.cached == nil {
		return d.Build()
	}
	return d.cached
}

// Chunk returns up to count bytes starting at offset; empty past the end
func (d *Dictionary) Chunk(offset uint32, count uint8) []byte {
	data := d.Data()
	if offset >= uint32(len(data)) {
		return nil
	}
	end := min(offset+uint32(count), uint32(len(data)))
	return append([]byte(nil), data[offset:end]...)
}
