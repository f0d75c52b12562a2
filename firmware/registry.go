package firmware

import (
	"errors"
	"sync"
)

// ErrUnknownCommand is returned when a block names an unregistered command ID
var ErrUnknownCommand = errors.New("unknown command ID")

// Handler runs one command. It decodes its own arguments from data.
type Handler func(data *[]byte) error

// Command is a registered command (host to MCU) or response (MCU to host)
type Command struct {
	ID      uint16
	Name    string
	Format  string // argument format, e.g. "drive=%c head=%c"
	Handler Handler
}

// Signature returns the dictionary key: name followed by the format
func (c *Command) Signature() string {
	if c.Format == "" {
		return c.Name
	}
	return c.Name + " " + c.Format
}

// Registry assigns IDs in registration order. Responses have no handler.
type Registry struct {
	mu       sync.RWMutex
	commands []*Command
	byName   map[string]*Command
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Command)}
}

// Register adds a command and returns its ID. Registering a name twice
// returns the existing ID.
func (r *Registry) Register(name, format string, handler Handler) uint16 {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cmd, ok := r.byName[name]; ok {
		return cmd.ID
	}
	cmd := &Command{ID: uint16(len(r.commands)), Name: name, Format: format, Handler: handler}
	r.commands = append(r.commands, cmd)
	r.byName[name] = cmd
	return cmd.ID
}

// RegisterResponse adds a response message
func (r *Registry) RegisterResponse(name, format string) uint16 {
	return r.Register(name, format, nil)
}

func (r *Registry) Lookup(id uint16) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if int(id) >= len(r.commands) {
		return nil, false
	}
	return r.commands[id], true
}

func (r *Registry) ByName(name string) (*Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cmd, ok := r.byName[name]
	return cmd, ok
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.commands)
}

// Dispatch runs the handler for id
func (r *Registry) Dispatch(id uint16, data *[]byte) error {
	cmd, ok := r.Lookup(id)
	if !ok || cmd.Handler == nil {
		return ErrUnknownCommand
	}
	return cmd.Handler(data)
}

// Each calls fn for every entry in ID order
func (r *Registry) Each(fn func(cmd *Command)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, cmd := range r.commands {
		fn(cmd)
	}
}
