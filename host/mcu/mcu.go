// Package mcu is the host client for the interface firmware: it connects,
// retrieves the identify dictionary and runs drive commands over the link.
package mcu

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"priamsmart/host/config"
	"priamsmart/host/serial"
	"priamsmart/protocol"
)

// Client errors
var (
	ErrNotConnected     = errors.New("not connected to MCU")
	ErrNoDictionary     = errors.New("dictionary not loaded")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrUnexpectedOffset = errors.New("unexpected data offset")
)

// Bootstrap messages with fixed IDs
const (
	identifyResponseID = 0
	identifyID         = 1
)

const inboxSize = 4096

// MCU represents a connection to the interface firmware
type MCU struct {
	cfg  *config.Config
	log  *slog.Logger
	dlog *slog.Logger

	port      io.ReadWriteCloser
	transport *protocol.HostTransport

	dictionary     *Dictionary
	dictionaryData []byte
	commands       map[string]messageFormat
	responses      map[uint16]messageFormat

	inbox     chan Response
	connected bool
}

// Dictionary represents the parsed MCU dictionary
type Dictionary struct {
	Version       string            `json:"version"`
	BuildVersions string            `json:"build_versions"`
	Config        map[string]string `json:"config"`
	Commands      map[string]int    `json:"commands"`
	Responses     map[string]int    `json:"responses"`
}

// NewMCU creates a client (not yet connected). A nil cfg uses the defaults
// and a nil logger discards.
func NewMCU(cfg *config.Config, logger *slog.Logger) *MCU {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = discardLogger()
	}
	identify, _ := parseFormat(identifyResponseID, "identify_response offset=%u data=%.*s")
	return &MCU{
		cfg:       cfg,
		log:       logger.With("component", ComponentLink),
		dlog:      logger.With("component", ComponentDrive),
		responses: map[uint16]messageFormat{identifyResponseID: identify},
		inbox:     make(chan Response, inboxSize),
	}
}

// Connect opens the configured serial device
func (m *MCU) Connect() error {
	port, err := serial.Open(m.cfg.Serial())
	if err != nil {
		return fmt.Errorf("failed to open serial port: %w", err)
	}
	m.Attach(port)
	return nil
}

// Attach runs the client over an already open link
func (m *MCU) Attach(port io.ReadWriteCloser) {
	m.port = port
	m.transport = protocol.NewHostTransport(port)
	m.transport.SetResponseHandler(m.handleResponse)
	m.connected = true
	m.log.Debug("link attached")
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	if !m.connected {
		return nil
	}
	m.connected = false
	return m.transport.Close()
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	return m.connected
}

// handleResponse decodes responses on the transport reader goroutine
func (m *MCU) handleResponse(cmdID uint16, data *[]byte) error {
	f, ok := m.responses[cmdID]
	if !ok {
		m.log.Warn("unknown response", "id", cmdID)
		return nil
	}
	resp, err := f.decode(data)
	if err != nil {
		m.log.Warn("bad response", "name", f.name, "err", err)
		return err
	}
	m.log.Debug("response", "name", resp.Name, "args", resp.Args, "data_len", len(resp.Data))

	select {
	case m.inbox <- resp:
	default:
		m.log.Error("response queue full, dropping", "name", resp.Name)
	}
	return nil
}

// RetrieveDictionary fetches the identify dictionary in chunks and
// loads the command and response tables from it
func (m *MCU) RetrieveDictionary() error {
	if !m.connected {
		return ErrNotConnected
	}

	var dict bytes.Buffer
	chunk := m.cfg.IdentifyChunk
	for {
		data, err := m.identify(uint32(dict.Len()), chunk)
		if err != nil {
			return fmt.Errorf("failed to retrieve dictionary chunk at offset %d: %w", dict.Len(), err)
		}
		dict.Write(data)
		if len(data) < int(chunk) {
			break
		}
	}

	m.dictionaryData = dict.Bytes()
	m.log.Info("dictionary retrieved", "bytes", len(m.dictionaryData))
	if err := m.parseDictionary(); err != nil {
		return fmt.Errorf("failed to parse dictionary: %w", err)
	}
	return nil
}

func (m *MCU) identify(offset uint32, count uint8) ([]byte, error) {
	m.drain()
	err := m.transport.SendCommandWithTimeout(identifyID, func(output protocol.OutputBuffer) {
		protocol.EncodeVLQUint(output, offset)
		protocol.EncodeVLQUint(output, uint32(count))
	}, m.cfg.AckTimeoutDuration())
	if err != nil {
		return nil, err
	}

	resp, err := m.await("identify_response", nil)
	if err != nil {
		return nil, err
	}
	if got := resp.Get("offset"); got != offset {
		return nil, fmt.Errorf("%w: expected %d, got %d", ErrUnexpectedOffset, offset, got)
	}
	return resp.Data, nil
}

// parseDictionary builds the message tables from the dictionary JSON
func (m *MCU) parseDictionary() error {
	dict := &Dictionary{}
	if err := json.Unmarshal(m.dictionaryData, dict); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	commands := make(map[string]messageFormat, len(dict.Commands))
	for sig, id := range dict.Commands {
		f, err := parseFormat(uint16(id), sig)
		if err != nil {
			return err
		}
		commands[f.name] = f
	}
	responses := make(map[uint16]messageFormat, len(dict.Responses))
	for sig, id := range dict.Responses {
		f, err := parseFormat(uint16(id), sig)
		if err != nil {
			return err
		}
		responses[f.id] = f
	}

	m.dictionary = dict
	m.commands = commands
	m.transport.SetResponseHandler(nil)
	m.responses = responses
	m.transport.SetResponseHandler(m.handleResponse)
	return nil
}

// GetDictionary returns the parsed dictionary
func (m *MCU) GetDictionary() *Dictionary {
	return m.dictionary
}

// GetDictionaryRaw returns the raw dictionary data
func (m *MCU) GetDictionaryRaw() []byte {
	return m.dictionaryData
}

// Send sends a command by name with its integer arguments in format order.
// It returns once the firmware has run the command and acknowledged it.
func (m *MCU) Send(name string, args ...uint32) error {
	if !m.connected {
		return ErrNotConnected
	}
	if m.commands == nil {
		return ErrNoDictionary
	}
	f, ok := m.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}
	encode, err := f.encode(args)
	if err != nil {
		return err
	}

	m.drain()
	m.log.Debug("command", "name", name, "args", args)
	if err := m.transport.SendCommandWithTimeout(f.id, encode, m.cfg.CommandTimeoutDuration()); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// Call sends a command and waits for the named response
func (m *MCU) Call(name, response string, args ...uint32) (Response, error) {
	if err := m.Send(name, args...); err != nil {
		return Response{}, err
	}
	return m.await(response, nil)
}

// await returns the first response called name. Other responses are passed
// to each when it is non-nil and logged otherwise.
func (m *MCU) await(name string, each func(Response) error) (Response, error) {
	timeout := m.cfg.ResponseTimeoutDuration()
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case resp := <-m.inbox:
			if resp.Name == name {
				return resp, nil
			}
			if each == nil {
				m.log.Warn("unexpected response", "want", name, "got", resp.Name)
				continue
			}
			if err := each(resp); err != nil {
				return resp, err
			}
		case <-timer.C:
			return Response{}, fmt.Errorf("%s: %w after %v", name, protocol.ErrResponseTimeout, timeout)
		}
	}
}

// drain drops responses left over from an earlier command
func (m *MCU) drain() {
	for {
		select {
		case resp := <-m.inbox:
			m.log.Debug("stale response", "name", resp.Name)
		default:
			return
		}
	}
}
