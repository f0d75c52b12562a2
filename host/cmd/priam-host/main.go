package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"priamsmart/host/config"
	"priamsmart/host/mcu"
	"priamsmart/host/serial"
)

var (
	configPath = flag.String("config", "", "JSON config file")
	device     = flag.String("device", "", "Serial device path (overrides config)")
	baud       = flag.Int("baud", 0, "Baud rate (ignored for USB CDC)")
	verbose    = flag.Bool("verbose", false, "Enable debug logging")
	listPorts  = flag.Bool("list", false, "List serial ports and exit")
	script     = flag.String("c", "", "Run one command line and exit")
)

func main() {
	flag.Parse()

	if *listPorts {
		ports, err := serial.ListPorts()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := config.LoadFile(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Device = *device
	}
	if *baud != 0 {
		cfg.Baud = *baud
	}
	if *verbose {
		cfg.LogLevel = "debug"
	}

	m := mcu.NewMCU(cfg, mcu.NewLogger(os.Stderr, cfg.Level()))

	fmt.Printf("Connecting to %s...\n", cfg.Device)
	if err := m.Connect(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to connect: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	if err := m.RetrieveDictionary(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to retrieve dictionary: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Connected: %s\n", m.GetDictionary().Version)

	sh := &shell{mcu: m, cfg: cfg}
	if *script != "" {
		if err := sh.run(*script); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Println("Enter commands (type 'help' for available commands, 'quit' to exit):")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" || line == "q" {
			return
		}
		if err := sh.run(line); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

type shell struct {
	mcu *mcu.MCU
	cfg *config.Config
}

// run executes one command line. Several commands may be joined with ';'.
func (s *shell) run(line string) error {
	for _, part := range strings.Split(line, ";") {
		args, err := shlex.Split(part)
		if err != nil {
			return err
		}
		if len(args) == 0 {
			continue
		}
		if err := s.exec(args[0], args[1:]); err != nil {
			return fmt.Errorf("%s: %w", args[0], err)
		}
	}
	return nil
}

func (s *shell) exec(cmd string, args []string) error {
	switch cmd {
	case "help", "?":
		printHelp()
		return nil
	case "dict":
		printDictionary(s.mcu.GetDictionary())
		return nil
	case "raw":
		raw := s.mcu.GetDictionaryRaw()
		fmt.Printf("Raw dictionary data (%d bytes):\n%s\n", len(raw), raw)
		return nil
	case "state":
		state, status, err := s.mcu.State()
		if err != nil {
			return err
		}
		fmt.Printf("state %s status %s\n", state, status)
		return nil
	case "reset":
		ms, err := optArg(args, 0, 0)
		if err != nil {
			return err
		}
		state, err := s.mcu.Reset(time.Duration(ms) * time.Millisecond)
		if err != nil {
			return err
		}
		fmt.Printf("state %s\n", state)
		return nil
	case "wait":
		w := s.cfg.WaitReady
		if len(args) > 0 {
			n, err := optArg(args, 0, w.MaxTries)
			if err != nil {
				return err
			}
			w.MaxTries = n
		}
		state, err := s.mcu.WaitReady(w)
		if err != nil {
			return err
		}
		fmt.Printf("state %s\n", state)
		return nil
	case "stats":
		st, err := s.mcu.Stats()
		if err != nil {
			return err
		}
		fmt.Printf("transactions %d faults %d data_bytes %d resets %d\n",
			st.Transactions, st.Faults, st.DataBytes, st.Resets)
		return nil
	}
	return s.execDrive(cmd, args)
}

func (s *shell) execDrive(cmd string, args []string) error {
	n, err := parseArgs(args)
	if err != nil {
		return err
	}
	arg := func(i int, def uint32) uint32 {
		if i < len(n) {
			return n[i]
		}
		return def
	}
	driveNo := uint8(arg(0, 0))

	switch cmd {
	case "spinup":
		st, err := s.mcu.SpinUp(driveNo, arg(1, 1) != 0)
		if err != nil {
			return err
		}
		return report(st.Raw(), st.Err())
	case "spindown":
		st, err := s.mcu.SpinDown(driveNo)
		if err != nil {
			return err
		}
		return report(st.Raw(), st.Err())
	case "params":
		p, st, err := s.mcu.ReadParams(driveNo)
		if err != nil {
			return err
		}
		if err := report(st.Raw(), st.Err()); err != nil {
			return err
		}
		fmt.Printf("heads %d cylinders %d sectors %d sector_size %d\n",
			p.Heads, p.Cylinders, p.SectorsPerTrack, p.SectorSize)
		return nil
	case "seek":
		if len(n) < 3 {
			return fmt.Errorf("usage: seek <drive> <head> <cylinder> [retry]")
		}
		cyl, st, err := s.mcu.Seek(driveNo, uint8(n[1]), uint16(n[2]), arg(3, 1) != 0)
		if err != nil {
			return err
		}
		if err := report(st.Raw(), st.Err()); err != nil {
			return err
		}
		fmt.Printf("cylinder %d\n", cyl)
		return nil
	case "verify":
		pos, st, err := s.mcu.Verify(driveNo)
		if err != nil {
			return err
		}
		if err := report(st.Raw(), st.Err()); err != nil {
			return err
		}
		fmt.Printf("head %d cylinder %d sector %d\n", pos.Head, pos.Cylinder, pos.Sector)
		return nil
	case "read":
		if len(n) < 4 {
			return fmt.Errorf("usage: read <drive> <head> <cylinder> <sector> [count] [retry]")
		}
		pos := mcu.Position{Head: uint8(n[1]), Cylinder: uint16(n[2]), Sector: uint8(n[3])}
		data, st, err := s.mcu.ReadData(driveNo, pos, uint8(arg(4, 1)), arg(5, 1) != 0)
		if err != nil {
			return err
		}
		hexDump(data)
		return report(st.Raw(), st.Err())
	}
	return fmt.Errorf("unknown command (type 'help' for available commands)")
}

func report(raw uint8, err error) error {
	fmt.Printf("status 0x%02X\n", raw)
	return err
}

func parseArgs(args []string) ([]uint32, error) {
	out := make([]uint32, len(args))
	for i, a := range args {
		v, err := strconv.ParseUint(a, 0, 32)
		if err != nil {
			return nil, fmt.Errorf("bad number %q", a)
		}
		out[i] = uint32(v)
	}
	return out, nil
}

func optArg(args []string, i int, def uint32) (uint32, error) {
	if i >= len(args) {
		return def, nil
	}
	n, err := parseArgs(args[i : i+1])
	if err != nil {
		return 0, err
	}
	return n[0], nil
}

func hexDump(data []byte) {
	for off := 0; off < len(data); off += 16 {
		end := min(off+16, len(data))
		fmt.Printf("%04x  % x\n", off, data[off:end])
	}
}

func printDictionary(d *mcu.Dictionary) {
	if d == nil {
		fmt.Println("No dictionary loaded")
		return
	}
	fmt.Printf("Version: %s\nBuild: %s\n", d.Version, d.BuildVersions)
	fmt.Println("Config:")
	for k, v := range d.Config {
		fmt.Printf("  %s = %s\n", k, v)
	}
	fmt.Printf("Commands (%d):\n", len(d.Commands))
	for name, id := range d.Commands {
		fmt.Printf("  [%d] %s\n", id, name)
	}
	fmt.Printf("Responses (%d):\n", len(d.Responses))
	for name, id := range d.Responses {
		fmt.Printf("  [%d] %s\n", id, name)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  help                                  - Show this help message")
	fmt.Println("  dict | raw                            - Print the MCU dictionary")
	fmt.Println("  state                                 - Interface state and status register")
	fmt.Println("  reset [pulse_ms]                      - Pulse the interface reset line")
	fmt.Println("  wait [max_tries]                      - Wait for the interface to become ready")
	fmt.Println("  stats                                 - Interface counters")
	fmt.Println("  spinup <drive> [wait]                 - Spin up a drive")
	fmt.Println("  spindown <drive>                      - Spin down a drive")
	fmt.Println("  params <drive>                        - Read drive parameters")
	fmt.Println("  seek <drive> <head> <cyl> [retry]     - Seek")
	fmt.Println("  verify <drive>                        - Verify the disk")
	fmt.Println("  read <drive> <head> <cyl> <sector> [count] [retry]")
	fmt.Println("                                        - Read sectors and hex dump them")
	fmt.Println("  quit/exit/q                           - Exit the program")
	fmt.Println("Commands can be chained with ';'.")
	fmt.Println()
}
