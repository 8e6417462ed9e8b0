package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/host/v3"

	"i2cstepper/host/config"
	"i2cstepper/host/stepdev"
	"i2cstepper/protocol"
)

var (
	configPath = flag.String("config", "", "JSON profile (defaults apply when empty)")
	busName    = flag.String("bus", "", "I2C bus name, overrides the profile")
	addr       = flag.Uint("addr", 0, "7-bit controller address, overrides the motor's")
	motorName  = flag.String("motor", "default", "Motor name in the profile")
	device     = flag.String("device", "", "Debug console serial device, overrides the profile")
	verbose    = flag.Bool("verbose", false, "Enable verbose output")
)

func main() {
	flag.Usage = usage
	flag.Parse()

	profile, err := loadProfile()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	args := flag.Args()
	if len(args) > 0 {
		if err := runOffline(ctx, profile, args); err != errNeedsBus {
			exitOn(err)
			return
		}
	}

	bus, dev, err := connect(profile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer bus.Close()

	h := &handler{dev: dev, profile: profile, motor: profile.Motors[*motorName]}
	if len(args) > 0 {
		exitOn(h.run(ctx, args))
		return
	}

	interactive(ctx, h)
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: stepper-host [flags] [command [args]]\n\n")
	fmt.Fprintf(os.Stderr, "Without a command an interactive prompt is started.\n\n")
	printHelp()
	fmt.Fprintf(os.Stderr, "Flags:\n")
	flag.PrintDefaults()
}

func exitOn(err error) {
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadProfile() (*config.Profile, error) {
	profile := config.DefaultProfile()
	if *configPath != "" {
		var err error
		if profile, err = config.LoadFile(*configPath); err != nil {
			return nil, err
		}
	}

	if *busName != "" {
		profile.Bus = *busName
	}
	if *device != "" {
		profile.Console.Device = *device
	}

	m, ok := profile.Motors[*motorName]
	if !ok {
		return nil, fmt.Errorf("motor %q not in profile", *motorName)
	}
	if *addr != 0 {
		m.Address = uint16(*addr)
		profile.Motors[*motorName] = m
		if err := profile.Validate(); err != nil {
			return nil, err
		}
	}
	return profile, nil
}

// connect opens the I2C bus and the selected controller
func connect(profile *config.Profile) (i2c.BusCloser, *stepdev.Dev, error) {
	if _, err := host.Init(); err != nil {
		return nil, nil, fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(profile.Bus)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open I²C: %w", err)
	}

	m := profile.Motors[*motorName]
	if *verbose {
		fmt.Printf("Connecting to controller 0x%02X on %s...\n", m.Address, bus)
	}
	dev, err := stepdev.NewI2C(bus, m.Address)
	if err != nil {
		bus.Close()
		return nil, nil, err
	}
	if err := dev.SetTickRate(profile.TickRate()); err != nil {
		bus.Close()
		return nil, nil, err
	}
	if *verbose {
		fmt.Printf("Connected to %s (protocol %s)\n", dev, protocol.Version)
	}
	return bus, dev, nil
}

func interactive(ctx context.Context, h *handler) {
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

		parts := strings.Fields(line)
		switch parts[0] {
		case "quit", "exit", "q":
			fmt.Println("Goodbye!")
			return
		case "help", "?":
			printHelp()
			continue
		}

		if err := h.run(ctx, parts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		os.Exit(1)
	}
}

func printHelp() {
	fmt.Println("\nAvailable commands:")
	fmt.Println("  move [-steps N] [-interval D] [-ccw] [-hold] [-wait]")
	fmt.Println("                 - Stage a move and begin it")
	fmt.Println("  stage ...      - Stage a move without starting it (same flags)")
	fmt.Println("  begin          - Start the staged move")
	fmt.Println("  pause          - Stop stepping, keep the remaining count")
	fmt.Println("  resume         - Continue a paused move")
	fmt.Println("  enable         - Energize the driver")
	fmt.Println("  disable        - De-energize the driver")
	fmt.Println("  steps          - Read the remaining step count")
	fmt.Println("  monitor        - Print the firmware debug console")
	fmt.Println("  simulate ...   - Run a move on the simulated controller (move flags)")
	fmt.Println("  opcodes        - List the bus opcodes")
	fmt.Println("  quit/exit/q    - Exit the program")
	fmt.Println()
}
