package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"time"

	"i2cstepper/host/config"
	"i2cstepper/host/console"
	"i2cstepper/host/stepdev"
	"i2cstepper/protocol"
)

// errNeedsBus reports that a command must run against real hardware
var errNeedsBus = errors.New("command needs the I2C bus")

// handler runs commands against one controller
type handler struct {
	dev     *stepdev.Dev
	profile *config.Profile
	motor   config.MotorConfig
}

// moveArgs are the flags shared by move, stage and simulate
type moveArgs struct {
	steps    uint
	interval time.Duration
	ccw      bool
	hold     bool
	wait     bool
}

func parseMove(name string, motor config.MotorConfig, args []string) (*moveArgs, error) {
	interval, err := motor.Interval()
	if err != nil {
		return nil, err
	}

	m := &moveArgs{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.UintVar(&m.steps, "steps", uint(motor.StepsPerRev), "Number of steps")
	fs.DurationVar(&m.interval, "interval", interval, "Time between steps")
	fs.BoolVar(&m.ccw, "ccw", false, "Rotate counter-clockwise")
	fs.BoolVar(&m.hold, "hold", motor.Hold, "Keep the coils energized afterwards")
	fs.BoolVar(&m.wait, "wait", false, "Wait for the move to complete")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *moveArgs) direction() protocol.Direction {
	if m.ccw {
		return protocol.CounterClockwise
	}
	return protocol.Clockwise
}

// runOffline runs the commands that need no bus. It returns errNeedsBus for
// every other command.
func runOffline(ctx context.Context, profile *config.Profile, args []string) error {
	switch args[0] {
	case "help":
		printHelp()
		return nil
	case "opcodes":
		printOpcodes()
		return nil
	case "monitor":
		return monitor(ctx, profile)
	case "simulate":
		m, err := parseMove("simulate", profile.Motors[*motorName], args[1:])
		if err != nil {
			return err
		}
		return simulate(m)
	}
	return errNeedsBus
}

func (h *handler) run(ctx context.Context, args []string) error {
	if err := runOffline(ctx, h.profile, args); err != errNeedsBus {
		return err
	}

	switch args[0] {
	case "move", "stage":
		m, err := parseMove(args[0], h.motor, args[1:])
		if err != nil {
			return err
		}
		return h.move(args[0] == "move", m)

	case "begin":
		return h.dev.Begin()

	case "pause":
		return h.dev.Pause()

	case "resume":
		return h.dev.Resume()

	case "enable":
		return h.dev.Enable()

	case "disable":
		return h.dev.Disable()

	case "steps":
		n, err := h.dev.StepsRemaining()
		if err != nil {
			return fmt.Errorf("failed to read steps: %w", err)
		}
		fmt.Printf("%d steps remaining\n", n)
		return nil
	}

	return fmt.Errorf("unknown command: %s (type 'help' for available commands)", args[0])
}

func (h *handler) move(begin bool, m *moveArgs) error {
	period, err := h.dev.Period(m.interval)
	if err != nil {
		return err
	}
	mv := stepdev.Move{
		Period:    period,
		Steps:     uint32(m.steps),
		Direction: m.direction(),
		Hold:      m.hold,
	}

	if *verbose {
		fmt.Printf("Staging %d steps %s, period %d ticks, hold=%v\n", mv.Steps, mv.Direction, mv.Period, mv.Hold)
	}
	if !begin {
		return h.dev.Stage(mv)
	}
	if err := h.dev.Move(mv); err != nil {
		return err
	}
	if !m.wait {
		return nil
	}

	total := m.interval * time.Duration(m.steps)
	if err := h.dev.Wait(50*time.Millisecond, total+time.Second); err != nil {
		return err
	}
	fmt.Println("Move complete")
	return nil
}

func printOpcodes() {
	for op := 0; op < 256; op++ {
		o := protocol.Opcode(op)
		if o.Name() == "payload" {
			continue
		}
		state := "handled"
		if !protocol.IsHandled(o) {
			state = "reserved"
		}
		fmt.Printf("  0x%02X  %-14s %s\n", op, o.Name(), state)
	}
}

// monitor prints the firmware debug console until interrupted
func monitor(ctx context.Context, profile *config.Profile) error {
	cfg := console.DefaultConfig(profile.Console.Device)
	cfg.Baud = profile.Console.Baud
	cfg.ReadTimeout = profile.Console.ReadTimeoutMS

	port, err := console.Open(cfg)
	if err != nil {
		return err
	}
	c := console.New(port)
	c.Follow = true
	defer c.Close()

	fmt.Printf("Monitoring %s at %d baud (Ctrl-C to stop)\n", cfg.Device, cfg.Baud)
	err = c.Events(ctx, func(e console.Event) error {
		fmt.Println(e)
		return nil
	}, func(line string) {
		if *verbose {
			fmt.Println(line)
		}
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
