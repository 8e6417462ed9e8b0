package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// ErrNotEvent is returned by ParseEvent for lines that are not event records
var ErrNotEvent = errors.New("not an event record")

const eventPrefix = "[EVT] "

// Event is one decoded event record:
//
//	[EVT] STEP clock=1234 v1=4 v2=0x03
type Event struct {
	Name   string
	Clock  uint32
	Value1 uint32
	Value2 uint32
}

func (e Event) String() string {
	return fmt.Sprintf("%-10s clock=%d v1=%d v2=0x%X", e.Name, e.Clock, e.Value1, e.Value2)
}

// ParseEvent decodes an event record line
func ParseEvent(line string) (Event, error) {
	line = strings.TrimRight(line, "\r\n")
	if !strings.HasPrefix(line, eventPrefix) {
		return Event{}, ErrNotEvent
	}

	fields := strings.Fields(line[len(eventPrefix):])
	if len(fields) != 4 {
		return Event{}, fmt.Errorf("%w: %d fields in %q", ErrNotEvent, len(fields), line)
	}

	evt := Event{Name: fields[0]}
	for _, f := range fields[1:] {
		key, val, ok := strings.Cut(f, "=")
		if !ok {
			return Event{}, fmt.Errorf("%w: bad field %q", ErrNotEvent, f)
		}
		// Base 0 accepts both the decimal and 0x forms the firmware prints
		n, err := strconv.ParseUint(val, 0, 32)
		if err != nil {
			return Event{}, fmt.Errorf("%w: %s: %w", ErrNotEvent, key, err)
		}
		switch key {
		case "clock":
			evt.Clock = uint32(n)
		case "v1":
			evt.Value1 = uint32(n)
		case "v2":
			evt.Value2 = uint32(n)
		default:
			return Event{}, fmt.Errorf("%w: unknown field %q", ErrNotEvent, key)
		}
	}
	return evt, nil
}

// Console reads newline-terminated records from a Port
type Console struct {
	port Port
	r    *bufio.Reader

	// Follow treats end of input as a read timeout and keeps reading, as
	// on a serial port. Otherwise end of input ends Lines.
	Follow bool
}

// New wraps port
func New(port Port) *Console {
	return &Console{
		port: port,
		r:    bufio.NewReader(port),
	}
}

// Close closes the underlying port
func (c *Console) Close() error {
	return c.port.Close()
}

// Lines calls fn for every non-empty line received until ctx is done, the
// input ends or fn returns an error
func (c *Console) Lines(ctx context.Context, fn func(line string) error) error {
	var partial strings.Builder
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		chunk, err := c.r.ReadString('\n')
		partial.WriteString(chunk)

		switch {
		case err == nil:
		case errors.Is(err, io.EOF) && c.Follow:
			continue
		case errors.Is(err, io.EOF):
			if partial.Len() == 0 {
				return nil
			}
		default:
			return err
		}

		line := strings.TrimRight(partial.String(), "\r\n")
		partial.Reset()
		if line != "" {
			if err := fn(line); err != nil {
				return err
			}
		}
	}
}

// Events is Lines restricted to event records. Other output is passed to
// other when it is non-nil.
func (c *Console) Events(ctx context.Context, fn func(Event) error, other func(string)) error {
	return c.Lines(ctx, func(line string) error {
		evt, err := ParseEvent(line)
		if err != nil {
			if other != nil {
				other(line)
			}
			return nil
		}
		return fn(evt)
	})
}
