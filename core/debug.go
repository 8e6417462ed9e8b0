package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

// Event records a firmware event for post-mortem analysis
type Event struct {
	Type   uint8  // Event type code
	Clock  uint32 // System clock at event
	Value1 uint32 // Context-dependent value
	Value2 uint32 // Context-dependent value
}

// Event type codes
const (
	EvtStep      = 1  // Step taken (v1=steps left, v2=next mode index)
	EvtComplete  = 2  // Step counter reached zero (v1=total steps, v2=hold)
	EvtCommit    = 3  // Staged block committed (v1=period, v2=steps)
	EvtBeginNoop = 4  // Begin with zero staged steps
	EvtPause     = 5  // Timer paused (v1=steps left)
	EvtResume    = 6  // Timer resumed (v1=steps left)
	EvtEnable    = 7  // Driver enabled
	EvtDisable   = 8  // Driver disabled
	EvtAddrNack  = 9  // Address mismatch (v1=address byte)
	EvtReadNack  = 10 // Master NACKed a telemetry byte (v1=bytes sent)
	EvtReadArmed = 11 // Read-steps request armed
	EvtTrap      = 12 // Spurious interrupt (v1=source)
)

// EventRingSize is the number of events kept
const EventRingSize = 32

var (
	// debugPrintln is the global debug print function (set by target code)
	debugPrintln DebugWriter = func(s string) {}

	// debugEnabled controls whether DebugPrintln produces output
	debugEnabled bool = false

	// Event ring, written from interrupt context without allocation
	eventRing     [EventRingSize]Event
	eventRingHead uint8
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message using the platform-specific writer.
// Never call from interrupt context; record an event instead.
func DebugPrintln(msg string) {
	if debugEnabled && debugPrintln != nil {
		debugPrintln(msg)
	}
}

// RecordEvent stores an event in the ring buffer
func RecordEvent(eventType uint8, clock, value1, value2 uint32) {
	idx := eventRingHead
	eventRing[idx] = Event{
		Type:   eventType,
		Clock:  clock,
		Value1: value1,
		Value2: value2,
	}
	eventRingHead = (idx + 1) % EventRingSize
}

// Events returns the recorded events, oldest first
func Events() []Event {
	out := make([]Event, 0, EventRingSize)
	start := eventRingHead
	for i := uint8(0); i < EventRingSize; i++ {
		evt := eventRing[(start+i)%EventRingSize]
		if evt.Type == 0 {
			continue
		}
		out = append(out, evt)
	}
	return out
}

// EventName returns the name used for an event type in debug output
func EventName(eventType uint8) string {
	switch eventType {
	case EvtStep:
		return "STEP"
	case EvtComplete:
		return "COMPLETE"
	case EvtCommit:
		return "COMMIT"
	case EvtBeginNoop:
		return "BEGIN_NOOP"
	case EvtPause:
		return "PAUSE"
	case EvtResume:
		return "RESUME"
	case EvtEnable:
		return "ENABLE"
	case EvtDisable:
		return "DISABLE"
	case EvtAddrNack:
		return "ADDR_NACK"
	case EvtReadNack:
		return "READ_NACK"
	case EvtReadArmed:
		return "READ_ARMED"
	case EvtTrap:
		return "TRAP"
	}
	return "UNKNOWN"
}

// FormatEvent renders an event as one debug line:
//
//	[EVT] STEP clock=1234 v1=4 v2=0x03
func FormatEvent(evt Event) string {
	return "[EVT] " + EventName(evt.Type) +
		" clock=" + utoa(evt.Clock) +
		" v1=" + utoa(evt.Value1) +
		" v2=" + hex32(evt.Value2)
}

// DumpEvents writes every recorded event, oldest first, then clears the
// ring. Called from the main loop, never from an interrupt.
func DumpEvents() {
	if debugPrintln == nil {
		return
	}
	for _, evt := range Events() {
		debugPrintln(FormatEvent(evt))
	}
	ClearEvents()
}

// ClearEvents clears the event ring
func ClearEvents() {
	for i := range eventRing {
		eventRing[i] = Event{}
	}
	eventRingHead = 0
}
