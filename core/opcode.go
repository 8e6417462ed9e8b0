package core

import "i2cstepper/protocol"

// OpcodeHandler runs the side effect of a command opcode.
// Handlers run inside the bus interrupt and must not block.
type OpcodeHandler func()

// Command is a registered opcode
type Command struct {
	Op      protocol.Opcode
	Name    string
	Handler OpcodeHandler
}

// OpcodeTable maps the first byte of a write transaction to its handler.
//
// Lookup is a plain array index so it is safe and constant-time from the
// bus interrupt. Registration happens once at init, before interrupts are
// enabled.
type OpcodeTable struct {
	commands [256]*Command
	count    int
}

// NewOpcodeTable creates an empty table
func NewOpcodeTable() *OpcodeTable {
	return &OpcodeTable{}
}

// Register binds op to handler. Returns false if op is already bound.
func (t *OpcodeTable) Register(op protocol.Opcode, handler OpcodeHandler) bool {
	if t.commands[op] != nil {
		return false
	}
	t.commands[op] = &Command{
		Op:      op,
		Name:    op.Name(),
		Handler: handler,
	}
	t.count++
	return true
}

// Lookup returns the command registered for op
func (t *OpcodeTable) Lookup(op protocol.Opcode) (*Command, bool) {
	cmd := t.commands[op]
	return cmd, cmd != nil
}

// Dispatch runs the handler for op. Returns false if op has no handler,
// in which case the byte is payload.
func (t *OpcodeTable) Dispatch(op protocol.Opcode) bool {
	cmd := t.commands[op]
	if cmd == nil {
		return false
	}
	if cmd.Handler != nil {
		cmd.Handler()
	}
	return true
}

// Count returns the number of registered opcodes
func (t *OpcodeTable) Count() int {
	return t.count
}

// Describe lists registered opcodes in ascending order, one per line:
//
//	0xa1 enable
func (t *OpcodeTable) Describe() string {
	dict := ""
	for i := range t.commands {
		if cmd := t.commands[i]; cmd != nil {
			dict += hex8(uint8(cmd.Op)) + " " + cmd.Name + "\n"
		}
	}
	return dict
}
