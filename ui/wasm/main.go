//go:build js && wasm

package main

import (
	"encoding/hex"
	"syscall/js"

	"i2cstepper/protocol"
)

func main() {
	// Export functions to JavaScript
	js.Global().Set("i2cstepperWasm", js.ValueOf(map[string]interface{}{
		"encodeMove":  js.FuncOf(encodeMoveWrapper),
		"decodeBlock": js.FuncOf(decodeBlockWrapper),
		"decodeSteps": js.FuncOf(decodeStepsWrapper),
		"opcodes":     js.FuncOf(opcodesWrapper),
		"version":     protocol.Version,
	}))

	// Keep the program running
	select {}
}

// encodeMoveWrapper encodes a staged block
// Args: period (number), steps (number), ccw (bool), hold (bool)
// Returns: {hex: string, error: string}
func encodeMoveWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return makeEncodeResult("", "missing period or steps argument")
	}

	if args[0].Type() != js.TypeNumber || args[1].Type() != js.TypeNumber {
		return makeEncodeResult("", "period and steps must be numbers")
	}
	period, err := protocol.WordFromFloat(args[0].Float())
	if err != nil {
		return makeEncodeResult("", "period: "+err.Error())
	}
	steps, err := protocol.WordFromFloat(args[1].Float())
	if err != nil {
		return makeEncodeResult("", "steps: "+err.Error())
	}

	blk := protocol.Block{Period: period, Steps: steps}
	if len(args) > 2 && args[2].Truthy() {
		blk.Control.Direction = protocol.CounterClockwise
	}
	if len(args) > 3 {
		blk.Control.Hold = args[3].Truthy()
	}

	if err := protocol.ValidateStage(blk); err != nil {
		return makeEncodeResult("", err.Error())
	}
	data, _ := blk.MarshalBinary()
	return makeEncodeResult(hex.EncodeToString(data), "")
}

// decodeBlockWrapper decodes a staged block
// Args: hexString (string)
// Returns: {period, steps, modeIndex, direction, hold, error}
func decodeBlockWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf(map[string]interface{}{"error": "missing hex string argument"})
	}

	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": "invalid hex string: " + err.Error()})
	}

	var blk protocol.Block
	if err := blk.UnmarshalBinary(data); err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}

	return js.ValueOf(map[string]interface{}{
		"period":    int(blk.Period),
		"steps":     int(blk.Steps),
		"modeIndex": int(blk.Control.ModeIndex),
		"direction": blk.Control.Direction.String(),
		"hold":      blk.Control.Hold,
		"error":     "",
	})
}

// decodeStepsWrapper decodes a read-steps response
// Args: hexString (string)
// Returns: {value: number, error: string}
func decodeStepsWrapper(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return makeStepsResult(0, "missing hex string argument")
	}

	data, err := hex.DecodeString(args[0].String())
	if err != nil {
		return makeStepsResult(0, "invalid hex string: "+err.Error())
	}

	n, err := protocol.DecodeSteps(data)
	if err != nil {
		return makeStepsResult(0, err.Error())
	}
	return makeStepsResult(int(n), "")
}

// opcodesWrapper lists the named opcodes
// Returns: [{code: number, name: string, handled: bool}]
func opcodesWrapper(this js.Value, args []js.Value) interface{} {
	list := []interface{}{}
	for op := 0; op < 256; op++ {
		o := protocol.Opcode(op)
		if o.Name() == "payload" {
			continue
		}
		list = append(list, map[string]interface{}{
			"code":    op,
			"name":    o.Name(),
			"handled": protocol.IsHandled(o),
		})
	}
	return js.ValueOf(list)
}

func makeEncodeResult(hexStr string, errMsg string) js.Value {
	return js.ValueOf(map[string]interface{}{
		"hex":   hexStr,
		"error": errMsg,
	})
}

func makeStepsResult(value int, errMsg string) js.Value {
	return js.ValueOf(map[string]interface{}{
		"value": value,
		"error": errMsg,
	})
}
