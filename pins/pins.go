// Package pins defines the bidirectional pin bundle (Io) shared between
// the host controller and the device model for exactly one clock cycle
// at a time: the host sets the input-direction fields before calling the
// device's tick, and reads the output-direction fields afterwards.
package pins

import (
	"periph.io/x/conn/v3/gpio"
)

// Command is the command pins' decoded value.
type Command int

const (
	Nop Command = iota
	Active
	AutoRefresh
	Precharge
	Read
	Write
)

var commandNames = map[Command]string{
	Nop:         "NOP",
	Active:      "ACTIVE",
	AutoRefresh: "AUTO_REFRESH",
	Precharge:   "PRECHARGE",
	Read:        "READ",
	Write:       "WRITE",
}

// String renders the command the way the waveform tracer emits it on
// the "command" signal.
func (c Command) String() string {
	if s, ok := commandNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

// Io is the pin bundle carried between host and device each cycle.
// DQIn and DQOut are pointers so that "not driven this cycle" can be
// represented as nil, matching the chip's high-impedance bus state.
type Io struct {
	Command Command

	// LDQM/UDQM are the byte-mask pins. Present in the pin list per the
	// geometry but, per spec, not enforced against read/write data.
	LDQM gpio.Level
	UDQM gpio.Level

	Bank uint8 // 0..NumBanks()-1

	// Addr carries the row address on Active, the column address in its
	// low ColAddrBits bits on Read/Write, and the A10 all-banks flag on
	// Precharge.
	Addr uint16

	DQIn  *uint16 // host -> device, valid during write bursts
	DQOut *uint16 // device -> host, valid during read bursts
}

// A10Set reports whether bit 10 of Addr is set (the all-banks precharge
// flag).
func (io *Io) A10Set() bool {
	return io.Addr&(1<<10) != 0
}

// BusConflict reports whether both DQIn and DQOut are driven this cycle,
// which is never legal.
func (io *Io) BusConflict() bool {
	return io.DQIn != nil && io.DQOut != nil
}
