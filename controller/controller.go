// Package controller implements the host-side driver that decomposes a
// word-sized Read/Write request into the precise sequence of pin-level
// commands and inter-command NOP padding the device's timing parameters
// require, tracking total cycle cost as it goes.
package controller

import (
	"fmt"

	"github.com/sdram-model/sdram64/device"
	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/pins"
	"github.com/sdram-model/sdram64/word128"
)

// Command is a Read or Write request. Exactly one of Data (for Write)
// matters; Read requests ignore it.
type Command struct {
	Write bool
	Addr  uint32
	Data  word128.Word
}

// Controller drives a device.Device through the cycle-exact command
// sequences spec'd for Read and Write, one request at a time. It is
// single-threaded and owns the bus exclusively: no arbitration with
// other clients is modeled.
type Controller struct {
	geom geometry.Settings
	dev  *device.Device
}

// New returns a controller driving dev, using geom for address
// decomposition and timing cycle counts. dev and geom must describe the
// same part.
func New(dev *device.Device, geom geometry.Settings) *Controller {
	return &Controller{geom: geom, dev: dev}
}

// Execute runs cmd to completion, returning the read data (nil for
// writes) and the total number of cycles consumed.
func (c *Controller) Execute(cmd Command) (*word128.Word, uint64, error) {
	elementAddr := cmd.Addr << c.geom.NumBurstAddrBits()
	bankAddr, rowAddr, colAddr := c.geom.Decompose(elementAddr)

	var cycles uint64

	tick := func(io *pins.Io) error {
		if err := c.dev.Tick(io); err != nil {
			return err
		}
		cycles++
		return nil
	}

	// Active, then pad to tRCD.
	if err := tick(&pins.Io{Command: pins.Active, Bank: uint8(bankAddr), Addr: uint16(rowAddr)}); err != nil {
		return nil, cycles, err
	}
	for i := 1; i < c.geom.RCDCycles(); i++ {
		if err := tick(&pins.Io{Command: pins.Nop}); err != nil {
			return nil, cycles, err
		}
	}

	if cmd.Write {
		return c.executeWrite(bankAddr, colAddr, cmd.Data, cycles, tick)
	}
	return c.executeRead(bankAddr, colAddr, cycles, tick)
}

func (c *Controller) executeWrite(bankAddr, colAddr uint32, data word128.Word, cycles uint64, tick func(*pins.Io) error) (*word128.Word, uint64, error) {
	lanes := data.Lanes()

	for i := 0; i < int(c.geom.BurstLen); i++ {
		lane := lanes[i]
		io := &pins.Io{Bank: uint8(bankAddr), DQIn: &lane}
		if i == 0 {
			io.Command = pins.Write
			io.Addr = uint16(colAddr)
		} else {
			io.Command = pins.Nop
		}
		if err := tick(io); err != nil {
			return nil, cycles, err
		}
	}

	for i := 1; i < c.geom.WRCycles(); i++ {
		if err := tick(&pins.Io{Command: pins.Nop}); err != nil {
			return nil, cycles, err
		}
	}

	if err := tick(&pins.Io{Command: pins.Precharge, Bank: uint8(bankAddr)}); err != nil {
		return nil, cycles, err
	}
	for i := 1; i < c.geom.RPCycles(); i++ {
		if err := tick(&pins.Io{Command: pins.Nop}); err != nil {
			return nil, cycles, err
		}
	}

	return nil, cycles, nil
}

func (c *Controller) executeRead(bankAddr, colAddr uint32, cycles uint64, tick func(*pins.Io) error) (*word128.Word, uint64, error) {
	if err := tick(&pins.Io{Command: pins.Read, Bank: uint8(bankAddr), Addr: uint16(colAddr)}); err != nil {
		return nil, cycles, err
	}
	// The device samples the first burst element the same cycle the
	// Read command is issued (the device's same-cycle tie-break) and
	// the CAS pipeline is CASLatency-1 stages deep, so the first valid
	// element reaches dq_out on the tick CASLatency-1 ticks after the
	// Read command's own tick, leaving CASLatency-2 Nop ticks between them.
	padNops := int(c.geom.CASLatency) - 2
	for i := 0; i < padNops; i++ {
		if err := tick(&pins.Io{Command: pins.Nop}); err != nil {
			return nil, cycles, err
		}
	}

	var lanes [8]uint16
	for i := 0; i < int(c.geom.BurstLen); i++ {
		io := &pins.Io{Command: pins.Nop}
		if err := tick(io); err != nil {
			return nil, cycles, err
		}
		if io.DQOut == nil {
			return nil, cycles, fmt.Errorf("expected read data on lane %d but dq_out was not driven", i)
		}
		lanes[i] = *io.DQOut
	}

	if err := tick(&pins.Io{Command: pins.Precharge, Bank: uint8(bankAddr)}); err != nil {
		return nil, cycles, err
	}
	for i := 1; i < c.geom.RPCycles(); i++ {
		if err := tick(&pins.Io{Command: pins.Nop}); err != nil {
			return nil, cycles, err
		}
	}

	w := word128.FromLanes(lanes)
	return &w, cycles, nil
}
