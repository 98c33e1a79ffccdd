// Package device implements the cycle-by-cycle SDRAM device model: the
// per-tick command decoder, burst state machine, CAS-latency-delayed
// data pipeline, and the device-wide timing watchdogs (tRRD, tRFC) that
// span banks. Every documented timing parameter is policed here or in
// the banks it owns; any violation is fatal, since the model exists so
// that controllers built against it cannot silently produce illegal
// waveforms.
package device

import (
	"fmt"

	"github.com/sdram-model/sdram64/bank"
	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/pins"
	"github.com/sdram-model/sdram64/watchdog"
)

// burstState tags the device-wide burst state machine.
type burstState int

const (
	burstIdle burstState = iota
	burstReading
	burstWriting
)

// Tracer is the subset of trace.Writer the device needs; kept as an
// interface here so device does not import trace, matching the
// teacher's style of small consumer-defined interfaces (cf. io.PortIn8).
type Tracer interface {
	Sample(io *pins.Io) error
}

// Device is the SDRAM device model. It owns all banks, the CAS-delay
// pipeline, the auto-refresh cursor, and the device-wide tRRD/tRFC
// watchdogs. The pin bundle is shared with the host for one cycle at a
// time; Device never retains a reference to it past Tick.
type Device struct {
	geom  geometry.Settings
	banks []*bank.Bank

	tRRD *watchdog.ForbidDuring
	tRFC *watchdog.ForbidDuring

	burst        burstState
	burstBank    int
	burstCounter int
	burstCol     int

	pipeline []*uint16 // length CASLatency-1

	refreshCursor int

	// lastActivateCycle is diagnostic only (surfaced in error messages);
	// it does not affect pass/fail of any assertion.
	lastActivateCycle []uint64
	cycle             uint64

	tracer Tracer
}

// New returns a device model sized and timed per geom, with every bank
// and row allocated up-front.
func New(geom geometry.Settings) *Device {
	d := &Device{
		geom:              geom,
		banks:             make([]*bank.Bank, geom.NumBanks()),
		tRRD:              watchdog.NewForbidDuring(geom.RRDCycles()),
		tRFC:              watchdog.NewForbidDuring(geom.RFCCycles()),
		pipeline:          make([]*uint16, geom.CASLatency-1),
		lastActivateCycle: make([]uint64, geom.NumBanks()),
	}
	for i := range d.banks {
		d.banks[i] = bank.New(geom)
	}
	return d
}

// SetTracer attaches a waveform tracer. Pass nil to disable tracing.
func (d *Device) SetTracer(t Tracer) { d.tracer = t }

// Tick advances the device by exactly one clock cycle: it samples io,
// asserts all timing constraints, mutates bank state, advances the
// burst state machine and the CAS pipeline, and writes io.DQOut for the
// host to sample next cycle.
func (d *Device) Tick(io *pins.Io) error {
	if io.BusConflict() {
		return fmt.Errorf("bus conflict: dq_in and dq_out both driven in the same cycle")
	}

	if d.tracer != nil {
		if err := d.tracer.Sample(io); err != nil {
			return err
		}
	}

	for i, b := range d.banks {
		if err := b.Tick(); err != nil {
			return fmt.Errorf("bank %d: %w", i, err)
		}
	}
	d.tRRD.Tick()
	d.tRFC.Tick()
	d.cycle++

	if err := d.decode(io); err != nil {
		return err
	}

	freshRead, err := d.stepBurst(io)
	if err != nil {
		return err
	}

	d.advancePipeline(io, freshRead)

	return nil
}

func (d *Device) decode(io *pins.Io) error {
	switch io.Command {
	case pins.Active:
		if d.tRRD.Armed() {
			return &watchdog.ViolationError{Parameter: "tRRD"}
		}
		if d.tRFC.Armed() {
			return &watchdog.ViolationError{Parameter: "tRFC"}
		}
		d.tRRD.Arm()
		b := int(io.Bank)
		if err := d.banks[b].Activate(int(io.Addr)); err != nil {
			return fmt.Errorf("bank %d: %w (last activated %d cycles ago)", b, err, d.cycle-d.lastActivateCycle[b])
		}
		d.lastActivateCycle[b] = d.cycle

	case pins.AutoRefresh:
		if d.tRFC.Armed() {
			return &watchdog.ViolationError{Parameter: "tRFC"}
		}
		d.tRFC.Arm()
		for _, b := range d.banks {
			if err := b.AutoRefresh(d.refreshCursor); err != nil {
				return err
			}
		}
		d.refreshCursor = (d.refreshCursor + 1) % d.geom.NumRows()

	case pins.Precharge:
		if d.tRFC.Armed() {
			return &watchdog.ViolationError{Parameter: "tRFC"}
		}
		if io.A10Set() {
			for i, b := range d.banks {
				if err := b.Precharge(); err != nil {
					return fmt.Errorf("bank %d: %w", i, err)
				}
			}
		} else {
			b := int(io.Bank)
			if err := d.banks[b].Precharge(); err != nil {
				return fmt.Errorf("bank %d: %w", b, err)
			}
		}

	case pins.Read:
		if d.tRFC.Armed() {
			return &watchdog.ViolationError{Parameter: "tRFC"}
		}
		d.burst = burstReading
		d.burstBank = int(io.Bank)
		d.burstCounter = 0
		d.burstCol = int(io.Addr) & (d.geom.NumCols() - 1)

	case pins.Write:
		if d.tRFC.Armed() {
			return &watchdog.ViolationError{Parameter: "tRFC"}
		}
		d.burst = burstWriting
		d.burstBank = int(io.Bank)
		d.burstCounter = 0
		d.burstCol = int(io.Addr) & (d.geom.NumCols() - 1)

	case pins.Nop:
		// no effect

	default:
		return fmt.Errorf("unknown command %v", io.Command)
	}
	return nil
}

// stepBurst executes one cycle of the current burst, returning the
// freshly read value (nil unless this cycle produced one) for the CAS
// pipeline to absorb.
func (d *Device) stepBurst(io *pins.Io) (*uint16, error) {
	switch d.burst {
	case burstReading:
		col := (d.burstCol + d.burstCounter) % d.geom.NumCols()
		v, err := d.banks[d.burstBank].Read(col)
		if err != nil {
			return nil, fmt.Errorf("bank %d: %w", d.burstBank, err)
		}
		d.burstCounter++
		if d.burstCounter == int(d.geom.BurstLen) {
			d.burst = burstIdle
		}
		return &v, nil

	case burstWriting:
		if io.DQIn == nil {
			return nil, fmt.Errorf("write burst requires dq_in to be driven")
		}
		col := (d.burstCol + d.burstCounter) % d.geom.NumCols()
		if err := d.banks[d.burstBank].Write(col, *io.DQIn); err != nil {
			return nil, fmt.Errorf("bank %d: %w", d.burstBank, err)
		}
		d.burstCounter++
		if d.burstCounter == int(d.geom.BurstLen) {
			d.burst = burstIdle
		}
		return nil, nil

	default:
		return nil, nil
	}
}

// advancePipeline shifts the CAS-delay pipeline by one stage, writes the
// oldest stage out to io.DQOut, and inserts freshRead at stage 0. It
// always writes io.DQOut, including on a WritingBurst tick; that is only
// safe because a write burst never leaves a pending read in the
// pipeline, so the written-out value is always nil (high-Z) in that case.
func (d *Device) advancePipeline(io *pins.Io, freshRead *uint16) {
	n := len(d.pipeline)
	if n == 0 {
		io.DQOut = freshRead
		return
	}
	io.DQOut = d.pipeline[n-1]
	for i := n - 1; i > 0; i-- {
		d.pipeline[i] = d.pipeline[i-1]
	}
	d.pipeline[0] = freshRead
}

// Banks exposes the underlying per-bank state for callers (tests, the
// tracer) that need direct inspection; the device never hands out a
// mutable view beyond this read path.
func (d *Device) Banks() []*bank.Bank { return d.banks }
