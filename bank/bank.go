// Package bank implements one SDRAM bank: its row array, active-row
// register, and the per-bank timing watchdogs (tRAS, tRC, tRCD, tRP,
// tWR) that police activate/read/write/precharge against it. A row's own
// tREF watchdog lives alongside the row's column storage, since a row's
// refresh deadline is a property of that row, not of the bank as a whole.
package bank

import (
	"fmt"

	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/watchdog"
)

// row is one addressable row of geom.NumCols() 16-bit elements plus the
// tREF watchdog that fires if the row goes too long without a refresh.
type row struct {
	cols []uint16
	ref  *watchdog.MaxInterval
}

func newRow(geom geometry.Settings) *row {
	return &row{
		cols: make([]uint16, geom.NumCols()),
		ref:  watchdog.NewMaxInterval(geom.RefreshCycles()),
	}
}

// Bank holds NUM_ROWS rows, an optional active-row index (nil when
// idle/precharged) and the timing watchdogs that guard transitions into
// and out of the active state.
type Bank struct {
	geom geometry.Settings

	rows      []*row
	activeRow *int

	tRAS    *watchdog.MinBefore
	tRASMax *watchdog.MaxInterval
	tRC     *watchdog.ForbidDuring
	tRCD    *watchdog.ForbidDuring
	tRP     *watchdog.ForbidDuring
	tWR     *watchdog.MinBefore
}

// New returns an idle bank sized per geom, with all rows allocated
// up-front (no later resizing; the device's entire address space is
// committed at construction).
func New(geom geometry.Settings) *Bank {
	b := &Bank{
		geom:    geom,
		rows:    make([]*row, geom.NumRows()),
		tRAS:    watchdog.NewMinBefore(geom.RASMinCycles()),
		tRASMax: watchdog.NewMaxInterval(geom.RASMaxCycles()),
		tRC:     watchdog.NewForbidDuring(geom.RCCycles()),
		tRCD:    watchdog.NewForbidDuring(geom.RCDCycles()),
		tRP:     watchdog.NewForbidDuring(geom.RPCycles()),
		tWR:     watchdog.NewMinBefore(geom.WRCycles()),
	}
	for i := range b.rows {
		b.rows[i] = newRow(geom)
	}
	return b
}

// ActiveRow returns the currently active row index and whether one is
// active.
func (b *Bank) ActiveRow() (int, bool) {
	if b.activeRow == nil {
		return 0, false
	}
	return *b.activeRow, true
}

// Activate opens rowAddr into the bank's sense amplifiers. Fails if a
// row is already active, if tRC forbids a new activate (two activates
// in the same bank within tRC), or if tRP forbids it (precharge not yet
// settled).
func (b *Bank) Activate(rowAddr int) error {
	if b.activeRow != nil {
		return fmt.Errorf("attempted to activate a row in a bank which already has an active row")
	}
	if b.tRC.Armed() {
		return &watchdog.ViolationError{Parameter: "tRC"}
	}
	if b.tRP.Armed() {
		return &watchdog.ViolationError{Parameter: "tRP"}
	}
	r := rowAddr
	b.activeRow = &r
	b.tRAS.Arm()
	b.tRASMax.Arm()
	b.tRC.Arm()
	b.tRCD.Arm()
	b.rows[rowAddr].ref.Arm()
	return nil
}

// Precharge returns the bank to idle. Idempotent when no row is active.
// Fails if tRAS_min or tWR have not yet been satisfied.
func (b *Bank) Precharge() error {
	if b.activeRow == nil {
		return nil
	}
	if !b.tRAS.Check() {
		return &watchdog.ViolationError{Parameter: "tRAS min"}
	}
	if !b.tWR.Check() {
		return &watchdog.ViolationError{Parameter: "tWR"}
	}
	b.tRP.Arm()
	b.tRASMax.Disarm()
	b.activeRow = nil
	return nil
}

// Read returns the value stored at colAddr in the active row. Fails if
// no row is active or if tRCD/tRP forbid access.
func (b *Bank) Read(colAddr int) (uint16, error) {
	if err := b.checkAccess(); err != nil {
		return 0, err
	}
	return b.rows[*b.activeRow].cols[colAddr], nil
}

// Write stores data at colAddr in the active row and arms tWR. Fails if
// no row is active or if tRCD/tRP forbid access.
func (b *Bank) Write(colAddr int, data uint16) error {
	if err := b.checkAccess(); err != nil {
		return err
	}
	b.rows[*b.activeRow].cols[colAddr] = data
	b.tWR.Arm()
	return nil
}

func (b *Bank) checkAccess() error {
	if b.tRCD.Armed() {
		return &watchdog.ViolationError{Parameter: "tRCD"}
	}
	if b.tRP.Armed() {
		return &watchdog.ViolationError{Parameter: "tRP"}
	}
	if b.activeRow == nil {
		return fmt.Errorf("attempted to read/write a bank with no active row")
	}
	return nil
}

// AutoRefresh resets rowAddr's tREF watchdog. Fails if any row in the
// bank is currently active: auto-refresh requires the whole bank (in
// fact, per the device-level contract, all banks) to be idle first.
func (b *Bank) AutoRefresh(rowAddr int) error {
	if b.activeRow != nil {
		return fmt.Errorf("attempted to auto-refresh a bank with an active row")
	}
	b.rows[rowAddr].ref.Arm()
	return nil
}

// Tick advances every watchdog owned by the bank, including every row's
// tREF watchdog, and returns an error if the currently active row's
// tRAS_max has been exceeded or if any row's tREF has expired.
func (b *Bank) Tick() error {
	b.tRAS.Tick()
	b.tRC.Tick()
	b.tRCD.Tick()
	b.tRP.Tick()
	b.tWR.Tick()

	if b.tRASMax.Tick() {
		return &watchdog.ViolationError{Parameter: "tRAS max"}
	}

	for _, r := range b.rows {
		if r.ref.Tick() {
			return &watchdog.ViolationError{Parameter: "tREF"}
		}
	}
	return nil
}
