// Package watchdog implements the minimal timing state machines that
// back every SDRAM timing parameter (tRCD, tRP, tRAS, tRC, tRRD, tRFC,
// tWR, tREF). Each parameter gets its own small state machine colocated
// with the entity that owns it (a bank or the device); this trades code
// volume for locality of reasoning: an owner's asserts read as an
// enumerated list of which watchdogs a given command perturbs.
package watchdog

// MinBefore enforces "at least threshold cycles must elapse between
// arming and the guarded event" (tRAS_min, tWR): Arm on the preceding
// event, Check fails if fewer than threshold cycles have elapsed since.
type MinBefore struct {
	threshold int
	armed     bool
	elapsed   int
}

// NewMinBefore returns a MinBefore watchdog with the given threshold in
// cycles. It starts disarmed (Check always passes until the first Arm).
func NewMinBefore(thresholdCycles int) *MinBefore {
	return &MinBefore{threshold: thresholdCycles}
}

// Arm records the preceding event and starts the elapsed-cycle count.
func (w *MinBefore) Arm() {
	w.armed = true
	w.elapsed = 0
}

// Tick advances the elapsed count while armed.
func (w *MinBefore) Tick() {
	if w.armed {
		w.elapsed++
	}
}

// Check reports whether the minimum interval has been satisfied. An
// unarmed watchdog (no preceding event yet observed) always passes.
func (w *MinBefore) Check() bool {
	if !w.armed {
		return true
	}
	return w.elapsed >= w.threshold
}

// ForbidDuring enforces "the guarded event must not occur while the
// window is open" (tRC, tRCD, tRP, tRRD, tRFC): Arm opens the window;
// Tick closes it once threshold cycles have elapsed; the guarded event
// fails while the window remains open.
type ForbidDuring struct {
	threshold int
	armed     bool
	elapsed   int
}

// NewForbidDuring returns a ForbidDuring watchdog with the given
// threshold in cycles.
func NewForbidDuring(thresholdCycles int) *ForbidDuring {
	return &ForbidDuring{threshold: thresholdCycles}
}

// Arm (re)opens the forbidden window starting this cycle.
func (w *ForbidDuring) Arm() {
	w.armed = true
	w.elapsed = 0
}

// Tick advances the elapsed count and self-disarms once the window has
// closed.
func (w *ForbidDuring) Tick() {
	if !w.armed {
		return
	}
	if w.elapsed >= w.threshold {
		w.armed = false
		return
	}
	w.elapsed++
}

// Armed reports whether the forbidden window is still open.
func (w *ForbidDuring) Armed() bool { return w.armed && w.elapsed < w.threshold }

// Disarm unconditionally closes the window.
func (w *ForbidDuring) Disarm() { w.armed = false }

// MaxInterval enforces "the guarded event must recur within threshold
// cycles of arming" (tRAS_max, tREF): Arm starts the clock; Tick fails
// once elapsed reaches threshold without a fresh Arm.
type MaxInterval struct {
	threshold int
	armed     bool
	elapsed   int
}

// NewMaxInterval returns a MaxInterval watchdog with the given threshold
// in cycles.
func NewMaxInterval(thresholdCycles int) *MaxInterval {
	return &MaxInterval{threshold: thresholdCycles}
}

// Arm (re)starts the interval, e.g. on row activation or refresh.
func (w *MaxInterval) Arm() {
	w.armed = true
	w.elapsed = 0
}

// Disarm stops the interval, e.g. on precharge (no active row to expire).
func (w *MaxInterval) Disarm() {
	w.armed = false
	w.elapsed = 0
}

// Tick advances the elapsed count while armed and reports whether the
// interval has now been violated (elapsed >= threshold). The caller is
// expected to treat a true return as fatal.
func (w *MaxInterval) Tick() bool {
	if !w.armed {
		return false
	}
	if w.elapsed >= w.threshold {
		return true
	}
	w.elapsed++
	return false
}
