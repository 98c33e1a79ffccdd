// Package trace implements an optional value-change-dump (VCD) writer
// for the SDRAM pin bundle. Per cycle it writes clk=0, updates every
// signal whose value changed since the prior sample, advances the
// timestamp by one half-period, writes clk=1, and advances the
// timestamp again. A signal that did not change never emits a new value
// line, per the VCD convention.
package trace

import (
	"bufio"
	"fmt"
	"io"

	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/pins"
	"periph.io/x/conn/v3/physic"
)

// signal is the capability set every declared VCD signal implements:
// declare its $var line, then given the current pin bundle emit a value
// line only if the signal's value changed since the last sample. This
// replaces three parallel per-kind writer types with one tagged-union
// style capability set, per the tracer's own design note.
type signal interface {
	declare(w *bufio.Writer) error
	sample(w *bufio.Writer, io *pins.Io) error
}

const (
	idClk     = "!"
	idCommand = "\""
	idLDQM    = "#"
	idUDQM    = "$"
	idBank    = "%"
	idAddr    = "&"
	idDQ      = "'"
)

// scalarSignal tracks a single-bit value (ldqm, udqm).
type scalarSignal struct {
	id      string
	name    string
	last    bool
	lastSet bool
	get     func(io *pins.Io) bool
}

func (s *scalarSignal) declare(w *bufio.Writer) error {
	_, err := fmt.Fprintf(w, "$var wire 1 %s %s $end\n", s.id, s.name)
	return err
}

func (s *scalarSignal) sample(w *bufio.Writer, io *pins.Io) error {
	v := s.get(io)
	if s.lastSet && v == s.last {
		return nil
	}
	s.last, s.lastSet = v, true
	bit := byte('0')
	if v {
		bit = '1'
	}
	_, err := fmt.Fprintf(w, "%c%s\n", bit, s.id)
	return err
}

// hiZSentinel marks "previously high-Z" in vectorSignal.last, a value no
// real sample produces since every vector signal here is <= 16 bits.
const hiZSentinel = ^uint64(0)

// vectorSignal tracks a multi-bit value (bank, a, dq) rendered MSB
// first. get's second return reports whether the signal is driven at
// all this cycle; when false the signal emits high-impedance ('z').
type vectorSignal struct {
	id      string
	name    string
	width   int
	last    uint64
	lastSet bool
	get     func(io *pins.Io) (value uint64, driven bool)
}

func (s *vectorSignal) declare(w *bufio.Writer) error {
	_, err := fmt.Fprintf(w, "$var wire %d %s %s $end\n", s.width, s.id, s.name)
	return err
}

func (s *vectorSignal) sample(w *bufio.Writer, io *pins.Io) error {
	v, driven := s.get(io)
	cur := v
	if !driven {
		cur = hiZSentinel
	}
	if s.lastSet && cur == s.last {
		return nil
	}
	s.last, s.lastSet = cur, true

	bits := make([]byte, s.width)
	for i := 0; i < s.width; i++ {
		if !driven {
			bits[i] = 'z'
			continue
		}
		shift := uint(s.width - 1 - i)
		if v&(1<<shift) != 0 {
			bits[i] = '1'
		} else {
			bits[i] = '0'
		}
	}
	_, err := fmt.Fprintf(w, "b%s %s\n", bits, s.id)
	return err
}

// stringSignal tracks a textual value (the decoded command name),
// written using the widely supported "s<text> <id>" VCD string-value
// convention.
type stringSignal struct {
	id      string
	name    string
	last    string
	lastSet bool
	get     func(io *pins.Io) string
}

func (s *stringSignal) declare(w *bufio.Writer) error {
	_, err := fmt.Fprintf(w, "$var wire 1 %s %s $end\n", s.id, s.name)
	return err
}

func (s *stringSignal) sample(w *bufio.Writer, io *pins.Io) error {
	v := s.get(io)
	if s.lastSet && v == s.last {
		return nil
	}
	s.last, s.lastSet = v, true
	_, err := fmt.Fprintf(w, "s%s %s\n", v, s.id)
	return err
}

// Writer is the VCD waveform tracer. It holds one buffered file handle
// for the lifetime of the device; Close flushes and releases it.
type Writer struct {
	w       *bufio.Writer
	closer  io.Closer
	signals []signal
	ts      uint64
}

// New wraps dst (typically an *os.File under a caller-supplied
// directory) in a buffered VCD writer sized for geom (the row-address
// width determines the "a" signal's bit width) and writes the VCD
// header immediately.
func New(dst io.WriteCloser, geom geometry.Settings) (*Writer, error) {
	w := &Writer{
		w:      bufio.NewWriter(dst),
		closer: dst,
	}
	w.signals = []signal{
		&stringSignal{id: idCommand, name: "command", get: func(io *pins.Io) string { return io.Command.String() }},
		&scalarSignal{id: idLDQM, name: "ldqm", get: func(io *pins.Io) bool { return bool(io.LDQM) }},
		&scalarSignal{id: idUDQM, name: "udqm", get: func(io *pins.Io) bool { return bool(io.UDQM) }},
		&vectorSignal{id: idBank, name: "bank", width: int(geom.BankAddrBits), get: func(io *pins.Io) (uint64, bool) {
			return uint64(io.Bank), true
		}},
		&vectorSignal{id: idAddr, name: "a", width: int(geom.RowAddrBits), get: func(io *pins.Io) (uint64, bool) {
			return uint64(io.Addr), true
		}},
		&vectorSignal{id: idDQ, name: "dq", width: 16, get: func(io *pins.Io) (uint64, bool) {
			if io.DQIn != nil {
				return uint64(*io.DQIn), true
			}
			if io.DQOut != nil {
				return uint64(*io.DQOut), true
			}
			return 0, false
		}},
	}
	if err := w.writeHeader(geom); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *Writer) writeHeader(geom geometry.Settings) error {
	// Derive the timescale from the clock frequency rather than the raw
	// period directly, so geometry.Settings.ClockFrequency has a real
	// consumer instead of being diagnostic-only.
	period := geom.ClockFrequency().Duration()
	halfPeriodNs := int64(period/2) / int64(physic.Nanosecond)
	if halfPeriodNs <= 0 {
		halfPeriodNs = 1
	}
	if _, err := fmt.Fprintf(w.w, "$timescale %dns $end\n$scope module sdram $end\n", halfPeriodNs); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w.w, "$var wire 1 %s clk $end\n", idClk); err != nil {
		return err
	}
	for _, s := range w.signals {
		if err := s.declare(w.w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w.w, "$upscope $end\n$enddefinitions $end\n")
	return err
}

// Sample emits one tick's worth of VCD records for io: clk low with any
// changed signals, then clk high, advancing the timestamp by one
// half-period on each edge.
func (w *Writer) Sample(io *pins.Io) error {
	if _, err := fmt.Fprintf(w.w, "#%d\n0%s\n", w.ts, idClk); err != nil {
		return err
	}
	for _, s := range w.signals {
		if err := s.sample(w.w, io); err != nil {
			return err
		}
	}
	w.ts++

	if _, err := fmt.Fprintf(w.w, "#%d\n1%s\n", w.ts, idClk); err != nil {
		return err
	}
	w.ts++

	return w.w.Flush()
}

// Close flushes any buffered output and releases the underlying file
// handle.
func (w *Writer) Close() error {
	if err := w.w.Flush(); err != nil {
		w.closer.Close()
		return err
	}
	return w.closer.Close()
}
