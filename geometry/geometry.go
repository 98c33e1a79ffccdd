// Package geometry defines the address geometry and timing parameters
// shared by the SDRAM device model and the host controller. Centralizing
// these as a single Settings value keeps both sides of the pin bundle in
// lockstep; divergence here would silently produce cycle-miscount bugs.
package geometry

import (
	"periph.io/x/conn/v3/physic"
)

// Settings holds the full set of compile-time-ish constants describing
// one SDRAM part: address widths, burst geometry, CAS latency and every
// documented timing parameter. Default returns the 64MB/4-bank/16-bit
// part described by the reference design (166MHz, 6ns clock).
type Settings struct {
	RowAddrBits uint
	ColAddrBits uint
	BankAddrBits uint
	BurstLen uint

	// CASLatency is the number of cycles between a Read command and the
	// first element appearing on the output pin.
	CASLatency uint

	// ClockPeriod is the nominal cycle time of the part.
	ClockPeriod physic.Duration

	// Timing parameters, all in nanoseconds, converted to cycles by
	// ceiling division against ClockPeriod. RASMaxNanos and RefreshNanos
	// are per-row maximum intervals; the rest are minimum/forbidden
	// windows.
	RCDNanos     int64
	RPNanos      int64
	RASMinNanos  int64
	RASMaxNanos  int64
	RCNanos      int64
	RRDNanos     int64
	RFCNanos     int64
	WRNanos      int64
	RefreshNanos int64
}

// Default returns the geometry and timing constants of the reference
// 64MB/4-bank/16-bit SDRAM part clocked at 166MHz.
func Default() Settings {
	return Settings{
		RowAddrBits:  13,
		ColAddrBits:  10,
		BankAddrBits: 2,
		BurstLen:     8,
		CASLatency:   3,
		ClockPeriod:  6 * physic.Nanosecond,

		RCDNanos:     18,
		RPNanos:      18,
		RASMinNanos:  48,
		RASMaxNanos:  100000,
		RCNanos:      60,
		RRDNanos:     12,
		RFCNanos:     80,
		WRNanos:      9,
		RefreshNanos: 1000000,
	}
}

// NumBanks returns the number of addressable banks implied by BankAddrBits.
func (s Settings) NumBanks() int { return 1 << s.BankAddrBits }

// NumRows returns the number of rows per bank implied by RowAddrBits.
func (s Settings) NumRows() int { return 1 << s.RowAddrBits }

// NumCols returns the number of columns per row implied by ColAddrBits.
func (s Settings) NumCols() int { return 1 << s.ColAddrBits }

// WordBits is the size, in bits, of one burst-assembled word: BurstLen
// 16-bit elements concatenated together (128 bits for the reference part).
func (s Settings) WordBits() uint { return s.BurstLen * 16 }

// ClockFrequency returns the nominal clock frequency implied by ClockPeriod.
func (s Settings) ClockFrequency() physic.Frequency {
	return s.ClockPeriod.Frequency()
}

// cyclesCeil converts a duration in nanoseconds to a whole number of
// cycles, rounding up, per spec: any timing parameter that does not land
// on a cycle boundary must be satisfied by at least that many whole
// cycles.
func (s Settings) cyclesCeil(ns int64) int {
	period := int64(s.ClockPeriod / physic.Nanosecond)
	if period <= 0 {
		period = 1
	}
	c := ns / period
	if ns%period != 0 {
		c++
	}
	return int(c)
}

func (s Settings) RCDCycles() int     { return s.cyclesCeil(s.RCDNanos) }
func (s Settings) RPCycles() int      { return s.cyclesCeil(s.RPNanos) }
func (s Settings) RASMinCycles() int  { return s.cyclesCeil(s.RASMinNanos) }
func (s Settings) RASMaxCycles() int  { return s.cyclesCeil(s.RASMaxNanos) }
func (s Settings) RCCycles() int      { return s.cyclesCeil(s.RCNanos) }
func (s Settings) RRDCycles() int     { return s.cyclesCeil(s.RRDNanos) }
func (s Settings) RFCCycles() int     { return s.cyclesCeil(s.RFCNanos) }
func (s Settings) WRCycles() int      { return s.cyclesCeil(s.WRNanos) }
func (s Settings) RefreshCycles() int { return s.cyclesCeil(s.RefreshNanos) }

// NumBurstAddrBits is log2(BurstLen); the controller shifts the
// word-address left by this many bits to arrive at the element address
// before decomposing it into bank/row/column fields.
func (s Settings) NumBurstAddrBits() uint {
	n := uint(0)
	for v := s.BurstLen; v > 1; v >>= 1 {
		n++
	}
	return n
}

// Decompose splits an element address into bank, row and column fields
// per the bit widths in Settings: bank is the top BankAddrBits, row the
// next RowAddrBits, column the low ColAddrBits.
func (s Settings) Decompose(elementAddr uint32) (bank, row, col uint32) {
	colMask := uint32(1)<<s.ColAddrBits - 1
	rowMask := uint32(1)<<s.RowAddrBits - 1
	col = elementAddr & colMask
	row = (elementAddr >> s.ColAddrBits) & rowMask
	bank = elementAddr >> (s.ColAddrBits + s.RowAddrBits)
	return bank, row, col
}

// ElementAddr reassembles a bank/row/column triple into a flat element
// address, the inverse of Decompose.
func (s Settings) ElementAddr(bank, row, col uint32) uint32 {
	return (bank << (s.ColAddrBits + s.RowAddrBits)) | (row << s.ColAddrBits) | col
}
