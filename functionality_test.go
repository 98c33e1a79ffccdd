// Package functionality does basic end-to-end verification of the
// SDRAM device model and controller against the documented scenarios:
// single write/read round trips, multi-address interleaving, and the
// timing-violation boundary cases.
package functionality

import (
	"strings"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/go-test/deep"

	"github.com/sdram-model/sdram64/controller"
	"github.com/sdram-model/sdram64/device"
	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/pins"
	"github.com/sdram-model/sdram64/word128"
)

func newRig() (*device.Device, *controller.Controller, geometry.Settings) {
	geom := geometry.Default()
	dev := device.New(geom)
	return dev, controller.New(dev, geom), geom
}

// S1: single write returns (nil, tRCD+BURST_LEN+(tWR-1)+tRP) with no violation.
func TestS1SingleWrite(t *testing.T) {
	dev, c, geom := newRig()
	data := word128.Word{Hi: 0xfadebabedeadbeef, Lo: 0xabad1deacafef00d}

	got, cycles, err := c.Execute(controller.Command{Write: true, Addr: 0, Data: data})
	if err != nil {
		t.Fatalf("Execute(write) = %v, want nil\nstate: %s", err, spew.Sdump(dev))
	}
	if got != nil {
		t.Errorf("Execute(write) returned data %+v, want nil", got)
	}
	want := uint64(geom.RCDCycles() + int(geom.BurstLen) + (geom.WRCycles() - 1) + geom.RPCycles())
	if cycles != want {
		t.Errorf("cycles = %d, want %d", cycles, want)
	}
}

// S2: write then read the same address recovers the exact bit pattern.
func TestS2WriteThenReadSameAddress(t *testing.T) {
	dev, c, _ := newRig()
	data := word128.Word{Hi: 0xfadebabedeadbeef, Lo: 0xabad1deacafef00d}

	if _, _, err := c.Execute(controller.Command{Write: true, Addr: 0, Data: data}); err != nil {
		t.Fatalf("Execute(write) = %v, want nil\nstate: %s", err, spew.Sdump(dev))
	}
	got, _, err := c.Execute(controller.Command{Write: false, Addr: 0})
	if err != nil {
		t.Fatalf("Execute(read) = %v, want nil\nstate: %s", err, spew.Sdump(dev))
	}
	if diff := deep.Equal(*got, data); diff != nil {
		t.Errorf("read data differs from written data: %v", diff)
	}
}

// S3: two writes to addresses 0 and 1, then two reads, recover each
// word's own data — writes and reads do not interfere with each other.
func TestS3TwoWritesTwoReads(t *testing.T) {
	dev, c, _ := newRig()
	w0 := word128.Word{Hi: 0x1111111111111111, Lo: 0x2222222222222222}
	w1 := word128.Word{Hi: 0x3333333333333333, Lo: 0x4444444444444444}

	if _, _, err := c.Execute(controller.Command{Write: true, Addr: 0, Data: w0}); err != nil {
		t.Fatalf("Execute(write 0) = %v, want nil\nstate: %s", err, spew.Sdump(dev))
	}
	if _, _, err := c.Execute(controller.Command{Write: true, Addr: 1, Data: w1}); err != nil {
		t.Fatalf("Execute(write 1) = %v, want nil\nstate: %s", err, spew.Sdump(dev))
	}

	got0, _, err := c.Execute(controller.Command{Write: false, Addr: 0})
	if err != nil {
		t.Fatalf("Execute(read 0) = %v, want nil", err)
	}
	got1, _, err := c.Execute(controller.Command{Write: false, Addr: 1})
	if err != nil {
		t.Fatalf("Execute(read 1) = %v, want nil", err)
	}
	if diff := deep.Equal(*got0, w0); diff != nil {
		t.Errorf("addr 0 round trip differs: %v", diff)
	}
	if diff := deep.Equal(*got1, w1); diff != nil {
		t.Errorf("addr 1 round trip differs: %v", diff)
	}
}

// S4: two Actives to the same bank within tRC cycles aborts. The
// Precharge waits out tRAS_min and the second Active follows it at once,
// so the Activate-Precharge-Activate span is still short of tRC.
func TestS4TwoActivatesSameBankWithinTRC(t *testing.T) {
	geom := geometry.Default()
	dev := device.New(geom)

	if err := dev.Tick(&pins.Io{Command: pins.Active, Bank: 0, Addr: 0}); err != nil {
		t.Fatalf("first Active = %v, want nil", err)
	}
	for i := 1; i < geom.RASMinCycles(); i++ {
		if err := dev.Tick(&pins.Io{Command: pins.Nop}); err != nil {
			t.Fatalf("Nop padding for tRAS_min = %v, want nil", err)
		}
	}
	if err := dev.Tick(&pins.Io{Command: pins.Precharge, Bank: 0}); err != nil {
		t.Fatalf("Precharge = %v, want nil", err)
	}
	err := dev.Tick(&pins.Io{Command: pins.Active, Bank: 0, Addr: 1})
	if err == nil || !strings.Contains(err.Error(), "tRC") {
		t.Fatalf("second Active within tRC = %v, want tRC violated error", err)
	}
}

// S5: AutoRefresh then Active in the very next cycle (inside tRFC) aborts.
func TestS5AutoRefreshThenActiveWithinTRFC(t *testing.T) {
	geom := geometry.Default()
	dev := device.New(geom)

	if err := dev.Tick(&pins.Io{Command: pins.AutoRefresh}); err != nil {
		t.Fatalf("AutoRefresh = %v, want nil", err)
	}
	err := dev.Tick(&pins.Io{Command: pins.Active, Bank: 0, Addr: 0})
	if err == nil || !strings.Contains(err.Error(), "tRFC") {
		t.Fatalf("Active within tRFC of AutoRefresh = %v, want tRFC violated error", err)
	}
}

// S6: Precharge(A10=1) after activating all four banks returns every
// bank to idle, and bank 0 can be activated again after tRP.
func TestS6PrechargeAllBanks(t *testing.T) {
	geom := geometry.Default()
	dev := device.New(geom)

	for b := 0; b < geom.NumBanks(); b++ {
		if err := dev.Tick(&pins.Io{Command: pins.Active, Bank: uint8(b), Addr: uint16(b)}); err != nil {
			t.Fatalf("Active bank %d = %v, want nil", b, err)
		}
		for i := 1; i < geom.RRDCycles(); i++ {
			if err := dev.Tick(&pins.Io{Command: pins.Nop}); err != nil {
				t.Fatalf("Nop padding after Active bank %d = %v, want nil", b, err)
			}
		}
	}
	for i := 0; i < geom.RASMinCycles(); i++ {
		if err := dev.Tick(&pins.Io{Command: pins.Nop}); err != nil {
			t.Fatalf("Nop padding for tRAS_min = %v, want nil", err)
		}
	}

	if err := dev.Tick(&pins.Io{Command: pins.Precharge, Bank: 0, Addr: 1 << 10}); err != nil {
		t.Fatalf("Precharge(A10=1) = %v, want nil", err)
	}
	for _, b := range dev.Banks() {
		if _, active := b.ActiveRow(); active {
			t.Fatalf("bank still active after precharge-all")
		}
	}

	for i := 0; i < geom.RPCycles(); i++ {
		if err := dev.Tick(&pins.Io{Command: pins.Nop}); err != nil {
			t.Fatalf("Nop padding for tRP = %v, want nil", err)
		}
	}
	if err := dev.Tick(&pins.Io{Command: pins.Active, Bank: 0, Addr: 9}); err != nil {
		t.Fatalf("Active after tRP = %v, want nil", err)
	}
}
