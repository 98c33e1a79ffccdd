package controller

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/sdram-model/sdram64/device"
	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/word128"
)

func TestWriteCycleCount(t *testing.T) {
	geom := geometry.Default()
	dev := device.New(geom)
	c := New(dev, geom)

	data := word128.Word{Hi: 0xfadebabedeadbeef, Lo: 0xabad1deacafef00d}
	_, cycles, err := c.Execute(Command{Write: true, Addr: 0, Data: data})
	if err != nil {
		t.Fatalf("Execute(write) = %v, want nil\nstate: %s", err, spew.Sdump(dev))
	}

	want := uint64(geom.RCDCycles() + int(geom.BurstLen) + (geom.WRCycles() - 1) + geom.RPCycles())
	if cycles != want {
		t.Errorf("cycles = %d, want %d", cycles, want)
	}
}

func TestWriteThenReadSameAddress(t *testing.T) {
	geom := geometry.Default()
	dev := device.New(geom)
	c := New(dev, geom)

	data := word128.Word{Hi: 0xfadebabedeadbeef, Lo: 0xabad1deacafef00d}
	if _, _, err := c.Execute(Command{Write: true, Addr: 0, Data: data}); err != nil {
		t.Fatalf("Execute(write) = %v, want nil", err)
	}

	got, _, err := c.Execute(Command{Write: false, Addr: 0})
	if err != nil {
		t.Fatalf("Execute(read) = %v, want nil", err)
	}
	if *got != data {
		t.Errorf("Execute(read) = %+v, want %+v", *got, data)
	}
}

func TestTwoWritesTwoReadsDistinctAddresses(t *testing.T) {
	geom := geometry.Default()
	dev := device.New(geom)
	c := New(dev, geom)

	w0 := word128.Word{Hi: 1, Lo: 1}
	w1 := word128.Word{Hi: 2, Lo: 2}

	if _, _, err := c.Execute(Command{Write: true, Addr: 0, Data: w0}); err != nil {
		t.Fatalf("Execute(write 0) = %v, want nil", err)
	}
	if _, _, err := c.Execute(Command{Write: true, Addr: 1, Data: w1}); err != nil {
		t.Fatalf("Execute(write 1) = %v, want nil", err)
	}

	got0, _, err := c.Execute(Command{Write: false, Addr: 0})
	if err != nil {
		t.Fatalf("Execute(read 0) = %v, want nil", err)
	}
	got1, _, err := c.Execute(Command{Write: false, Addr: 1})
	if err != nil {
		t.Fatalf("Execute(read 1) = %v, want nil", err)
	}

	if *got0 != w0 {
		t.Errorf("read addr 0 = %+v, want %+v", *got0, w0)
	}
	if *got1 != w1 {
		t.Errorf("read addr 1 = %+v, want %+v", *got1, w1)
	}
}
