// sdramctl drives a single Read or Write request through the SDRAM
// device model and controller, optionally emitting a VCD waveform of
// the pin activity. It is a thin CLI over the core packages, in the
// same spirit as the teacher's own vcs/convertprg/disassemble drivers:
// all of the interesting logic lives in the library packages, not here.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/sdram-model/sdram64/controller"
	"github.com/sdram-model/sdram64/device"
	"github.com/sdram-model/sdram64/geometry"
	"github.com/sdram-model/sdram64/trace"
	"github.com/sdram-model/sdram64/word128"
)

var (
	op        = flag.String("op", "read", "Operation to perform: read or write")
	addr      = flag.Uint64("addr", 0, "Word address to operate on")
	dataHi    = flag.Uint64("data_hi", 0, "High 64 bits of the write data (ignored for reads)")
	dataLo    = flag.Uint64("data_lo", 0, "Low 64 bits of the write data (ignored for reads)")
	tracePath = flag.String("trace", "", "If non-empty, path to write a VCD waveform of the run")
)

func main() {
	flag.Parse()

	geom := geometry.Default()
	dev := device.New(geom)

	if *tracePath != "" {
		f, err := os.Create(*tracePath)
		if err != nil {
			log.Fatalf("can't create trace file %s: %v", *tracePath, err)
		}
		defer f.Close()
		w, err := trace.New(f, geom)
		if err != nil {
			log.Fatalf("can't initialize trace writer: %v", err)
		}
		defer w.Close()
		dev.SetTracer(w)
	}

	ctl := controller.New(dev, geom)

	var cmd controller.Command
	switch *op {
	case "read":
		cmd = controller.Command{Write: false, Addr: uint32(*addr)}
	case "write":
		cmd = controller.Command{Write: true, Addr: uint32(*addr), Data: word128.Word{Hi: *dataHi, Lo: *dataLo}}
	default:
		log.Fatalf("invalid -op %q: must be read or write", *op)
	}

	data, cycles, err := ctl.Execute(cmd)
	if err != nil {
		log.Fatalf("simulation aborted: %v", err)
	}

	if data != nil {
		fmt.Printf("read 0x%016x%016x in %d cycles\n", data.Hi, data.Lo, cycles)
	} else {
		fmt.Printf("write completed in %d cycles\n", cycles)
	}
}
