// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package main

import (
	"bufio"
	"errors"
	"flag"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/ezrec/woodstock/act"
	"github.com/ezrec/woodstock/emulator"
	"github.com/ezrec/woodstock/model"
	"github.com/ezrec/woodstock/rom"
)

// keyEvent is one line of a key script: at the given tick, press or
// release the keycode.
type keyEvent struct {
	tick    int
	keycode int
	down    bool
}

// readKeyScript parses a key script: one "<tick> <keycode> down|up"
// triple per line, '#' comments.
func readKeyScript(path string) (events []keyEvent, err error) {
	inf, err := os.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	scanner := bufio.NewScanner(inf)
	for scanner.Scan() {
		line := scanner.Text()
		if n := strings.IndexByte(line, '#'); n >= 0 {
			line = line[:n]
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			err = errors.New("key script: want '<tick> <keycode> down|up'")
			return
		}

		var event keyEvent
		event.tick, err = strconv.Atoi(fields[0])
		if err != nil {
			return
		}
		keycode64, err2 := strconv.ParseInt(fields[1], 0, 16)
		if err2 != nil {
			err = err2
			return
		}
		event.keycode = int(keycode64)
		event.down = fields[2] == "down"

		events = append(events, event)
	}
	err = scanner.Err()

	return
}

func main() {
	var compile string
	var romfile string
	var modelfile string
	var keyscript string
	var breakat string
	var ticks int
	var trace bool
	var step bool
	var verbose bool

	flag.StringVar(&compile, "c", "", ".asm file to assemble")
	flag.StringVar(&romfile, "r", "", "ROM octal listing to run")
	flag.StringVar(&modelfile, "m", "", "model description (.toml)")
	flag.StringVar(&keyscript, "k", "", "key script file")
	flag.StringVar(&breakat, "b", "", "break-point (octal)")
	flag.IntVar(&ticks, "n", 1000000, "maximum instructions to run")
	flag.BoolVar(&trace, "t", false, "trace execution")
	flag.BoolVar(&step, "s", false, "dump state after every instruction")
	flag.BoolVar(&verbose, "v", false, "Verbose mode")

	flag.Parse()

	if flag.NArg() != 0 {
		log.Fatalf("%v: Unknown arguments: %v", os.Args[0], flag.Args())
	}

	mdl := model.Default()
	if modelfile != "" {
		var err error
		mdl, err = model.Load(modelfile)
		if err != nil {
			log.Fatalf("%v: %v", modelfile, err)
		}
	}

	var image *rom.Image

	switch {
	case compile != "":
		inf, err := os.Open(compile)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		defer inf.Close()

		asm := &act.Assembler{Verbose: verbose}
		prog, err := asm.Parse(inf)
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
		image, err = prog.Image()
		if err != nil {
			log.Fatalf("%v: %v", compile, err)
		}
	case romfile != "":
		inf, err := os.Open(romfile)
		if err != nil {
			log.Fatalf("%v: %v", romfile, err)
		}
		defer inf.Close()

		image, err = rom.Read(inf)
		if err != nil {
			log.Fatalf("%v: %v", romfile, err)
		}
	default:
		log.Fatalf("%v: need -c or -r", os.Args[0])
	}

	var events []keyEvent
	if keyscript != "" {
		var err error
		events, err = readKeyScript(keyscript)
		if err != nil {
			log.Fatalf("%v: %v", keyscript, err)
		}
	}

	emu := emulator.NewEmulator(image, mdl)
	emu.Verbose = verbose
	emu.Trace = trace || step
	emu.TraceWriter = os.Stdout

	if breakat != "" {
		value, err := strconv.ParseInt(breakat, 8, 32)
		if err != nil {
			log.Fatalf("%v: not an octal address", breakat)
		}
		emu.Breakpoint = int(value)
	}

	emu.Reset()

	for emu.Ticks < ticks {
		for len(events) != 0 && events[0].tick <= emu.Ticks {
			emu.SetKey(events[0].keycode, events[0].down)
			events = events[1:]
		}

		err := emu.Step()
		if err != nil {
			log.Printf("%v", err)
			break
		}
		if emu.Breakpoint >= 0 && emu.Pc == emu.Breakpoint {
			log.Printf("break at %04o", emu.Pc)
			break
		}
		if step {
			emu.StateDump(os.Stdout)
		}
	}

	emu.StateDump(os.Stdout)
}
