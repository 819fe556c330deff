// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package emulator

import (
	"fmt"
	"iter"
	"log"
	"maps"

	"github.com/ezrec/woodstock/act"
	"github.com/ezrec/woodstock/internal"
	"github.com/ezrec/woodstock/model"
	"github.com/ezrec/woodstock/rom"
)

var _emulator_defines = map[string]string{
	"ROM_SIZE":  fmt.Sprintf("%v", rom.BankSize),
	"PAGE_SIZE": fmt.Sprintf("%v", rom.PageSize),
}

// Emulator wires a processor to its ROM image and model parameters, and
// gives the host loop stepping, breakpoints and key handling.
type Emulator struct {
	Verbose bool // If set, enables verbose logging.
	*act.Processor
	Image *rom.Image
	Model *model.Model

	Breakpoint int // Halt when the program counter reaches this; negative disables.
	Ticks      int // Instructions executed since reset.
}

// NewEmulator creates an emulator for a ROM image and model, reset and
// ready to step.
func NewEmulator(image *rom.Image, mdl *model.Model) (emu *Emulator) {
	emu = &Emulator{
		Processor:  act.NewProcessor(image, mdl.DataRegisters),
		Image:      image,
		Model:      mdl,
		Breakpoint: -1,
	}

	return
}

// Defines returns the assembly-time constants of this machine.
func (emu *Emulator) Defines() iter.Seq2[string, string] {
	defines := map[string]string{
		"BANKS":          fmt.Sprintf("%v", emu.Image.Banks),
		"DIGITS":         fmt.Sprintf("%v", emu.Model.Digits),
		"DATA_REGISTERS": fmt.Sprintf("%v", emu.Model.DataRegisters),
	}

	return internal.IterSeq2Concat(maps.All(_emulator_defines), maps.All(defines))
}

// Assembler returns an assembler preloaded with this machine's defines.
func (emu *Emulator) Assembler() (asm *act.Assembler) {
	asm = &act.Assembler{Verbose: emu.Verbose}
	for key, value := range emu.Defines() {
		asm.Predefine(key, value)
	}
	return
}

// Reset reinitialises the processor and the tick counter.
func (emu *Emulator) Reset() {
	if emu.Verbose {
		log.Printf("emulator: reset")
	}

	emu.Processor.Reset()
	emu.Ticks = 0
}

// Step executes a single instruction.
func (emu *Emulator) Step() (err error) {
	err = emu.Processor.Tick()
	emu.Ticks++
	return
}

// Run steps up to max instructions, stopping early on a fault or when
// the program counter lands on the breakpoint.  It returns the number
// of instructions executed.
func (emu *Emulator) Run(max int) (ticks int, err error) {
	for range max {
		err = emu.Step()
		ticks++
		if err != nil {
			return
		}
		if emu.Breakpoint >= 0 && emu.Pc == emu.Breakpoint {
			err = ErrBreakpoint
			return
		}
	}
	return
}

// PressKey latches a key by its ROM dispatch code.
func (emu *Emulator) PressKey(keycode int) {
	if emu.Verbose {
		log.Printf("emulator: key %#02x down", keycode)
	}
	emu.SetKey(keycode, true)
}

// ReleaseKey drops the key latch.
func (emu *Emulator) ReleaseKey() {
	if emu.Verbose {
		log.Printf("emulator: key up")
	}
	emu.SetKey(emu.Keycode, false)
}

// PressLabel presses a key by its model keypad label.
func (emu *Emulator) PressLabel(label string) (err error) {
	keycode, ok := emu.Model.Keys[label]
	if !ok {
		err = ErrKeyUnknown
		return
	}
	emu.PressKey(keycode)
	return
}
