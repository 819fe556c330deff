package act

import (
	"fmt"
	"io"
)

// traceWriter returns the trace sink, discarding when none is set.
func (p *Processor) traceWriter() io.Writer {
	if p.TraceWriter == nil {
		return io.Discard
	}
	return p.TraceWriter
}

// FlagWord packs the processor flags into one word, in the order
// mode, carry, previous carry, delayed rom, display enable, timer.
func (p *Processor) FlagWord() (word int) {
	flags := []bool{p.Mode, p.Carry, p.PrevCarry, p.DelayedRom, p.DisplayEnable, p.Timer}
	for n, flag := range flags {
		if flag {
			word |= 1 << n
		}
	}
	return
}

// StateDump writes the register file, flags, status word and pointer to
// w, three registers per line.
func (p *Processor) StateDump(w io.Writer) {
	for n := range p.Reg {
		if n%3 == 0 {
			fmt.Fprintf(w, "\n\t")
		}
		fmt.Fprintf(w, "%s  ", &p.Reg[n])
	}
	fmt.Fprintf(w, "\n\tflags[] = 0x%02x  status  = 0x%04x  ptr     = %02d\n",
		p.FlagWord(), p.Status, p.P)
}
