package act

import (
	"iter"

	"github.com/ezrec/woodstock/rom"
)

// LinkKind says how a forward branch label patches into a line's code.
type LinkKind int

const (
	LINK_NONE = LinkKind(0) // No label to resolve.
	LINK_PAGE = LinkKind(1) // Low byte into bits 2-9; the target page is not checked.
	LINK_WORD = LinkKind(2) // Whole word is the target address.
)

// Line is one assembled source line: its location, source words, and
// the generated instruction word.
type Line struct {
	LineNo    int
	Addr      int
	Words     []string
	Code      Opcode
	LinkLabel string
	LinkKind  LinkKind
}

// Program is an assembled listing.
type Program struct {
	Lines []Line
}

// Debug returns the source line whose code occupies pc, or nil.
func (prog *Program) Debug(pc int) (line *Line) {
	for n := range prog.Lines {
		if prog.Lines[n].Addr == pc {
			line = &prog.Lines[n]
			break
		}
	}
	return
}

// Codes iterates the assembled (address, word) pairs in listing order.
func (prog *Program) Codes() iter.Seq2[int, uint16] {
	return func(yield func(addr int, word uint16) bool) {
		for _, line := range prog.Lines {
			if !yield(line.Addr, uint16(line.Code)) {
				return
			}
		}
	}
}

// Binary flattens the listing into a word slice covering the highest
// assembled address.  Unassembled gaps read as zero words.
func (prog *Program) Binary() (words []uint16) {
	size := 0
	for addr := range prog.Codes() {
		if addr >= size {
			size = addr + 1
		}
	}

	words = make([]uint16, size)
	for addr, word := range prog.Codes() {
		words[addr] = word
	}

	return
}

// Image builds a ROM image from the listing.
func (prog *Program) Image() (*rom.Image, error) {
	words := prog.Binary()
	banks := (len(words) + rom.BankSize - 1) / rom.BankSize
	if banks == 0 {
		banks = 1
	}
	return rom.New(words, banks)
}
