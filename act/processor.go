// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package act

import (
	"fmt"
	"io"

	"github.com/ezrec/woodstock/rom"
)

// Register file indices.  A negative register id in traces is one of
// these, offset by one.
type RegId int

const (
	A_REG = RegId(0)
	B_REG = RegId(1)
	C_REG = RegId(2)
	Y_REG = RegId(3)
	Z_REG = RegId(4)
	T_REG = RegId(5)
	M_REG = RegId(6)
	N_REG = RegId(7)
)

const REGISTERS = 8

// Status bits the firmware gives architectural meaning to.
const (
	STATUS_SCI   = 1  // Scientific notation.
	STATUS_ENTER = 2  // Auto enter: entering a digit pushes X.
	STATUS_RAD   = 3  // Radians rather than degrees.
	STATUS_POWER = 4  // Power OK.
	STATUS_POINT = 5  // Decimal point already entered.
	STATUS_FUNC  = 13 // Function key pressed.
	STATUS_EEX   = 14 // EEX pressed.
	STATUS_KEY   = 15 // Any key pressed.
)

// stickyStatus are the bits "clear s" never clears; bit 15 additionally
// survives "0 -> s(15)" while a key is held.
const stickyStatus = uint16(1<<STATUS_SCI | 1<<STATUS_ENTER | 1<<STATUS_POINT | 1<<STATUS_KEY)

// Processor is the complete ACT state.  It is owned by a single host
// loop; between two Tick calls every field reads as the post state of
// the previous instruction.
type Processor struct {
	Trace       bool      // Emit a trace line per instruction.
	TraceWriter io.Writer // Sink for trace output; nil discards it.

	Reg [REGISTERS]Register // A, B, C, Y, Z, T, M, N.
	Ram []Register          // Data memory registers.

	Stack Stack // Subroutine return ring.

	Pc          int // Offset of the next fetch within the bank.
	RomBank     int // Currently executing bank.
	DelayedBank int // ROM number pending until the next branch.
	DelayedRom  bool

	P     int   // Pointer register, 0..RegSize.
	F     uint8 // F register, one nibble.
	Base  int   // Arithmetic radix, 10 or 16.
	First int   // Current field window, low nibble.
	Last  int   // Current field window, high nibble.

	Status uint16 // Processor status word, 16 bits.

	Mode          bool // Run rather than program mode.
	Carry         bool
	PrevCarry     bool
	DisplayEnable bool
	Timer         bool

	Keycode int  // ROM dispatch index of the last key pressed.
	Keydown bool // Whether a key is currently held.
	Address int  // Memory address latch, from C[1..0].

	Rom *rom.Image // Borrowed read-only for the processor lifetime.
}

// NewProcessor creates a processor over a borrowed ROM image with the
// given number of data memory registers, and resets it.
func NewProcessor(image *rom.Image, dataRegisters int) (p *Processor) {
	p = &Processor{
		Rom: image,
		Ram: make([]Register, dataRegisters),
	}

	for n := range p.Reg {
		p.Reg[n].Id = -(n + 1)
	}
	for n := range p.Ram {
		p.Ram[n].Id = n
	}

	p.Reset()

	return
}

// Reset reinitialises all state: registers, memory and stack cleared,
// status bits 3 and 5 set, run mode, decimal base, program counter zero.
func (p *Processor) Reset() {
	p.clearRegisters()
	p.clearDataRegisters()

	p.Status = 1<<STATUS_RAD | 1<<STATUS_POINT
	p.Mode = true
	p.Carry = false
	p.PrevCarry = false
	p.DisplayEnable = false
	p.Timer = false
	p.DelayedRom = false

	p.Pc = 0
	p.RomBank = 0
	p.DelayedBank = 0
	p.P = 0
	p.F = 0
	p.Keycode = 0
	p.Keydown = false
	p.Base = 10
	p.Address = 0
}

// SetKey latches a key event.  A press records the keycode for the
// "keys -> rom address" dispatch and raises status bit 15; a release
// only drops the latch, since the firmware clears bit 15 itself.
func (p *Processor) SetKey(keycode int, down bool) {
	if down {
		p.Keycode = keycode
		p.Keydown = true
		p.Status |= 1 << STATUS_KEY
	} else {
		p.Keydown = false
	}
}

// StatusBit reads one bit of the status word.
func (p *Processor) StatusBit(n int) bool {
	return p.Status&(1<<n) != 0
}

// window sets the field window for the next register primitive.
func (p *Processor) window(first, last int) {
	p.First = first
	p.Last = last
}

// clearRegisters clears the whole register file and the return stack.
func (p *Processor) clearRegisters() {
	p.window(0, RegSize-1)
	for n := range p.Reg {
		p.regCopy(&p.Reg[n], nil)
	}
	p.Stack.Reset()
}

// clearDataRegisters clears the data memory registers.
func (p *Processor) clearDataRegisters() {
	p.window(0, RegSize-1)
	for n := range p.Ram {
		p.regCopy(&p.Ram[n], nil)
	}
}

// incPc advances the program counter within the bank and latches
// carry into previous carry.  This is the only place carry is cleared
// on the fetch path: a test leaves its verdict in carry just long
// enough for the following branch word to observe it here.
func (p *Processor) incPc() {
	p.Pc++
	if p.Pc >= rom.BankSize {
		p.Pc = 0
	}
	p.PrevCarry = p.Carry
	p.Carry = false
}

// delayedRomSwitch commits a pending ROM selection into the program
// counter page bits.  Only the branch instructions call this.
func (p *Processor) delayedRomSwitch() {
	if p.DelayedRom {
		p.Pc = p.DelayedBank*rom.PageSize | p.Pc&0xff
		p.DelayedRom = false
	}
}

// jsb pushes the return address and replaces the program counter low
// byte with the target, minus one so the universal post increment lands
// on it.
func (p *Processor) jsb(target int) {
	p.Stack.Push(p.Pc)
	p.Pc = (p.Pc&^0xff | target) - 1
	p.delayedRomSwitch()
}

// branchNc is the class 3 "if nc goto": taken when the previous
// instruction left carry clear.  A pending ROM selection commits here
// whether or not the branch is taken.
func (p *Processor) branchNc(target int) {
	if !p.PrevCarry {
		p.Pc = (p.Pc&^0xff | target) - 1
	}
	p.delayedRomSwitch()
}

// condGoto consumes the word following a test instruction as a branch
// target, taken when the test left carry clear.  The caller has already
// advanced the program counter onto the target word, latching the
// test's carry.
func (p *Processor) condGoto() {
	target := int(p.Rom.Word(p.RomBank, p.Pc))
	if p.Trace {
		fmt.Fprintf(p.traceWriter(), "%o-%04o %04o    then goto %o-%04o\n",
			p.RomBank, p.Pc, target, p.RomBank, target)
	}
	if !p.PrevCarry {
		p.Pc = target - 1
		p.delayedRomSwitch()
	}
}

// Tick fetches, decodes and executes a single instruction, then
// advances the program counter.  A decoder or address fault is returned
// with state intact; the host may inspect and resume, or Reset.
func (p *Processor) Tick() (err error) {
	opcode := Opcode(p.Rom.Word(p.RomBank, p.Pc))

	if p.Trace {
		fmt.Fprintf(p.traceWriter(), "%o-%04o %04o  %s\n",
			p.RomBank, p.Pc, uint16(opcode), Disassemble(uint16(opcode), p.Pc))
	}

	switch opcode.Class() {
	case OP_SPECIAL:
		err = p.special(opcode)
	case OP_JSB:
		p.jsb(opcode.Target())
	case OP_ARITH:
		err = p.arith(opcode)
	case OP_BRANCH:
		p.branchNc(opcode.Target())
	}

	p.incPc()

	return
}

// opcodeFault builds the decoder fault for the current fetch.
func (p *Processor) opcodeFault(opcode Opcode) error {
	return &ErrOpcode{Bank: p.RomBank, Pc: p.Pc, Opcode: opcode}
}

// special executes the class 0 operations, discriminated by group and
// subgroup.
func (p *Processor) special(opcode Opcode) (err error) {
	switch opcode.Group() {
	case 0:
		switch opcode.Sub() {
		case 0: // nop
		case 1:
			switch opcode {
			case 0o0020: // keys -> rom address
				p.Pc &= 0x0f00
				p.Pc += p.Keycode - 1
			case 0o0420: // binary
				p.Base = 16
			case 0o0620: // p - 1 -> p
				if p.P == 0 {
					p.P = RegSize
				} else {
					p.P--
				}
			case 0o0720: // p + 1 -> p
				if p.P == RegSize {
					p.P = 0
				} else {
					p.P++
				}
			case 0o1020: // return
				p.Pc = p.Stack.Pop()
			default:
				err = p.opcodeFault(opcode)
			}
		case 2: // select rom
			p.Pc = opcode.N()*rom.PageSize + p.Pc%rom.PageSize
		case 3:
			switch opcode {
			case 0o1160: // c -> data address
				p.Address = int(p.Reg[C_REG].Nibble[1])<<4 + int(p.Reg[C_REG].Nibble[0])
				if p.Address >= p.Rom.Size() {
					err = &ErrAddress{Bank: p.RomBank, Pc: p.Pc, Address: p.Address}
				}
			case 0o1260: // clear data registers
				p.clearDataRegisters()
			case 0o1760: // hi I'm woodstock
			default:
				err = p.opcodeFault(opcode)
			}
		}
	case 1:
		switch opcode.Sub() {
		case 0: // 1 -> s(n)
			p.Status |= 1 << opcode.N()
		case 1: // if 1 = s(n)
			p.Carry = !p.StatusBit(opcode.N())
			p.incPc()
			p.condGoto()
		case 2: // if p = n
			p.Carry = p.P != tstPTable[opcode.N()]
			p.incPc()
			p.condGoto()
		case 3: // delayed select rom n
			p.DelayedBank = opcode.N()
			p.DelayedRom = true
		}
	case 2:
		switch opcode.Sub() {
		case 0:
			err = p.special2(opcode)
		case 1: // load n
			if p.P >= RegSize {
				err = &ErrPointer{Bank: p.RomBank, Pc: p.Pc, Opcode: opcode, P: p.P}
				return
			}
			p.Reg[C_REG].Nibble[p.P] = uint8(opcode.N())
			if p.P > 0 {
				p.P--
			} else {
				p.P = RegSize - 1
			}
		default: // c -> data register(n) and friends: not in this family
			err = p.opcodeFault(opcode)
		}
	case 3:
		switch opcode.Sub() {
		case 0: // 0 -> s(n)
			switch n := opcode.N(); n {
			case STATUS_POINT, STATUS_KEY:
				if !p.Keydown {
					p.Status &^= 1 << STATUS_KEY
				}
			default:
				p.Status &^= 1 << n
			}
		case 1: // if 0 = s(n)
			p.Carry = p.StatusBit(opcode.N())
			p.incPc()
			p.condGoto()
		case 2: // if p <> n
			p.Carry = p.P == tstPTable[opcode.N()]
			p.incPc()
			p.condGoto()
		case 3: // p = n
			p.P = setPTable[opcode.N()]
		}
	}

	return
}

// special2 executes the group 2 subgroup 0 operations, discriminated by
// the full word.
func (p *Processor) special2(opcode Opcode) (err error) {
	switch opcode {
	case 0o0010: // clear registers
		p.clearRegisters()
	case 0o0110: // clear s
		p.Status &= stickyStatus
	case 0o0210: // display toggle
		p.DisplayEnable = !p.DisplayEnable
	case 0o0310: // display off
		p.DisplayEnable = false
	case 0o0410: // m1 exch c
		p.window(0, RegSize-1)
		p.regExch(&p.Reg[M_REG], &p.Reg[C_REG])
	case 0o0510: // m1 -> c
		p.window(0, RegSize-1)
		p.regCopy(&p.Reg[C_REG], &p.Reg[M_REG])
	case 0o0610: // m2 exch c
		p.window(0, RegSize-1)
		p.regExch(&p.Reg[N_REG], &p.Reg[C_REG])
	case 0o0710: // m2 -> c
		p.window(0, RegSize-1)
		p.regCopy(&p.Reg[C_REG], &p.Reg[N_REG])
	case 0o1010: // stack -> a
		p.window(0, RegSize-1)
		p.regCopy(&p.Reg[A_REG], &p.Reg[Y_REG])
		p.regCopy(&p.Reg[Y_REG], &p.Reg[Z_REG])
		p.regCopy(&p.Reg[Z_REG], &p.Reg[T_REG])
	case 0o1110: // down rotate
		p.window(0, RegSize-1)
		p.regExch(&p.Reg[T_REG], &p.Reg[C_REG])
		p.regExch(&p.Reg[C_REG], &p.Reg[Y_REG])
		p.regExch(&p.Reg[Y_REG], &p.Reg[Z_REG])
	case 0o1210: // y -> a
		p.window(0, RegSize-1)
		p.regCopy(&p.Reg[A_REG], &p.Reg[Y_REG])
	case 0o1310: // c -> stack
		p.window(0, RegSize-1)
		p.regCopy(&p.Reg[T_REG], &p.Reg[Z_REG])
		p.regCopy(&p.Reg[Z_REG], &p.Reg[Y_REG])
		p.regCopy(&p.Reg[Y_REG], &p.Reg[C_REG])
	case 0o1410: // decimal
		p.Base = 10
	case 0o1610: // f -> a
		p.Reg[A_REG].Nibble[0] = p.F
	case 0o1710: // f exch a
		p.F, p.Reg[A_REG].Nibble[0] = p.Reg[A_REG].Nibble[0], p.F
	default:
		err = p.opcodeFault(opcode)
	}

	return
}

// arith executes the class 2 operations: field window selection followed
// by the 5-bit operation.  A P relative window with the pointer beyond
// the register runs clamped and surfaces the fault afterwards.
func (p *Processor) arith(opcode Opcode) (err error) {
	first, last, ok := opcode.Field().Window(p.P)
	p.window(first, last)
	if !ok {
		err = &ErrPointer{Bank: p.RomBank, Pc: p.Pc, Opcode: opcode, P: p.P}
	}

	switch opcode.ArithOp() {
	case ARITH_ZERO_A:
		p.regCopy(&p.Reg[A_REG], nil)
	case ARITH_ZERO_B:
		p.regCopy(&p.Reg[B_REG], nil)
	case ARITH_A_EXCH_B:
		p.regExch(&p.Reg[A_REG], &p.Reg[B_REG])
	case ARITH_A_TO_B:
		p.regCopy(&p.Reg[B_REG], &p.Reg[A_REG])
	case ARITH_A_EXCH_C:
		p.regExch(&p.Reg[A_REG], &p.Reg[C_REG])
	case ARITH_C_TO_A:
		p.regCopy(&p.Reg[A_REG], &p.Reg[C_REG])
	case ARITH_B_TO_C:
		p.regCopy(&p.Reg[C_REG], &p.Reg[B_REG])
	case ARITH_B_EXCH_C:
		p.regExch(&p.Reg[B_REG], &p.Reg[C_REG])
	case ARITH_ZERO_C:
		p.regCopy(&p.Reg[C_REG], nil)
	case ARITH_A_ADD_B:
		p.regAdd(&p.Reg[A_REG], &p.Reg[A_REG], &p.Reg[B_REG])
	case ARITH_A_ADD_C:
		p.regAdd(&p.Reg[A_REG], &p.Reg[A_REG], &p.Reg[C_REG])
	case ARITH_C_ADD_C:
		p.regAdd(&p.Reg[C_REG], &p.Reg[C_REG], &p.Reg[C_REG])
	case ARITH_C_ADD_A:
		p.regAdd(&p.Reg[C_REG], &p.Reg[C_REG], &p.Reg[A_REG])
	case ARITH_A_INC:
		p.regInc(&p.Reg[A_REG])
	case ARITH_A_SHL:
		p.regShl(&p.Reg[A_REG])
	case ARITH_C_INC:
		p.regInc(&p.Reg[C_REG])
	case ARITH_A_SUB_B:
		p.regSub(&p.Reg[A_REG], &p.Reg[A_REG], &p.Reg[B_REG])
	case ARITH_C_SUB_FROM_A:
		p.regSub(&p.Reg[C_REG], &p.Reg[A_REG], &p.Reg[C_REG])
	case ARITH_A_DEC:
		p.regDec(&p.Reg[A_REG])
	case ARITH_C_DEC:
		p.regDec(&p.Reg[C_REG])
	case ARITH_C_NEG:
		p.regSub(&p.Reg[C_REG], nil, &p.Reg[C_REG])
	case ARITH_C_CPL:
		p.Carry = true
		p.regSub(&p.Reg[C_REG], nil, &p.Reg[C_REG])
	case ARITH_IF_B_ZERO:
		p.regTestEq(&p.Reg[B_REG], nil)
		p.incPc()
		p.condGoto()
	case ARITH_IF_C_ZERO:
		p.regTestEq(&p.Reg[C_REG], nil)
		p.incPc()
		p.condGoto()
	case ARITH_IF_A_GE_C:
		p.regSub(nil, &p.Reg[A_REG], &p.Reg[C_REG])
		p.incPc()
		p.condGoto()
	case ARITH_IF_A_GE_B:
		p.regSub(nil, &p.Reg[A_REG], &p.Reg[B_REG])
		p.incPc()
		p.condGoto()
	case ARITH_IF_A_NE_ZERO:
		p.regTestNe(&p.Reg[A_REG], nil)
		p.incPc()
		p.condGoto()
	case ARITH_IF_C_NE_ZERO:
		p.regTestNe(&p.Reg[C_REG], nil)
		p.incPc()
		p.condGoto()
	case ARITH_A_SUB_C:
		p.regSub(&p.Reg[A_REG], &p.Reg[A_REG], &p.Reg[C_REG])
	case ARITH_A_SHR:
		p.regShr(&p.Reg[A_REG])
	case ARITH_B_SHR:
		p.regShr(&p.Reg[B_REG])
	case ARITH_C_SHR:
		p.regShr(&p.Reg[C_REG])
	}

	return
}
