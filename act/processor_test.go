package act

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// assemble builds a processor over the assembled source.
func assemble(t *testing.T, source ...string) (p *Processor) {
	asm := &Assembler{}
	prog, err := asm.Parse(strings.NewReader(strings.Join(source, "\n")))
	assert.NoError(t, err)

	image, err := prog.Image()
	assert.NoError(t, err)

	return NewProcessor(image, 8)
}

// run ticks the processor, failing the test on any fault.
func run(t *testing.T, p *Processor, ticks int) {
	for range ticks {
		assert.NoError(t, p.Tick())
	}
}

func TestProcessor_Reset(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "nop")

	p.Status = 0xffff
	p.Carry = true
	p.P = 7
	p.Base = 16
	p.Reg[C_REG].Nibble[5] = 9
	p.Ram[2].Nibble[0] = 3
	p.Stack.Push(0o0123)

	p.Reset()

	assert.Equal(uint16(1<<STATUS_RAD|1<<STATUS_POINT), p.Status)
	assert.True(p.Mode)
	assert.False(p.Carry)
	assert.False(p.PrevCarry)
	assert.Equal(0, p.Pc)
	assert.Equal(0, p.P)
	assert.Equal(10, p.Base)
	assert.Equal(Register{Id: -3}, p.Reg[C_REG])
	assert.Equal(Register{Id: 2}, p.Ram[2])
	assert.Equal(0, p.Stack.Sp)

	// Reset is idempotent.
	before := *p
	p.Reset()
	assert.Equal(before.Status, p.Status)
	assert.Equal(before.Reg, p.Reg)
}

func TestProcessor_LoadIncrement(t *testing.T) {
	assert := assert.New(t)

	// Load digits 987 into the low nibbles of C and increment.
	p := assemble(t,
		"        p= 2",
		"        load 9",
		"        load 8",
		"        load 7",
		"        c=c+1 w",
	)

	run(t, p, 4)
	assert.Equal(uint8(9), p.Reg[C_REG].Nibble[2])
	assert.Equal(uint8(8), p.Reg[C_REG].Nibble[1])
	assert.Equal(uint8(7), p.Reg[C_REG].Nibble[0])
	assert.Equal(13, p.P)

	run(t, p, 1)
	assert.Equal(uint8(8), p.Reg[C_REG].Nibble[0])
	assert.False(p.PrevCarry)
}

func TestProcessor_LoadPointerWalk(t *testing.T) {
	assert := assert.New(t)

	// Loading walks the pointer down from 13.
	p := assemble(t,
		"        p= 13",
		"        load 9",
		"        load 8",
		"        load 7",
	)

	run(t, p, 1)
	assert.Equal(13, p.P)
	for n, want := range []int{12, 11, 10} {
		run(t, p, 1)
		assert.Equal(want, p.P, n)
	}
	assert.Equal(uint8(9), p.Reg[C_REG].Nibble[13])
	assert.Equal(uint8(8), p.Reg[C_REG].Nibble[12])
	assert.Equal(uint8(7), p.Reg[C_REG].Nibble[11])
}

func TestProcessor_IncrementOverflow(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        c=c+1 w")
	for n := range p.Reg[C_REG].Nibble {
		p.Reg[C_REG].Nibble[n] = 9
	}

	run(t, p, 1)
	assert.Equal(Register{Id: -3}, p.Reg[C_REG])
	assert.True(p.PrevCarry)
	assert.False(p.Carry)
}

func TestProcessor_IncrementHex(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        binary",
		"        c=c+1 w",
	)
	p.Reg[C_REG].Nibble[0] = 0xf

	run(t, p, 2)
	assert.Equal(uint8(0), p.Reg[C_REG].Nibble[0])
	assert.Equal(uint8(1), p.Reg[C_REG].Nibble[1])
	assert.False(p.PrevCarry)
	assert.Equal(16, p.Base)
}

func TestProcessor_StatusBranch(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        1->s 4",
		"        ?1=s 4",
		"        goto 0x123",
	)

	run(t, p, 2)
	assert.Equal(0x123, p.Pc)
}

func TestProcessor_StatusBranchNotTaken(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        ?1=s 4",
		"        goto 0x123",
		"        nop",
	)

	run(t, p, 1)
	assert.Equal(2, p.Pc)
	// The test's carry was latched away by the advance onto the branch
	// word; by the end of the tick both flags are clear again.
	assert.False(p.Carry)
	assert.False(p.PrevCarry)
}

func TestProcessor_DelayedRom(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        .org 0x100",
		"        delrom 2",
		"        brnc 0x50",
	)
	p.Pc = 0x100

	run(t, p, 1)
	assert.True(p.DelayedRom)
	assert.Equal(2, p.DelayedBank)
	assert.Equal(0x101, p.Pc)

	run(t, p, 1)
	assert.False(p.DelayedRom)
	assert.Equal(0x250, p.Pc)
}

func TestProcessor_DelayedRomLastWins(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        delrom 2",
		"        delrom 3",
		"        brnc 0x50",
	)

	run(t, p, 3)
	assert.Equal(0x350, p.Pc)
}

func TestProcessor_DelayedRomCommitsWhenDeclined(t *testing.T) {
	assert := assert.New(t)

	// A declined "if nc goto" still commits the pending selection.
	p := assemble(t,
		"        delrom 3",
		"        c=c-1 w",
		"        brnc 0x50",
	)

	run(t, p, 3)
	assert.False(p.DelayedRom)
	assert.Equal(0x303, p.Pc)
}

func TestProcessor_CompareBranch(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        ?a>=c w",
		"        goto 0x080",
	)
	p.Reg[A_REG].Load(1, 2, 3)
	p.Reg[C_REG].Load(1, 2, 3)

	run(t, p, 1)
	assert.Equal(0x080, p.Pc)
}

func TestProcessor_CompareBranchDeclined(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        ?a>=c w",
		"        goto 0x080",
	)
	p.Reg[C_REG].Nibble[0] = 1

	run(t, p, 1)
	assert.Equal(2, p.Pc)
}

func TestProcessor_TestPolarityPair(t *testing.T) {
	assert := assert.New(t)

	// Exactly one of the eq/ne branches is taken for the same field.
	for _, zero := range []bool{true, false} {
		p := assemble(t,
			"        ?c=0 w",
			"        goto 0x100",
			"        ?c#0 w",
			"        goto 0x200",
			"        nop",
		)
		if !zero {
			p.Reg[C_REG].Nibble[4] = 7
		}

		run(t, p, 1)
		if zero {
			assert.Equal(0x100, p.Pc)
		} else {
			assert.Equal(2, p.Pc)
			run(t, p, 1)
			assert.Equal(0x200, p.Pc)
		}
	}
}

func TestProcessor_JsbReturn(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        jsb sub",
		"        nop",
		"sub:    return",
	)

	run(t, p, 1)
	assert.Equal(2, p.Pc)
	assert.Equal(1, p.Stack.Sp)
	assert.Equal(0, p.Stack.Data[0])

	run(t, p, 1)
	assert.Equal(1, p.Pc)
	assert.Equal(0, p.Stack.Sp)
}

func TestProcessor_SelectRom(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        selrom 2")

	run(t, p, 1)
	assert.Equal(0x201, p.Pc)

	// Selecting the same ROM again is identity on the page bits.
	p.special(Opcode(0o0240))
	p.special(Opcode(0o0240))
	assert.Equal(0x201, p.Pc)
}

func TestProcessor_KeysDispatch(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        .org 0x105",
		"        keys",
	)
	p.Pc = 0x105
	p.SetKey(0x23, true)

	assert.True(p.StatusBit(STATUS_KEY))
	run(t, p, 1)
	assert.Equal(0x123, p.Pc)
}

func TestProcessor_StickyStatus(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        clrs")
	p.Status = 0xffff

	run(t, p, 1)
	assert.Equal(stickyStatus, p.Status)
}

func TestProcessor_ClearStatusKeydown(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		name    string
		bit     int
		keydown bool
		want    uint16
	}){
		{"s15_keydown", 15, true, 0xffff},
		{"s15_released", 15, false, 0xffff &^ (1 << 15)},
		{"s5_keydown", 5, true, 0xffff},
		// Clearing s5 clears s15 instead, and only once the key is up.
		{"s5_released", 5, false, 0xffff &^ (1 << 15)},
		{"s0_any", 0, false, 0xffff &^ (1 << 0)},
	}

	for _, entry := range table {
		p := assemble(t, "        nop")
		p.Status = 0xffff
		p.Keydown = entry.keydown

		code := Opcode(0o0014) | Opcode(entry.bit)<<6
		assert.NoError(p.special(code), entry.name)
		assert.Equal(entry.want, p.Status, entry.name)
	}
}

func TestProcessor_PointerWrap(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        p=p-1",
		"        p=p+1",
		"        p=p+1",
	)

	run(t, p, 1)
	assert.Equal(RegSize, p.P)
	run(t, p, 2)
	assert.Equal(1, p.P)
}

func TestProcessor_PointerBranches(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        p= 3",
		"        ?p= 3",
		"        goto 0x080",
	)

	run(t, p, 2)
	assert.Equal(0x080, p.Pc)

	p = assemble(t,
		"        p= 3",
		"        ?p# 3",
		"        goto 0x080",
		"        nop",
	)

	run(t, p, 2)
	assert.Equal(3, p.Pc)
}

func TestProcessor_RegisterStack(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        c->stack",
		"        downrot",
		"        stack->a",
		"        y->a",
	)
	p.Reg[C_REG].Nibble[0] = 1

	// c -> stack: Y=C, Z=old Y, T=old Z.
	run(t, p, 1)
	assert.Equal(uint8(1), p.Reg[Y_REG].Nibble[0])

	// down rotate: C=Y, Y=Z, Z=T, T=old C.
	run(t, p, 1)
	assert.Equal(uint8(1), p.Reg[C_REG].Nibble[0])
	assert.Equal(uint8(1), p.Reg[T_REG].Nibble[0])
	assert.Equal(uint8(0), p.Reg[Y_REG].Nibble[0])

	// stack -> a: A=Y, Y=Z, Z=T.
	run(t, p, 1)
	assert.Equal(uint8(0), p.Reg[A_REG].Nibble[0])
	assert.Equal(uint8(1), p.Reg[Z_REG].Nibble[0])

	// y -> a.
	run(t, p, 1)
	assert.Equal(p.Reg[Y_REG].Nibble, p.Reg[A_REG].Nibble)
}

func TestProcessor_MemoryRegisters(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        m1exch",
		"        c=m1",
		"        m2exch",
		"        c=m2",
	)
	p.Reg[C_REG].Nibble[0] = 5

	run(t, p, 2)
	assert.Equal(uint8(5), p.Reg[M_REG].Nibble[0])
	assert.Equal(uint8(5), p.Reg[C_REG].Nibble[0])

	p.Reg[N_REG].Nibble[0] = 7
	run(t, p, 1)
	assert.Equal(uint8(5), p.Reg[N_REG].Nibble[0])
	assert.Equal(uint8(7), p.Reg[C_REG].Nibble[0])

	run(t, p, 1)
	assert.Equal(uint8(5), p.Reg[C_REG].Nibble[0])
}

func TestProcessor_FRegister(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        f->a",
		"        fexch",
	)
	p.F = 0xa
	p.Base = 16

	run(t, p, 1)
	assert.Equal(uint8(0xa), p.Reg[A_REG].Nibble[0])

	p.Reg[A_REG].Nibble[0] = 3
	run(t, p, 1)
	assert.Equal(uint8(0xa), p.Reg[A_REG].Nibble[0])
	assert.Equal(uint8(3), p.F)
}

func TestProcessor_Display(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        disptog",
		"        disptog",
		"        disptog",
		"        dispoff",
	)

	run(t, p, 1)
	assert.True(p.DisplayEnable)
	run(t, p, 1)
	assert.False(p.DisplayEnable)
	run(t, p, 1)
	assert.True(p.DisplayEnable)
	run(t, p, 1)
	assert.False(p.DisplayEnable)
}

func TestProcessor_DataAddress(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        c->addr")
	p.Reg[C_REG].Nibble[1] = 2
	p.Reg[C_REG].Nibble[0] = 5

	run(t, p, 1)
	assert.Equal(0x25, p.Address)
}

func TestProcessor_DataAddressWide(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        c->addr")
	p.Base = 16
	p.Reg[C_REG].Nibble[1] = 0xf
	p.Reg[C_REG].Nibble[0] = 0xf

	assert.NoError(p.Tick())
	assert.Equal(0xff, p.Address)
}

func TestProcessor_ClearDataRegisters(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        clrdata")
	p.Ram[3].Nibble[7] = 9
	p.Reg[A_REG].Nibble[0] = 1

	run(t, p, 1)
	assert.Equal(Register{Id: 3}, p.Ram[3])
	assert.Equal(uint8(1), p.Reg[A_REG].Nibble[0])
}

func TestProcessor_ClearRegisters(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t, "        clrregs")
	p.Reg[A_REG].Nibble[5] = 9
	p.Stack.Push(0o0123)
	p.Ram[0].Nibble[0] = 4

	run(t, p, 1)
	assert.Equal(Register{Id: -1}, p.Reg[A_REG])
	assert.Equal(0, p.Stack.Sp)
	// Data memory is untouched.
	assert.Equal(uint8(4), p.Ram[0].Nibble[0])
}

func TestProcessor_FieldScopedArith(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        p= 3",
		"        a=a+1 p",
	)

	run(t, p, 2)
	assert.Equal(uint8(1), p.Reg[A_REG].Nibble[3])
	assert.Equal(uint8(0), p.Reg[A_REG].Nibble[0])
	assert.Equal(3, p.First)
	assert.Equal(3, p.Last)
}

func TestProcessor_DecoderFault(t *testing.T) {
	assert := assert.New(t)

	// 0o1560 falls in group 0 subgroup 3 but is not a documented word.
	p := assemble(t, "        .word 0o1560")

	err := p.Tick()
	assert.Error(err)
	assert.ErrorIs(err, &ErrOpcode{})

	var fault *ErrOpcode
	assert.True(errors.As(err, &fault))
	assert.Equal(0, fault.Bank)
	assert.Equal(0, fault.Pc)
	assert.Equal(Opcode(0o1560), fault.Opcode)

	// The fault does not corrupt state; the host may resume.
	assert.Equal(1, p.Pc)
}

func TestProcessor_PointerFault(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        p=p-1",
		"        a=a+1 p",
	)

	run(t, p, 1)
	assert.Equal(RegSize, p.P)

	err := p.Tick()
	assert.ErrorIs(err, &ErrPointer{})
}

func TestProcessor_CarryLatch(t *testing.T) {
	assert := assert.New(t)

	// Carry is only visible to the immediately following word.
	p := assemble(t,
		"        c=c-1 w",
		"        nop",
	)

	run(t, p, 1)
	assert.True(p.PrevCarry)
	assert.False(p.Carry)

	run(t, p, 1)
	assert.False(p.PrevCarry)
}

func TestProcessor_NibbleInvariant(t *testing.T) {
	assert := assert.New(t)

	p := assemble(t,
		"        c=c+c w",
		"        c=c+1 w",
		"        c=0-c w",
		"        asl w",
		"        asr w",
		"        brnc 0",
	)
	p.Reg[C_REG].Load(9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9, 9)

	for range 64 {
		assert.NoError(p.Tick())
		for _, reg := range p.Reg {
			for n, nibble := range reg.Nibble {
				assert.Less(int(nibble), p.Base, "%v nibble %d", &reg, n)
			}
		}
		assert.GreaterOrEqual(p.Pc, 0)
		assert.Less(p.Pc, 4096)
		assert.GreaterOrEqual(p.Stack.Sp, 0)
		assert.Less(p.Stack.Sp, StackSize)
	}
}
