package act

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOpcode_Class(t *testing.T) {
	assert := assert.New(t)

	assert.Equal(OP_SPECIAL, Opcode(0o1760).Class())
	assert.Equal(OP_JSB, Opcode(0o0011).Class())
	assert.Equal(OP_ARITH, Opcode(0o0772).Class())
	assert.Equal(OP_BRANCH, Opcode(0o0243).Class())
}

func TestField_Window(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		field Field
		p     int
		first int
		last  int
		ok    bool
	}){
		{FIELD_P, 3, 3, 3, true},
		{FIELD_P, 14, 14, 0, false},
		{FIELD_WP, 5, 0, 5, true},
		{FIELD_WP, 14, 0, 13, false},
		{FIELD_XS, 0, 2, 2, true},
		{FIELD_X, 0, 0, 1, true},
		{FIELD_S, 0, 13, 13, true},
		{FIELD_M, 0, 3, 12, true},
		{FIELD_W, 0, 0, 13, true},
		{FIELD_MS, 0, 3, 13, true},
	}

	for _, entry := range table {
		first, last, ok := entry.field.Window(entry.p)
		assert.Equal(entry.first, first, entry.field)
		assert.Equal(entry.last, last, entry.field)
		assert.Equal(entry.ok, ok, entry.field)
	}
}

func TestOpcode_PermutedTables(t *testing.T) {
	assert := assert.New(t)

	// The permutations are part of the instruction set ABI.
	assert.Equal([16]int{14, 4, 7, 8, 11, 2, 10, 12, 1, 3, 13, 6, 0, 9, 5, 14}, setPTable)
	assert.Equal([16]int{4, 8, 12, 2, 9, 1, 6, 3, 1, 13, 5, 0, 11, 10, 7, 4}, tstPTable)
}

func TestDisassemble(t *testing.T) {
	assert := assert.New(t)

	table := [](struct {
		word     uint16
		pc       int
		mnemonic string
	}){
		{0o0000, 0, "nop"},
		{0o0020, 0, "keys -> rom address"},
		{0o0420, 0, "binary"},
		{0o0620, 0, "p - 1 -> p"},
		{0o0720, 0, "p + 1 -> p"},
		{0o1020, 0, "return"},
		{0o0240, 0, "select rom 02"},
		{0o1160, 0, "c -> data address"},
		{0o1260, 0, "clear data registers"},
		{0o1760, 0, "hi I'm woodstock"},
		{0o0404, 0, "1 -> s(4)"},
		{0o0424, 0, "if 1 = s(4)"},
		{0o0264, 0, "delayed select rom 2"},
		{0o0010, 0, "clear registers"},
		{0o0110, 0, "clear s"},
		{0o0210, 0, "display toggle"},
		{0o0310, 0, "display off"},
		{0o1110, 0, "down rotate"},
		{0o1130, 0, "load 9"},
		{0o1474, 0, "p = 0"},
		{0o1074, 0, "p = 1"},
		{0o1354, 0, "if p # 0"},
		{0o0354, 0, "if p # 2"},
		{0o0772, 0, "c + 1 -> c[w]"},
		{0o0002, 0, "0 -> a[p]"},
		{0o1532, 0, "if a[w] <> 0"},
		{0o0011, 0o0400, "jsb 0402"},
		{0o0203, 0o0400, "if nc goto 0440"},
		{0o0050, 0, "?"},
	}

	for _, entry := range table {
		assert.Equal(entry.mnemonic, Disassemble(entry.word, entry.pc), "%04o", entry.word)
	}
}

func TestArithOp_IsTest(t *testing.T) {
	assert := assert.New(t)

	for aop := ArithOp(0); aop < 32; aop++ {
		want := aop >= ARITH_IF_B_ZERO && aop <= ARITH_IF_C_NE_ZERO
		assert.Equal(want, aop.IsTest(), aop)
	}
}
