package act

import (
	"errors"

	"github.com/ezrec/woodstock/translate"
)

var f = translate.From

var (
	// Assembler errors
	ErrEquateSyntax    = errors.New(f(".equ syntax"))
	ErrEquateDuplicate = errors.New(f(".equ duplicated"))
	ErrLabelDuplicate  = errors.New(f("label duplicated"))
	ErrOpcodeMissing   = errors.New(f("opcode missing"))
	ErrOpcodeInvalid   = errors.New(f("opcode invalid"))
	ErrOperandMissing  = errors.New(f("operand missing"))
	ErrOperandExtra    = errors.New(f("excessive operands"))
	ErrFieldInvalid    = errors.New(f("field invalid"))
	ErrOperandRange    = errors.New(f("operand out of range"))
)

// ErrOpcode is a decoder fault: an instruction word outside the
// documented set.  The processor state is left intact so the host can
// inspect it and resume or reset.
type ErrOpcode struct {
	Bank   int
	Pc     int
	Opcode Opcode
}

func (err *ErrOpcode) Error() string {
	return f("unexpected opcode %04o at %o-%04o", uint16(err.Opcode), err.Bank, err.Pc)
}

func (err *ErrOpcode) Is(target error) (ok bool) {
	_, ok = target.(*ErrOpcode)
	return
}

// ErrPointer is a decoder fault: a P relative field window was selected
// while the pointer lies beyond the register.  The operation runs with
// the clamped window before the fault is surfaced.
type ErrPointer struct {
	Bank   int
	Pc     int
	Opcode Opcode
	P      int
}

func (err *ErrPointer) Error() string {
	return f("pointer %d beyond register at %o-%04o opcode %04o", err.P, err.Bank, err.Pc, uint16(err.Opcode))
}

func (err *ErrPointer) Is(target error) (ok bool) {
	_, ok = target.(*ErrPointer)
	return
}

// ErrAddress is an address fault: a computed data address beyond the
// addressable window.
type ErrAddress struct {
	Bank    int
	Pc      int
	Address int
}

func (err *ErrAddress) Error() string {
	return f("address %05o out of range at %o-%04o", err.Address, err.Bank, err.Pc)
}

func (err *ErrAddress) Is(target error) (ok bool) {
	_, ok = target.(*ErrAddress)
	return
}

// ErrLabelMissing is an assembler error for an unresolved branch label.
type ErrLabelMissing string

func (el ErrLabelMissing) Error() string {
	return f("label %v missing", string(el))
}

// ErrSyntax wraps an assembler error with its source location.
type ErrSyntax struct {
	LineNo int
	Line   string
	Err    error
}

func (err ErrSyntax) Error() string {
	return f("line %d '%v' %v", err.LineNo, err.Line, err.Err)
}

func (err ErrSyntax) Unwrap() error {
	return err.Err
}

// ErrParseNumber is an assembler error for an unparsable value.
type ErrParseNumber string

func (err ErrParseNumber) Error() string {
	return f("'%v' is not a number", string(err))
}

// ErrParseExpression is an assembler error for a bad $() expression.
type ErrParseExpression string

func (err ErrParseExpression) Error() string {
	return f("$(%v) is not a valid expression", string(err))
}
