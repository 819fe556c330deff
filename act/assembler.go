// Copyright 2025, Jason S. McMullan <jason.mcmullan@gmail.com>

package act

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"regexp"
	"strconv"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"

	"github.com/ezrec/woodstock/rom"
)

// Predefined system equates
var sysEquate = map[string]string{
	"REG_SIZE":   fmt.Sprintf("%v", RegSize),
	"STACK_SIZE": fmt.Sprintf("%v", StackSize),
}

// Assembler is a single pass assembler for the ACT instruction set.
//
// Each source line is `[label:] mnemonic [operand]`, with ';' comments
// and `$( ... )` starlark expressions evaluated at assembly time.
// Directives: `.equ NAME VALUE`, `.org VALUE`, `.bank VALUE`,
// `.word VALUE`.
// Branch operands may reference labels defined later; they are patched
// once the listing is complete.
type Assembler struct {
	Verbose bool // If set, verbosely logs the assembler actions.

	predefine map[string]string // Predefines
	Label     map[string]int    // Map of branch labels to addresses.
	Equate    map[string]string // Map of equates.
}

// Predefine defines a new equate or redefines an existing equate.
func (asm *Assembler) Predefine(equ string, value string) {
	if asm.predefine == nil {
		asm.predefine = map[string]string{equ: value}
	} else {
		asm.predefine[equ] = value
	}
}

// argKind says how a special mnemonic encodes its operand.
type argKind int

const (
	ARG_NONE = argKind(0) // No operand.
	ARG_N    = argKind(1) // Operand 0..15 into the top four bits.
	ARG_SETP = argKind(2) // Operand permuted through the p-set table.
	ARG_TSTP = argKind(3) // Operand permuted through the p-test table.
)

type specialDef struct {
	code Opcode
	arg  argKind
}

// specialDefs maps special class mnemonics to their base words.
var specialDefs = map[string]specialDef{
	"nop":       {0o0000, ARG_NONE},
	"keys":      {0o0020, ARG_NONE},
	"binary":    {0o0420, ARG_NONE},
	"p=p-1":     {0o0620, ARG_NONE},
	"p=p+1":     {0o0720, ARG_NONE},
	"return":    {0o1020, ARG_NONE},
	"selrom":    {0o0040, ARG_N},
	"c->addr":   {0o1160, ARG_NONE},
	"clrdata":   {0o1260, ARG_NONE},
	"woodstock": {0o1760, ARG_NONE},

	"1->s":   {0o0004, ARG_N},
	"?1=s":   {0o0024, ARG_N},
	"?p=":    {0o0044, ARG_TSTP},
	"delrom": {0o0064, ARG_N},

	"clrregs":  {0o0010, ARG_NONE},
	"clrs":     {0o0110, ARG_NONE},
	"disptog":  {0o0210, ARG_NONE},
	"dispoff":  {0o0310, ARG_NONE},
	"m1exch":   {0o0410, ARG_NONE},
	"c=m1":     {0o0510, ARG_NONE},
	"m2exch":   {0o0610, ARG_NONE},
	"c=m2":     {0o0710, ARG_NONE},
	"stack->a": {0o1010, ARG_NONE},
	"downrot":  {0o1110, ARG_NONE},
	"y->a":     {0o1210, ARG_NONE},
	"c->stack": {0o1310, ARG_NONE},
	"decimal":  {0o1410, ARG_NONE},
	"f->a":     {0o1610, ARG_NONE},
	"fexch":    {0o1710, ARG_NONE},
	"load":     {0o0030, ARG_N},

	"0->s": {0o0014, ARG_N},
	"?0=s": {0o0034, ARG_N},
	"?p#":  {0o0054, ARG_TSTP},
	"p=":   {0o0074, ARG_SETP},
}

// arithDefs maps arithmetic mnemonics to the 5-bit operation.  The
// operand is the field name.
var arithDefs = map[string]ArithOp{
	"a=0":     ARITH_ZERO_A,
	"b=0":     ARITH_ZERO_B,
	"abex":    ARITH_A_EXCH_B,
	"b=a":     ARITH_A_TO_B,
	"acex":    ARITH_A_EXCH_C,
	"a=c":     ARITH_C_TO_A,
	"c=b":     ARITH_B_TO_C,
	"bcex":    ARITH_B_EXCH_C,
	"c=0":     ARITH_ZERO_C,
	"a=a+b":   ARITH_A_ADD_B,
	"a=a+c":   ARITH_A_ADD_C,
	"c=c+c":   ARITH_C_ADD_C,
	"c=a+c":   ARITH_C_ADD_A,
	"a=a+1":   ARITH_A_INC,
	"asl":     ARITH_A_SHL,
	"c=c+1":   ARITH_C_INC,
	"a=a-b":   ARITH_A_SUB_B,
	"c=a-c":   ARITH_C_SUB_FROM_A,
	"a=a-1":   ARITH_A_DEC,
	"c=c-1":   ARITH_C_DEC,
	"c=0-c":   ARITH_C_NEG,
	"c=0-c-1": ARITH_C_CPL,
	"?b=0":    ARITH_IF_B_ZERO,
	"?c=0":    ARITH_IF_C_ZERO,
	"?a>=c":   ARITH_IF_A_GE_C,
	"?a>=b":   ARITH_IF_A_GE_B,
	"?a#0":    ARITH_IF_A_NE_ZERO,
	"?c#0":    ARITH_IF_C_NE_ZERO,
	"a=a-c":   ARITH_A_SUB_C,
	"asr":     ARITH_A_SHR,
	"bsr":     ARITH_B_SHR,
	"csr":     ARITH_C_SHR,
}

// fieldDefs maps field names to modifiers.
var fieldDefs = map[string]Field{
	"p":  FIELD_P,
	"wp": FIELD_WP,
	"xs": FIELD_XS,
	"x":  FIELD_X,
	"s":  FIELD_S,
	"m":  FIELD_M,
	"w":  FIELD_W,
	"ms": FIELD_MS,
}

// invertPTable maps permuted table values back to the first encoding
// index that produces them.
func invertPTable(table []int) (index map[int]int) {
	index = map[int]int{}
	for n, value := range table {
		if _, ok := index[value]; !ok {
			index[value] = n
		}
	}
	return
}

var setPIndex = invertPTable(setPTable[:])
var tstPIndex = invertPTable(tstPTable[:])

// valueOf returns the value of a simple word, resolving equates.
func (asm *Assembler) valueOf(word string) (value int, err error) {
	if equ, ok := asm.Equate[word]; ok {
		word = equ
	}

	v64, err := strconv.ParseInt(word, 0, 32)
	if err != nil {
		err = ErrParseNumber(word)
		return
	}
	value = int(v64)

	return
}

var parenRe = regexp.MustCompile(`\$\(([^)]*)\)`)

// parenEval does assembly-time $(...) evaluations
func (asm *Assembler) parenEval(expr string) (value int, err error) {
	thread := starlark.Thread{}
	opts := syntax.FileOptions{}
	pred := starlark.StringDict{}
	for key, str := range asm.Equate {
		var equval int
		equval, err = asm.valueOf(str)
		if err != nil {
			// Ignore non-integer equates. They may be field names
			// or something else.
			continue
		}
		pred[key] = starlark.MakeInt(equval)
	}
	prog := "rc=" + expr + "\n"
	dict, err := starlark.ExecFileOptions(&opts, &thread, "expr", prog, pred)
	if err != nil {
		err = ErrParseExpression(expr)
		return
	}
	st_rc, ok := dict["rc"]
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int, ok := st_rc.(starlark.Int)
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	st_int64, ok := st_int.Int64()
	if !ok {
		err = ErrParseExpression(expr)
		return
	}
	value = int(st_int64)

	return
}

// parseLine strips comments, evaluates $() expressions, and splits the
// line into words.
func (asm *Assembler) parseLine(line string) (words []string, err error) {
	if n := strings.IndexByte(line, ';'); n >= 0 {
		line = line[:n]
	}

	for {
		loc := parenRe.FindStringSubmatchIndex(line)
		if loc == nil {
			break
		}
		var value int
		value, err = asm.parenEval(line[loc[2]:loc[3]])
		if err != nil {
			return
		}
		line = line[:loc[0]] + strconv.Itoa(value) + line[loc[1]:]
	}

	words = strings.Fields(line)

	return
}

// applyTarget patches a branch target into a line's code.  Page local
// branches keep only the target low byte; the page comes from the
// program counter (or a pending ROM selection) at run time.
func applyTarget(code Opcode, kind LinkKind, target int, addr int) (out Opcode, err error) {
	if target < 0 {
		err = ErrOperandRange
		return
	}
	switch kind {
	case LINK_PAGE:
		out = code | Opcode(target&0xff)<<2
	case LINK_WORD:
		if target > rom.WordMask {
			err = ErrOperandRange
			return
		}
		out = Opcode(target)
	default:
		out = code
	}
	return
}

// encode generates the instruction word for one mnemonic line.
func (asm *Assembler) encode(words []string, addr int) (line Line, err error) {
	mnemonic := words[0]
	operands := words[1:]

	operand := func() (word string, err error) {
		if len(operands) == 0 {
			err = ErrOperandMissing
			return
		}
		if len(operands) > 1 {
			err = ErrOperandExtra
			return
		}
		word = operands[0]
		return
	}

	// target resolves a branch operand now, or defers it to link time.
	target := func(kind LinkKind, code Opcode) (err error) {
		var word string
		word, err = operand()
		if err != nil {
			return
		}
		line.Code = code
		if value, ok := asm.Label[word]; ok {
			line.Code, err = applyTarget(code, kind, value, addr)
			return
		}
		if value, verr := asm.valueOf(word); verr == nil {
			line.Code, err = applyTarget(code, kind, value, addr)
			return
		}
		line.LinkLabel = word
		line.LinkKind = kind
		return
	}

	switch mnemonic {
	case "jsb":
		err = target(LINK_PAGE, Opcode(OP_JSB))
	case "brnc":
		err = target(LINK_PAGE, Opcode(OP_BRANCH))
	case "goto":
		err = target(LINK_WORD, 0)
	case ".word":
		var word string
		word, err = operand()
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}
		if value < 0 || value > 0o1777 {
			err = ErrOperandRange
			return
		}
		line.Code = Opcode(value)
	default:
		if aop, ok := arithDefs[mnemonic]; ok {
			var word string
			word, err = operand()
			if err != nil {
				return
			}
			field, ok := fieldDefs[word]
			if !ok {
				err = ErrFieldInvalid
				return
			}
			line.Code = Opcode(aop)<<5 | Opcode(field)<<2 | Opcode(OP_ARITH)
			break
		}

		def, ok := specialDefs[mnemonic]
		if !ok {
			err = ErrOpcodeInvalid
			return
		}
		line.Code = def.code
		if def.arg == ARG_NONE {
			if len(operands) != 0 {
				err = ErrOperandExtra
			}
			break
		}

		var word string
		word, err = operand()
		if err != nil {
			return
		}
		var value int
		value, err = asm.valueOf(word)
		if err != nil {
			return
		}

		switch def.arg {
		case ARG_N:
			if value < 0 || value > 15 {
				err = ErrOperandRange
				return
			}
		case ARG_SETP:
			value, ok = setPIndex[value]
			if !ok {
				err = ErrOperandRange
				return
			}
		case ARG_TSTP:
			value, ok = tstPIndex[value]
			if !ok {
				err = ErrOperandRange
				return
			}
		}
		line.Code |= Opcode(value) << 6
	}

	return
}

// Parse assembles the input into a program listing.
func (asm *Assembler) Parse(input io.Reader) (prog *Program, err error) {
	asm.Label = map[string]int{}
	asm.Equate = map[string]string{}
	for key, value := range sysEquate {
		asm.Equate[key] = value
	}
	for key, value := range asm.predefine {
		asm.Equate[key] = value
	}

	prog = &Program{}
	addr := 0
	lineno := 0

	scanner := bufio.NewScanner(input)
	for scanner.Scan() {
		lineno++
		text := scanner.Text()

		var words []string
		words, err = asm.parseLine(text)
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
			return
		}

		// Leading labels.
		for len(words) > 0 && strings.HasSuffix(words[0], ":") {
			label := strings.TrimSuffix(words[0], ":")
			if _, ok := asm.Label[label]; ok {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrLabelDuplicate}
				return
			}
			asm.Label[label] = addr
			words = words[1:]
		}

		if len(words) == 0 {
			continue
		}

		switch words[0] {
		case ".equ":
			if len(words) != 3 {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrEquateSyntax}
				return
			}
			if _, ok := asm.Equate[words[1]]; ok {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrEquateDuplicate}
				return
			}
			asm.Equate[words[1]] = words[2]
			continue
		case ".org":
			if len(words) != 2 {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrOperandMissing}
				return
			}
			addr, err = asm.valueOf(words[1])
			if err != nil {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
				return
			}
			if addr < 0 {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrOperandRange}
				return
			}
			continue
		case ".bank":
			// Like .org, but the cursor moves to a bank origin.
			if len(words) != 2 {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrOperandMissing}
				return
			}
			var bank int
			bank, err = asm.valueOf(words[1])
			if err != nil {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
				return
			}
			if bank < 0 {
				err = ErrSyntax{LineNo: lineno, Line: text, Err: ErrOperandRange}
				return
			}
			addr = bank * rom.BankSize
			continue
		}

		var line Line
		line, err = asm.encode(words, addr)
		if err != nil {
			err = ErrSyntax{LineNo: lineno, Line: text, Err: err}
			return
		}
		line.LineNo = lineno
		line.Addr = addr
		line.Words = words

		if asm.Verbose {
			log.Printf("%04o %04o  %v", addr, uint16(line.Code), words)
		}

		prog.Lines = append(prog.Lines, line)
		addr++
	}
	if err = scanner.Err(); err != nil {
		return
	}

	// Resolve forward branch labels.
	for n := range prog.Lines {
		line := &prog.Lines[n]
		if line.LinkLabel == "" {
			continue
		}
		value, ok := asm.Label[line.LinkLabel]
		if !ok {
			err = ErrSyntax{LineNo: line.LineNo, Line: strings.Join(line.Words, " "),
				Err: ErrLabelMissing(line.LinkLabel)}
			return
		}
		line.Code, err = applyTarget(line.Code, line.LinkKind, value, line.Addr)
		if err != nil {
			err = ErrSyntax{LineNo: line.LineNo, Line: strings.Join(line.Words, " "), Err: err}
			return
		}
	}

	return
}
