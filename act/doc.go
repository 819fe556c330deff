// Package act emulates the ACT serial arithmetic controller used by the
// Woodstock family of RPN calculators.
//
// The processor consists of eight 56-bit registers (A, B, C general
// purpose, Y, Z, T stack, M, N memory) of fourteen 4-bit nibbles each, a
// file of data memory registers, a four level return address ring, a
// 4-bit pointer register P, a one nibble F register, a 16-bit status
// word, and a program counter into a banked mask ROM of 10-bit words.
// Every arithmetic instruction acts on a field, a contiguous nibble
// window selected by a 3-bit modifier in the instruction word.
//
// Execution is cycle stepped: each Tick fetches, decodes, and executes
// exactly one instruction and advances the program counter.  The PC
// advance latches the carry flag into the previous carry flag, which is
// what the conditional branch instructions observe one word later.
//
// The package also provides a disassembler for the trace output and a
// single pass assembler so that ROM images can be built symbolically.
package act
