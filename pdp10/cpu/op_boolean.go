package cpu

import "github.com/rcornwell/pdp10/pdp10/word"

// booleanFn is one of the 16 two-input boolean functions selectable by
// the 4-bit function field embedded in opcodes 0400-0474 (low 2 bits of
// the opcode select basic/immediate/memory/both within a function, the
// next 4 bits select the function). acVal is the AC operand, opnd the
// EA-derived operand.
type booleanFn func(acVal, opnd uint64) uint64

// installBoolean wires all 16 boolean functions (SETZ, AND, ANDCA, SETM,
// ANDCM, SETA, XOR, IOR, ANDCB, EQV, SETCA, ORCA, SETCM, ORCM, ORCB,
// SETO), each as a basic/immediate/memory/both quartet, matching
// ka10_cpu.c's 0400-0477 block verbatim in base-opcode assignment.
func (c *CPU) installBoolean() {
	fns := []struct {
		base uint32
		name string
		fn   booleanFn
	}{
		{0400, "SETZ", func(a, o uint64) uint64 { return 0 }},
		{0404, "AND", func(a, o uint64) uint64 { return a & o }},
		{0410, "ANDCA", func(a, o uint64) uint64 { return ^a & o }},
		{0414, "SETM", func(a, o uint64) uint64 { return o }},
		{0420, "ANDCM", func(a, o uint64) uint64 { return a &^ o }},
		{0424, "SETA", func(a, o uint64) uint64 { return a }},
		{0430, "XOR", func(a, o uint64) uint64 { return a ^ o }},
		{0434, "IOR", func(a, o uint64) uint64 { return a | o }},
		{0440, "ANDCB", func(a, o uint64) uint64 { return ^a &^ o }},
		{0444, "EQV", func(a, o uint64) uint64 { return ^(a ^ o) }},
		{0450, "SETCA", func(a, o uint64) uint64 { return ^a }},
		{0454, "ORCA", func(a, o uint64) uint64 { return ^a | o }},
		{0460, "SETCM", func(a, o uint64) uint64 { return ^o }},
		{0464, "ORCM", func(a, o uint64) uint64 { return a | ^o }},
		{0470, "ORCB", func(a, o uint64) uint64 { return ^a | ^o }},
		{0474, "SETO", func(a, o uint64) uint64 { return ^uint64(0) }},
	}
	for _, f := range fns {
		fn := f.fn
		body := func(c *CPU, s *stepInfo) { s.ar = fn(s.acVal, s.opnd) & word.Mask }
		c.install(f.base, f.name, discFetch|discLoadAC|discStoreAC, body)
		c.install(f.base+1, f.name+"I", discImmediate|discLoadAC|discStoreAC, body)
		c.install(f.base+2, f.name+"M", discFetch|discLoadAC|discStoreMem, body)
		c.install(f.base+3, f.name+"B", discFetch|discLoadAC|discStoreMem|discStoreAC, body)
	}
}
