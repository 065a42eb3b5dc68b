package cpu

import "github.com/rcornwell/pdp10/pdp10/word"

// installFixed wires the full-word data-movement and fixed-point
// arithmetic families (0200-0237, 0250-0253, 0270-0277): MOVE/MOVS/MOVN/
// MOVM, IMUL/MUL/IDIV/DIV, EXCH, BLT, AOBJP/AOBJN, ADD, SUB. Each family
// of four (basic/immediate/to-memory/to-both) shares one body and differs
// only in the discipline flags the dispatch loop applies.
func (c *CPU) installFixed() {
	c.installMoveFamily(0200, "MOV", func(s *stepInfo) { /* identity */ })
	c.installMoveFamily(0204, "MOVS", func(s *stepInfo) { s.ar = word.HalfSwap(s.ar) })
	c.installMoveFamily(0210, "MOVN", func(s *stepInfo) { s.ar = word.Negate(s.ar) })
	c.installMoveFamily(0214, "MOVM", func(s *stepInfo) {
		if word.IsNeg(s.ar) {
			s.ar = word.Negate(s.ar)
		}
	})

	c.install(0220, "IMUL", discFetch|discLoadAC|discStoreAC, c.opIMUL)
	c.install(0221, "IMULI", discImmediate|discLoadAC|discStoreAC, c.opIMUL)
	c.install(0222, "IMULM", discFetch|discLoadAC|discStoreMem, c.opIMUL)
	c.install(0223, "IMULB", discFetch|discLoadAC|discStoreMem|discStoreAC, c.opIMUL)
	c.install(0224, "MUL", discFetch|discLoadAC|discStoreAC|discStoreAC1, c.opMUL)
	c.install(0225, "MULI", discImmediate|discLoadAC|discStoreAC|discStoreAC1, c.opMUL)
	c.install(0226, "MULM", discFetch|discLoadAC|discStoreMem, c.opMULHighOnly)
	c.install(0227, "MULB", discFetch|discLoadAC|discStoreMem|discStoreAC|discStoreAC1, c.opMUL)

	c.install(0230, "IDIV", discFetch|discLoadAC|discStoreAC|discStoreAC1, c.opIDIV)
	c.install(0231, "IDIVI", discImmediate|discLoadAC|discStoreAC|discStoreAC1, c.opIDIV)
	c.install(0232, "IDIVM", discFetch|discLoadAC|discStoreMem, c.opIDIVQuotientOnly)
	c.install(0233, "IDIVB", discFetch|discLoadAC|discStoreMem|discStoreAC|discStoreAC1, c.opIDIV)
	c.install(0234, "DIV", discFetch|discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.opDIV)
	c.install(0235, "DIVI", discImmediate|discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.opDIV)
	c.install(0236, "DIVM", discFetch|discLoadAC|discLoadAC1|discStoreMem, c.opDIVQuotientOnly)
	c.install(0237, "DIVB", discFetch|discLoadAC|discLoadAC1|discStoreMem|discStoreAC|discStoreAC1, c.opDIV)

	c.install(0250, "EXCH", discFetch|discLoadAC, func(c *CPU, s *stepInfo) {
		// AC and memory trade values directly; the store is done here
		// rather than through the uniform discStoreMem/discStoreAC
		// discipline, which assumes one result value stored to both.
		if trap := c.writeEA(s.ea, s.acVal, s.ctx); trap != nil {
			s.trap = trap
			return
		}
		c.setAC(s.ac, s.opnd)
	})
	c.install(0251, "BLT", discLoadAC, c.opBLT)
	c.install(0252, "AOBJP", discLoadAC|discStoreAC, c.opAOBJP)
	c.install(0253, "AOBJN", discLoadAC|discStoreAC, c.opAOBJN)

	c.install(0270, "ADD", discFetch|discLoadAC|discStoreAC, c.opADD)
	c.install(0271, "ADDI", discImmediate|discLoadAC|discStoreAC, c.opADD)
	c.install(0272, "ADDM", discFetch|discLoadAC|discStoreMem, c.opADD)
	c.install(0273, "ADDB", discFetch|discLoadAC|discStoreMem|discStoreAC, c.opADD)
	c.install(0274, "SUB", discFetch|discLoadAC|discStoreAC, c.opSUB)
	c.install(0275, "SUBI", discImmediate|discLoadAC|discStoreAC, c.opSUB)
	c.install(0276, "SUBM", discFetch|discLoadAC|discStoreMem, c.opSUB)
	c.install(0277, "SUBB", discFetch|discLoadAC|discStoreMem|discStoreAC, c.opSUB)
}

// installMoveFamily wires one MOVx quartet (basic/immediate/memory/self)
// given the per-family transform applied to the fetched value, which the
// dispatch loop has already copied from s.opnd into s.ar.
func (c *CPU) installMoveFamily(base uint32, name string, transform func(s *stepInfo)) {
	c.install(base, name, discFetch|discStoreAC, wrapTransform(transform))
	c.install(base+1, name+"I", discImmediate|discStoreAC, wrapTransform(transform))
	c.install(base+2, name+"M", discFetch|discStoreMem, wrapTransform(transform))
	c.install(base+3, name+"S", discFetch|discStoreMem|discStoreAC, wrapTransform(transform))
}

func wrapTransform(transform func(s *stepInfo)) opFunc {
	return func(c *CPU, s *stepInfo) { transform(s) }
}

// EA-derived operand is s.opnd (memory word or EA-as-immediate); AC is
// s.acVal. The result an accumulator-class op leaves in s.ar is stored to
// memory and/or the AC per discipline; s.mq carries a second result word
// (AC+1) for double-word ops.

func (c *CPU) opADD(s *stepInfo) {
	sum, carry0, carry1 := word.Add36(s.acVal, s.opnd)
	s.ar = sum
	c.setArith(carry0, carry1, word.Overflow(carry0, carry1))
}

func (c *CPU) opSUB(s *stepInfo) {
	sum, carry0, carry1 := word.Add36(s.acVal, word.Negate(s.opnd))
	s.ar = sum
	c.setArith(carry0, carry1, word.Overflow(carry0, carry1))
}

func (c *CPU) setArith(carry0, carry1, overflow bool) {
	c.flags &^= FlagCarry0 | FlagCarry1 | FlagOverflow
	if carry0 {
		c.flags |= FlagCarry0
	}
	if carry1 {
		c.flags |= FlagCarry1
	}
	if overflow {
		c.flags |= FlagOverflow
	}
}

func (c *CPU) opIMUL(s *stepInfo) {
	_, lo, overflow := word.SignedMul36(s.acVal, s.opnd)
	s.ar = lo
	if overflow {
		c.flags |= FlagOverflow
	}
}

func (c *CPU) opMUL(s *stepInfo) {
	hi, lo, overflow := word.SignedMul36(s.acVal, s.opnd)
	s.ar, s.mq = hi, lo
	if overflow {
		c.flags |= FlagOverflow
	}
}

func (c *CPU) opMULHighOnly(s *stepInfo) {
	hi, _, overflow := word.SignedMul36(s.acVal, s.opnd)
	s.ar = hi
	if overflow {
		c.flags |= FlagOverflow
	}
}

func (c *CPU) opIDIV(s *stepInfo) {
	q, r, noDivide := word.Div36(0, s.acVal, s.opnd)
	if noDivide {
		c.flags |= FlagNoDivide
		return
	}
	s.ar, s.mq = q, r
}

func (c *CPU) opIDIVQuotientOnly(s *stepInfo) {
	q, _, noDivide := word.Div36(0, s.acVal, s.opnd)
	if noDivide {
		c.flags |= FlagNoDivide
		return
	}
	s.ar = q
}

func (c *CPU) opDIV(s *stepInfo) {
	q, r, noDivide := word.Div36(s.acVal, s.ac1, s.opnd)
	if noDivide {
		c.flags |= FlagNoDivide
		return
	}
	s.ar, s.mq = q, r
}

func (c *CPU) opDIVQuotientOnly(s *stepInfo) {
	q, _, noDivide := word.Div36(s.acVal, s.ac1, s.opnd)
	if noDivide {
		c.flags |= FlagNoDivide
		return
	}
	s.ar = q
}

// opBLT performs a block transfer: AC holds (source,,dest); it copies
// words incrementing both halves until destination exceeds the
// instruction's effective address, per ka10_cpu.c's BLT loop.
func (c *CPU) opBLT(s *stepInfo) {
	src := uint32(word.Lh(s.acVal))
	dst := uint32(word.Rh(s.acVal))
	for {
		v, trap := c.readEA(src, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		if trap := c.writeEA(dst, v, s.ctx); trap != nil {
			s.trap = trap
			return
		}
		if dst >= s.ea {
			break
		}
		src = (src + 1) & uint32(word.Half)
		dst = (dst + 1) & uint32(word.Half)
	}
}

// opAOBJP increments the AC, then jumps to EA if the result is
// nonnegative ("add one to both halves, jump positive").
func (c *CPU) opAOBJP(s *stepInfo) {
	sum, _, _ := word.Add36(s.acVal, word.Join(1, 1))
	s.ar = sum
	if !word.IsNeg(sum) {
		c.pc = s.ea
	}
}

// opAOBJN increments the AC, then jumps to EA if the result is negative.
func (c *CPU) opAOBJN(s *stepInfo) {
	sum, _, _ := word.Add36(s.acVal, word.Join(1, 1))
	s.ar = sum
	if word.IsNeg(sum) {
		c.pc = s.ea
	}
}
