package cpu

import "github.com/rcornwell/pdp10/pdp10/word"

// condition is one of the eight relational tests encoded in the low 3
// bits of the CAI/CAM/JUMP/SKIP/AOJ/AOS/SOJ/SOS opcode groups: never, L,
// E, LE, A(lways), GE, N(not equal), G, applied to a signed 36-bit value.
type condition func(v int64) bool

var conditions = [8]condition{
	func(v int64) bool { return false },
	func(v int64) bool { return v < 0 },
	func(v int64) bool { return v == 0 },
	func(v int64) bool { return v <= 0 },
	func(v int64) bool { return true },
	func(v int64) bool { return v >= 0 },
	func(v int64) bool { return v != 0 },
	func(v int64) bool { return v > 0 },
}

var conditionSuffix = [8]string{"", "L", "E", "LE", "A", "GE", "N", "G"}

func signed36(w uint64) int64 {
	w &= word.Mask
	if w&word.Sign != 0 {
		return int64(w) - (1 << 36)
	}
	return int64(w)
}

// installTestJumpSkip wires the compare/jump/skip/AOJ-AOS-SOJ-SOS family
// (0300-0377), each an 8-way condition table over a shared test value,
// per ka10_cpu.c's 0300-0377 switch block.
func (c *CPU) installTestJumpSkip() {
	for code := 0; code < 8; code++ {
		cond := conditions[code]
		suf := conditionSuffix[code]

		c.install(uint32(0300+code), "CAI"+suf, discImmediate|discLoadAC, func(c *CPU, s *stepInfo) {
			if cond(signed36(s.acVal) - signed36(s.opnd)) {
				c.pc = (c.pc + 1) & uint32(word.Half)
			}
		})
		c.install(uint32(0310+code), "CAM"+suf, discFetch|discLoadAC, func(c *CPU, s *stepInfo) {
			if cond(signed36(s.acVal) - signed36(s.opnd)) {
				c.pc = (c.pc + 1) & uint32(word.Half)
			}
		})
		c.install(uint32(0320+code), "JUMP"+suf, discLoadAC, func(c *CPU, s *stepInfo) {
			if cond(signed36(s.acVal)) {
				c.pc = s.ea
			}
		})
		c.install(uint32(0330+code), "SKIP"+suf, discFetch, c.makeSkipOrAOS(cond, false, 0))
		c.install(uint32(0340+code), "AOJ"+suf, discLoadAC|discStoreAC, c.makeAOJSOJ(cond, 1))
		c.install(uint32(0350+code), "AOS"+suf, discFetch, c.makeSkipOrAOS(cond, true, 1))
		c.install(uint32(0360+code), "SOJ"+suf, discLoadAC|discStoreAC, c.makeAOJSOJ(cond, -1))
		c.install(uint32(0370+code), "SOS"+suf, discFetch, c.makeSkipOrAOS(cond, true, -1))
	}
}

func (c *CPU) makeAOJSOJ(cond condition, delta int64) opFunc {
	return func(c *CPU, s *stepInfo) {
		sum, _, _ := word.Add36(s.acVal, uint64(delta)&word.Mask)
		s.ar = sum
		if cond(signed36(sum)) {
			c.pc = s.ea
		}
	}
}

// makeSkipOrAOS builds the SKIP/AOS/SOS body: optionally add delta to
// the fetched word and store it back to memory, conditionally store the
// (possibly updated) value into AC when the AC field is nonzero, then
// skip the next instruction if cond holds on the final value.
func (c *CPU) makeSkipOrAOS(cond condition, storeBack bool, delta int64) opFunc {
	return func(c *CPU, s *stepInfo) {
		v := s.opnd
		if delta != 0 {
			v, _, _ = word.Add36(v, uint64(delta)&word.Mask)
		}
		if storeBack {
			if trap := c.writeEA(s.ea, v, s.ctx); trap != nil {
				s.trap = trap
				return
			}
		}
		if s.ac != 0 {
			c.setAC(s.ac, v)
		}
		if cond(signed36(v)) {
			c.pc = (c.pc + 1) & uint32(word.Half)
		}
	}
}
