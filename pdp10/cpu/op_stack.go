package cpu

import "github.com/rcornwell/pdp10/pdp10/word"

// incrStackPtr and decrStackPtr add/subtract one from both halves of a
// stack-pointer word (count in the left half, address in the right),
// per PUSH/POP's "add one to both halves" convention.
func incrStackPtr(ptr uint64) uint64 {
	l, _, _ := word.Add36(word.Lh(ptr), 1)
	r, _, _ := word.Add36(word.Rh(ptr), 1)
	return word.Join(l, r)
}

func decrStackPtr(ptr uint64) uint64 {
	l, _, _ := word.Add36(word.Lh(ptr), word.Negate(1)&word.Half)
	r, _, _ := word.Add36(word.Rh(ptr), word.Negate(1)&word.Half)
	return word.Join(l, r)
}

// installStackControl wires PUSH/POP/PUSHJ/POPJ (0260-0263) and the
// control-transfer family (0254-0257, 0264-0267): JRST, JFCL, XCT, JSR,
// JSP, JSA, JRA.
func (c *CPU) installStackControl() {
	c.install(0260, "PUSHJ", discLoadAC, func(c *CPU, s *stepInfo) {
		newPtr := incrStackPtr(s.acVal)
		ret := word.Join(uint64(c.flags), uint64(c.pc))
		if trap := c.writeEA(uint32(word.Rh(newPtr)), ret, s.ctx); trap != nil {
			s.trap = trap
			return
		}
		c.setAC(s.ac, newPtr)
		c.pc = s.ea
	})
	c.install(0261, "PUSH", discFetch|discLoadAC, func(c *CPU, s *stepInfo) {
		newPtr := incrStackPtr(s.acVal)
		if trap := c.writeEA(uint32(word.Rh(newPtr)), s.opnd, s.ctx); trap != nil {
			s.trap = trap
			return
		}
		c.setAC(s.ac, newPtr)
	})
	c.install(0262, "POP", discLoadAC, func(c *CPU, s *stepInfo) {
		v, trap := c.readEA(uint32(word.Rh(s.acVal)), s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		if trap := c.writeEA(s.ea, v, s.ctx); trap != nil {
			s.trap = trap
			return
		}
		c.setAC(s.ac, decrStackPtr(s.acVal))
	})
	c.install(0263, "POPJ", discLoadAC, func(c *CPU, s *stepInfo) {
		v, trap := c.readEA(uint32(word.Rh(s.acVal)), s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		c.setAC(s.ac, decrStackPtr(s.acVal))
		c.pc = uint32(word.Rh(v))
	})

	c.install(0254, "JRST", 0, c.opJRST)
	c.install(0255, "JFCL", discLoadAC, c.opJFCL)
	c.install(0256, "XCT", 0, c.opXCT)

	// PC has already been advanced past this instruction by the time any
	// body below runs (Step() increments before dispatch), so c.pc here
	// already names the address to return to: no further +1 needed.
	c.install(0264, "JSR", 0, func(c *CPU, s *stepInfo) {
		ret := word.Join(uint64(c.flags), uint64(c.pc))
		if trap := c.writeEA(s.ea, ret, s.ctx); trap != nil {
			s.trap = trap
			return
		}
		c.pc = (s.ea + 1) & uint32(word.Half)
	})
	c.install(0265, "JSP", discStoreAC, func(c *CPU, s *stepInfo) {
		s.ar = word.Join(uint64(c.flags), uint64(c.pc))
		c.pc = s.ea
	})
	c.install(0266, "JSA", discFetch, func(c *CPU, s *stepInfo) {
		// JSA stores the old AC in the word at EA's left half and the
		// argument list pointer in its right half, then jumps past EA.
		if trap := c.writeEA(s.ea, word.Join(c.getAC(s.ac), uint64(c.pc)), s.ctx); trap != nil {
			s.trap = trap
			return
		}
		c.setAC(s.ac, s.opnd)
		c.pc = (s.ea + 1) & uint32(word.Half)
	})
	c.install(0267, "JRA", discLoadAC, func(c *CPU, s *stepInfo) {
		c.setAC(s.ac, s.acVal)
		c.pc = s.ea
	})
}

// opJRST implements the multi-function jump-and-restore opcode; the AC
// field (not an accumulator reference here) selects sub-functions per
// §6. Bit assignments follow ka10_cpu.c's 0254 case: bit 3 (010) halts
// (executive mode only), bit 1 (002) restores flags from the fetched
// word's left half, bit 0 (001) dismisses the interrupt currently held.
func (c *CPU) opJRST(s *stepInfo) {
	if s.ac&010 != 0 {
		if c.userMode() {
			s.trap = &Trap{Reason: "illegal instruction: HALT in user mode", Vector: muuoVector}
			return
		}
		s.trap = &Trap{Reason: "HALT", Stop: true}
		c.pc = s.ea
		return
	}
	if s.ac&002 != 0 {
		v, trap := c.readEA(s.ea, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		c.flags = uint16(word.Lh(v))
	}
	if s.ac&001 != 0 {
		c.pi.Dismiss(c.pi.CurrentLevel())
	}
	c.pc = s.ea
}

// opJFCL tests the flag bits selected by the AC field (overflow=bit3,
// carry0=bit2, carry1=bit1, floating-overflow=bit0) and, if any selected
// bit is currently set, clears those bits and jumps to EA.
func (c *CPU) opJFCL(s *stepInfo) {
	var mask uint16
	if s.ac&010 != 0 {
		mask |= FlagOverflow
	}
	if s.ac&004 != 0 {
		mask |= FlagCarry0
	}
	if s.ac&002 != 0 {
		mask |= FlagCarry1
	}
	if s.ac&001 != 0 {
		mask |= FlagFloatOverflow
	}
	if c.flags&mask != 0 {
		c.flags &^= mask
		c.pc = s.ea
	}
}
