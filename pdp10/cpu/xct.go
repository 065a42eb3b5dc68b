package cpu

import "github.com/rcornwell/pdp10/pdp10/mmu"

// xctContextFor decodes the AC field of an XCT instruction into the mmu
// access contexts its two sides (instruction fetch and the data cycle
// the executed instruction itself performs) should use. The bit meanings
// genuinely differ across variants — KI, ITS and BBN each repurpose bits
// 1..4 of the field differently — so this is kept variant-specific
// rather than unified into one table, per the layouts in ka10_cpu.c's
// KI (lines ~1138-1140), ITS (~1348-1350) and BBN (~1500-1507) blocks.
func xctContextFor(variant mmu.Variant, ac uint32) (fetch, data mmu.Context) {
	switch variant {
	case mmu.VariantKI:
		// Bit 1 (02): write side forced to user map. Bit 0 (01): read
		// or modify side forced to user map.
		if ac&02 != 0 {
			data = mmu.CycleXCTUser
		}
		if ac&01 != 0 && data == mmu.CycleNormal {
			data = mmu.CycleXCTUser
		}
	case mmu.VariantITS:
		// Bit 2 (04): write side forced user. Bit 1 (02): read side.
		if ac&04 != 0 {
			data = mmu.CycleXCTUser
		}
		if ac&02 != 0 && data == mmu.CycleNormal {
			data = mmu.CycleXCTUser
		}
	case mmu.VariantBBN:
		// A 4-bit field: 010 user-instruction-fetch, 004 read, 002
		// byte-fetch (BYF5 in progress), 001 write.
		if ac&010 != 0 {
			fetch = mmu.CycleXCTUser
		}
		if ac&(004|001) != 0 {
			data = mmu.CycleXCTUser
		}
	default:
		// PDP-6/KA/flat and two-segment: XCT has no flag bits; the
		// instruction it names simply executes with normal context.
	}
	return fetch, data
}

// opXCT executes the instruction at EA in place of a normal fetch,
// optionally forcing the user mapping on one or both sides per the
// variant's flag-bit layout. maxXCTDepth guards a self-referential XCT
// chain the same way computeEA guards indirect chains.
const maxXCTDepth = 64

func (c *CPU) opXCT(s *stepInfo) {
	c.xctExecute(s.ea, s.ac, 0, s)
}

func (c *CPU) xctExecute(addr uint32, ac uint32, depth int, s *stepInfo) {
	if depth >= maxXCTDepth {
		s.trap = &Trap{Reason: "runaway XCT chain", Stop: true}
		return
	}

	fetch, dataCtx := xctContextFor(c.variant, ac)

	phys, fault, ok := c.mmu.Translate(addr, mmu.AccessFetch, fetch, c.userMode())
	if !ok {
		s.trap = c.trapFromFault(fault)
		return
	}
	w, ok := c.mem.ReadPhysical(phys)
	if !ok {
		s.trap = &Trap{Reason: "non-existent memory", Vector: nxmVector}
		return
	}

	inner := &stepInfo{
		ir:  uint32(w>>27) & 0777,
		ac:  (uint32(w) >> 23) & 017,
		ctx: dataCtx,
	}
	ea, trap := c.computeEA(uint32(w)&0777777, (uint32(w)>>18)&017, w&0000020_000000 != 0, dataCtx)
	if trap != nil {
		s.trap = trap
		return
	}
	inner.ea = ea

	if inner.ir == 0256 { // nested XCT
		c.xctExecute(inner.ea, inner.ac, depth+1, s)
		return
	}

	if trap := c.execute(inner); trap != nil {
		s.trap = trap
	}
}
