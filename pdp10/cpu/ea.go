package cpu

import (
	"github.com/rcornwell/pdp10/pdp10/mmu"
	"github.com/rcornwell/pdp10/pdp10/word"
)

// maxIndirectChain bounds the indirect-address chase; a real KA10 would
// spin forever on a self-referential indirect word, so the simulator
// treats a chain this long as a runaway and stops rather than hangs.
const maxIndirectChain = 1024

// computeEA forms the effective address from an instruction's address,
// index-register and indirect fields, walking the index register (if any)
// and any chain of indirect words, per ka10_cpu.c's do-while indirection
// loop. XCT-flag plumbing (which side of a two-operand XCT should use the
// user mapping) is carried in xctCtx and passed to the mmu on each fetch.
func (c *CPU) computeEA(addr uint32, indexReg uint32, indirect bool, xctCtx mmu.Context) (uint32, *Trap) {
	ea := addr

	if indexReg != 0 {
		ea = uint32((uint64(ea) + c.getAC(indexReg)) & word.Half)
	}

	for n := 0; indirect; n++ {
		if n >= maxIndirectChain {
			return 0, &Trap{Reason: "runaway indirect chain", Stop: true}
		}

		phys, fault, ok := c.mmu.Translate(ea, mmu.AccessRead, xctCtx, c.userMode())
		if !ok {
			return 0, c.trapFromFault(fault)
		}
		w, ok := c.mem.ReadPhysical(phys)
		if !ok {
			return 0, &Trap{Reason: "non-existent memory", Vector: nxmVector}
		}

		indirect = w&0000020_000000 != 0
		ea = uint32(w & word.Half)
		if idx := uint32((w >> 18) & 017); idx != 0 {
			ea = uint32((uint64(ea) + c.getAC(idx)) & word.Half)
		}

		if indirect && c.pi.HighestPending() != 0 {
			// A pending interrupt aborts the chain between fetches;
			// the caller re-enters computeEA after servicing it.
			return 0, &Trap{Reason: "interrupt pending", Interrupt: true}
		}
	}

	return ea, nil
}
