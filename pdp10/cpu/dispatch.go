package cpu

import (
	"github.com/rcornwell/pdp10/pdp10/mmu"
	"github.com/rcornwell/pdp10/pdp10/word"
)

// discipline is the data-driven operand-handling flag set every opcode
// table entry carries (§6's "operand discipline flags"); the executor
// applies it before and after the opcode body so the body itself only
// implements the arithmetic/logical difference between instruction
// variants, not the memory plumbing.
type discipline uint16

const (
	discFetch      discipline = 1 << iota // fetch EA's memory word into s.opnd before the body
	discImmediate                         // s.opnd = EA itself (no memory read)
	discLoadAC                            // s.acVal = AC before the body
	discLoadAC1                           // s.ac1 = AC+1 before the body (double-word ops)
	discStoreMem                          // store s.ar to EA after the body
	discStoreAC                           // store s.ar to AC after the body
	discStoreAC1                          // store s.mq to AC+1 after the body
	discSwapHalves                        // swap s.opnd's halves once loaded
)

type opEntry struct {
	name string
	disc discipline
	body opFunc
}

// buildDispatchTable first points every entry at the illegal-instruction
// handler, then installs every implemented opcode over it; an opcode left
// uninstalled takes the LUUO path (001-037) or the MUUO path (all others).
func (c *CPU) buildDispatchTable() {
	for i := range c.entries {
		c.entries[i] = opEntry{name: "ILLEGAL", body: illegalInstruction}
	}
	c.installFixed()
	c.installBoolean()
	c.installHalfWord()
	c.installTestJumpSkip()
	c.installShift()
	c.installStackControl()
	c.installByte()
	c.installIO()
	c.installFloat()
}

// illegalInstruction handles every unassigned opcode the dispatch table
// wasn't given a body for. Opcodes 001-037 are LUUOs: software-only traps
// that save (opcode,ac,ea) at word 040 and resume at 041, per ka10_cpu.c's
// LUUO case block. Opcode 000 and 040-077 (and everything else left
// unassigned) are MUUOs, which on KI vector through the UBR-relative
// monitor-call table instead.
func illegalInstruction(c *CPU, s *stepInfo) {
	if s.ir >= 001 && s.ir <= 037 {
		c.luuoTrap(s)
		return
	}
	c.muuoTrap(s)
}

// execute runs one already-fetched instruction: ir/ac/ea must already be
// set in s. It performs the pre-body fetch per discipline, the opcode's
// table-entry body, and the post-body store.
func (c *CPU) execute(s *stepInfo) *Trap {
	entry := &c.entries[s.ir]
	if entry.body == nil {
		s.trap = &Trap{Reason: "illegal instruction", Vector: muuoVector}
		return s.trap
	}

	switch {
	case entry.disc&discImmediate != 0:
		s.opnd = uint64(s.ea)
	case entry.disc&discFetch != 0:
		v, trap := c.readEA(s.ea, s.ctx)
		if trap != nil {
			return trap
		}
		s.opnd = v
	}
	if entry.disc&discLoadAC != 0 {
		s.acVal = c.getAC(s.ac)
	}
	if entry.disc&discLoadAC1 != 0 {
		s.ac1 = c.getAC(s.ac + 1)
	}
	if entry.disc&discSwapHalves != 0 {
		s.opnd = word.HalfSwap(s.opnd)
	}
	s.ar = s.opnd

	entry.body(c, s)
	if s.trap != nil {
		return s.trap
	}

	if entry.disc&discStoreMem != 0 {
		if trap := c.writeEA(s.ea, s.ar, s.ctx); trap != nil {
			return trap
		}
	}
	if entry.disc&discStoreAC != 0 {
		c.setAC(s.ac, s.ar)
	}
	if entry.disc&discStoreAC1 != 0 {
		c.setAC(s.ac+1, s.mq)
	}
	return nil
}

// readEA and writeEA are the sole path an opcode body or the dispatch
// loop uses to touch an operand named by an effective address: both
// translate the virtual EA through the variant's mmu before ever
// reaching main store, so relocation and paging apply uniformly to every
// instruction's data cycle, not just instruction fetch and indirect
// chasing.
func (c *CPU) readEA(addr uint32, ctx mmu.Context) (uint64, *Trap) {
	phys, fault, ok := c.mmu.Translate(addr, mmu.AccessRead, ctx, c.userMode())
	if !ok {
		return 0, c.trapFromFault(fault)
	}
	v, ok := c.mem.Read(phys, c.acBlk)
	if !ok {
		return 0, &Trap{Reason: "non-existent memory", Vector: nxmVector}
	}
	return v, nil
}

func (c *CPU) writeEA(addr uint32, v uint64, ctx mmu.Context) *Trap {
	phys, fault, ok := c.mmu.Translate(addr, mmu.AccessWrite, ctx, c.userMode())
	if !ok {
		return c.trapFromFault(fault)
	}
	if !c.mem.Write(phys, c.acBlk, v) {
		return &Trap{Reason: "non-existent memory", Vector: nxmVector}
	}
	return nil
}

func (c *CPU) install(op uint32, name string, disc discipline, body opFunc) {
	c.entries[op&0777] = opEntry{name: name, disc: disc, body: body}
}
