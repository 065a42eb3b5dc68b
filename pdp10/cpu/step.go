package cpu

import "github.com/rcornwell/pdp10/pdp10/mmu"

// Step fetches, decodes, and executes exactly one instruction (or
// services one pending interrupt in its place), returning a non-nil
// Trap when the simulator should stop or the architecture raised a
// fault the caller must act on.
func (c *CPU) Step() *Trap {
	if level := c.pi.HighestPending(); level != 0 {
		return c.serviceInterrupt(level)
	}

	phys, fault, ok := c.mmu.Translate(c.pc, mmu.AccessFetch, mmu.CycleNormal, c.userMode())
	if !ok {
		return c.trapFromFault(fault)
	}
	w, ok := c.mem.ReadPhysical(phys)
	if !ok {
		return &Trap{Reason: "non-existent memory", Vector: nxmVector}
	}

	s := &stepInfo{
		ir:  uint32(w>>27) & 0777,
		ac:  (uint32(w) >> 23) & 017,
		ctx: mmu.CycleNormal,
	}

	ea, trap := c.computeEA(uint32(w)&0777777, (uint32(w)>>18)&017, w&0000020_000000 != 0, mmu.CycleNormal)
	if trap != nil {
		if trap.Interrupt {
			return nil // retry next Step; the pending interrupt will be serviced first
		}
		return trap
	}
	s.ea = ea
	c.pc = (c.pc + 1) & 0777777

	return c.execute(s)
}

// serviceInterrupt vectors to 040+2*level, granting that level (holding
// off itself and lower levels) until a dismissing JRST. Per S5: the
// faulted/interrupted PC is not advanced; execution resumes at the
// vector and the held state is visible to guest software via PI CONI.
func (c *CPU) serviceInterrupt(level int) *Trap {
	c.pi.Grant(level)
	return c.fetchAndExecuteAt(uint32(040+2*level), mmu.CyclePI)
}

// VectorTrap dispatches a non-stop architectural trap (MUUO, page fail,
// non-existent memory) by fetching and executing the instruction at the
// trap's vector address, exactly as an interrupt vectors through its
// device's assigned location: on real hardware these vector words are
// themselves instructions (conventionally a JSR), so no separate
// "store old PC" step is needed here beyond what that instruction does.
func (c *CPU) VectorTrap(t *Trap) *Trap {
	return c.fetchAndExecuteAt(t.Vector, mmu.CyclePI)
}

// fetchAndExecuteAt fetches one instruction word from addr and executes
// it, the shared machinery behind interrupt and trap vectoring.
func (c *CPU) fetchAndExecuteAt(addr uint32, ctx mmu.Context) *Trap {
	phys, fault, ok := c.mmu.Translate(addr, mmu.AccessFetch, ctx, false)
	if !ok {
		return c.trapFromFault(fault)
	}
	w, ok := c.mem.ReadPhysical(phys)
	if !ok {
		return &Trap{Reason: "non-existent memory", Vector: nxmVector}
	}

	s := &stepInfo{
		ir:  uint32(w>>27) & 0777,
		ac:  (uint32(w) >> 23) & 017,
		ctx: ctx,
	}
	ea, trap := c.computeEA(uint32(w)&0777777, (uint32(w)>>18)&017, w&0000020_000000 != 0, ctx)
	if trap != nil {
		return trap
	}
	s.ea = ea
	return c.execute(s)
}
