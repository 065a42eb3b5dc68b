package cpu

import (
	"github.com/rcornwell/pdp10/pdp10/mmu"
	"github.com/rcornwell/pdp10/pdp10/word"
)

// installByte wires the byte-pointer group (0133-0137): IBP, ILDB, LDB,
// IDPB, DPB. Each treats its effective address as the address of a
// byte-pointer word (not the data itself); ILDB/IDPB/IBP advance the
// pointer and write it back before touching data, while LDB/DPB use the
// pointer as found, matching §6's "byte-pointer group" description.
func (c *CPU) installByte() {
	c.install(0133, "IBP", 0, func(c *CPU, s *stepInfo) {
		if trap := c.advanceBytePointer(s.ea, s.ctx); trap != nil {
			s.trap = trap
		}
	})
	c.install(0134, "ILDB", discStoreAC, func(c *CPU, s *stepInfo) {
		bp, trap := c.advanceAndReadBytePointer(s.ea, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		v, trap := c.readEA(uint32(bp.Addr), s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		s.ar = bp.Spec().Extract(v)
	})
	c.install(0135, "LDB", discStoreAC, func(c *CPU, s *stepInfo) {
		ptrWord, trap := c.readEA(s.ea, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		bp := word.DecodeBytePointer(ptrWord)
		v, trap := c.readEA(uint32(bp.Addr), s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		s.ar = bp.Spec().Extract(v)
	})
	c.install(0136, "IDPB", discLoadAC, func(c *CPU, s *stepInfo) {
		bp, trap := c.advanceAndReadBytePointer(s.ea, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		c.depositByte(bp, s.acVal, s)
	})
	c.install(0137, "DPB", discLoadAC, func(c *CPU, s *stepInfo) {
		ptrWord, trap := c.readEA(s.ea, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		bp := word.DecodeBytePointer(ptrWord)
		c.depositByte(bp, s.acVal, s)
	})
}

func (c *CPU) depositByte(bp word.BytePointer, v uint64, s *stepInfo) {
	mem, trap := c.readEA(uint32(bp.Addr), s.ctx)
	if trap != nil {
		s.trap = trap
		return
	}
	mem = bp.Spec().Deposit(mem, v)
	if trap := c.writeEA(uint32(bp.Addr), mem, s.ctx); trap != nil {
		s.trap = trap
	}
}

func (c *CPU) advanceBytePointer(addr uint32, ctx mmu.Context) *Trap {
	ptrWord, trap := c.readEA(addr, ctx)
	if trap != nil {
		return trap
	}
	bp := word.DecodeBytePointer(ptrWord).Advance()
	return c.writeEA(addr, bp.Encode(), ctx)
}

func (c *CPU) advanceAndReadBytePointer(addr uint32, ctx mmu.Context) (word.BytePointer, *Trap) {
	ptrWord, trap := c.readEA(addr, ctx)
	if trap != nil {
		return word.BytePointer{}, trap
	}
	bp := word.DecodeBytePointer(ptrWord).Advance()
	if trap := c.writeEA(addr, bp.Encode(), ctx); trap != nil {
		return word.BytePointer{}, trap
	}
	return bp, nil
}
