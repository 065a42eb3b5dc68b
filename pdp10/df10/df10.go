/*
   PDP10 - DF10 control-word chain DMA engine.

   Copyright (c) 2024, Richard Cornwell

   Permission is hereby granted, free of charge, to any person obtaining a
   copy of this software and associated documentation files (the "Software"),
   to deal in the Software without restriction, including without limitation
   the rights to use, copy, modify, merge, publish, distribute, sublicense,
   and/or sell copies of the Software, and to permit persons to whom the
   Software is furnished to do so, subject to the following conditions:

   The above copyright notice and this permission notice shall be included in
   all copies or substantial portions of the Software.

   THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
   IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
   FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT.  IN NO EVENT SHALL
   RICHARD CORNWELL BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
   IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
   CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.

*/

// Package df10 implements the DF10 control-word chain, the DMA engine
// most KA10-era peripherals (disk, tape, drum) share: a chain of
// (negative word count, current address) control words walked one word
// at a time, advancing to the next control word whenever the count wraps
// to zero, until a zero-address control word ends the chain.
package df10

// AMASK and WMASK are the 18-bit address and word-count fields packed
// into a control word; CShift is the count field's bit offset.
const (
	AMASK  = 0777777
	WMASK  = 0777777
	CShift = 18
)

// Status bits written back into a channel's status word.
const (
	StatusBusy  = 1 << 0
	StatusNXM   = 1 << 1
	StatusPIReq = 1 << 2
)

// Mem is the physical memory a channel walks; implemented by
// *memory.Memory.
type Mem interface {
	ReadPhysical(addr uint32) (uint64, bool)
	WritePhysical(addr uint32, value uint64) bool
}

// Interrupter is the priority-interrupt side effect of finishing a
// transfer; *cpu.PriorityEngine satisfies this without df10 needing to
// import the cpu package.
type Interrupter interface {
	Request(level int)
}

// Channel is one DF10 DMA engine, owned by the device that drives it
// (disk, tape, drum controller) rather than a teacher-style global.
type Channel struct {
	mem   Mem
	pi    Interrupter
	level int

	cia uint32 // control-word chain's starting address (the word after the CONO-loaded initial CCW)
	ccw uint32 // address of the next control word to fetch
	cda uint32 // current data address
	wcr uint32 // word count, two's-complement (increments toward zero)

	buf    uint64
	status uint64
	busy   bool
}

// New returns a channel driving mem, raising interrupts at level through
// pi when a transfer finishes.
func New(mem Mem, pi Interrupter, level int) *Channel {
	return &Channel{mem: mem, pi: pi, level: level}
}

// Busy reports whether a transfer is in progress.
func (c *Channel) Busy() bool { return c.busy }

// Status returns the channel's status word (CONI data for the device).
func (c *Channel) Status() uint64 { return c.status }

// Setup starts a new transfer: addr names the first control word, which
// Fetch (called by the first Read/Write) will load.
func (c *Channel) Setup(addr uint32) {
	c.cia = addr
	c.ccw = c.cia
	c.wcr = 0
	c.busy = true
	c.status |= StatusBusy
}

// Read returns the next transfer word, fetching a new control word first
// if the previous one's count has been exhausted. ok is false once the
// chain has ended or hit a non-existent-memory control/data address (the
// channel has already finished and posted its interrupt in that case).
func (c *Channel) Read() (uint64, bool) {
	if c.wcr == 0 {
		if !c.fetch() {
			return 0, false
		}
	}
	c.wcr = (c.wcr + 1) & WMASK
	var data uint64
	if c.cda != 0 {
		if c.cda > AMASK {
			c.finish(StatusNXM)
			return 0, false
		}
		c.cda = (c.cda + 1) & AMASK
		v, ok := c.mem.ReadPhysical(c.cda)
		if !ok {
			c.finish(StatusNXM)
			return 0, false
		}
		data = v
	}
	c.buf = data
	if c.wcr == 0 {
		return c.buf, c.fetch()
	}
	return c.buf, true
}

// Write stores data at the chain's current address, fetching a new
// control word first if needed.
func (c *Channel) Write(data uint64) bool {
	if c.wcr == 0 {
		if !c.fetch() {
			return false
		}
	}
	c.wcr = (c.wcr + 1) & WMASK
	if c.cda != 0 {
		if c.cda > AMASK {
			c.finish(StatusNXM)
			return false
		}
		c.cda = (c.cda + 1) & AMASK
		if !c.mem.WritePhysical(c.cda, data) {
			c.finish(StatusNXM)
			return false
		}
	}
	if c.wcr == 0 {
		return c.fetch()
	}
	return true
}

// fetch loads the next control word, chasing zero-count link words (a
// control word whose count field is zero names the address of the real
// control word) until it finds one with a nonzero count or a zero
// address, which ends the chain.
func (c *Channel) fetch() bool {
	if c.ccw > AMASK {
		c.finish(StatusNXM)
		return false
	}
	data, ok := c.mem.ReadPhysical(c.ccw)
	if !ok {
		c.finish(StatusNXM)
		return false
	}
	for (data>>CShift)&WMASK == 0 {
		addr := data & AMASK
		if addr == 0 {
			c.finish(0)
			return false
		}
		c.ccw = uint32(addr)
		if c.ccw > AMASK {
			c.finish(StatusNXM)
			return false
		}
		data, ok = c.mem.ReadPhysical(c.ccw)
		if !ok {
			c.finish(StatusNXM)
			return false
		}
	}
	c.wcr = uint32(data>>CShift) & WMASK
	c.cda = uint32(data) & AMASK
	c.ccw = (c.ccw + 1) & AMASK
	return true
}

// finish ends the transfer, writes the final count/address back to the
// control-word-chain's header word, sets flags, and requests an
// interrupt at the channel's configured level.
func (c *Channel) finish(flags uint64) {
	c.busy = false
	c.status &^= StatusBusy
	c.status |= flags
	c.writeBack()
	c.status |= StatusPIReq
	if c.pi != nil {
		c.pi.Request(c.level)
	}
}

// writeBack stores the chain's current (count, address) pair into the
// word following the chain's header word, matching df10_writecw's
// `M[cia|1] = (ccw<<CSHIFT)|cda` status report.
func (c *Channel) writeBack() {
	c.mem.WritePhysical(c.cia|1, (uint64(c.ccw)<<CShift)|uint64(c.cda))
}
