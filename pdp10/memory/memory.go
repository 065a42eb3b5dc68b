/*
   PDP10 - Main memory and fast-register bank.

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

// Package memory implements the CPU's backing store and fast-register
// bank. Unlike the teacher's package-level global, a Memory value is
// owned by one Machine so tests can build independent instances.
package memory

import "github.com/rcornwell/pdp10/pdp10/word"

const (
	// WordIncrement is the granularity memory is sized in.
	WordIncrement = 16 * 1024

	// FastRegWords is the number of low addresses redirected to fast
	// registers (8 blocks of 16 on the KI, addresses 0-15 always).
	FastRegWords = 16

	// FastBlocks is the number of selectable fast-register blocks (KI10);
	// the PDP-6/KA10 only ever uses block 0.
	FastBlocks = 8
)

// Memory is the CPU's main store plus its fast-register blocks.
type Memory struct {
	words    []uint64
	fastRegs [FastBlocks][FastRegWords]uint64
	maxWords int
}

// New creates a Memory sized to words words (rounded down to a multiple
// of WordIncrement), capped at maxWords.
func New(words, maxWords int) *Memory {
	if words > maxWords {
		words = maxWords
	}
	words -= words % WordIncrement
	if words < WordIncrement {
		words = WordIncrement
	}
	return &Memory{
		words:    make([]uint64, words),
		maxWords: maxWords,
	}
}

// Size returns the configured memory size in words.
func (m *Memory) Size() int {
	return len(m.words)
}

// SetSize resizes memory to words words, rounded down to a WordIncrement
// multiple and capped at the configured maximum. Existing contents beyond
// the new size are discarded; growth zero-fills.
func (m *Memory) SetSize(words int) {
	if words > m.maxWords {
		words = m.maxWords
	}
	words -= words % WordIncrement
	if words < WordIncrement {
		words = WordIncrement
	}
	grown := make([]uint64, words)
	copy(grown, m.words)
	m.words = grown
}

// InRange reports whether addr is a valid physical address for the
// current memory size.
func (m *Memory) InRange(addr uint32) bool {
	return int(addr) < len(m.words)
}

// ReadFast reads fast register reg (0-15) from block block.
func (m *Memory) ReadFast(block int, reg uint32) uint64 {
	return m.fastRegs[block&(FastBlocks-1)][reg&(FastRegWords-1)]
}

// WriteFast writes fast register reg (0-15) in block block.
func (m *Memory) WriteFast(block int, reg uint32, v uint64) {
	m.fastRegs[block&(FastBlocks-1)][reg&(FastRegWords-1)] = v & word.Mask
}

// Read returns the word at physical address addr. Addresses below
// FastRegWords are redirected to fast-register block fastBlock. ok is
// false (value zero) when addr is out of range — the caller is
// responsible for raising the non-existent-memory condition.
func (m *Memory) Read(addr uint32, fastBlock int) (value uint64, ok bool) {
	if addr < FastRegWords {
		return m.ReadFast(fastBlock, addr), true
	}
	if !m.InRange(addr) {
		return 0, false
	}
	return m.words[addr], true
}

// Write stores value at physical address addr, redirecting low addresses
// to fast registers as Read does. ok is false when addr is out of range;
// the write is then discarded.
func (m *Memory) Write(addr uint32, fastBlock int, value uint64) (ok bool) {
	value &= word.Mask
	if addr < FastRegWords {
		m.WriteFast(fastBlock, addr, value)
		return true
	}
	if !m.InRange(addr) {
		return false
	}
	m.words[addr] = value
	return true
}

// ReadPhysical reads physical memory only, bypassing fast-register
// redirection — used by the DF10 engine and the address translator's
// page-table walks, which always address real core.
func (m *Memory) ReadPhysical(addr uint32) (value uint64, ok bool) {
	if !m.InRange(addr) {
		return 0, false
	}
	return m.words[addr], true
}

// WritePhysical writes physical memory only, bypassing fast-register
// redirection.
func (m *Memory) WritePhysical(addr uint32, value uint64) (ok bool) {
	if !m.InRange(addr) {
		return false
	}
	m.words[addr] = value & word.Mask
	return true
}
