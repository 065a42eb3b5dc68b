/*
   PDP10 - Address translator: per-variant virtual->physical mapping.

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

// Package mmu implements the PDP-6/KA10/KI10 family's address translators.
// The variant (flat, two-segment, KI paged, ITS paged, BBN/TENEX paged) is
// selected once when a Translator is built; the CPU always talks to the
// common Translator interface.
package mmu

// Access names the kind of memory cycle being translated.
type Access int

const (
	AccessRead Access = iota
	AccessWrite
	AccessModify
	AccessFetch
)

// Context names the circumstance under which the translation is being
// performed; it affects which mapping (user/exec) applies.
type Context int

const (
	CycleNormal Context = iota
	CycleInterrupt
	CycleXCTUser // the XCT flag forces this side to use the user mapping
	CyclePI
)

// Space identifies which half of a paged variant's tables a Flush call
// should invalidate.
type Space int

const (
	SpaceUser Space = iota
	SpaceExec
	SpaceAll
)

// Fault describes a failed translation: Data carries the variant-specific
// fault-data word contents (§4.3's "fault-descriptor"), Vector names where
// the executor should trap.
type Fault struct {
	Data   uint64
	Vector uint32
	Reason string
}

// Mem is the minimal physical-memory access a Translator needs to walk
// page tables; implemented by *memory.Memory.
type Mem interface {
	ReadPhysical(addr uint32) (uint64, bool)
	WritePhysical(addr uint32, value uint64) bool
}

// Translator maps a virtual address to a physical one under the rules of
// one CPU variant.
type Translator interface {
	// Translate performs one address-translation cycle. userMode is the
	// current PSW user/exec state; ctx refines how the XCT flag (if any)
	// interacts with that state per §4.3.
	Translate(virt uint32, access Access, ctx Context, userMode bool) (phys uint32, fault *Fault, ok bool)

	// Flush invalidates TLB entries for the given space, atomically with
	// respect to the fetch unit (the caller holds the machine's single
	// instruction-execution thread, so this is just a clear).
	Flush(space Space)
}

// Variant names the CPU model family, used to pick a Translator and to
// gate variant-specific opcodes (FIX, MAP, DFAD availability) elsewhere.
type Variant int

const (
	VariantPDP6 Variant = iota
	VariantKA
	VariantKATwoSeg
	VariantKI
	VariantITS
	VariantBBN
)

// New builds the Translator appropriate for v.
func New(v Variant, mem Mem) Translator {
	switch v {
	case VariantPDP6, VariantKA:
		return NewFlat()
	case VariantKATwoSeg:
		return NewTwoSegment()
	case VariantKI:
		return NewKIPaged(mem)
	case VariantITS:
		return NewITSPaged(mem)
	case VariantBBN:
		return NewBBNPaged(mem)
	default:
		return NewFlat()
	}
}
