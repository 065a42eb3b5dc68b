package cpu

import "github.com/rcornwell/pdp10/pdp10/word"

// halfExt names the four ways a half-word opcode fills the half it
// doesn't copy from the source, per §3's (source-half, destination-half,
// extension-mode) parametrization.
type halfExt int

const (
	extLeave halfExt = iota // leave the destination half's existing content
	extZero                 // fill with zero
	extOne                  // fill with all ones
	extSign                 // fill with the sign of the copied half
)

type halfSpec struct {
	base     uint32
	name     string
	srcLeft  bool // true: copy AC's left half; false: copy AC's right half
	dstLeft  bool // true: destination is the left half of the result
	ext      halfExt
}

// installHalfWord wires the 16 half-word opcodes (HLL/HRL/HLLZ/HRLZ/
// HLLO/HRLO/HLLE/HRLE/HRR/HLR/HRRZ/HLRZ/HRRO/HLRO/HRRE/HLRE), each a
// basic/immediate/memory/self quartet per ka10_cpu.c's 0500-0577 block.
func (c *CPU) installHalfWord() {
	specs := []halfSpec{
		{0500, "HLL", true, true, extLeave},
		{0504, "HRL", false, true, extLeave},
		{0510, "HLLZ", true, true, extZero},
		{0514, "HRLZ", false, true, extZero},
		{0520, "HLLO", true, true, extOne},
		{0524, "HRLO", false, true, extOne},
		{0530, "HLLE", true, true, extSign},
		{0534, "HRLE", false, true, extSign},
		{0540, "HRR", false, false, extLeave},
		{0544, "HLR", true, false, extLeave},
		{0550, "HRRZ", false, false, extZero},
		{0554, "HLRZ", true, false, extZero},
		{0560, "HRRO", false, false, extOne},
		{0564, "HLRO", true, false, extOne},
		{0570, "HRRE", false, false, extSign},
		{0574, "HLRE", true, false, extSign},
	}
	for _, sp := range specs {
		sp := sp
		body := func(c *CPU, s *stepInfo) { s.ar = c.halfMove(sp, s) }
		// Basic form reads the AC's half and an existing destination
		// half (needed only by extLeave, which "HLL"-style keeps the
		// untouched half from the fetched memory word).
		c.install(sp.base, sp.name, discFetch|discLoadAC|discStoreAC, body)
		c.install(sp.base+1, sp.name+"I", discImmediate|discLoadAC|discStoreAC, body)
		c.install(sp.base+2, sp.name+"M", discFetch|discLoadAC|discStoreMem, body)
		c.install(sp.base+3, sp.name+"S", discFetch|discStoreMem|discStoreAC, func(c *CPU, s *stepInfo) {
			s.acVal = s.opnd // the "S" self variants use the memory word as both source and destination base
			s.ar = c.halfMove(sp, s)
		})
	}
}

func (c *CPU) halfMove(sp halfSpec, s *stepInfo) uint64 {
	var src uint64
	if sp.srcLeft {
		src = word.Lh(s.acVal)
	} else {
		src = word.Rh(s.acVal)
	}

	var other uint64
	switch sp.ext {
	case extZero:
		other = 0
	case extOne:
		other = word.Half
	case extSign:
		if src&0400000 != 0 {
			other = word.Half
		} else {
			other = 0
		}
	default: // extLeave: keep the untouched half of the fetched word
		if sp.dstLeft {
			other = word.Rh(s.opnd)
		} else {
			other = word.Lh(s.opnd)
		}
	}

	if sp.dstLeft {
		return word.Join(src, other)
	}
	return word.Join(other, src)
}
