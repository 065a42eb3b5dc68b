/*
   PDP10 - 36 bit word primitives.

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

// Package word implements the 36-bit machine word arithmetic and bit
// manipulation primitives common to every PDP-6/KA10/KI10 component: a
// Word is carried as the low 36 bits of a uint64, sign in bit 0 (the most
// significant of the 36).
package word

import "math/bits"

const (
	Bits  = 36
	Mask  = 0777777_777777 // FMASK: all 36 bits
	Sign  = 0400000_000000 // bit 0
	Carry = 01_000000_000000
	Half  = 0777777 // 18 bit half mask
)

// Lh returns the left (upper 18 bit) half of w.
func Lh(w uint64) uint64 {
	return (w >> 18) & Half
}

// Rh returns the right (lower 18 bit) half of w.
func Rh(w uint64) uint64 {
	return w & Half
}

// Join packs a left/right half-word pair into a full word.
func Join(l, r uint64) uint64 {
	return ((l & Half) << 18) | (r & Half)
}

// HalfSwap exchanges the left and right halves of w without sign extension.
func HalfSwap(w uint64) uint64 {
	return Join(Rh(w), Lh(w))
}

// Negate returns the two's complement negation of w, masked to 36 bits.
func Negate(w uint64) uint64 {
	return (^w + 1) & Mask
}

// Complement returns the one's complement of w.
func Complement(w uint64) uint64 {
	return (^w) & Mask
}

// IsNeg reports whether w's sign bit is set.
func IsNeg(w uint64) bool {
	return w&Sign != 0
}

// SignExtend36 sign-extends an 18-bit half-word value into a 36-bit word.
func SignExtend36(h uint64) uint64 {
	h &= Half
	if h&0400000 != 0 {
		return h | 0777777_000000
	}
	return h
}

// Add36 adds a and b as 36-bit words, returning the masked sum and the
// two carry-out bits (carry0 out of bit 0, carry1 out of bit 1) used to
// derive the architectural overflow flag: overflow iff carry0 != carry1.
func Add36(a, b uint64) (sum uint64, carry0, carry1 bool) {
	full := a + b
	sum = full & Mask
	carry0 = full&Carry != 0
	// carry1: add the low 35 bits and see if a carry propagates into bit 0.
	lowSum := (a & (Mask >> 1)) + (b & (Mask >> 1))
	carry1 = lowSum&(Sign) != 0
	return sum, carry0, carry1
}

// Overflow reports the architectural overflow condition for an add/sub
// given the two carry-out bits from Add36.
func Overflow(carry0, carry1 bool) bool {
	return carry0 != carry1
}

// ArithShift performs an arithmetic shift of w by count bits; count > 0
// shifts left, count < 0 shifts right, both with sign propagation/capture.
// Overflow is reported when any bit shifted out of the magnitude (during a
// left shift) differs from the resulting sign bit.
func ArithShift(w uint64, count int8) (result uint64, overflow bool) {
	sign := w & Sign
	switch {
	case count == 0:
		return w & Mask, false
	case count > 0:
		n := int(count)
		if n >= 36 {
			n = 36
		}
		shifted := w
		lost := uint64(0)
		for range n {
			lost = (lost << 1) | ((shifted & Sign) >> 35)
			shifted = ((shifted << 1) | sign>>35) & Mask
		}
		result = shifted
		// Overflow if any bit shifted out differs from the final sign.
		wantLost := uint64(0)
		if result&Sign != 0 {
			wantLost = (uint64(1) << n) - 1
		}
		overflow = lost != wantLost
		return result, overflow
	default:
		n := int(-count)
		if n >= 36 {
			n = 36
		}
		result = w & Mask
		for range n {
			bit := uint64(0)
			if sign != 0 {
				bit = Sign
			}
			result = (result >> 1) | bit
		}
		return result & Mask, false
	}
}

// LogicalShift performs a logical (non sign-propagating) shift; positive
// count shifts left, negative shifts right. Bits shifted off either end
// are discarded and zeros are shifted in.
func LogicalShift(w uint64, count int8) uint64 {
	switch {
	case count == 0:
		return w & Mask
	case count > 0:
		if count >= 36 {
			return 0
		}
		return (w << uint(count)) & Mask
	default:
		n := -count
		if n >= 36 {
			return 0
		}
		return (w & Mask) >> uint(n)
	}
}

// Rotate36 rotates a single 36-bit word by count bits; positive rotates
// left.
func Rotate36(w uint64, count int8) uint64 {
	n := int(count) % 36
	if n < 0 {
		n += 36
	}
	w &= Mask
	return ((w << uint(n)) | (w >> uint(36-n))) & Mask
}

// Rotate72 treats (hi, lo) as a combined 72-bit field — the sign lives
// only in bit 0 of hi, and bit 0 of lo mirrors it after the rotate — and
// rotates the pair by count bits; positive rotates left.
func Rotate72(hi, lo uint64, count int) (rhi, rlo uint64) {
	n := count % 72
	if n < 0 {
		n += 72
	}
	hiPart := hi & Mask
	loPart := lo & Mask
	for range n {
		top := hiPart & Sign
		hiPart = ((hiPart << 1) | (loPart >> 35)) & Mask
		loPart = ((loPart << 1) | (top >> 35)) & Mask
	}
	return hiPart, loPart
}

// Mul36 computes the unsigned 72-bit product of two 36-bit magnitudes,
// returned as a (high, low) pair of 36-bit words.
func Mul36(a, b uint64) (hi, lo uint64) {
	a &= Mask
	b &= Mask
	full := uint128Mul(a, b)
	return ((full.hi << 28) | (full.lo >> 36)) & Mask, full.lo & Mask
}

type u128 struct{ hi, lo uint64 }

func uint128Mul(a, b uint64) u128 {
	hi, lo := bits.Mul64(a, b)
	// bits.Mul64 gives a full 128 bit product of two 64 bit values; since
	// a,b are only 36 bits wide the product fits in 72 bits, so the
	// result's "hi" word here only ever uses its low 8 bits.
	return u128{hi: hi, lo: lo}
}

// SignedMul36 implements the PDP-10 signed multiply contract: the product
// of the magnitudes is computed as in Mul36, the sign of the result is the
// XOR of the operand signs, and overflow is set iff the product does not
// fit in 70 bits (by convention this also covers the -2^35 * -2^35 case).
func SignedMul36(a, b uint64) (hi, lo uint64, overflow bool) {
	negA, negB := IsNeg(a), IsNeg(b)
	magA, magB := a, b
	if negA {
		magA = Negate(a)
	}
	if negB {
		magB = Negate(b)
	}
	hi, lo = Mul36(magA, magB)
	overflow = hi&0600000_000000 != 0 // more than 70 significant bits used
	if negA != negB {
		// two's complement negate the 72-bit (hi,lo) pair; low half
		// retains the sign of the high half per spec.
		lo = (^lo + 1) & Mask
		carry := uint64(0)
		if lo == 0 {
			carry = 1
		}
		hi = (^hi + carry) & Mask
	}
	return hi, lo, overflow
}

// Div36 divides a 72-bit dividend (hi,lo) by a 36-bit divisor, per the
// architectural DIV contract: no-divide is signaled when the absolute
// value of the divisor is less than or equal to the absolute value of the
// high dividend half (the quotient would not fit in 36 bits). Remainder
// carries the sign of the dividend; quotient carries the XOR sign.
func Div36(hi, lo, divisor uint64) (quotient, remainder uint64, noDivide bool) {
	negDividend := IsNeg(hi)
	negDivisor := IsNeg(divisor)

	magHi, magLo := hi, lo
	if negDividend {
		// negate the 72-bit pair
		magLo = (^lo + 1) & Mask
		carry := uint64(0)
		if magLo == 0 {
			carry = 1
		}
		magHi = (^hi + carry) & Mask
	}
	magDivisor := divisor
	if negDivisor {
		magDivisor = Negate(divisor)
	}
	if magDivisor == 0 || magDivisor <= magHi {
		return 0, 0, true
	}

	// The dividend is up to 72 bits wide, so divide it as a 128-bit value.
	q, r := bits.Div64(magHi>>28, (magHi<<36)|magLo, magDivisor)
	if q&^uint64(Mask) != 0 {
		return 0, 0, true
	}
	if negDividend != negDivisor {
		q = Negate(q)
	}
	if negDividend {
		r = Negate(r)
	}
	return q & Mask, r & Mask, false
}

// LeadingZeros36 returns the count of leading zero bits in the low 36
// bits of w; a zero word reports 36.
func LeadingZeros36(w uint64) int {
	w &= Mask
	if w == 0 {
		return 36
	}
	return bits.LeadingZeros64(w) - (64 - 36)
}

// ByteSpec describes a PDP-10 byte pointer's size/position fields. Pos
// counts from the right edge of the word: a byte at Pos occupies bits
// [Pos, Pos+Size).
type ByteSpec struct {
	Pos  int // bit offset of the byte's low-order bit, from the right
	Size int // byte width in bits, 0 < Size <= 36
}

// Extract pulls the Size-bit field at Pos out of w. Pos is the
// architectural "P" field: the byte occupies bits [Pos, Pos+Size) counting
// bit 35 as position 0 from the right, i.e. the byte's rightmost bit is at
// offset Pos from the right edge of the word.
func (b ByteSpec) Extract(w uint64) uint64 {
	mask := uint64(1)<<uint(b.Size) - 1
	if b.Size >= 64 {
		mask = ^uint64(0)
	}
	return (w >> uint(b.Pos)) & mask
}

// Deposit inserts the low Size bits of v into w at Pos, returning the new
// word.
func (b ByteSpec) Deposit(w, v uint64) uint64 {
	mask := uint64(1)<<uint(b.Size) - 1
	if b.Size >= 64 {
		mask = ^uint64(0)
	}
	mask <<= uint(b.Pos)
	return (w &^ mask) | ((v << uint(b.Pos)) & mask)
}

// BytePointer is the in-memory representation of a byte pointer word:
// bits 0-5 hold size, bits 6-11 hold position (both counted from the
// right edge so Pos==36-size means "leftmost byte"), bits 12-17 are the
// indirect/index fields preserved verbatim across IBP, and the low half
// is the word address.
type BytePointer struct {
	Size    uint64
	Pos     uint64
	IndexIB uint64 // bits 12-17 of the left half: indirect bit + index field, preserved across advances
	Addr    uint64 // right half: word address
}

// DecodeBytePointer unpacks a byte-pointer word.
func DecodeBytePointer(w uint64) BytePointer {
	left := Lh(w)
	return BytePointer{
		Size:    (left >> 12) & 077,
		Pos:     (left >> 6) & 077,
		IndexIB: left & 077,
		Addr:    Rh(w),
	}
}

// Encode packs a byte pointer back into a 36-bit word.
func (p BytePointer) Encode() uint64 {
	left := ((p.Size & 077) << 12) | ((p.Pos & 077) << 6) | (p.IndexIB & 077)
	return Join(left, p.Addr)
}

// Advance implements IBP: position -= size; if that underflows, position
// is reset to 36-size and the word address increments by one (mod 2^18).
// The indirect/index bits are preserved.
func (p BytePointer) Advance() BytePointer {
	pos := int64(p.Pos) - int64(p.Size)
	if pos < 0 {
		p.Pos = (36 - p.Size) & 077
		p.Addr = (p.Addr + 1) & Half
	} else {
		p.Pos = uint64(pos)
	}
	return p
}

// Spec returns the ByteSpec this pointer currently addresses, useful once
// the pointer's Addr has been translated and the word fetched.
func (p BytePointer) Spec() ByteSpec {
	return ByteSpec{Pos: int(p.Pos), Size: int(p.Size)}
}
