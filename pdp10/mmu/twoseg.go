package mmu

// TwoSegment implements the KA10 two-segment relocation/protection scheme:
// a low segment [0, (Pl+1)*1024) relocated by Rl*1024 words, and an
// optional high segment [2^17, 2^17+(Ph+1)*1024) relocated by Rh*1024,
// writable only when Pflag is clear (or Pflag==1 and the cycle is a read).
type TwoSegment struct {
	Pl, Rl  uint32 // low segment: page count-1, relocation in 1K-word units
	Ph, Rh  uint32 // high segment
	Pflag   bool   // high segment write-protect flag
	HighSeg bool   // whether a high segment is configured at all
}

const (
	segUnit    = 1024
	highSegLow = 1 << 17
)

// NewTwoSegment returns a two-segment translator with no relocation
// configured (equivalent to identity map until LoadSegments is called).
func NewTwoSegment() *TwoSegment {
	return &TwoSegment{}
}

// LoadSegments installs new segmentation registers, as the PAG/APR CONO
// path would on real hardware.
func (t *TwoSegment) LoadSegments(pl, rl, ph, rh uint32, pflag, highSeg bool) {
	t.Pl, t.Rl, t.Ph, t.Rh, t.Pflag, t.HighSeg = pl, rl, ph, rh, pflag, highSeg
}

func (t *TwoSegment) effectiveUser(userMode bool, ctx Context) bool {
	switch ctx {
	case CyclePI, CycleInterrupt:
		return false
	case CycleXCTUser:
		return true
	default:
		return userMode
	}
}

func (t *TwoSegment) Translate(virt uint32, access Access, ctx Context, userMode bool) (uint32, *Fault, bool) {
	if !t.effectiveUser(userMode, ctx) {
		return virt, nil, true
	}

	lowLimit := (t.Pl+1)*segUnit - 1
	if virt <= lowLimit {
		return (virt + t.Rl*segUnit), nil, true
	}

	if t.HighSeg && virt >= highSegLow {
		highLimit := highSegLow + (t.Ph+1)*segUnit - 1
		if virt <= highLimit {
			if t.Pflag && access != AccessRead && access != AccessFetch {
				return 0, &Fault{Reason: "memory protect: high segment read-only"}, false
			}
			return virt - highSegLow + t.Rh*segUnit, nil, true
		}
	}

	return 0, &Fault{Reason: "memory protect: outside both segments"}, false
}

func (t *TwoSegment) Flush(_ Space) {}
