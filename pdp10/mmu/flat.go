package mmu

// Flat implements the PDP-6/KA10 no-paging identity map: every virtual
// address is its own physical address and no access ever faults.
type Flat struct{}

// NewFlat returns the trivial identity-mapping translator.
func NewFlat() *Flat {
	return &Flat{}
}

func (f *Flat) Translate(virt uint32, _ Access, _ Context, _ bool) (uint32, *Fault, bool) {
	return virt, nil, true
}

func (f *Flat) Flush(_ Space) {}
