package mmu

// ITSPaged implements the MIT AI Lab's ITS paging variant: single-level
// page table indexed straight from a base register, plus a memory address
// register (MAR) compare-trap used by ITS's swapper to watch for writes
// into a page range without taking a full page fault.

const (
	itsPageSize  = 512
	itsPageShift = 9
	itsPageMask  = itsPageSize - 1
	itsTLBSize   = 512
)

type itsTLBEntry struct {
	valid    bool
	phys     uint32
	writable bool
	age      uint8 // write-back age counter, ITS-specific
}

// ITSPaged holds the page-table base registers and the MAR compare-trap
// range.
type ITSPaged struct {
	mem Mem

	UserBase uint32
	ExecBase uint32

	MARLow, MARHigh uint32 // compare-trap range, inclusive
	MAREnabled      bool

	userTLB [itsTLBSize]itsTLBEntry
	execTLB [itsTLBSize]itsTLBEntry
}

func NewITSPaged(mem Mem) *ITSPaged {
	return &ITSPaged{mem: mem}
}

func (it *ITSPaged) LoadBases(userBase, execBase uint32) {
	it.UserBase, it.ExecBase = userBase, execBase
	it.Flush(SpaceAll)
}

// SetMAR arms the compare-trap over [low, high]; ITS uses bits 2 and 4 of
// the trap-cause word to distinguish a MAR hit from an ordinary page fail.
func (it *ITSPaged) SetMAR(low, high uint32, enabled bool) {
	it.MARLow, it.MARHigh, it.MAREnabled = low, high, enabled
}

func (it *ITSPaged) effectiveUser(userMode bool, ctx Context) bool {
	switch ctx {
	case CyclePI, CycleInterrupt:
		return false
	case CycleXCTUser:
		return true
	default:
		return userMode
	}
}

func (it *ITSPaged) tlbFor(user bool) *[itsTLBSize]itsTLBEntry {
	if user {
		return &it.userTLB
	}
	return &it.execTLB
}

func (it *ITSPaged) loadEntry(base uint32, page uint32, user bool) (itsTLBEntry, bool) {
	w, ok := it.mem.ReadPhysical(base + page)
	if !ok || w&0400000_000000 == 0 {
		return itsTLBEntry{}, false
	}
	entry := itsTLBEntry{
		valid:    true,
		phys:     uint32(w & 0037777),
		writable: w&0200000_000000 != 0,
		age:      uint8((w >> 14) & 0377),
	}
	it.tlbFor(user)[page] = entry
	return entry, true
}

// its_load_tlb writes the age counter back to the in-core page table word,
// matching the original's write-back of the referenced/age bits on
// eviction rather than on every access.
func (it *ITSPaged) writeBackAge(base, page uint32, entry itsTLBEntry) {
	w, ok := it.mem.ReadPhysical(base + page)
	if !ok {
		return
	}
	w &^= 0377 << 14
	w |= uint64(entry.age) << 14
	it.mem.WritePhysical(base+page, w)
}

func (it *ITSPaged) Translate(virt uint32, access Access, ctx Context, userMode bool) (uint32, *Fault, bool) {
	user := it.effectiveUser(userMode, ctx)
	page := virt >> itsPageShift
	offset := virt & itsPageMask

	if it.MAREnabled && virt >= it.MARLow && virt <= it.MARHigh && (access == AccessWrite || access == AccessModify) {
		return 0, &Fault{
			Data:   uint64(virt) | 0000004_000000,
			Vector: 0o43,
			Reason: "MAR compare trap",
		}, false
	}

	tlb := it.tlbFor(user)
	entry := tlb[page]
	if !entry.valid {
		base := it.ExecBase
		if user {
			base = it.UserBase
		}
		var ok bool
		entry, ok = it.loadEntry(base, page, user)
		if !ok {
			return 0, &Fault{
				Data:   uint64(page) | 0000002_000000,
				Vector: 0o42,
				Reason: "page fail",
			}, false
		}
	}

	if entry.age < 255 {
		entry.age++
		tlb[page] = entry
	}

	if !entry.writable && (access == AccessWrite || access == AccessModify) {
		return 0, &Fault{
			Data:   uint64(page) | 0000002_000000,
			Vector: 0o42,
			Reason: "page fail: write to read-only page",
		}, false
	}

	return (entry.phys << itsPageShift) | offset, nil, true
}

func (it *ITSPaged) Flush(space Space) {
	writeBack := func(base uint32, tlb *[itsTLBSize]itsTLBEntry) {
		for page, entry := range tlb {
			if entry.valid {
				it.writeBackAge(base, uint32(page), entry)
			}
		}
		*tlb = [itsTLBSize]itsTLBEntry{}
	}
	switch space {
	case SpaceUser:
		writeBack(it.UserBase, &it.userTLB)
	case SpaceExec:
		writeBack(it.ExecBase, &it.execTLB)
	default:
		writeBack(it.UserBase, &it.userTLB)
		writeBack(it.ExecBase, &it.execTLB)
	}
}
