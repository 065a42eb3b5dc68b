package mmu

// BBNPaged implements the BBN/TENEX paging scheme: a per-process page map
// that can chase through a shared or indirect page map entry before
// reaching a core status table (CST) entry describing the real page. The
// chase is capped at two hops, matching the original's loop guard against
// a misconfigured indirect pointing at itself.

const (
	bbnPageSize  = 512
	bbnPageShift = 9
	bbnPageMask  = bbnPageSize - 1
	bbnTLBSize   = 512
	bbnMaxChase  = 2
)

// pageMapEntry bit layout, per the BBN map-word format: bit0 valid,
// bit1 indirect-to-shared-map, bit2 writable, bits 22-35 (the low 14
// bits) either the CST index (direct) or the shared-map page index
// (indirect).
const (
	bbnValid    = 0400000_000000
	bbnIndirect = 0200000_000000
	bbnWritable = 0100000_000000
	bbnIndexMsk = 0037777
)

type bbnTLBEntry struct {
	valid    bool
	cstIndex uint32
	writable bool
	age      uint8
	merged   bool // CST entry was merged/shared with another process
}

// BBNPaged holds the per-process, shared, and monitor page map bases plus
// the core status table base.
type BBNPaged struct {
	mem Mem

	ProcessMapBase uint32 // per-process page map
	SharedMapBase  uint32 // shared (indirect) page map
	MonitorMapBase uint32 // monitor/exec space page map
	CSTBase        uint32 // core status table

	userTLB [bbnTLBSize]bbnTLBEntry
	execTLB [bbnTLBSize]bbnTLBEntry
}

func NewBBNPaged(mem Mem) *BBNPaged {
	return &BBNPaged{mem: mem}
}

func (b *BBNPaged) LoadBases(process, shared, monitor, cst uint32) {
	b.ProcessMapBase, b.SharedMapBase, b.MonitorMapBase, b.CSTBase = process, shared, monitor, cst
	b.Flush(SpaceAll)
}

func (b *BBNPaged) effectiveUser(userMode bool, ctx Context) bool {
	switch ctx {
	case CyclePI, CycleInterrupt:
		return false
	case CycleXCTUser:
		return true
	default:
		return userMode
	}
}

func (b *BBNPaged) tlbFor(user bool) *[bbnTLBSize]bbnTLBEntry {
	if user {
		return &b.userTLB
	}
	return &b.execTLB
}

// chase walks the process map, following at most bbnMaxChase indirect
// hops through the shared map before landing on a CST index.
func (b *BBNPaged) chase(page uint32, user bool) (bbnTLBEntry, bool) {
	base := b.MonitorMapBase
	if user {
		base = b.ProcessMapBase
	}
	addr := base + page
	writable := false
	merged := false

	for hop := 0; ; hop++ {
		if hop > bbnMaxChase {
			return bbnTLBEntry{}, false
		}
		w, ok := b.mem.ReadPhysical(addr)
		if !ok || w&bbnValid == 0 {
			return bbnTLBEntry{}, false
		}
		if w&bbnWritable != 0 {
			writable = true
		}
		index := uint32(w & bbnIndexMsk)
		if w&bbnIndirect != 0 {
			merged = true
			addr = b.SharedMapBase + index
			continue
		}
		cstWord, ok := b.mem.ReadPhysical(b.CSTBase + index)
		if !ok {
			return bbnTLBEntry{}, false
		}
		return bbnTLBEntry{
			valid:    true,
			cstIndex: index,
			writable: writable,
			age:      uint8((cstWord >> 18) & 0377),
			merged:   merged,
		}, true
	}
}

func (b *BBNPaged) Translate(virt uint32, access Access, ctx Context, userMode bool) (uint32, *Fault, bool) {
	user := b.effectiveUser(userMode, ctx)
	page := virt >> bbnPageShift
	offset := virt & bbnPageMask

	tlb := b.tlbFor(user)
	entry := tlb[page]
	if !entry.valid {
		var ok bool
		entry, ok = b.chase(page, user)
		if !ok {
			return 0, &Fault{
				Data:   uint64(page),
				Vector: 0o42,
				Reason: "page fail: unmapped or chase overflow",
			}, false
		}
		tlb[page] = entry
	}

	if !entry.writable && (access == AccessWrite || access == AccessModify) {
		return 0, &Fault{
			Data:   uint64(page) | 0000001_000000,
			Vector: 0o42,
			Reason: "page fail: write to read-only or merged page",
		}, false
	}

	return (entry.cstIndex << bbnPageShift) | offset, nil, true
}

func (b *BBNPaged) Flush(space Space) {
	switch space {
	case SpaceUser:
		b.userTLB = [bbnTLBSize]bbnTLBEntry{}
	case SpaceExec:
		b.execTLB = [bbnTLBSize]bbnTLBEntry{}
	default:
		b.userTLB = [bbnTLBSize]bbnTLBEntry{}
		b.execTLB = [bbnTLBSize]bbnTLBEntry{}
	}
}
