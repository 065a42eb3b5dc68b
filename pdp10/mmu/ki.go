package mmu

// KIPaged implements the KI10 demand-paging scheme: 512-word pages, a
// per-process user base register (UBR) pointing at a page table in core,
// and an executive page table for monitor space. Page table entries are
// cached in a small software TLB since the real KI10 kept one in hardware.

const (
	kiPageSize  = 512
	kiPageShift = 9
	kiPageMask  = kiPageSize - 1
	kiTLBSize   = 512 // one entry per possible page number (18-bit addr / 512)
)

type kiTLBEntry struct {
	valid    bool
	phys     uint32 // physical page number
	writable bool
	software bool // software-reserved bit, carried through for diagnostics only
	cacheOK  bool // PUBLIC / small-user portal check already passed
}

// KIPaged holds the registers the PAG device loads plus the software TLB.
type KIPaged struct {
	mem Mem

	UBR        uint32 // user base register: physical address of user page table
	EBR        uint32 // executive base register
	SmallUser  bool   // small-user mode: user space limited to low 4 pages
	ReloadCnt  uint32 // page-fault reload counter, for hardware diagnostics
	PublicMode bool   // current page table entry requires PUBLIC bit

	userTLB [kiTLBSize]kiTLBEntry
	execTLB [kiTLBSize]kiTLBEntry
}

func NewKIPaged(mem Mem) *KIPaged {
	return &KIPaged{mem: mem}
}

// LoadBases installs UBR/EBR as the PAG CONO path would, invalidating both
// TLBs since the underlying tables may have changed.
func (k *KIPaged) LoadBases(ubr, ebr uint32, smallUser bool) {
	k.UBR, k.EBR, k.SmallUser = ubr, ebr, smallUser
	k.Flush(SpaceAll)
}

func (k *KIPaged) effectiveUser(userMode bool, ctx Context) bool {
	switch ctx {
	case CyclePI, CycleInterrupt:
		return false
	case CycleXCTUser:
		return true
	default:
		return userMode
	}
}

func (k *KIPaged) tlbFor(user bool) *[kiTLBSize]kiTLBEntry {
	if user {
		return &k.userTLB
	}
	return &k.execTLB
}

// loadEntry walks the in-core page table for page. Two 18-bit page table
// entries are packed per physical word (even page number in the high
// half, odd in the low half), each laid out bit17 valid, bit16 PUBLIC-
// required, bit15 writable, bit14 software-reserved, bits0-12 physical
// page number, per ka10_cpu.c's KI page_lookup.
func (k *KIPaged) loadEntry(base uint32, page uint32, user bool) (kiTLBEntry, bool) {
	if k.SmallUser && user && page >= 4 {
		return kiTLBEntry{}, false
	}
	ptAddr := base + page/2
	w, ok := k.mem.ReadPhysical(ptAddr)
	if !ok {
		return kiTLBEntry{}, false
	}
	var half uint64
	if page%2 == 0 {
		half = (w >> 18) & 0777777
	} else {
		half = w & 0777777
	}
	valid := half&0400000 != 0
	if !valid {
		return kiTLBEntry{}, false
	}
	entry := kiTLBEntry{
		valid:    true,
		phys:     uint32(half & 017777),
		writable: half&0100000 != 0,
		software: half&0040000 != 0,
		cacheOK:  half&0200000 == 0 || !k.PublicMode,
	}
	k.tlbFor(user)[page] = entry
	return entry, true
}

// UserBase reports the user base register, for the MUUO vector table's
// UBR-relative addressing.
func (k *KIPaged) UserBase() uint32 { return k.UBR }

func (k *KIPaged) Translate(virt uint32, access Access, ctx Context, userMode bool) (uint32, *Fault, bool) {
	user := k.effectiveUser(userMode, ctx)
	page := virt >> kiPageShift
	offset := virt & kiPageMask

	tlb := k.tlbFor(user)
	entry := tlb[page]
	if !entry.valid {
		base := k.EBR
		if user {
			base = k.UBR
		}
		var ok bool
		entry, ok = k.loadEntry(base, page, user)
		k.ReloadCnt = ((k.ReloadCnt + 1) & 037) | 040
		if !ok {
			return 0, &Fault{
				Data:   faultData(page, access, user),
				Vector: 0o42,
				Reason: "page fail: invalid page table entry",
			}, false
		}
	}

	if !entry.cacheOK {
		return 0, &Fault{
			Data:   faultData(page, access, user),
			Vector: 0o42,
			Reason: "page fail: PUBLIC portal violation",
		}, false
	}

	if !entry.writable && (access == AccessWrite || access == AccessModify) {
		return 0, &Fault{
			Data:   faultData(page, access, user) | entryDiagBits(entry),
			Vector: 0o42,
			Reason: "page fail: write to read-only page",
		}, false
	}

	return (entry.phys << kiPageShift) | offset, nil, true
}

// faultData builds the page-fail word the monitor reads back from the
// fixed trap location: bit0 set on write, bit1 set for a user access, the
// failing page number in bits 9-17 of the left half, and the right half
// left clear for entryDiagBits, per ka10_cpu.c's pager_word construction.
func faultData(page uint32, access Access, user bool) uint64 {
	var d uint64
	if access == AccessWrite || access == AccessModify {
		d |= 0400000_000000
	}
	if user {
		d |= 0200000_000000
	}
	d |= (uint64(page) & 0777) << 18
	return d
}

// entryDiagBits reports a stale page table entry's writable/software bits
// in the fault word's low diagnostic field, purely informational for a
// monitor inspecting why a write-protect fault occurred, per
// ka10_cpu.c's fault_data construction from the entry's A/W/S bits.
func entryDiagBits(entry kiTLBEntry) uint64 {
	var d uint64
	if entry.writable {
		d |= 004
	}
	if entry.software {
		d |= 002
	}
	return d
}

func (k *KIPaged) Flush(space Space) {
	switch space {
	case SpaceUser:
		k.userTLB = [kiTLBSize]kiTLBEntry{}
	case SpaceExec:
		k.execTLB = [kiTLBSize]kiTLBEntry{}
	default:
		k.userTLB = [kiTLBSize]kiTLBEntry{}
		k.execTLB = [kiTLBSize]kiTLBEntry{}
	}
}
