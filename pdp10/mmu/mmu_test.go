package mmu

import "testing"

type fakeMem struct {
	words map[uint32]uint64
}

func newFakeMem() *fakeMem {
	return &fakeMem{words: make(map[uint32]uint64)}
}

func (f *fakeMem) ReadPhysical(addr uint32) (uint64, bool) {
	return f.words[addr], true
}

func (f *fakeMem) WritePhysical(addr uint32, value uint64) bool {
	f.words[addr] = value
	return true
}

func TestFlatTranslationIsIdentity(t *testing.T) {
	f := NewFlat()
	phys, fault, ok := f.Translate(0400000, AccessRead, CycleNormal, true)
	if !ok || fault != nil || phys != 0400000 {
		t.Errorf("Translate = %o, %v, %v; want identity map", phys, fault, ok)
	}
}

// Testable Property 6: a successful translation followed by read, write,
// read returns the written value, absent intervening flushes.
func TestReadWriteReadRoundTripThroughTranslation(t *testing.T) {
	mem := newFakeMem()
	k := NewKIPaged(mem)
	const ubr = 01000
	k.LoadBases(ubr, 02000, false)
	// Page 0 of user space valid, writable, physical page 5 (the even-page
	// entry packed into the high 18-bit half of word ubr+0).
	mem.words[ubr+0] = 0500005_000000

	phys1, fault, ok := k.Translate(0100, AccessRead, CycleNormal, true)
	if !ok || fault != nil {
		t.Fatalf("first translate failed: %v", fault)
	}
	mem.WritePhysical(phys1, 0123456_654321)

	phys2, fault, ok := k.Translate(0100, AccessWrite, CycleNormal, true)
	if !ok || fault != nil || phys2 != phys1 {
		t.Fatalf("second translate mismatch: %o vs %o, %v", phys2, phys1, fault)
	}
	mem.WritePhysical(phys2, 0777777_000000)

	phys3, fault, ok := k.Translate(0100, AccessRead, CycleNormal, true)
	if !ok || fault != nil || phys3 != phys1 {
		t.Fatalf("third translate mismatch: %v", fault)
	}
	got, _ := mem.ReadPhysical(phys3)
	if got != 0777777_000000 {
		t.Errorf("read-write-read = %o, want 0777777000000", got)
	}
}

// S6: KI page fault on MOVE 1,400000 with an invalid page table entry.
func TestKIPageFaultOnInvalidEntry(t *testing.T) {
	mem := newFakeMem()
	k := NewKIPaged(mem)
	const ubr = 01000
	k.LoadBases(ubr, 02000, false)
	// Page table entry for virtual 0400000 (page 0400) left zero: invalid.

	_, fault, ok := k.Translate(0400000, AccessRead, CycleNormal, true)
	if ok {
		t.Fatalf("expected page fail, got success")
	}
	if fault == nil || fault.Vector != 0o42 {
		t.Errorf("fault = %+v, want vector 042", fault)
	}
}

func TestKIPageFaultWriteToReadOnly(t *testing.T) {
	mem := newFakeMem()
	k := NewKIPaged(mem)
	const ubr = 01000
	k.LoadBases(ubr, 02000, false)
	mem.words[ubr+0] = 0400007_000000 // valid, not writable, phys page 7 (high half)

	_, fault, ok := k.Translate(0050, AccessWrite, CycleNormal, true)
	if ok || fault == nil {
		t.Errorf("expected write-protect fault on read-only page")
	}
}

func TestTwoSegmentLowSegmentRelocation(t *testing.T) {
	ts := NewTwoSegment()
	ts.LoadSegments(1, 10, 0, 0, false, false) // low seg 2K words, relocated +10K
	phys, fault, ok := ts.Translate(0100, AccessRead, CycleNormal, true)
	if !ok || fault != nil {
		t.Fatalf("translate failed: %v", fault)
	}
	want := uint32(0100 + 10*segUnit)
	if phys != want {
		t.Errorf("phys = %o, want %o", phys, want)
	}
}

func TestTwoSegmentExecModeBypassesRelocation(t *testing.T) {
	ts := NewTwoSegment()
	ts.LoadSegments(1, 10, 0, 0, false, false)
	phys, fault, ok := ts.Translate(0100, AccessRead, CycleNormal, false)
	if !ok || fault != nil || phys != 0100 {
		t.Errorf("exec-mode access should bypass relocation: got %o, %v, %v", phys, fault, ok)
	}
}

func TestTwoSegmentHighSegmentWriteProtect(t *testing.T) {
	ts := NewTwoSegment()
	ts.LoadSegments(1, 0, 1, 20, true, true)
	_, fault, ok := ts.Translate(highSegLow+5, AccessWrite, CycleNormal, true)
	if ok || fault == nil {
		t.Errorf("expected write-protect fault on flagged high segment")
	}
	phys, fault, ok := ts.Translate(highSegLow+5, AccessRead, CycleNormal, true)
	if !ok || fault != nil {
		t.Fatalf("read of high segment should succeed: %v", fault)
	}
	if want := uint32(5 + 20*segUnit); phys != want {
		t.Errorf("phys = %o, want %o", phys, want)
	}
}

func TestITSMARCompareTrap(t *testing.T) {
	mem := newFakeMem()
	it := NewITSPaged(mem)
	it.LoadBases(01000, 02000)
	it.SetMAR(0100, 0200, true)
	mem.words[01000+0] = 0600000_000005

	_, fault, ok := it.Translate(0150, AccessWrite, CycleNormal, true)
	if ok || fault == nil || fault.Vector != 0o43 {
		t.Errorf("expected MAR compare trap, got %v, %v", fault, ok)
	}
}

func TestBBNIndirectChase(t *testing.T) {
	mem := newFakeMem()
	b := NewBBNPaged(mem)
	const process, shared, cst = 01000, 03000, 05000
	b.LoadBases(process, shared, 02000, cst)
	mem.words[process+0] = bbnIndirect | bbnValid | 7 // indirect to shared index 7
	mem.words[shared+7] = bbnValid | bbnWritable | 42  // direct to CST index 42
	mem.words[cst+42] = 0

	phys, fault, ok := b.Translate(0100, AccessWrite, CycleNormal, true)
	if !ok || fault != nil {
		t.Fatalf("chase failed: %v", fault)
	}
	want := uint32(42<<bbnPageShift) | 0100
	if phys != want {
		t.Errorf("phys = %o, want %o", phys, want)
	}
}

func TestBBNChaseOverflow(t *testing.T) {
	mem := newFakeMem()
	b := NewBBNPaged(mem)
	const process, shared, cst = 01000, 03000, 05000
	b.LoadBases(process, shared, 02000, cst)
	// Three indirect hops: exceeds bbnMaxChase.
	mem.words[process+0] = bbnIndirect | bbnValid | 1
	mem.words[shared+1] = bbnIndirect | bbnValid | 2
	mem.words[shared+2] = bbnIndirect | bbnValid | 3
	mem.words[shared+3] = bbnValid | bbnWritable | 9

	_, fault, ok := b.Translate(0, AccessRead, CycleNormal, true)
	if ok || fault == nil {
		t.Errorf("expected chase-overflow fault, got success")
	}
}

func TestFlushClearsTLB(t *testing.T) {
	mem := newFakeMem()
	k := NewKIPaged(mem)
	k.LoadBases(01000, 02000, false)
	mem.words[01000+0] = 0500005_000000
	if _, _, ok := k.Translate(0, AccessRead, CycleNormal, true); !ok {
		t.Fatalf("expected initial translate to succeed")
	}
	mem.words[01000+0] = 0 // table entry now invalidated
	k.Flush(SpaceAll)
	if _, _, ok := k.Translate(0, AccessRead, CycleNormal, true); ok {
		t.Errorf("expected post-flush translate to re-read the page table and fail")
	}
}

// ReloadCnt wraps modulo 32 with bit 040 set on every reload, per
// ka10_cpu.c's "pag_reload = ((pag_reload+1)&037)|040" idiom.
func TestKIReloadCountWrapsWithBit(t *testing.T) {
	mem := newFakeMem()
	k := NewKIPaged(mem)
	k.LoadBases(01000, 02000, false)
	mem.words[01000+0] = 0500005_000000

	for page := uint32(0); page < 40; page++ {
		k.Flush(SpaceAll)
		k.Translate(page<<kiPageShift, AccessRead, CycleNormal, true)
	}
	if k.ReloadCnt&040 == 0 {
		t.Errorf("ReloadCnt = %o, want bit 040 set after any reload", k.ReloadCnt)
	}
	if k.ReloadCnt&^077 != 0 {
		t.Errorf("ReloadCnt = %o, want only bits 0-5 used", k.ReloadCnt)
	}
}
