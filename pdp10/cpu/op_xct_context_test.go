package cpu

import (
	"testing"

	"github.com/rcornwell/pdp10/pdp10/bus"
	"github.com/rcornwell/pdp10/pdp10/memory"
	"github.com/rcornwell/pdp10/pdp10/mmu"
)

// On BBN, XCT's AC bit 010 forces the *fetch* of the target instruction
// word through the user page map even when the CPU itself is in exec
// mode; the data cycle the target instruction then performs is a
// separate decision (bits 004/001). If xctExecute fetched the target
// word using the data context instead of the fetch context, this test's
// target address would resolve through the monitor map instead of the
// process map, and the "inner" word read back
// would actually be the outer XCT instruction itself, recursing until the
// runaway-chain guard trips.
func TestXCTForcesUserFetchSeparatelyFromData(t *testing.T) {
	// 256K words, so the map and CST bases below exist in physical memory.
	mem := memory.New(16*memory.WordIncrement, 16*memory.WordIncrement)
	b := mmu.NewBBNPaged(mem)
	pi := NewPriorityEngine()
	busDev := bus.New()
	c := New(mmu.VariantBBN, mem, b, pi, busDev)

	const (
		monitorMap = 0200000
		processMap = 0300000
		sharedMap  = 0400000
		cstBase    = 0500000
	)
	b.LoadBases(processMap, sharedMap, monitorMap, cstBase)

	// Monitor map: page 0 -> CST index 10, so the outer XCT instruction
	// (fetched in exec mode) lands at physical (10<<9).
	mem.WritePhysical(monitorMap+0, 0500000_000012) // valid, writable, CST index 10
	mem.WritePhysical(cstBase+10, 0)
	const outerPhys = 10 << 9
	mem.WritePhysical(outerPhys, buildInstr(0256, 010, 0, false, 0)) // XCT 10,0

	// Process map: page 0 -> CST index 20, so the user-mapped target
	// instruction lands at a different physical location: a harmless
	// JFCL 0,0 that performs no data cycle and never jumps.
	mem.WritePhysical(processMap+0, 0500000_000024) // valid, writable, CST index 20
	mem.WritePhysical(cstBase+20, 0)
	const innerPhys = 20 << 9
	mem.WritePhysical(innerPhys, buildInstr(0255, 0, 0, false, 0)) // JFCL 0,0

	c.SetPC(0)
	if trap := c.Step(); trap != nil {
		t.Fatalf("unexpected trap (fetch-side context not applied): %+v", trap)
	}
}
