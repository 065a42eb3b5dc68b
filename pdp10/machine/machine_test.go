package machine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/rcornwell/pdp10/pdp10/mmu"
	"github.com/rcornwell/pdp10/pdp10/word"
)

func buildInstr(op uint32, ac uint32, idx uint32, indirect bool, addr uint32) uint64 {
	w := uint64(op&0777) << 27
	w |= uint64(ac&017) << 23
	if indirect {
		w |= 0000020_000000
	}
	w |= uint64(idx&017) << 18
	w |= uint64(addr) & word.Half
	return w
}

func TestStepExecutesOneInstructionAndRecordsHistory(t *testing.T) {
	m := New(mmu.VariantKA, 0, nil)
	m.mem.WritePhysical(0100, 0123456_654321)
	m.mem.WritePhysical(01000, buildInstr(0200, 2, 0, false, 0100)) // MOVE 2,0100
	m.core.SetPC(01000)

	trap := m.Step()
	assert.Nil(t, trap)
	assert.Equal(t, uint64(0123456_654321), m.core.AC(2))
	assert.Equal(t, uint32(01001), m.core.PC())

	hist := m.History()
	assert.Len(t, hist, 1)
	assert.Equal(t, uint32(01000), hist[0].PC)
}

func TestRunStopsOnHalt(t *testing.T) {
	m := New(mmu.VariantKA, 0, nil)
	// JRST 010,02000: AC field bit 010 selects HALT; executive mode (flags
	// start at 0, which is exec mode) so it is permitted.
	m.mem.WritePhysical(01000, buildInstr(0254, 010, 0, false, 02000))
	m.Boot(01000)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := m.Run(ctx)

	assert.NoError(t, err)
	assert.False(t, m.isRunning())
	assert.Equal(t, uint32(02000), m.core.PC())
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	m := New(mmu.VariantKA, 0, nil)
	m.mem.WritePhysical(0100, 1)
	// Two MOVE instructions in a row; break before the second executes.
	m.mem.WritePhysical(01000, buildInstr(0200, 1, 0, false, 0100))
	m.mem.WritePhysical(01001, buildInstr(0200, 2, 0, false, 0100))
	m.AddBreakpoint(01001)
	m.Boot(01000)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	err := m.Run(ctx)

	assert.NoError(t, err)
	assert.Equal(t, uint32(01001), m.core.PC())
	assert.Equal(t, uint64(1), m.core.AC(1))
	assert.Equal(t, uint64(0), m.core.AC(2))
}

func TestBreakpointAddRemove(t *testing.T) {
	m := New(mmu.VariantKA, 0, nil)
	m.AddBreakpoint(0100)
	assert.Len(t, m.Breakpoints(), 1)
	m.RemoveBreakpoint(0100)
	assert.Len(t, m.Breakpoints(), 0)
}

func TestSetMemorySizeGrows(t *testing.T) {
	m := New(mmu.VariantKA, 0, nil)
	initial := m.mem.Size()
	m.SetMemorySize(initial * 4)
	assert.Greater(t, m.mem.Size(), initial)
}
