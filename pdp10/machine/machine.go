/*
   PDP10 - Simulator control: wires memory, translator, CPU, bus, DF10
   channels, and the event queue into one runnable machine.

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

// Package machine owns one complete emulated system: memory, the address
// translator, the instruction executor, the device bus, DF10 DMA
// channels and the event queue all live inside one *Machine value
// instead of the teacher's package-level globals (Design Notes §9), so
// the console and tests can build several independent machines.
package machine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rcornwell/pdp10/pdp10/bus"
	"github.com/rcornwell/pdp10/pdp10/cpu"
	"github.com/rcornwell/pdp10/pdp10/df10"
	"github.com/rcornwell/pdp10/pdp10/event"
	"github.com/rcornwell/pdp10/pdp10/memory"
	"github.com/rcornwell/pdp10/pdp10/mmu"
)

// Device codes the system devices occupy on the bus, per ka10_cpu.c's
// dev_apr/dev_pi assignments.
const (
	DeviceAPR   = 0
	DevicePI    = 4
	DeviceClock = 014
)

// ClockPeriod is the interval the real-time clock's event ticks at.
// Matched against no particular real-hardware rate (spec.md's Non-goals
// exclude cycle-accurate timing); it only needs to be fast enough that
// clock-dependent guest software makes visible progress.
const ClockPeriod = 16667 * time.Microsecond

// HistoryEntry is one instruction-boundary snapshot, the source data
// for both `examine history` and the front-panel viewer.
type HistoryEntry struct {
	PC    uint32
	Flags uint16
	IR    uint64
}

// Machine is the owned, runnable system.
type Machine struct {
	mu sync.Mutex

	mem        *memory.Memory
	translator mmu.Translator
	pi         *cpu.PriorityEngine
	bus        *bus.Bus
	core       *cpu.CPU
	events     *event.Queue

	apr   *cpu.APRDevice
	clock *cpu.ClockDevice

	variant mmu.Variant

	history  []HistoryEntry
	histNext int
	histLen  int // number of valid entries, <= len(history)

	breakpoints map[uint32]struct{}

	running bool

	log *slog.Logger
}

// MaxWords is the largest physical memory a machine can be grown to: the
// 18-bit PDP-10 address space, 2^18 words.
const MaxWords = 1 << 18

// New builds a machine with words words of memory (rounded to
// memory.WordIncrement) and the given CPU variant.
func New(variant mmu.Variant, words int, log *slog.Logger) *Machine {
	if log == nil {
		log = slog.Default()
	}
	mem := memory.New(words, MaxWords)
	translator := mmu.New(variant, mem)
	pi := cpu.NewPriorityEngine()
	b := bus.New()

	m := &Machine{
		mem:         mem,
		translator:  translator,
		pi:          pi,
		bus:         b,
		events:      event.New(),
		variant:     variant,
		breakpoints: make(map[uint32]struct{}),
		history:     make([]HistoryEntry, 64),
		log:         log,
	}

	m.apr = cpu.NewAPRDevice(m.masterReset)
	m.clock = cpu.NewClockDevice(m.apr)
	b.Attach(DeviceAPR, m.apr)
	b.Attach(DevicePI, cpu.NewPIDevice(pi))
	b.Attach(DeviceClock, m.clock)

	m.core = cpu.New(variant, mem, translator, pi, b)
	return m
}

// CPU, Memory, Bus, and Events expose the wired components for the
// console and front-end tooling; Machine itself stays the only thing
// that constructs them.
func (m *Machine) CPU() *cpu.CPU        { return m.core }
func (m *Machine) Memory() *memory.Memory { return m.mem }
func (m *Machine) Bus() *bus.Bus         { return m.bus }
func (m *Machine) Events() *event.Queue  { return m.events }

// masterReset is the APR's CONO reset handler: it clears pending device
// interrupt requests and drops any level currently in service, matching
// a KA10 master-clear pulse's effect on the PI system.
func (m *Machine) masterReset() {
	m.pi.SetMaster(false)
	for l := 1; l <= 7; l++ {
		m.pi.Dismiss(l)
		m.pi.ClearRequest(l)
	}
}

// NewChannel returns a DF10 DMA channel wired to this machine's memory
// and priority engine, for a device constructor to attach to the bus
// alongside its own CONI/CONO/DATAI/DATAO handling.
func (m *Machine) NewChannel(level int) *df10.Channel {
	return df10.New(m.mem, m.pi, level)
}

// AddBreakpoint and RemoveBreakpoint manage the PC-matching breakpoint
// set Step/Run consult before executing an instruction.
func (m *Machine) AddBreakpoint(pc uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.breakpoints[pc&0777777] = struct{}{}
}

func (m *Machine) RemoveBreakpoint(pc uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.breakpoints, pc&0777777)
}

func (m *Machine) Breakpoints() []uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]uint32, 0, len(m.breakpoints))
	for pc := range m.breakpoints {
		out = append(out, pc)
	}
	return out
}

func (m *Machine) atBreakpoint(pc uint32) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.breakpoints[pc&0777777]
	return ok
}

// SetMemorySize resizes main memory to words words.
func (m *Machine) SetMemorySize(words int) {
	m.mem.SetSize(words)
}

// SetHistoryLength resizes the instruction-history ring, discarding its
// current contents.
func (m *Machine) SetHistoryLength(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n < 1 {
		n = 1
	}
	m.history = make([]HistoryEntry, n)
	m.histNext = 0
	m.histLen = 0
}

// History returns the recorded instruction-boundary snapshots, oldest
// first.
func (m *Machine) History() []HistoryEntry {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]HistoryEntry, m.histLen)
	start := (m.histNext - m.histLen + len(m.history)) % len(m.history)
	for i := 0; i < m.histLen; i++ {
		out[i] = m.history[(start+i)%len(m.history)]
	}
	return out
}

func (m *Machine) recordHistory(pc uint32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, _ := m.mem.ReadPhysical(pc)
	m.history[m.histNext] = HistoryEntry{PC: pc, Flags: m.core.Flags(), IR: w}
	m.histNext = (m.histNext + 1) % len(m.history)
	if m.histLen < len(m.history) {
		m.histLen++
	}
}

// Boot sets the PC to start and begins running.
func (m *Machine) Boot(start uint32) {
	m.core.SetPC(start)
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()
}

// Stop halts a running machine; Run's goroutines observe it on their
// next loop iteration.
func (m *Machine) Stop() {
	m.mu.Lock()
	m.running = false
	m.mu.Unlock()
}

func (m *Machine) isRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Step executes exactly one instruction (or interrupt service, or
// vectored trap), regardless of the running flag, for the console's
// single-step command. It returns the trap, if any, that ended the
// step — a Stop trap (HALT) or an unrecoverable host error.
func (m *Machine) Step() *cpu.Trap {
	pc := m.core.PC()
	trap := m.core.Step()
	m.recordHistory(pc)
	if trap == nil {
		return nil
	}
	if trap.Stop {
		m.Stop()
		return trap
	}
	if trap.Vector != 0 {
		return m.core.VectorTrap(trap)
	}
	return trap
}

// Run drives the machine until ctx is canceled, Stop is called, or a
// Stop-class trap occurs (HALT, unimplemented opcode the operator must
// investigate). Modeled on the teacher's core.Start/Stop, but using
// errgroup+context instead of a hand-rolled WaitGroup and done channel:
// one goroutine executes instructions, a second ticks the real-time
// clock, and canceling ctx (or calling Stop) unwinds both.
func (m *Machine) Run(parent context.Context) error {
	m.mu.Lock()
	m.running = true
	m.mu.Unlock()

	g, ctx := errgroup.WithContext(parent)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g.Go(func() error {
		defer cancel() // wake the clock-tick goroutine once stepping ends, error or not
		for m.isRunning() {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
			pc := m.core.PC()
			if m.atBreakpoint(pc) {
				m.log.Info("breakpoint hit", "pc", fmt.Sprintf("%o", pc))
				m.Stop()
				return nil
			}
			trap := m.Step()
			if trap != nil && trap.Stop {
				m.log.Info("machine stopped", "reason", trap.Reason)
				return nil
			}
			m.events.Advance(1)
		}
		return nil
	})

	g.Go(func() error {
		ticker := time.NewTicker(ClockPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				m.clock.Tick(m.pi)
			}
		}
	})

	return g.Wait()
}
