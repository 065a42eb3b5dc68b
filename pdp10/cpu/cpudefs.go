package cpu

import (
	"github.com/rcornwell/pdp10/pdp10/bus"
	"github.com/rcornwell/pdp10/pdp10/mmu"
	"github.com/rcornwell/pdp10/pdp10/word"
)

// Flags word bits, in the architecture's flag order but valued from the
// least significant bit up: FlagCarry0 is bit value 1, the rightmost bit of
// the 13-bit flags field that sits left of PC in a PC word image.
const (
	FlagCarry0 uint16 = 1 << iota
	FlagCarry1
	FlagOverflow
	FlagFloatOverflow
	FlagFloatUnderflow
	FlagNoDivide
	FlagByteInterrupt
	FlagFirstPartDone
	FlagUser
	FlagUserIO
	FlagPublic
	FlagTrap1
	FlagTrap2
)

// AC block selector and accumulator count.
const NumAC = 16

// stepInfo carries the mutable state of one instruction's decode/execute
// cycle; opcode bodies read and write it instead of touching CPU fields
// directly, so the operand-discipline pre/post steps and the body stay
// independently testable.
type stepInfo struct {
	ir uint32 // 9-bit opcode
	ac uint32 // AC field of the instruction word
	ea uint32 // effective address

	ctx mmu.Context // translation context this instruction's data cycle uses

	opnd  uint64 // operand fetched from memory or formed from EA (immediate)
	acVal uint64 // AC register's current content, when the discipline loads it
	ac1   uint64 // AC+1 register's current content, for double-word ops

	ar uint64 // primary result: stored to memory and/or AC
	mq uint64 // secondary result: stored to AC+1

	trap *Trap
}

// CPU is the owned processor state: registers, flags, and the components
// it drives (memory, translator, interrupt engine, device bus). Unlike
// the teacher's package-level globals, every field here belongs to one
// CPU value so a test can build several independent machines.
type CPU struct {
	variant mmu.Variant

	pc    uint32
	flags uint16
	ac    [NumAC]uint64
	acBlk int // selected fast-register block (KI10 only; always 0 elsewhere)

	mem Mem
	mmu mmu.Translator
	pi  *PriorityEngine
	bus *bus.Bus

	debug DebugFlags

	entries [512]opEntry
}

// Mem is the subset of *memory.Memory the executor needs.
type Mem interface {
	Read(addr uint32, fastBlock int) (uint64, bool)
	Write(addr uint32, fastBlock int, value uint64) bool
	ReadPhysical(addr uint32) (uint64, bool)
	WritePhysical(addr uint32, value uint64) bool
}

type opFunc func(c *CPU, s *stepInfo)

// DebugFlags mirrors the teacher's debug-option bitmask, generalized to
// the subsystems this machine actually has.
type DebugFlags uint32

const (
	DebugInst DebugFlags = 1 << iota
	DebugEA
	DebugPI
	DebugMMU
	DebugDF10
	DebugIO
)

// New builds a CPU wired to the given memory, translator, interrupt
// engine and device bus, with its dispatch table populated.
func New(variant mmu.Variant, mem Mem, mmuImpl mmu.Translator, pi *PriorityEngine, b *bus.Bus) *CPU {
	c := &CPU{
		variant: variant,
		mem:     mem,
		mmu:     mmuImpl,
		pi:      pi,
		bus:     b,
	}
	c.buildDispatchTable()
	return c
}

func (c *CPU) PC() uint32       { return c.pc }
func (c *CPU) SetPC(pc uint32)  { c.pc = pc & uint32(word.Half) }
func (c *CPU) Flags() uint16    { return c.flags }
func (c *CPU) SetFlags(f uint16) { c.flags = f }

func (c *CPU) SetDebug(d DebugFlags) { c.debug = d }

func (c *CPU) userMode() bool { return c.flags&FlagUser != 0 }

// getAC returns accumulator reg's contents. Callers forming an index sum
// must skip the add entirely when reg==0 (no indexing) rather than rely
// on this returning zero — AC 0 is a real, independently addressable
// accumulator like any other.
func (c *CPU) getAC(reg uint32) uint64 {
	return c.ac[reg&017]
}

func (c *CPU) setAC(reg uint32, v uint64) {
	c.ac[reg&017] = v & word.Mask
}

// AC and SetAC are getAC/setAC's exported forms, for front-ends (the
// console, a front-panel viewer) that need to read or patch an
// accumulator without going through the instruction set.
func (c *CPU) AC(reg uint32) uint64      { return c.getAC(reg) }
func (c *CPU) SetAC(reg uint32, v uint64) { c.setAC(reg, v) }

// Memory exposes the CPU's memory so front-ends can examine/deposit through
// the same fast-register-aware path instructions use.
func (c *CPU) Memory() Mem { return c.mem }

// Variant reports which CPU family this instance was built for.
func (c *CPU) Variant() mmu.Variant { return c.variant }

// PI returns the priority engine so front-ends can inspect interrupt
// state (masks, pending levels) without reaching into CPU internals.
func (c *CPU) PI() *PriorityEngine { return c.pi }

// Mnemonic returns the dispatch table's name for a 9-bit opcode, for
// front-ends (a disassembling dump tool) that want to label an
// instruction word without duplicating the opcode table.
func (c *CPU) Mnemonic(op uint32) string {
	return c.entries[op&0777].name
}
