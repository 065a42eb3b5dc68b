package cpu

import (
	"github.com/rcornwell/pdp10/pdp10/mmu"
	"github.com/rcornwell/pdp10/pdp10/word"
)

const (
	nxmVector  = 0420
	muuoVector = 040
	luuoVector = 040
	pfailVec   = 042

	// kiMUUOBase is the UBR-relative offset of the monitor-call vector
	// table on KI: +0 saves the UUO word, +1 saves flags/PC, +4 supplies
	// the new flags/PC to resume at, per ka10_cpu.c's "unasign" block.
	kiMUUOBase = 0424
)

// Trap is the in-band result of an instruction that cannot simply
// continue: an architectural fault the microcode itself resolves
// (page fail, arithmetic overflow trap), a simulator stop (HALT,
// runaway chain, unimplemented opcode), or an interrupt that aborted
// an in-progress fetch. Modeled as a return value rather than a Go
// error: these are expected outcomes of normal operation, not host
// failures.
type Trap struct {
	Reason    string
	Vector    uint32 // trap vector physical address, when applicable
	FaultData uint64
	Stop      bool // simulator should return to the operator loop
	Interrupt bool // an interrupt aborted the current cycle; retry it
}

func (c *CPU) trapFromFault(f *mmu.Fault) *Trap {
	if f == nil {
		return &Trap{Reason: "translation failed with no fault detail", Stop: true}
	}
	return &Trap{
		Reason:    f.Reason,
		Vector:    f.Vector,
		FaultData: f.Data,
	}
}

// userBaseProvider is implemented by mmu.Translator values that keep a
// user base register (currently only KIPaged); the monitor-call vector
// table MUUOs use on KI is relative to it.
type userBaseProvider interface {
	UserBase() uint32
}

// luuoTrap implements the LUUO (opcodes 001-037) trap: save the faulting
// instruction's opcode, AC field and EA as a single word at physical 040,
// then resume execution at 041. Unlike a hardware trap this never stops
// the machine; it's a software convention the monitor's UUO handler
// relies on, per ka10_cpu.c's LUUO case block.
func (c *CPU) luuoTrap(s *stepInfo) {
	c.uuoSaveAndContinue(s, luuoVector)
}

// muuoTrap implements the MUUO (opcode 000, 040-077, and anything else
// left unassigned) trap. On KI it vectors through the UBR-relative
// monitor-call table; every other variant shares the LUUO convention
// (ka10_cpu.c falls through from MUUO into the LUUO case when not
// compiled KI|KL).
func (c *CPU) muuoTrap(s *stepInfo) {
	if c.variant == mmu.VariantKI {
		if ubp, ok := c.mmu.(userBaseProvider); ok {
			c.kiMUUOTrap(ubp.UserBase(), s)
			return
		}
	}
	c.uuoSaveAndContinue(s, muuoVector)
}

// uuoSaveAndContinue is the LUUO/non-KI-MUUO save-and-resume convention:
// MB = (opcode<<27)|(ac<<23)|ea stored at vector, execution resumes at
// vector+1.
func (c *CPU) uuoSaveAndContinue(s *stepInfo, vector uint32) {
	instrWord := (uint64(s.ir) << 27) | (uint64(s.ac) << 23) | uint64(s.ea)
	if !c.mem.WritePhysical(vector, instrWord) {
		s.trap = &Trap{Reason: "non-existent memory", Vector: nxmVector}
		return
	}
	c.pc = (vector + 1) & uint32(word.Half)
}

// kiMUUOTrap implements the KI monitor-call vector: the UUO word goes to
// UBR+0424, the interrupted flags/PC go to UBR+0425, and the new flags/PC
// come from UBR+0430, per ka10_cpu.c's "unasign" block (the trap_flag-
// selected +1 offset there is not modeled; this always reads +0430).
func (c *CPU) kiMUUOTrap(ubr uint32, s *stepInfo) {
	instrWord := (uint64(s.ir) << 27) | (uint64(s.ac) << 23) | uint64(s.ea)
	if !c.mem.WritePhysical(ubr+kiMUUOBase, instrWord) {
		s.trap = &Trap{Reason: "non-existent memory", Vector: nxmVector}
		return
	}
	if !c.mem.WritePhysical(ubr+kiMUUOBase+1, (uint64(c.flags)<<23)|uint64(c.pc)) {
		s.trap = &Trap{Reason: "non-existent memory", Vector: nxmVector}
		return
	}
	newWord, ok := c.mem.ReadPhysical(ubr + kiMUUOBase + 4)
	if !ok {
		s.trap = &Trap{Reason: "non-existent memory", Vector: nxmVector}
		return
	}
	c.flags = uint16((newWord >> 23) & 017777)
	c.pc = uint32(newWord) & uint32(word.Half)
}
