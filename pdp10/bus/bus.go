/*
   PDP10 - Device bus: 128-entry device-number dispatch table.

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

// Package bus implements the 128-entry device-number dispatch table that
// routes CONI/CONO/DATAI/DATAO cycles to device handlers. Individual
// peripherals are out of scope; this package only specifies the contract
// a device satisfies.
package bus

// NumDevices is the number of 7-bit device codes (I/O instructions use
// bits 9-3 of the word as a 7-bit device number, shifted right 2 to
// yield 32 groups of four consecutive codes per controller on real
// hardware; the simulator keeps one callback per individual code).
const NumDevices = 128

// Device is the contract a peripheral (or processor-internal "device"
// like APR/PI/PAG) implements to receive I/O-class instructions.
type Device interface {
	// CONI returns the device's condition/status word.
	CONI() uint64
	// CONO applies the low 18 bits of the instruction's effective
	// address as a control word.
	CONO(bits uint64)
	// DATAI returns the device's data word and clears any
	// data-ready condition.
	DATAI() uint64
	// DATAO accepts a data word for output.
	DATAO(data uint64)
}

// Bus holds one Device per 7-bit device code; unassigned codes read as
// the null device (CONI/DATAI return 0, CONO/DATAO are discarded) rather
// than faulting, matching real backplanes with empty slots.
type Bus struct {
	devices [NumDevices]Device
}

// New returns a bus with every slot defaulted to the null device.
func New() *Bus {
	b := &Bus{}
	for i := range b.devices {
		b.devices[i] = nullDevice{}
	}
	return b
}

// Attach installs dev at the given 7-bit device code.
func (b *Bus) Attach(code uint32, dev Device) {
	b.devices[code&0177] = dev
}

func (b *Bus) at(code uint32) Device { return b.devices[code&0177] }

func (b *Bus) CONI(code uint32) uint64        { return b.at(code).CONI() }
func (b *Bus) CONO(code uint32, bits uint64)  { b.at(code).CONO(bits) }
func (b *Bus) DATAI(code uint32) uint64       { return b.at(code).DATAI() }
func (b *Bus) DATAO(code uint32, data uint64) { b.at(code).DATAO(data) }

// CONSZ/CONSO are not separate device entry points: the executor issues
// a CONI and tests the returned bits against the instruction's effective
// address as a mask, per §7's device-bus contract.
func (b *Bus) ConditionMatchesZero(code uint32, mask uint64) bool {
	return b.at(code).CONI()&mask == 0
}

func (b *Bus) ConditionMatchesNonzero(code uint32, mask uint64) bool {
	return b.at(code).CONI()&mask != 0
}

type nullDevice struct{}

func (nullDevice) CONI() uint64      { return 0 }
func (nullDevice) CONO(uint64)       {}
func (nullDevice) DATAI() uint64     { return 0 }
func (nullDevice) DATAO(uint64)      {}
