package cpu

// installIO wires the 0700-0777 I/O instruction block. Unlike every
// other family, the opcode field alone doesn't select the device: bits
// 3-9 of the word (the low 6 bits of the 9-bit opcode plus the top bit
// of what the AC-field decode captured) form the 7-bit device number,
// and the low 3 bits of the AC field select the function (DATAI, DATAO,
// CONI, CONO, CONSZ, CONSO), per ka10_defs.h's DATAI/DATAO/CONI/CONO
// constants and the device-number assembly in build_dev_tab.
func (c *CPU) installIO() {
	for op := uint32(0700); op <= 0777; op++ {
		c.install(op, "IO", 0, c.opIO)
	}
}

func ioDeviceAndFunction(ir, ac uint32) (device uint32, function uint32) {
	device = ((ir & 077) << 1) | ((ac >> 3) & 1)
	function = ac & 007
	return device, function
}

func (c *CPU) opIO(s *stepInfo) {
	device, function := ioDeviceAndFunction(s.ir, s.ac)
	switch function {
	case 0: // DATAI
		v := c.bus.DATAI(device)
		if trap := c.writeEA(s.ea, v, s.ctx); trap != nil {
			s.trap = trap
		}
	case 1: // DATAO
		v, trap := c.readEA(s.ea, s.ctx)
		if trap != nil {
			s.trap = trap
			return
		}
		c.bus.DATAO(device, v)
	case 2: // CONI
		v := c.bus.CONI(device)
		if trap := c.writeEA(s.ea, v, s.ctx); trap != nil {
			s.trap = trap
		}
	case 3: // CONO
		c.bus.CONO(device, uint64(s.ea))
	case 4: // CONSZ: skip next if masked condition bits are all zero
		if c.bus.ConditionMatchesZero(device, uint64(s.ea)) {
			c.pc = (c.pc + 1) & 0777777
		}
	case 5: // CONSO: skip next if any masked condition bit is set
		if c.bus.ConditionMatchesNonzero(device, uint64(s.ea)) {
			c.pc = (c.pc + 1) & 0777777
		}
	default:
		s.trap = &Trap{Reason: "illegal instruction", Vector: muuoVector}
	}
}
