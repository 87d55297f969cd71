package cartridge

// mapper1 implements MMC1: a 5-bit serial shift register feeding four
// internal registers (control, CHR0, CHR1, PRG), selected by address bits
// 13-14 of the write.
type mapper1 struct {
	cart *Cartridge

	shift      uint8
	shiftCount uint8

	control  uint8
	chrBank0 uint8
	chrBank1 uint8
	prgBank  uint8

	prgMode uint8 // 0/1: 32K, 2: fix first bank, 3: fix last bank
	chrMode uint8 // 0: 8K, 1: 4K
	mirror  uint8 // 0: single-low, 1: single-high, 2: vertical, 3: horizontal

	prgBankCount uint8
	chrBankCount uint8
}

func newMapper1(cart *Cartridge) *mapper1 {
	m := &mapper1{
		cart:    cart,
		control: 0x0C,
		prgMode: 3,
	}
	if len(cart.prgROM) > 0 {
		m.prgBankCount = uint8(len(cart.prgROM) / 0x4000)
	}
	if cart.chrBankSize() > 0 {
		m.chrBankCount = uint8(cart.chrBankSize() / 0x1000)
	}
	return m
}

func (m *mapper1) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0x8000:
		prgSize := len(m.cart.prgROM)
		if prgSize == 0 {
			return 0
		}
		addr := address - 0x8000
		var offset uint32
		switch m.prgMode {
		case 0, 1:
			bank := m.prgBank >> 1
			offset = uint32(bank)*0x8000 + uint32(addr)
		case 2:
			if addr < 0x4000 {
				offset = uint32(addr)
			} else {
				bank := m.prgBank & 0x0F
				offset = uint32(bank)*0x4000 + uint32(addr-0x4000)
			}
		default: // 3
			if addr < 0x4000 {
				bank := m.prgBank & 0x0F
				offset = uint32(bank)*0x4000 + uint32(addr)
			} else {
				lastBank := uint32(prgSize/0x4000) - 1
				offset = lastBank*0x4000 + uint32(addr-0x4000)
			}
		}
		if int(offset) < prgSize {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x6000:
		if (m.prgBank & 0x10) == 0 {
			return m.cart.sram[address-0x6000]
		}
		return 0
	default:
		return 0
	}
}

func (m *mapper1) WritePRG(address uint16, value uint8) {
	if address >= 0x6000 && address < 0x8000 {
		if (m.prgBank & 0x10) == 0 {
			m.cart.sram[address-0x6000] = value
		}
		return
	}
	if address < 0x8000 {
		return
	}

	if (value & 0x80) != 0 {
		m.shift = 0
		m.shiftCount = 0
		m.control |= 0x0C
		m.prgMode = 3
		return
	}

	m.shift = (m.shift >> 1) | ((value & 1) << 4)
	m.shiftCount++
	if m.shiftCount == 5 {
		m.writeRegister(address, m.shift)
		m.shift = 0
		m.shiftCount = 0
	}
}

func (m *mapper1) writeRegister(addr uint16, value uint8) {
	switch {
	case addr <= 0x9FFF:
		m.control = value
		m.mirror = value & 3
		m.prgMode = (value >> 2) & 3
		m.chrMode = (value >> 4) & 1
	case addr <= 0xBFFF:
		m.chrBank0 = value
	case addr <= 0xDFFF:
		m.chrBank1 = value
	default:
		m.prgBank = value
	}
}

func (m *mapper1) ReadCHR(address uint16) uint8 {
	if address >= 0x2000 {
		return 0
	}
	return m.cart.chrRead(m.chrOffset(address))
}

func (m *mapper1) WriteCHR(address uint16, value uint8) {
	if address >= 0x2000 {
		return
	}
	m.cart.chrWrite(m.chrOffset(address), value)
}

func (m *mapper1) chrOffset(addr uint16) uint32 {
	if m.chrMode == 0 {
		bank := m.chrBank0 >> 1
		return uint32(bank)*0x2000 + uint32(addr)
	}
	if addr < 0x1000 {
		return uint32(m.chrBank0)*0x1000 + uint32(addr)
	}
	return uint32(m.chrBank1)*0x1000 + uint32(addr-0x1000)
}

func (m *mapper1) Mirroring() MirrorMode {
	switch m.mirror {
	case 0:
		return MirrorSingleScreen0
	case 1:
		return MirrorSingleScreen1
	case 2:
		return MirrorVertical
	default:
		return MirrorHorizontal
	}
}

func (m *mapper1) NotifyA12(addr uint16, renderingEnabled bool) {}
func (m *mapper1) IRQPending() bool                             { return false }
func (m *mapper1) ClearIRQ()                                    {}

func (m *mapper1) ExportBankState() [24]uint8 {
	var s [24]uint8
	s[0] = m.shift
	s[1] = m.shiftCount
	s[2] = m.control
	s[3] = m.chrBank0
	s[4] = m.chrBank1
	s[5] = m.prgBank
	s[6] = m.prgMode
	s[7] = m.chrMode
	s[8] = m.mirror
	return s
}

func (m *mapper1) ImportBankState(state [24]uint8) {
	m.shift = state[0]
	m.shiftCount = state[1]
	m.control = state[2]
	m.chrBank0 = state[3]
	m.chrBank1 = state[4]
	m.prgBank = state[5]
	m.prgMode = state[6]
	m.chrMode = state[7]
	m.mirror = state[8]
}
