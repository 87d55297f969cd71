package cartridge

// mapper2 implements UxROM: any write to $8000-$FFFF selects the 16 KiB bank
// visible at $8000-$BFFF; $C000-$FFFF is hardwired to the last bank. CHR is
// always 8 KiB of CHR-RAM.
type mapper2 struct {
	cart     *Cartridge
	prgBank  uint8
	prgBanks uint8
}

func newMapper2(cart *Cartridge) *mapper2 {
	return &mapper2{cart: cart, prgBanks: uint8(len(cart.prgROM) / 0x4000)}
}

func (m *mapper2) ReadPRG(address uint16) uint8 {
	switch {
	case address >= 0xC000:
		lastBank := m.prgBanks - 1
		offset := uint32(lastBank)*0x4000 + uint32(address-0xC000)
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x8000:
		bank := m.prgBank & (m.prgBanks - 1)
		offset := uint32(bank)*0x4000 + uint32(address-0x8000)
		if int(offset) < len(m.cart.prgROM) {
			return m.cart.prgROM[offset]
		}
		return 0
	case address >= 0x6000:
		return m.cart.sram[address-0x6000]
	default:
		return 0
	}
}

func (m *mapper2) WritePRG(address uint16, value uint8) {
	switch {
	case address >= 0x8000:
		m.prgBank = value & (m.prgBanks - 1)
	case address >= 0x6000:
		m.cart.sram[address-0x6000] = value
	}
}

func (m *mapper2) ReadCHR(address uint16) uint8 {
	if address < 0x2000 {
		return m.cart.chrRead(uint32(address))
	}
	return 0
}

func (m *mapper2) WriteCHR(address uint16, value uint8) {
	if address < 0x2000 {
		m.cart.chrWrite(uint32(address), value)
	}
}

func (m *mapper2) Mirroring() MirrorMode                        { return m.cart.mirror }
func (m *mapper2) NotifyA12(addr uint16, renderingEnabled bool) {}
func (m *mapper2) IRQPending() bool                             { return false }
func (m *mapper2) ClearIRQ()                                    {}

func (m *mapper2) ExportBankState() [24]uint8 {
	var s [24]uint8
	s[0] = m.prgBank
	return s
}

func (m *mapper2) ImportBankState(state [24]uint8) {
	m.prgBank = state[0]
}
