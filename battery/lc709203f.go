package battery

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3/i2c"
)

// Address is the fixed I²C address of the LC709203F fuel gauge.
const Address = 0x0B

// LC709203F registers.
const (
	regInitialRSOC = 0x07
	regAPA         = 0x0B
	regCellITE     = 0x0F
	regICVersion   = 0x11
	regBatProfile  = 0x12
	regPowerMode   = 0x15
	regStatusBit   = 0x16
)

// PackSize selects the adjustment pack application (APA) value for the
// attached cell's capacity.
type PackSize uint16

// APA values for common LiPo capacities.
const (
	Pack100mAh  PackSize = 0x08
	Pack500mAh  PackSize = 0x10
	Pack1000mAh PackSize = 0x19
	Pack2000mAh PackSize = 0x2D
	Pack3000mAh PackSize = 0x36
)

var ErrCRC = errors.New("lc709203f: CRC mismatch")

// LC709203F is a fuel gauge on an I²C bus.
type LC709203F struct {
	dev *i2c.Dev
}

// NewLC709203F wakes the gauge on bus and configures it for a 3.7V LiPo of
// the given pack size.
func NewLC709203F(bus i2c.Bus, pack PackSize) (*LC709203F, error) {
	g := &LC709203F{dev: &i2c.Dev{Bus: bus, Addr: Address}}
	for _, w := range []struct {
		reg uint8
		val uint16
	}{
		{regPowerMode, 0x0001}, // operational
		{regAPA, uint16(pack)},
		{regBatProfile, 0x0001}, // 3.7V
		{regStatusBit, 0x0000},  // no thermistor
		{regInitialRSOC, 0xAA55},
	} {
		if err := g.write(w.reg, w.val); nil != err {
			return nil, fmt.Errorf("lc709203f: init register 0x%02X: %w", w.reg, err)
		}
	}
	return g, nil
}

// CellPercent returns the indicator-to-empty charge in percent.
func (g *LC709203F) CellPercent() (float64, error) {
	v, err := g.read(regCellITE)
	if nil != err {
		return 0, err
	}
	return float64(v) / 10, nil
}

// ICVersion returns the chip revision.
func (g *LC709203F) ICVersion() (uint16, error) {
	return g.read(regICVersion)
}

func (g *LC709203F) read(reg uint8) (uint16, error) {
	r := make([]byte, 3)
	if err := g.dev.Tx([]byte{reg}, r); nil != err {
		return 0, err
	}
	if crc8(Address<<1, reg, Address<<1|1, r[0], r[1]) != r[2] {
		return 0, ErrCRC
	}
	return uint16(r[0]) | uint16(r[1])<<8, nil
}

func (g *LC709203F) write(reg uint8, val uint16) error {
	lo, hi := uint8(val), uint8(val>>8)
	_, err := g.dev.Write([]byte{reg, lo, hi, crc8(Address<<1, reg, lo, hi)})
	return err
}

// crc8 is CRC-8-ATM (polynomial 0x07, initial value 0).
func crc8(data ...byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ 0x07
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
