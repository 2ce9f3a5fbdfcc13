package epd

import (
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"
)

// Commands
const (
	epd2in9v2DriverOutputControl   byte = 0x01
	epd2in9v2SetGateVoltage        byte = 0x03
	epd2in9v2SetSourceVoltage      byte = 0x04
	epd2in9v2DeepSleepMode         byte = 0x10
	epd2in9v2DataEntryMode         byte = 0x11
	epd2in9v2SwReset               byte = 0x12
	epd2in9v2MasterActivation      byte = 0x20
	epd2in9v2DisplayUpdateControl1 byte = 0x21
	epd2in9v2DisplayUpdateControl2 byte = 0x22
	epd2in9v2WriteLowRAM           byte = 0x24
	epd2in9v2WriteHighRAM          byte = 0x26
	epd2in9v2WriteVcom             byte = 0x2c
	epd2in9v2WriteLUT              byte = 0x32
	epd2in9v2WriteOTPSelection     byte = 0x37
	epd2in9v2SetBorderWaveform     byte = 0x3c
	epd2in9v2SetLUTEnd             byte = 0x3f
	epd2in9v2SetRAMXStartEnd       byte = 0x44
	epd2in9v2SetRAMYStartEnd       byte = 0x45
	epd2in9v2SetRAMX               byte = 0x4e
	epd2in9v2SetRAMY               byte = 0x4f
)

// Waveform LUTs from the vendor sample code, 153 bytes covering VS,
// TP, RP, SR, FR and XON.
var (
	epd2in9v2LUTFull = []byte{
		0x90, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x90, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x60, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x19, 0x19, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x24, 0x42, 0x22, 0x22, 0x23, 0x32, 0x00, 0x00, 0x00,
	}
	epd2in9v2LUTPartial = []byte{
		0x00, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x80, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x40, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x80, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x0a, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x01, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x22, 0x22, 0x22,
		0x22, 0x22, 0x22, 0x00, 0x00, 0x00,
	}
)

type epd2in9v2Mode struct {
	border  byte
	lut     []byte
	lutEnd  byte
	gate    byte
	source  []byte
	vcom    byte
	updctl2 byte
}

var epd2in9v2Modes = map[RefreshMode]epd2in9v2Mode{
	Full: {
		border:  0x05,
		lut:     epd2in9v2LUTFull,
		lutEnd:  0x22,
		gate:    0x17,
		source:  []byte{0x41, 0xae, 0x32},
		vcom:    0x38,
		updctl2: 0xc7,
	},
	Partial: {
		border:  0x80,
		lut:     epd2in9v2LUTPartial,
		lutEnd:  0x22,
		gate:    0x17,
		source:  []byte{0x41, 0xb0, 0x32},
		vcom:    0x36,
		// Clock and analog must be enabled here, the bring-up sequence
		// differs from the sample code.
		updctl2: 0xcf,
	},
}

// epd2in9v2 is the 128×296 2.9" panel, second hardware revision. Busy
// is active high. 4-level grayscale RAM is present but no grayscale
// waveform ships with the panel.
type epd2in9v2 struct{}

// NewEPD2in9v2 opens a session with a 2.9" v2 panel.
func NewEPD2in9v2(c Conn) *Display {
	return New(c, &epd2in9v2{})
}

func (epd2in9v2) String() string {
	return "EPD 2.9in v2"
}

func (epd2in9v2) Bounds() image.Rectangle {
	return image.Rect(0, 0, 128, 296)
}

func (epd2in9v2) Planes() int {
	return 2
}

func (epd2in9v2) PowerGated() bool {
	return false
}

func (epd2in9v2) ResetPulse(c Conn) error {
	if err := c.Reset(gpio.Low); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := c.Reset(gpio.High); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	return nil
}

func (p epd2in9v2) Init(c Conn, mode RefreshMode) error {
	if err := c.Command(epd2in9v2SwReset); err != nil {
		return err
	}

	// Gate count of the long edge, low byte first.
	if err := c.Command(epd2in9v2DriverOutputControl, 0x27, 0x01, 0x00); err != nil {
		return err
	}
	// Auto-increment X and Y, X direction first.
	if err := c.Command(epd2in9v2DataEntryMode, 0x03); err != nil {
		return err
	}
	// Black and white mode.
	if err := c.Command(epd2in9v2DisplayUpdateControl1, 0x00, 0x80); err != nil {
		return err
	}

	return p.ApplyMode(c, mode)
}

func (epd2in9v2) ApplyMode(c Conn, mode RefreshMode) error {
	m, ok := epd2in9v2Modes[mode]
	if !ok {
		return ErrUnsupportedMode
	}

	if err := c.Command(epd2in9v2SetBorderWaveform, m.border); err != nil {
		return err
	}
	if err := c.Command(epd2in9v2WriteLUT, m.lut...); err != nil {
		return err
	}
	if err := c.Command(epd2in9v2SetLUTEnd, m.lutEnd); err != nil {
		return err
	}
	if err := c.Command(epd2in9v2SetGateVoltage, m.gate); err != nil {
		return err
	}
	if err := c.Command(epd2in9v2SetSourceVoltage, m.source...); err != nil {
		return err
	}
	if err := c.Command(epd2in9v2WriteVcom, m.vcom); err != nil {
		return err
	}

	if mode == Partial {
		// Undocumented OTP selection from the sample code.
		if err := c.Command(epd2in9v2WriteOTPSelection,
			0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00); err != nil {
			return err
		}
		if err := c.Command(epd2in9v2DisplayUpdateControl2, 0xc3); err != nil {
			return err
		}
		return c.Command(epd2in9v2MasterActivation)
	}
	return nil
}

func (epd2in9v2) SetWindow(c Conn, area image.Rectangle) error {
	// The X axis is addressed in whole bytes, start and end inclusive.
	if err := c.Command(epd2in9v2SetRAMXStartEnd,
		byte(area.Min.X>>3),
		byte((area.Max.X-1)>>3),
	); err != nil {
		return err
	}
	return c.Command(epd2in9v2SetRAMYStartEnd,
		byte(area.Min.Y), byte(area.Min.Y>>8),
		byte(area.Max.Y-1), byte((area.Max.Y-1)>>8),
	)
}

func (epd2in9v2) SetCursor(c Conn, p image.Point) error {
	if err := c.Command(epd2in9v2SetRAMX, byte(p.X>>3)); err != nil {
		return err
	}
	return c.Command(epd2in9v2SetRAMY, byte(p.Y), byte(p.Y>>8))
}

func (epd2in9v2) WriteImage(c Conn, data []byte) error {
	return c.Command(epd2in9v2WriteLowRAM, data...)
}

func (epd2in9v2) WriteBaseline(c Conn, data []byte) error {
	return c.Command(epd2in9v2WriteHighRAM, data...)
}

func (epd2in9v2) Update(c Conn, mode RefreshMode) error {
	m, ok := epd2in9v2Modes[mode]
	if !ok {
		return ErrUnsupportedMode
	}
	if err := c.Command(epd2in9v2DisplayUpdateControl2, m.updctl2); err != nil {
		return err
	}
	return c.Command(epd2in9v2MasterActivation)
}

func (epd2in9v2) Sleep(c Conn) error {
	return c.Command(epd2in9v2DeepSleepMode, 0x01)
}

var _ Panel = (*epd2in9v2)(nil)
