package epd

import (
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/epd/pixel"
)

// Commands
const (
	epd2in9DriverOutputControl   byte = 0x01
	epd2in9BoosterSoftStart      byte = 0x0c
	epd2in9DeepSleepMode         byte = 0x10
	epd2in9DataEntryMode         byte = 0x11
	epd2in9SwReset               byte = 0x12
	epd2in9MasterActivation      byte = 0x20
	epd2in9DisplayUpdateControl1 byte = 0x21
	epd2in9DisplayUpdateControl2 byte = 0x22
	epd2in9WriteRAM              byte = 0x24
	epd2in9WriteOldRAM           byte = 0x26
	epd2in9WriteVcom             byte = 0x2c
	epd2in9WriteLUT              byte = 0x32
	epd2in9SetDummyLinePeriod    byte = 0x3a
	epd2in9SetGateLineWidth      byte = 0x3b
	epd2in9BorderWaveform        byte = 0x3c
	epd2in9SetRAMXStartEnd       byte = 0x44
	epd2in9SetRAMYStartEnd       byte = 0x45
	epd2in9SetRAMX               byte = 0x4e
	epd2in9SetRAMY               byte = 0x4f
	epd2in9Noop                  byte = 0xff
)

// Waveform LUTs from the vendor sample code. The full update waveform
// flashes the panel and should be used occasionally to avoid ghosting.
var (
	epd2in9LUTFull = []byte{
		0x50, 0xaa, 0x55, 0xaa, 0x11, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0x1f, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
	epd2in9LUTPartial = []byte{
		0x10, 0x18, 0x18, 0x08, 0x18, 0x18, 0x08, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x00, 0x00, 0x00, 0x13, 0x14, 0x44, 0x12, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
	}
)

type epd2in9Mode struct {
	lut []byte

	// bypass is the RAM bypass payload; nil skips the register. 0x00
	// diffs the two RAM planes, 0x80 updates only white pixels of the
	// current plane, 0x90 only black pixels.
	bypass []byte
}

var epd2in9Modes = map[RefreshMode]epd2in9Mode{
	Full:               {lut: epd2in9LUTFull},
	Partial:            {lut: epd2in9LUTPartial, bypass: []byte{0x00}},
	PartialWhiteBypass: {lut: epd2in9LUTPartial, bypass: []byte{0x80}},
	PartialBlackBypass: {lut: epd2in9LUTPartial, bypass: []byte{0x90}},
}

// epd2in9 is the 128×296 2.9" panel, first hardware revision. The busy
// line is active high on this panel, despite what the datasheet says.
type epd2in9 struct{}

// NewEPD2in9 opens a session with a 2.9" v1 panel.
func NewEPD2in9(c Conn) *Display {
	return New(c, &epd2in9{})
}

func (epd2in9) String() string {
	return "EPD 2.9in"
}

func (epd2in9) Bounds() image.Rectangle {
	return image.Rect(0, 0, 128, 296)
}

func (epd2in9) Planes() int {
	return 2
}

func (epd2in9) PowerGated() bool {
	return false
}

func (epd2in9) ResetPulse(c Conn) error {
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

func (p epd2in9) Init(c Conn, mode RefreshMode) error {
	if err := c.Command(epd2in9SwReset); err != nil {
		return err
	}

	// Gate count of the long edge, low byte first.
	if err := c.Command(epd2in9DriverOutputControl, 0x27, 0x01, 0x00); err != nil {
		return err
	}
	// Booster values from the sample code; the datasheet disagrees.
	if err := c.Command(epd2in9BoosterSoftStart, 0xd7, 0xd6, 0x9d); err != nil {
		return err
	}
	// Auto-increment X and Y, X direction first.
	if err := c.Command(epd2in9DataEntryMode, 0x03); err != nil {
		return err
	}
	if err := c.Command(epd2in9WriteVcom, 0xa8); err != nil {
		return err
	}
	// 4 dummy lines per gate.
	if err := c.Command(epd2in9SetDummyLinePeriod, 0x1a); err != nil {
		return err
	}
	// 2us per line.
	if err := c.Command(epd2in9SetGateLineWidth, 0x08); err != nil {
		return err
	}

	return p.ApplyMode(c, mode)
}

func (epd2in9) ApplyMode(c Conn, mode RefreshMode) error {
	m, ok := epd2in9Modes[mode]
	if !ok {
		return ErrUnsupportedMode
	}
	if err := c.Command(epd2in9WriteLUT, m.lut...); err != nil {
		return err
	}
	if m.bypass != nil {
		return c.Command(epd2in9DisplayUpdateControl1, m.bypass...)
	}
	return nil
}

func (epd2in9) SetBorder(c Conn, color pixel.Mono) error {
	var setting byte
	if color.On {
		setting = 0x01
	}
	return c.Command(epd2in9BorderWaveform, setting)
}

func (epd2in9) SetWindow(c Conn, area image.Rectangle) error {
	// The X axis is addressed in whole bytes, start and end inclusive.
	if err := c.Command(epd2in9SetRAMXStartEnd,
		byte(area.Min.X>>3),
		byte((area.Max.X-1)>>3),
	); err != nil {
		return err
	}
	return c.Command(epd2in9SetRAMYStartEnd,
		byte(area.Min.Y), byte(area.Min.Y>>8),
		byte(area.Max.Y-1), byte((area.Max.Y-1)>>8),
	)
}

func (epd2in9) SetCursor(c Conn, p image.Point) error {
	if err := c.Command(epd2in9SetRAMX, byte(p.X>>3)); err != nil {
		return err
	}
	return c.Command(epd2in9SetRAMY, byte(p.Y), byte(p.Y>>8))
}

func (epd2in9) WriteImage(c Conn, data []byte) error {
	return c.Command(epd2in9WriteRAM, data...)
}

func (epd2in9) WriteBaseline(c Conn, data []byte) error {
	return c.Command(epd2in9WriteOldRAM, data...)
}

func (epd2in9) Update(c Conn, _ RefreshMode) error {
	// Enable clock and charge pump, then display from RAM. The
	// controller swaps its two RAM planes here, so updating twice
	// without writing shows the previous image.
	if err := c.Command(epd2in9DisplayUpdateControl2, 0xc4); err != nil {
		return err
	}
	if err := c.Command(epd2in9MasterActivation); err != nil {
		return err
	}
	return c.Command(epd2in9Noop)
}

func (epd2in9) Sleep(c Conn) error {
	return c.Command(epd2in9DeepSleepMode, 0x01)
}

var (
	_ Panel        = (*epd2in9)(nil)
	_ BorderSetter = (*epd2in9)(nil)
)
