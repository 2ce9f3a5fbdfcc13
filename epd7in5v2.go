package epd

import (
	"image"
	"time"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/epd/pixel"
)

// Commands
const (
	epd7in5v2PanelSetting           byte = 0x00
	epd7in5v2PowerSetting           byte = 0x01
	epd7in5v2PowerOff               byte = 0x02
	epd7in5v2PowerOn                byte = 0x04
	epd7in5v2BoosterSoftStart       byte = 0x06
	epd7in5v2DeepSleep              byte = 0x07
	epd7in5v2DataStartTransmission1 byte = 0x10
	epd7in5v2DisplayRefresh         byte = 0x12
	epd7in5v2DataStartTransmission2 byte = 0x13
	epd7in5v2DualSPI                byte = 0x15
	epd7in5v2PllControl             byte = 0x30
	epd7in5v2VcomDataInterval       byte = 0x50
	epd7in5v2TconSetting            byte = 0x60
	epd7in5v2TconResolution         byte = 0x61
	epd7in5v2SetPartialWindow       byte = 0x90
	epd7in5v2EnterPartialMode       byte = 0x91
	epd7in5v2ExitPartialMode        byte = 0x92
	epd7in5v2CascadeSetting         byte = 0xe0
	epd7in5v2ForceTemperature       byte = 0xe5
)

// VCOM and data interval flags, sent as the first byte of the 0x50
// register together with epd7in5v2VcomInterval.
const (
	epd7in5v2BorderHiZ    byte = 0x80
	epd7in5v2BorderWhite  byte = 0x10
	epd7in5v2BorderBlack  byte = 0x20
	epd7in5v2NewToOldCopy byte = 0x08

	epd7in5v2VcomInterval byte = 0x07
)

// epd7in5v2 is the 800×480 7.5" panel, second hardware revision. The
// panel sits behind a power rail and its busy line is active low. It
// has no RAM address counter; images are streamed full frame or
// through the partial window mode.
type epd7in5v2 struct {
	dataFlags byte
}

// NewEPD7in5v2 opens a session with a 7.5" v2 panel. The session
// starts powered off; call PowerOn before Init.
func NewEPD7in5v2(c Conn) *Display {
	return New(c, &epd7in5v2{dataFlags: epd7in5v2BorderWhite})
}

func (*epd7in5v2) String() string {
	return "EPD 7.5in v2"
}

func (*epd7in5v2) Bounds() image.Rectangle {
	return image.Rect(0, 0, 800, 480)
}

func (*epd7in5v2) Planes() int {
	return 2
}

func (*epd7in5v2) PowerGated() bool {
	return true
}

func (*epd7in5v2) ResetPulse(c Conn) error {
	if err := c.Reset(gpio.High); err != nil {
		return err
	}
	time.Sleep(10 * time.Millisecond)
	if err := c.Reset(gpio.Low); err != nil {
		return err
	}
	time.Sleep(2 * time.Millisecond)
	if err := c.Reset(gpio.High); err != nil {
		return err
	}
	time.Sleep(200 * time.Millisecond)
	return nil
}

func (p *epd7in5v2) Init(c Conn, mode RefreshMode) error {
	if err := c.Command(epd7in5v2BoosterSoftStart, 0x17, 0x17, 0x28, 0x17); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2PowerSetting, 0x07, 0x07, 0x3f, 0x3f); err != nil {
		return err
	}
	if err := p.powerOn(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2PanelSetting, 0x1f); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2PllControl, 0x06); err != nil {
		return err
	}
	// 800×480.
	if err := c.Command(epd7in5v2TconResolution, 0x03, 0x20, 0x01, 0xe0); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2DualSPI, 0x00); err != nil {
		return err
	}
	p.dataFlags = epd7in5v2BorderWhite
	if err := p.sendDataInterval(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2TconSetting, 0x22); err != nil {
		return err
	}
	if err := c.Busy(); err != nil {
		return err
	}

	switch mode {
	case Partial:
		return p.initPartial(c)
	case Fast:
		return p.initFast(c)
	case Full:
		return nil
	default:
		return ErrUnsupportedMode
	}
}

// ApplyMode on this panel re-runs the bring-up for the requested mode,
// including the reset pulse; the controller has no standalone waveform
// registers to reprogram.
func (p *epd7in5v2) ApplyMode(c Conn, mode RefreshMode) error {
	switch mode {
	case Full:
		if err := p.ResetPulse(c); err != nil {
			return err
		}
		return p.Init(c, mode)
	case Partial:
		return p.initPartial(c)
	case Fast:
		return p.initFast(c)
	default:
		return ErrUnsupportedMode
	}
}

func (p *epd7in5v2) initPartial(c Conn) error {
	if err := p.ResetPulse(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2PanelSetting, 0x1f); err != nil {
		return err
	}
	if err := p.powerOn(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2CascadeSetting, 0x02); err != nil {
		return err
	}
	return c.Command(epd7in5v2ForceTemperature, 0x6e)
}

func (p *epd7in5v2) initFast(c Conn) error {
	if err := p.ResetPulse(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2PanelSetting, 0x1f); err != nil {
		return err
	}
	p.dataFlags = epd7in5v2BorderWhite
	if err := p.sendDataInterval(c); err != nil {
		return err
	}
	if err := p.powerOn(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2BoosterSoftStart, 0x27, 0x27, 0x18, 0x17); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2CascadeSetting, 0x02); err != nil {
		return err
	}
	return c.Command(epd7in5v2ForceTemperature, 0x5a)
}

// powerOn turns on the charge pumps and waits for the rails to settle.
func (p *epd7in5v2) powerOn(c Conn) error {
	if err := c.Command(epd7in5v2PowerOn); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return c.Busy()
}

func (p *epd7in5v2) sendDataInterval(c Conn) error {
	return c.Command(epd7in5v2VcomDataInterval, p.dataFlags, epd7in5v2VcomInterval)
}

func (p *epd7in5v2) SetBorder(c Conn, color pixel.Mono) error {
	if color.On {
		p.dataFlags = (p.dataFlags &^ epd7in5v2BorderWhite) | epd7in5v2BorderBlack
	} else {
		p.dataFlags = (p.dataFlags &^ epd7in5v2BorderBlack) | epd7in5v2BorderWhite
	}
	return p.sendDataInterval(c)
}

// SetWindow is a no-op: the controller has no RAM window, images are
// streamed a full frame at a time.
func (*epd7in5v2) SetWindow(Conn, image.Rectangle) error {
	return nil
}

// SetCursor is a no-op: the controller has no RAM address counter.
func (*epd7in5v2) SetCursor(Conn, image.Point) error {
	return nil
}

func (*epd7in5v2) WriteImage(c Conn, data []byte) error {
	return c.Command(epd7in5v2DataStartTransmission2, data...)
}

func (*epd7in5v2) WriteBaseline(c Conn, data []byte) error {
	return c.Command(epd7in5v2DataStartTransmission1, data...)
}

func (*epd7in5v2) Update(c Conn, _ RefreshMode) error {
	if err := c.Command(epd7in5v2DisplayRefresh); err != nil {
		return err
	}
	time.Sleep(100 * time.Millisecond)
	return c.Busy()
}

// UpdatePartial refreshes only the given area through the partial
// window mode. The X coordinates are widened to byte boundaries.
func (p *epd7in5v2) UpdatePartial(c Conn, img Framebuffer, area image.Rectangle) error {
	area = area.Intersect(img.Bounds())
	if area.Empty() {
		return nil
	}

	p.dataFlags = epd7in5v2BorderHiZ | epd7in5v2BorderBlack | epd7in5v2NewToOldCopy
	if err := p.sendDataInterval(c); err != nil {
		return err
	}
	if err := c.Command(epd7in5v2EnterPartialMode); err != nil {
		return err
	}

	var (
		minX     = area.Min.X &^ 7
		maxX     = (area.Max.X + 7) &^ 7
		rowBytes = (maxX - minX) / 8
		stride   = img.Bounds().Dx() / 8
	)
	if err := c.Command(epd7in5v2SetPartialWindow,
		byte(minX>>8), byte(minX),
		byte((maxX-1)>>8), byte(maxX-1),
		byte(area.Min.Y>>8), byte(area.Min.Y),
		byte((area.Max.Y-1)>>8), byte(area.Max.Y-1),
		0x01,
	); err != nil {
		return err
	}

	if err := c.Command(epd7in5v2DataStartTransmission2); err != nil {
		return err
	}
	data := img.Data()
	for y := area.Min.Y; y < area.Max.Y; y++ {
		row := y*stride + minX/8
		if err := c.Data(data[row : row+rowBytes]...); err != nil {
			return err
		}
	}

	if err := p.Update(c, Partial); err != nil {
		return err
	}
	return c.Command(epd7in5v2ExitPartialMode)
}

func (p *epd7in5v2) Sleep(c Conn) error {
	if err := c.Command(epd7in5v2PowerOff); err != nil {
		return err
	}
	// DeepSleep busy-gates on the power-off sequence finishing. The
	// parameter is a check code, anything else is ignored.
	return c.Command(epd7in5v2DeepSleep, 0xa5)
}

var (
	_ Panel        = (*epd7in5v2)(nil)
	_ BorderSetter = (*epd7in5v2)(nil)
)
