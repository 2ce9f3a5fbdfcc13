package epd

import (
	"errors"
	"image"
	"testing"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/epd/pixel"
)

// testOp is one recorded command transaction.
type testOp struct {
	cmd  byte
	data []byte
}

// testConn records the command stream instead of talking to hardware.
type testConn struct {
	ops    []testOp
	resets int
	power  gpio.Level
}

func (c *testConn) String() string { return "test" }
func (c *testConn) Close() error   { return nil }
func (c *testConn) Busy() error    { return nil }

func (c *testConn) Reset(level gpio.Level) error {
	if level == gpio.High {
		c.resets++
	}
	return nil
}

func (c *testConn) Power(level gpio.Level) error {
	c.power = level
	return nil
}

func (c *testConn) Command(cmnd byte, data ...byte) error {
	c.ops = append(c.ops, testOp{cmd: cmnd, data: append([]byte(nil), data...)})
	return nil
}

func (c *testConn) Data(data ...byte) error {
	last := &c.ops[len(c.ops)-1]
	last.data = append(last.data, data...)
	return nil
}

// testPanel records which panel operations ran, without any bus
// traffic or timing.
type testPanel struct {
	gated  bool
	inits  int
	modes  []RefreshMode
	resets int
	sleeps int
}

func (p *testPanel) String() string          { return "test panel" }
func (p *testPanel) Bounds() image.Rectangle { return image.Rect(0, 0, 16, 8) }
func (p *testPanel) Planes() int             { return 2 }
func (p *testPanel) PowerGated() bool        { return p.gated }

func (p *testPanel) ResetPulse(Conn) error {
	p.resets++
	return nil
}

func (p *testPanel) Init(c Conn, mode RefreshMode) error {
	p.inits++
	return p.ApplyMode(c, mode)
}

func (p *testPanel) ApplyMode(_ Conn, mode RefreshMode) error {
	if mode == Fast {
		return ErrUnsupportedMode
	}
	p.modes = append(p.modes, mode)
	return nil
}

func (p *testPanel) SetWindow(Conn, image.Rectangle) error { return nil }
func (p *testPanel) SetCursor(Conn, image.Point) error     { return nil }
func (p *testPanel) WriteImage(Conn, []byte) error         { return nil }
func (p *testPanel) WriteBaseline(Conn, []byte) error      { return nil }
func (p *testPanel) Update(Conn, RefreshMode) error        { return nil }

func (p *testPanel) Sleep(Conn) error {
	p.sleeps++
	return nil
}

func TestDisplayRejectsBeforeInit(t *testing.T) {
	d := New(&testConn{}, &testPanel{})
	img := d.NewImage()

	if v := d.State(); v != Uninitialized {
		t.Fatalf("expected state %s, got %s", Uninitialized, v)
	}

	testCases := []struct {
		name string
		call func() error
	}{
		{"WriteFramebuffer", func() error { return d.WriteFramebuffer(img) }},
		{"WriteDiffBaseline", func() error { return d.WriteDiffBaseline(img) }},
		{"UpdateDisplay", d.UpdateDisplay},
		{"SetRefreshMode", func() error { return d.SetRefreshMode(Partial) }},
		{"Sleep", d.Sleep},
	}
	for _, test := range testCases {
		t.Run(test.name, func(it *testing.T) {
			if err := test.call(); !errors.Is(err, ErrUninitialized) {
				it.Errorf("expected %v, got %v", ErrUninitialized, err)
			}
		})
	}
}

func TestDisplayPowerGating(t *testing.T) {
	var (
		conn  = &testConn{}
		panel = &testPanel{gated: true}
		d     = New(conn, panel)
	)

	if v := d.State(); v != PoweredOff {
		t.Fatalf("expected state %s, got %s", PoweredOff, v)
	}
	if err := d.Init(Full); !errors.Is(err, ErrPoweredOff) {
		t.Fatalf("expected %v, got %v", ErrPoweredOff, err)
	}

	if err := d.PowerOn(); err != nil {
		t.Fatal(err)
	}
	if conn.power != gpio.High {
		t.Error("expected the power pin high")
	}
	if v := d.State(); v != Uninitialized {
		t.Fatalf("expected state %s, got %s", Uninitialized, v)
	}
	if err := d.PowerOn(); err == nil {
		t.Error("expected a second power on to fail")
	}

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if err := d.PowerOff(); err != nil {
		t.Fatal(err)
	}
	if conn.power != gpio.Low {
		t.Error("expected the power pin low")
	}
	if v := d.State(); v != PoweredOff {
		t.Fatalf("expected state %s, got %s", PoweredOff, v)
	}
}

func TestDisplayNoPowerRail(t *testing.T) {
	d := New(&testConn{}, &testPanel{})
	if err := d.PowerOn(); !errors.Is(err, ErrNoPowerRail) {
		t.Errorf("expected %v, got %v", ErrNoPowerRail, err)
	}
	if err := d.PowerOff(); !errors.Is(err, ErrNoPowerRail) {
		t.Errorf("expected %v, got %v", ErrNoPowerRail, err)
	}
}

func TestDisplaySetRefreshMode(t *testing.T) {
	panel := &testPanel{}
	d := New(&testConn{}, panel)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if len(panel.modes) != 1 {
		t.Fatalf("expected one mode application, got %d", len(panel.modes))
	}

	// Same mode is a no-op.
	if err := d.SetRefreshMode(Full); err != nil {
		t.Fatal(err)
	}
	if len(panel.modes) != 1 {
		t.Errorf("expected no mode application for the active mode, got %d", len(panel.modes))
	}

	if err := d.SetRefreshMode(Partial); err != nil {
		t.Fatal(err)
	}
	if v := d.Mode(); v != Partial {
		t.Errorf("expected mode %s, got %s", Partial, v)
	}

	if err := d.SetRefreshMode(Fast); !errors.Is(err, ErrUnsupportedMode) {
		t.Errorf("expected %v, got %v", ErrUnsupportedMode, err)
	}
	if v := d.Mode(); v != Partial {
		t.Errorf("expected mode to stay %s, got %s", Partial, v)
	}
}

func TestDisplaySleepWake(t *testing.T) {
	panel := &testPanel{}
	d := New(&testConn{}, panel)

	if err := d.Wake(); !errors.Is(err, ErrAwake) {
		t.Fatalf("expected %v, got %v", ErrAwake, err)
	}

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if err := d.SetRefreshMode(Partial); err != nil {
		t.Fatal(err)
	}

	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if v := d.State(); v != Asleep {
		t.Fatalf("expected state %s, got %s", Asleep, v)
	}
	if err := d.UpdateDisplay(); !errors.Is(err, ErrSleeping) {
		t.Fatalf("expected %v, got %v", ErrSleeping, err)
	}

	// Sleeping twice is a no-op.
	if err := d.Sleep(); err != nil {
		t.Fatal(err)
	}
	if panel.sleeps != 1 {
		t.Errorf("expected one sleep command, got %d", panel.sleeps)
	}

	inits := panel.inits
	if err := d.Wake(); err != nil {
		t.Fatal(err)
	}
	if v := d.State(); v != Ready {
		t.Fatalf("expected state %s, got %s", Ready, v)
	}
	if v := d.Mode(); v != Partial {
		t.Errorf("expected the pre-sleep mode %s restored, got %s", Partial, v)
	}
	if panel.inits != inits {
		t.Error("expected wake to skip bring-up")
	}
	if v := panel.modes[len(panel.modes)-1]; v != Partial {
		t.Errorf("expected wake to reapply mode %s, got %s", Partial, v)
	}
}

func TestDisplayReset(t *testing.T) {
	panel := &testPanel{}
	d := New(&testConn{}, panel)

	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}
	if err := d.Reset(); err != nil {
		t.Fatal(err)
	}
	if v := d.State(); v != Uninitialized {
		t.Fatalf("expected state %s, got %s", Uninitialized, v)
	}
	if err := d.UpdateDisplay(); !errors.Is(err, ErrUninitialized) {
		t.Errorf("expected %v, got %v", ErrUninitialized, err)
	}
}

func TestDisplayWritePlanes(t *testing.T) {
	d := New(&testConn{}, &testPanel{})
	if err := d.Init(Full); err != nil {
		t.Fatal(err)
	}

	if err := d.WritePlanes(pixel.NewPlanarImage(16, 8, 2)); err != nil {
		t.Fatal(err)
	}
	if err := d.WritePlanes(pixel.NewPlanarImage(16, 8, 3)); err == nil {
		t.Error("expected a plane count beyond the panel RAM to fail")
	}
}

func TestCheckAlignedDebug(t *testing.T) {
	defer func(v bool) { debug = v }(debug)

	debug = false
	checkAligned(3) // silent without the debug switch

	debug = true
	defer func() {
		if recover() == nil {
			t.Error("expected a misaligned coordinate to panic with debug set")
		}
	}()
	checkAligned(3)
}
