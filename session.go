package epd

import (
	"fmt"
	"image"

	"periph.io/x/conn/v3/gpio"

	"github.com/BeatGlow/epd/pixel"
)

// Framebuffer is a packed 1-bit image that can be streamed to panel RAM.
// The pixel.MonoImage type implements it.
type Framebuffer interface {
	Bounds() image.Rectangle

	// Data returns the packed pixel bytes, one byte per 8 horizontal
	// pixels, most significant bit first.
	Data() []byte
}

// Panel is a display panel variant. Implementations hold the command
// set, waveform tables and bring-up sequence for one panel generation.
type Panel interface {
	String() string

	// Bounds returns the panel dimensions.
	Bounds() image.Rectangle

	// Planes is the number of RAM planes addressable on the panel.
	Planes() int

	// PowerGated reports whether the panel has a separate power rail.
	PowerGated() bool

	// ResetPulse performs the panel's hardware reset timing.
	ResetPulse(Conn) error

	// Init runs the full bring-up sequence, including the waveform
	// configuration for the requested mode.
	Init(Conn, RefreshMode) error

	// ApplyMode reconfigures only the waveform for the requested mode,
	// without repeating bring-up.
	ApplyMode(Conn, RefreshMode) error

	// SetWindow restricts RAM access to the given area.
	SetWindow(Conn, image.Rectangle) error

	// SetCursor positions the RAM address counter.
	SetCursor(Conn, image.Point) error

	// WriteImage streams packed pixels into the current image RAM.
	WriteImage(Conn, []byte) error

	// WriteBaseline streams packed pixels into the RAM plane used as
	// the previous-image reference for differential updates.
	WriteBaseline(Conn, []byte) error

	// Update triggers a refresh with the active waveform.
	Update(Conn, RefreshMode) error

	// Sleep puts the controller in deep sleep.
	Sleep(Conn) error
}

// BorderSetter is implemented by panels that expose border waveform
// control separate from the mode tables.
type BorderSetter interface {
	SetBorder(Conn, pixel.Mono) error
}

// PartialUpdater is implemented by panels that can refresh a window of
// the screen instead of the full frame.
type PartialUpdater interface {
	UpdatePartial(Conn, Framebuffer, image.Rectangle) error
}

// Display is a stateful session with a panel. All operations check the
// session state first; driving a panel out of order corrupts the image
// or hangs on the busy line, so violations are rejected before any bus
// traffic happens.
type Display struct {
	conn  Conn
	panel Panel
	state State
	mode  RefreshMode

	// savedMode is the active mode at the time of Sleep, restored by
	// Wake.
	savedMode RefreshMode
}

// New creates a display session for the given panel. Panels without a
// power rail start Uninitialized, power-gated panels start PoweredOff.
func New(c Conn, panel Panel) *Display {
	state := Uninitialized
	if panel.PowerGated() {
		state = PoweredOff
	}
	return &Display{
		conn:  c,
		panel: panel,
		state: state,
	}
}

func (d *Display) String() string {
	return fmt.Sprintf("%s on %s", d.panel, d.conn)
}

// State returns the current session state.
func (d *Display) State() State {
	return d.state
}

// Mode returns the active refresh mode. Only meaningful in Ready state.
func (d *Display) Mode() RefreshMode {
	return d.mode
}

// Bounds returns the panel dimensions.
func (d *Display) Bounds() image.Rectangle {
	return d.panel.Bounds()
}

// NewImage allocates a framebuffer matching the panel dimensions.
func (d *Display) NewImage() *pixel.MonoImage {
	b := d.panel.Bounds()
	return pixel.NewMonoImage(b.Dx(), b.Dy())
}

// Close releases the underlying connection.
func (d *Display) Close() error {
	return d.conn.Close()
}

// ready returns the error matching the current state if the display is
// not Ready.
func (d *Display) ready() error {
	switch d.state {
	case PoweredOff:
		return ErrPoweredOff
	case Uninitialized:
		return ErrUninitialized
	case Asleep:
		return ErrSleeping
	}
	return nil
}

// PowerOn enables the panel's power rail. Only valid on power-gated
// panels in the PoweredOff state.
func (d *Display) PowerOn() error {
	if !d.panel.PowerGated() {
		return ErrNoPowerRail
	}
	if d.state != PoweredOff {
		return fmt.Errorf("epd: power on in %s state", d.state)
	}
	if err := d.conn.Power(gpio.High); err != nil {
		return err
	}
	d.state = Uninitialized
	return nil
}

// PowerOff cuts the panel's power rail, discarding all controller
// state. Valid in any state on power-gated panels.
func (d *Display) PowerOff() error {
	if !d.panel.PowerGated() {
		return ErrNoPowerRail
	}
	if err := d.conn.Power(gpio.Low); err != nil {
		return err
	}
	d.state = PoweredOff
	return nil
}

// Init resets the panel and runs the full bring-up sequence for the
// requested refresh mode, leaving the display Ready.
func (d *Display) Init(mode RefreshMode) error {
	if d.state == PoweredOff {
		return ErrPoweredOff
	}
	if err := d.panel.ResetPulse(d.conn); err != nil {
		return err
	}
	if err := d.panel.Init(d.conn, mode); err != nil {
		return err
	}
	d.state = Ready
	d.mode = mode
	return nil
}

// SetRefreshMode switches the active refresh mode. Switching to the
// mode already active is a no-op; otherwise only the waveform
// configuration is re-sent, not the full bring-up sequence.
func (d *Display) SetRefreshMode(mode RefreshMode) error {
	if err := d.ready(); err != nil {
		return err
	}
	if mode == d.mode {
		return nil
	}
	if err := d.panel.ApplyMode(d.conn, mode); err != nil {
		return err
	}
	d.mode = mode
	return nil
}

// SetBorder sets the border color, on panels that support it outside
// the waveform tables.
func (d *Display) SetBorder(c pixel.Mono) error {
	if err := d.ready(); err != nil {
		return err
	}
	bs, ok := d.panel.(BorderSetter)
	if !ok {
		return fmt.Errorf("epd: %s has no border control", d.panel)
	}
	return bs.SetBorder(d.conn, c)
}

// SetWindow restricts panel RAM access to the given area. The X
// coordinates must be byte aligned; misalignment is only checked when
// EPD_DEBUG is set and silently shifts the image otherwise.
func (d *Display) SetWindow(area image.Rectangle) error {
	if err := d.ready(); err != nil {
		return err
	}
	checkAligned(area.Min.X, area.Max.X)
	return d.panel.SetWindow(d.conn, area)
}

// SetCursor positions the RAM address counter. The X coordinate must be
// byte aligned, checked only when EPD_DEBUG is set.
func (d *Display) SetCursor(p image.Point) error {
	if err := d.ready(); err != nil {
		return err
	}
	checkAligned(p.X)
	return d.panel.SetCursor(d.conn, p)
}

// WriteFramebuffer streams the image into the panel's current image
// RAM. The displayed image does not change until UpdateDisplay.
func (d *Display) WriteFramebuffer(img Framebuffer) error {
	if err := d.ready(); err != nil {
		return err
	}
	if err := d.setFullFrame(img.Bounds()); err != nil {
		return err
	}
	return d.panel.WriteImage(d.conn, img.Data())
}

// WriteDiffBaseline streams the image into the RAM plane holding the
// previous-image reference used by differential (Partial) updates.
func (d *Display) WriteDiffBaseline(img Framebuffer) error {
	if err := d.ready(); err != nil {
		return err
	}
	if err := d.setFullFrame(img.Bounds()); err != nil {
		return err
	}
	return d.panel.WriteBaseline(d.conn, img.Data())
}

// WritePlanes streams a multi-plane image, one bit plane per panel RAM
// plane. The panel must have at least as many RAM planes as the image.
func (d *Display) WritePlanes(img *pixel.PlanarImage) error {
	if err := d.ready(); err != nil {
		return err
	}
	if img.Planes() > d.panel.Planes() {
		return fmt.Errorf("epd: %d planes exceed the %d RAM planes of %s",
			img.Planes(), d.panel.Planes(), d.panel)
	}
	if err := d.setFullFrame(img.Bounds()); err != nil {
		return err
	}
	if err := d.panel.WriteImage(d.conn, img.Plane(0).Data()); err != nil {
		return err
	}
	if img.Planes() > 1 {
		if err := d.setFullFrame(img.Bounds()); err != nil {
			return err
		}
		return d.panel.WriteBaseline(d.conn, img.Plane(1).Data())
	}
	return nil
}

func (d *Display) setFullFrame(area image.Rectangle) error {
	checkAligned(area.Min.X, area.Max.X)
	if err := d.panel.SetWindow(d.conn, area); err != nil {
		return err
	}
	return d.panel.SetCursor(d.conn, area.Min)
}

// UpdateDisplay triggers a refresh, making the previously written
// framebuffer visible. On panels with two image RAMs the controller
// swaps them as part of the refresh, so the RAM written next is the one
// that was on screen before the update.
func (d *Display) UpdateDisplay() error {
	if err := d.ready(); err != nil {
		return err
	}
	return d.panel.Update(d.conn, d.mode)
}

// RefreshArea writes and refreshes only the given area of the image,
// on panels with a partial window mode.
func (d *Display) RefreshArea(img Framebuffer, area image.Rectangle) error {
	if err := d.ready(); err != nil {
		return err
	}
	pu, ok := d.panel.(PartialUpdater)
	if !ok {
		return fmt.Errorf("epd: %s has no partial window mode", d.panel)
	}
	return pu.UpdatePartial(d.conn, img, area)
}

// Refresh writes the image and triggers a refresh in one call.
func (d *Display) Refresh(img Framebuffer) error {
	if err := d.WriteFramebuffer(img); err != nil {
		return err
	}
	return d.UpdateDisplay()
}

// Sleep puts the controller into deep sleep, retaining the active mode
// for Wake. Sleeping an already sleeping display is a no-op.
func (d *Display) Sleep() error {
	switch d.state {
	case Asleep:
		return nil
	case PoweredOff:
		return ErrPoweredOff
	case Uninitialized:
		return ErrUninitialized
	}
	if err := d.panel.Sleep(d.conn); err != nil {
		return err
	}
	d.savedMode = d.mode
	d.state = Asleep
	return nil
}

// Wake brings the controller out of deep sleep with a reset pulse and
// restores the waveform configuration active before Sleep. Bring-up is
// not repeated.
func (d *Display) Wake() error {
	if d.state != Asleep {
		return ErrAwake
	}
	if err := d.panel.ResetPulse(d.conn); err != nil {
		return err
	}
	if err := d.panel.ApplyMode(d.conn, d.savedMode); err != nil {
		return err
	}
	d.state = Ready
	d.mode = d.savedMode
	return nil
}

// Reset performs a hardware reset pulse, discarding the controller
// configuration. The display must be re-initialized afterwards.
func (d *Display) Reset() error {
	if d.state == PoweredOff {
		return ErrPoweredOff
	}
	if err := d.panel.ResetPulse(d.conn); err != nil {
		return err
	}
	d.state = Uninitialized
	return nil
}

// Send transmits a raw command with optional payload. Escape hatch for
// controller features not covered by the session methods; the state
// machine does not track its effects.
func (d *Display) Send(cmnd byte, data ...byte) error {
	if d.state == PoweredOff {
		return ErrPoweredOff
	}
	return d.conn.Command(cmnd, data...)
}

// checkAligned panics when an X coordinate is not byte aligned, but
// only with EPD_DEBUG set. Controllers address the X axis in whole
// bytes; without the check a misaligned value shifts the image.
func checkAligned(xs ...int) {
	if !debug {
		return
	}
	for _, x := range xs {
		if x%8 != 0 {
			panic(fmt.Sprintf("epd: X coordinate %d is not a multiple of 8", x))
		}
	}
}
