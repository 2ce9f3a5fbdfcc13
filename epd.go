// Package epd contains drivers for e-paper display panels.
package epd

import (
	"errors"
	"os"
)

// debug enables the strict-addressing assertions. E-paper controllers
// address the X axis in whole bytes; with debug off a misaligned value
// silently shifts the image instead of failing.
var debug bool

func init() {
	debug = os.Getenv("EPD_DEBUG") != ""
}

// Errors
var (
	ErrPoweredOff      = errors.New("epd: display is powered off")
	ErrUninitialized   = errors.New("epd: display is not initialized")
	ErrSleeping        = errors.New("epd: display is asleep")
	ErrAwake           = errors.New("epd: display is not asleep")
	ErrUnsupportedMode = errors.New("epd: refresh mode not supported by this panel")
	ErrNoPowerRail     = errors.New("epd: panel has no separate power rail")
)

// State is the session state of a display.
type State uint8

// Session states.
const (
	PoweredOff State = iota
	Uninitialized
	Ready
	Asleep
)

func (s State) String() string {
	switch s {
	case PoweredOff:
		return "powered off"
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Asleep:
		return "asleep"
	default:
		return "invalid"
	}
}

// RefreshMode selects the waveform bundle (LUT, voltages, border
// behavior) governing how a display update visually transitions. Not
// every panel generation supports every mode; unsupported modes are
// rejected with ErrUnsupportedMode.
type RefreshMode uint8

// Supported refresh modes.
const (
	// Full uses the full update waveform. Slow, flashes the panel, but
	// should be used occasionally to avoid ghosting.
	Full RefreshMode = iota

	// Partial updates only the pixels that differ between the current
	// and the previously written image.
	Partial

	// PartialWhiteBypass updates only the white pixels of the current
	// image; the previous image is ignored.
	PartialWhiteBypass

	// PartialBlackBypass updates only the black pixels of the current
	// image; the previous image is ignored.
	PartialBlackBypass

	// Fast is a single-flash update supported by newer controllers.
	Fast
)

func (m RefreshMode) String() string {
	switch m {
	case Full:
		return "full"
	case Partial:
		return "partial"
	case PartialWhiteBypass:
		return "partial (white bypass)"
	case PartialBlackBypass:
		return "partial (black bypass)"
	case Fast:
		return "fast"
	default:
		return "invalid"
	}
}
