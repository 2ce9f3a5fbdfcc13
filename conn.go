package epd

import (
	"errors"
	"fmt"
	"log"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
)

// Conn errors.
var (
	ErrResetPin = errors.New("epd: reset GPIO pin is invalid")
	ErrDCPin    = errors.New("epd: data/command (DC) GPIO pin is invalid")
	ErrBusyPin  = errors.New("epd: busy GPIO pin is invalid")
	ErrPowerPin = errors.New("epd: power GPIO pin is not configured")
)

// Conn is the connection interface for communicating with panel hardware.
//
// A transaction is one command byte sent with the data/command line low,
// optionally followed by payload bytes with the line high. The line is
// left high after a payload and re-asserted low by the next Command.
type Conn interface {
	String() string

	// Close the connection.
	Close() error

	// Reset sets the reset pin to the provided level.
	Reset(gpio.Level) error

	// Power sets the power-enable pin to the provided level, on panels
	// wired with a separate power rail.
	Power(gpio.Level) error

	// Busy blocks until the panel deasserts its busy line. There is no
	// timeout: a panel that never deasserts busy (for example because it
	// is asleep) blocks the caller forever.
	Busy() error

	// Command waits until the panel is not busy, then sends a command
	// byte with optional payload bytes.
	Command(byte, ...byte) error

	// Data sends payload bytes, continuing the previous command.
	Data(...byte) error
}

// SPIConfig describes the SPI bus and GPIO wiring of a panel.
type SPIConfig struct {
	// Port is the SPI port name as understood by spireg, an empty name
	// selects the first available port.
	Port string

	// Speed is the SPI clock frequency.
	Speed physic.Frequency

	// Mode is the SPI clocking mode.
	Mode spi.Mode

	// BatchSize bounds the size of a single bus write.
	BatchSize int

	// Reset pin, toggled low-then-high to hardware-reset the panel.
	Reset gpio.PinOut

	// DC is the data/command select pin.
	DC gpio.PinOut

	// Busy is the panel status input.
	Busy gpio.PinIn

	// BusyActive is the level at which the panel reports busy. Panels
	// are wired both ways across vendors and boards.
	BusyActive gpio.Level

	// Power is the optional power-enable pin for power-gated panels.
	Power gpio.PinOut
}

// DefaultSPIConfig is the standard Waveshare HAT wiring.
var DefaultSPIConfig = SPIConfig{
	Speed:      4 * physic.MegaHertz,
	Mode:       spi.Mode0,
	BatchSize:  4096,
	Reset:      gpioreg.ByName("GPIO17"),
	DC:         gpioreg.ByName("GPIO25"),
	Busy:       gpioreg.ByName("GPIO24"),
	BusyActive: gpio.High,
	Power:      gpioreg.ByName("GPIO18"),
}

type spiConn struct {
	port       spi.PortCloser
	bus        spi.Conn
	reset      gpio.PinOut
	dc         gpio.PinOut
	dcLevel    gpio.Level
	busy       gpio.PinIn
	busyActive gpio.Level
	power      gpio.PinOut
	batchSize  int
}

// OpenSPI opens the configured SPI port and claims the handshake pins.
// A nil config uses DefaultSPIConfig.
func OpenSPI(config *SPIConfig) (Conn, error) {
	if config == nil {
		config = new(SPIConfig)
		*config = DefaultSPIConfig
	}

	if config.Reset == nil || config.Reset == gpio.INVALID {
		return nil, ErrResetPin
	}
	if config.DC == nil || config.DC == gpio.INVALID {
		return nil, ErrDCPin
	}
	if config.Busy == nil || config.Busy == gpio.INVALID {
		return nil, ErrBusyPin
	}

	if config.Speed == 0 {
		config.Speed = DefaultSPIConfig.Speed
	}
	if config.BatchSize == 0 {
		config.BatchSize = DefaultSPIConfig.BatchSize
	}

	port, err := spireg.Open(config.Port)
	if err != nil {
		return nil, err
	}

	bus, err := port.Connect(config.Speed, config.Mode, 8)
	if err != nil {
		_ = port.Close()
		return nil, err
	}

	if err = config.Busy.In(gpio.PullNoChange, gpio.BothEdges); err != nil {
		_ = port.Close()
		return nil, err
	}
	if err = config.DC.Out(gpio.Low); err != nil {
		_ = port.Close()
		return nil, err
	}

	return &spiConn{
		port:       port,
		bus:        bus,
		reset:      config.Reset,
		dc:         config.DC,
		dcLevel:    gpio.Low,
		busy:       config.Busy,
		busyActive: config.BusyActive,
		power:      config.Power,
		batchSize:  config.BatchSize,
	}, nil
}

func (c *spiConn) String() string {
	return fmt.Sprintf("SPI bus %s", c.port)
}

func (c *spiConn) Close() error {
	return c.port.Close()
}

func (c *spiConn) Reset(level gpio.Level) error {
	return c.reset.Out(level)
}

func (c *spiConn) Power(level gpio.Level) error {
	if c.power == nil || c.power == gpio.INVALID {
		return ErrPowerPin
	}
	return c.power.Out(level)
}

func (c *spiConn) Busy() error {
	for c.busy.Read() == c.busyActive {
		// Re-check the level once a second in case an edge was missed.
		c.busy.WaitForEdge(time.Second)
	}
	return nil
}

func (c *spiConn) updateDC(level gpio.Level) error {
	if c.dcLevel != level {
		if err := c.dc.Out(level); err != nil {
			return err
		}
		c.dcLevel = level
	}
	return nil
}

func (c *spiConn) Command(cmnd byte, data ...byte) (err error) {
	if err = c.Busy(); err != nil {
		return
	}
	if err = c.updateDC(gpio.Low); err != nil {
		return
	}
	if err = c.bus.Tx([]byte{cmnd}, nil); err != nil {
		return
	}
	if len(data) > 0 {
		if err = c.updateDC(gpio.High); err != nil {
			return
		}
		if err = c.writeChunked(data); err != nil {
			return
		}
	}
	return
}

func (c *spiConn) Data(data ...byte) (err error) {
	if len(data) == 0 {
		return
	}
	if err = c.updateDC(gpio.High); err != nil {
		return
	}
	return c.writeChunked(data)
}

func (c *spiConn) writeChunked(data []byte) (err error) {
	max := c.batchSize
	if l, ok := c.bus.(conn.Limits); ok {
		if m := l.MaxTxSize(); m > 0 && m < max {
			max = m
		}
	}

	if len(data) <= max {
		return c.bus.Tx(data, nil)
	}

	if debug {
		log.Printf("epd: writing %d bytes of data in %d chunks", len(data), (len(data)+max-1)/max)
	}
	for len(data) > 0 {
		n := min(max, len(data))
		if err = c.bus.Tx(data[:n], nil); err != nil {
			return
		}
		data = data[n:]
	}
	return
}
