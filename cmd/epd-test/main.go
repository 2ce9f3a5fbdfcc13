package main

import (
	"flag"
	"fmt"
	"image"
	"os"
	"strings"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/BeatGlow/epd"
	"github.com/BeatGlow/epd/draw"
	"github.com/BeatGlow/epd/pixel"
)

func main() {
	spiPortFlag := flag.String("spi", "", "SPI port name (default: use first available)")
	resetPinFlag := flag.String("reset", "GPIO17", "Reset GPIO pin")
	dcPinFlag := flag.String("dc", "GPIO25", "Data/Command GPIO pin (DC)")
	busyPinFlag := flag.String("busy", "GPIO24", "Busy GPIO pin")
	powerPinFlag := flag.String("power", "GPIO18", "Power GPIO pin (7.5in panels)")
	busyLowFlag := flag.Bool("busy-low", false, "Busy pin is active low")
	rotateFlag := flag.String("rotate", "", "Display rotation")
	modeFlag := flag.String("mode", "full", "Refresh mode: full, partial or fast")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s <driver>\n", os.Args[0])
		os.Exit(1)
	}

	var rotation pixel.Rotation
	switch *rotateFlag {
	case "", "no", "0":
		rotation = pixel.Rotate0
	case "90", "right", "cw":
		rotation = pixel.Rotate90
	case "180", "flip":
		rotation = pixel.Rotate180
	case "270", "left", "ccw":
		rotation = pixel.Rotate270
	default:
		fatal(fmt.Errorf("invalid rotation %q specified", *rotateFlag))
	}
	fmt.Printf("using rotation: %s\n", rotation)

	var mode epd.RefreshMode
	switch *modeFlag {
	case "full":
		mode = epd.Full
	case "partial":
		mode = epd.Partial
	case "fast":
		mode = epd.Fast
	default:
		fatal(fmt.Errorf("invalid refresh mode %q specified", *modeFlag))
	}

	if _, err := host.Init(); err != nil {
		fatal(err)
	}

	busyActive := gpio.High
	if *busyLowFlag {
		busyActive = gpio.Low
	}
	conn, err := epd.OpenSPI(&epd.SPIConfig{
		Port:       *spiPortFlag,
		Reset:      gpioreg.ByName(*resetPinFlag),
		DC:         gpioreg.ByName(*dcPinFlag),
		Busy:       gpioreg.ByName(*busyPinFlag),
		BusyActive: busyActive,
		Power:      gpioreg.ByName(*powerPinFlag),
	})
	if err != nil {
		fatal(err)
	}
	defer conn.Close()
	fmt.Printf("using connection: %s\n", conn)

	var output *epd.Display
	switch driver := strings.ToLower(flag.Arg(0)); driver {
	case "epd2in9":
		output = epd.NewEPD2in9(conn)
	case "epd2in9v2":
		output = epd.NewEPD2in9v2(conn)
	case "epd7in5v2":
		output = epd.NewEPD7in5v2(conn)
	default:
		fatal(fmt.Errorf("unsupported driver %q", driver))
	}
	fmt.Printf("using driver: %s\n", output)

	if output.State() == epd.PoweredOff {
		if err = output.PowerOn(); err != nil {
			fatal(err)
		}
	}
	if err = output.Init(mode); err != nil {
		fatal(err)
	}

	img := output.NewImage()
	var canvas pixel.Image = img
	if rotation != pixel.Rotate0 {
		canvas = pixel.NewRotated(img, rotation)
	}
	r := canvas.Bounds()

	// White background, box around the edge, checker field inside.
	canvas.Fill(r, pixel.On)
	draw.Rectangle(canvas, r, pixel.Off)
	for y := 8; y < r.Max.Y-8; y += 8 {
		for x := 8; x < r.Max.X-8; x += 8 {
			if (x+y)%16 == 0 {
				draw.Box(canvas, image.Rect(x, y, x+8, y+8), pixel.Off)
			}
		}
	}

	if err = output.Refresh(img); err != nil {
		fatal(err)
	}

	fmt.Println("displayed, sleeping panel in 5s...")
	time.Sleep(5 * time.Second)

	if err = output.Sleep(); err != nil {
		fatal(err)
	}
	if output.State() == epd.Asleep && mode == epd.Partial {
		// Exercise wake and a second refresh with an inverted field.
		if err = output.Wake(); err != nil {
			fatal(err)
		}
		canvas.Fill(image.Rect(8, 8, r.Max.X-8, r.Max.Y-8), pixel.Off)
		if err = output.Refresh(img); err != nil {
			fatal(err)
		}
		if err = output.Sleep(); err != nil {
			fatal(err)
		}
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "fatal: "+err.Error())
	os.Exit(1)
}
