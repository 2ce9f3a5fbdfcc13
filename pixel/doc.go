// Package pixel implements packed pixel buffers in the memory layouts
// used by e-paper display controllers.
package pixel

import "os"

// debug enables the strict geometry assertions. Panel RAM is addressed
// in whole bytes on the X axis; with debug off a misaligned width
// silently shifts the image instead of failing.
var debug = os.Getenv("EPD_DEBUG") != ""
