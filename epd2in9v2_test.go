package epd

import (
	"bytes"
	"errors"
	"testing"
)

func TestEPD2in9v2ModeTables(t *testing.T) {
	testCases := []struct {
		mode    RefreshMode
		border  byte
		source  []byte
		vcom    byte
		updctl2 byte
	}{
		{Full, 0x05, []byte{0x41, 0xae, 0x32}, 0x38, 0xc7},
		{Partial, 0x80, []byte{0x41, 0xb0, 0x32}, 0x36, 0xcf},
	}
	for _, test := range testCases {
		t.Run(test.mode.String(), func(it *testing.T) {
			conn := &testConn{}
			d := NewEPD2in9v2(conn)
			if err := d.Init(test.mode); err != nil {
				it.Fatal(err)
			}

			ops := make(map[byte]testOp)
			for _, op := range conn.ops {
				ops[op.cmd] = op
			}

			if v := ops[epd2in9v2SetBorderWaveform]; !bytes.Equal(v.data, []byte{test.border}) {
				it.Errorf("expected border waveform %#02x, got %#v", test.border, v.data)
			}
			if v := ops[epd2in9v2WriteLUT]; len(v.data) != 153 {
				it.Errorf("expected a 153 byte waveform LUT, got %d bytes", len(v.data))
			}
			if v := ops[epd2in9v2SetGateVoltage]; !bytes.Equal(v.data, []byte{0x17}) {
				it.Errorf("expected gate voltage 0x17, got %#v", v.data)
			}
			if v := ops[epd2in9v2SetSourceVoltage]; !bytes.Equal(v.data, test.source) {
				it.Errorf("expected source voltage %#v, got %#v", test.source, v.data)
			}
			if v := ops[epd2in9v2WriteVcom]; !bytes.Equal(v.data, []byte{test.vcom}) {
				it.Errorf("expected VCOM %#02x, got %#v", test.vcom, v.data)
			}

			if err := d.UpdateDisplay(); err != nil {
				it.Fatal(err)
			}
			n := len(conn.ops)
			if v := conn.ops[n-2]; v.cmd != epd2in9v2DisplayUpdateControl2 || !bytes.Equal(v.data, []byte{test.updctl2}) {
				it.Errorf("expected update control %#02x, got %#v", test.updctl2, v)
			}
			if v := conn.ops[n-1]; v.cmd != epd2in9v2MasterActivation {
				it.Errorf("expected the master activation last, got %#02x", v.cmd)
			}
		})
	}
}

func TestEPD2in9v2PartialExtras(t *testing.T) {
	conn := &testConn{}
	d := NewEPD2in9v2(conn)
	if err := d.Init(Partial); err != nil {
		t.Fatal(err)
	}

	var otp *testOp
	for n, op := range conn.ops {
		if op.cmd == epd2in9v2WriteOTPSelection {
			otp = &conn.ops[n]
		}
	}
	want := []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x40, 0x00, 0x00, 0x00, 0x00}
	if otp == nil || !bytes.Equal(otp.data, want) {
		t.Errorf("expected the OTP selection payload %#v, got %#v", want, otp)
	}
}

func TestEPD2in9v2UnsupportedModes(t *testing.T) {
	for _, mode := range []RefreshMode{PartialWhiteBypass, PartialBlackBypass, Fast} {
		d := NewEPD2in9v2(&testConn{})
		if err := d.Init(mode); !errors.Is(err, ErrUnsupportedMode) {
			t.Errorf("expected %s to yield %v, got %v", mode, ErrUnsupportedMode, err)
		}
	}
}

func TestEPD2in9v2Baseline(t *testing.T) {
	conn := &testConn{}
	d := NewEPD2in9v2(conn)
	if err := d.Init(Partial); err != nil {
		t.Fatal(err)
	}

	img := d.NewImage()
	if err := d.WriteDiffBaseline(img); err != nil {
		t.Fatal(err)
	}
	last := conn.ops[len(conn.ops)-1]
	if last.cmd != epd2in9v2WriteHighRAM {
		t.Errorf("expected the baseline in the high RAM plane, got %#02x", last.cmd)
	}
	if len(last.data) != 128/8*296 {
		t.Errorf("expected a full frame of %d bytes, got %d", 128/8*296, len(last.data))
	}
}
