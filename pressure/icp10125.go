// Package pressure contains drivers for barometric pressure sensors.
package pressure

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/instruments"
)

// ICP10125 default 7-bit I2C address.
const icp10125Address = 0x63

// Command set (big-endian 16-bit words on the wire).
const (
	cmdSoftReset   uint16 = 0x805D
	cmdReadID      uint16 = 0xEFC8
	cmdMoveOTPAddr uint16 = 0xC595
	cmdReadOTP     uint16 = 0xC7F7
)

// The OTP address pointer payload written after cmdMoveOTPAddr.
var otpAddress = [3]byte{0x00, 0x66, 0x9C}

// The low 6 bits of the ID register identify the product.
const icp10125ProductID = 0x08

// ICP10125Mode selects the measurement mode. Longer conversions trade
// acquisition time for lower pressure noise.
type ICP10125Mode int

const (
	ModeNormal ICP10125Mode = iota
	ModeLowPower
	ModeLowNoise
	ModeUltraLowNoise
)

func (m ICP10125Mode) command() (uint16, error) {
	switch m {
	case ModeNormal:
		return 0x6825, nil
	case ModeLowPower:
		return 0x609C, nil
	case ModeLowNoise:
		return 0x70DF, nil
	case ModeUltraLowNoise:
		return 0x7866, nil
	}
	return 0, fmt.Errorf("icp10125: unknown measurement mode %d: %w", m, instruments.ErrInvalidArgument)
}

// Maximum conversion times per datasheet, rounded up.
func (m ICP10125Mode) conversionDelay() time.Duration {
	switch m {
	case ModeLowPower:
		return 2 * time.Millisecond
	case ModeLowNoise:
		return 24 * time.Millisecond
	case ModeUltraLowNoise:
		return 95 * time.Millisecond
	}
	return 7 * time.Millisecond
}

func (m ICP10125Mode) String() string {
	switch m {
	case ModeNormal:
		return "normal"
	case ModeLowPower:
		return "low-power"
	case ModeLowNoise:
		return "low-noise"
	case ModeUltraLowNoise:
		return "ultra-low-noise"
	}
	return "unknown"
}

const softResetDelay = 10 * time.Millisecond

// Pressure conversion constants from the datasheet inverse-quadratic fit.
var calibrationPressures = [3]float64{45000.0, 80000.0, 105000.0}

const (
	lutLower     = 3.5 * float64(1<<20)
	lutUpper     = 11.5 * float64(1<<20)
	quadrFactor  = 1.0 / float64(1<<24)
	offsetFactor = 2048.0
)

// Measurement is a single combined pressure and temperature reading.
type Measurement struct {
	// Temperature in degrees Celsius.
	Temperature float32
	// Pressure in pascals.
	Pressure float32
}

// ICP10125 represents the TDK InvenSense ICP-10125 barometric pressure and
// temperature sensor. Every measurement command returns both quantities; the
// pressure result is compensated with four calibration constants read from
// the sensor OTP during Init.
//
// Typical usage:
//
//	s := NewICP10125(bus)
//	if err := s.Init(ctx); err != nil { ... }
//	m, err := s.Measure(ctx, ModeNormal)
type ICP10125 struct {
	transport   instruments.I2CBus
	address     byte
	initialized bool
	cal         [4]int16
	buf         [9]byte
}

func NewICP10125(transport instruments.I2CBus) *ICP10125 {
	return &ICP10125{
		transport: transport,
		address:   icp10125Address,
	}
}

// Init resets the sensor, verifies its product ID and reads the four OTP
// calibration constants. It must complete successfully before Measure.
func (s *ICP10125) Init(ctx context.Context) error {
	err := s.command(ctx, cmdSoftReset)
	if err != nil {
		return fmt.Errorf("icp10125: soft reset failed: %w", err)
	}
	if err = sleep(ctx, softResetDelay); err != nil {
		return err
	}

	id, err := s.readWord(ctx, cmdReadID)
	if err != nil {
		return fmt.Errorf("icp10125: id read failed: %w", err)
	}
	if id&0x3F != icp10125ProductID {
		return fmt.Errorf("icp10125: id %#04x: %w", id, instruments.ErrBadDeviceID)
	}

	err = s.transport.WriteToAddr(ctx, s.address, []byte{
		byte(cmdMoveOTPAddr >> 8), byte(cmdMoveOTPAddr & 0xFF),
		otpAddress[0], otpAddress[1], otpAddress[2],
	})
	if err != nil {
		return fmt.Errorf("icp10125: otp setup failed: %w", err)
	}
	for i := range s.cal {
		word, err := s.readWord(ctx, cmdReadOTP)
		if err != nil {
			return fmt.Errorf("icp10125: otp read %d failed: %w", i, err)
		}
		s.cal[i] = int16(word)
	}
	s.initialized = true
	return nil
}

// Measure triggers one conversion in the given mode, waits out the
// conversion time and returns the compensated result.
func (s *ICP10125) Measure(ctx context.Context, mode ICP10125Mode) (Measurement, error) {
	if !s.initialized {
		return Measurement{}, fmt.Errorf("icp10125: %w", instruments.ErrNotInitialized)
	}
	cmd, err := mode.command()
	if err != nil {
		return Measurement{}, err
	}
	if err = s.command(ctx, cmd); err != nil {
		return Measurement{}, fmt.Errorf("icp10125: measurement trigger failed: %w", err)
	}
	if err = sleep(ctx, mode.conversionDelay()); err != nil {
		return Measurement{}, err
	}
	if err = s.transport.ReadFromAddr(ctx, s.address, s.buf[:]); err != nil {
		return Measurement{}, fmt.Errorf("icp10125: measurement read failed: %w", err)
	}
	for i := 0; i < 9; i += 3 {
		if crc := crc8(s.buf[i : i+2]); crc != s.buf[i+2] {
			return Measurement{}, fmt.Errorf("icp10125: crc mismatch at byte %d: expected %#x, got %#x", i+2, s.buf[i+2], crc)
		}
	}
	rawTemp := uint16(s.buf[0])<<8 | uint16(s.buf[1])
	rawPressure := uint32(s.buf[3])<<16 | uint32(s.buf[4])<<8 | uint32(s.buf[6])
	return s.convert(rawTemp, rawPressure), nil
}

// convert applies the datasheet compensation: a temperature-dependent
// quadratic adjustment of three sensitivity terms, then an inverse fit
// through the three calibration pressures.
func (s *ICP10125) convert(rawTemp uint16, rawPressure uint32) Measurement {
	t := float64(rawTemp) - 32768.0
	s1 := lutLower + float64(s.cal[0])*t*t*quadrFactor
	s2 := offsetFactor*float64(s.cal[3]) + float64(s.cal[1])*t*t*quadrFactor
	s3 := lutUpper + float64(s.cal[2])*t*t*quadrFactor

	p := calibrationPressures
	c := (s1*s2*(p[0]-p[1]) + s2*s3*(p[1]-p[2]) + s3*s1*(p[2]-p[0])) /
		(s3*(p[0]-p[1]) + s1*(p[1]-p[2]) + s2*(p[2]-p[0]))
	a := (p[0]*s1 - p[1]*s2 - (p[1]-p[0])*c) / (s1 - s2)
	b := (p[0] - a) * (s1 + c)

	return Measurement{
		Temperature: float32(-45.0 + 175.0*float64(rawTemp)/65536.0),
		Pressure:    float32(a + b/(c+float64(rawPressure))),
	}
}

// command writes a bare big-endian command word.
func (s *ICP10125) command(ctx context.Context, cmd uint16) error {
	return s.transport.WriteToAddr(ctx, s.address, []byte{byte(cmd >> 8), byte(cmd)})
}

// readWord writes a command and reads back a CRC-protected 16-bit word.
func (s *ICP10125) readWord(ctx context.Context, cmd uint16) (uint16, error) {
	if err := s.command(ctx, cmd); err != nil {
		return 0, err
	}
	if err := s.transport.ReadFromAddr(ctx, s.address, s.buf[:3]); err != nil {
		return 0, err
	}
	if crc := crc8(s.buf[:2]); crc != s.buf[2] {
		return 0, fmt.Errorf("crc mismatch: expected %#x, got %#x", s.buf[2], crc)
	}
	return uint16(s.buf[0])<<8 | uint16(s.buf[1]), nil
}

func sleep(ctx context.Context, duration time.Duration) error {
	timer := time.NewTimer(duration)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// crc8 calculates the CRC8 checksum with initial value 0xFF and polynomial
// 0x31 (x8 + x5 + x4 + 1) used by the sensor for every 16-bit word.
func crc8(data []byte) byte {
	crc := byte(0xFF)
	for _, b := range data {
		crc ^= b
		for range 8 {
			if crc&0x80 != 0 {
				crc = (crc << 1) ^ 0x31
			} else {
				crc = crc << 1
			}
		}
	}
	return crc
}
