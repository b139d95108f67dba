// Package heading contains drivers for orientation sensors.
package heading

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mklimuk/instruments"
)

// CMPS12 I2C address (7-bit)
const cmps12Address = 0x60

// Register map. Register 0 doubles as the command register; reading it
// returns the firmware version. Registers 1..5 hold the orientation block
// read in one transaction.
const (
	regCommand          byte = 0x00
	regBearing8         byte = 0x01
	regCalibrationState byte = 0x1E
)

// Calibration profile command sequences written byte by byte to the command
// register, with a settle gap between bytes (per datasheet).
var (
	storeSequence = []byte{0xF0, 0xF5, 0xF6}
	eraseSequence = []byte{0xE0, 0xE5, 0xE2}
)

const commandGap = 20 * time.Millisecond

var compassPoints = []string{
	"N", "NNE", "NE", "ENE",
	"E", "ESE", "SE", "SSE",
	"S", "SSW", "SW", "WSW",
	"W", "WNW", "NW", "NNW",
}

// CardinalDirection maps a bearing in whole degrees (0-359) onto one of the
// 16 compass points spaced 22.5 degrees apart.
func CardinalDirection(degrees int) string {
	val := int(float64(degrees%360)/22.5 + 0.5)
	return compassPoints[val%16]
}

// Orientation is one CMPS12 reading. Bearing is in tenths of a degree
// (0-3599); Bearing8 is the coarse single-byte bearing over the full circle.
type Orientation struct {
	Bearing8 uint8
	Bearing  uint16
	Pitch    int8
	Roll     int8
}

// Degrees returns the bearing in degrees.
func (o Orientation) Degrees() float32 {
	return float32(o.Bearing) / 10.0
}

// Direction returns the compass point for the bearing.
func (o Orientation) Direction() string {
	return CardinalDirection(int(o.Bearing) / 10)
}

// CalibrationState reports the BNO055 calibration levels embedded in the
// CMPS12, each on a 0 (uncalibrated) to 3 (fully calibrated) scale.
type CalibrationState struct {
	System        byte
	Gyroscope     byte
	Accelerometer byte
	Magnetometer  byte
}

func (c CalibrationState) String() string {
	return fmt.Sprintf("sys:%d gyro:%d accel:%d mag:%d",
		c.System, c.Gyroscope, c.Accelerometer, c.Magnetometer)
}

// CMPS12 represents the Robot Electronics CMPS12 tilt-compensated compass.
// Typical usage:
//
//	c := NewCMPS12(bus)
//	if err := c.Init(ctx); err != nil { ... }
//	o, err := c.Read(ctx)
//
// Init only probes device presence; the CMPS12 has no identity register to
// validate against.
type CMPS12 struct {
	transport   instruments.I2CBus
	initialized bool
	buf         [5]byte
}

func NewCMPS12(trans instruments.I2CBus) *CMPS12 {
	return &CMPS12{transport: trans}
}

// Init performs a one-byte presence probe. It succeeds iff the transaction
// completes without a bus error.
func (c *CMPS12) Init(ctx context.Context) error {
	c.initialized = false
	err := c.transport.ReadFromAddr(ctx, cmps12Address, c.buf[:1])
	if err != nil {
		return fmt.Errorf("cmps12: presence probe failed: %w", err)
	}
	c.initialized = true
	return nil
}

// Read fetches the 5-byte orientation block: coarse bearing, 16-bit bearing
// (big endian, tenths of a degree), pitch and roll.
func (c *CMPS12) Read(ctx context.Context) (Orientation, error) {
	var o Orientation
	if !c.initialized {
		return o, fmt.Errorf("cmps12: %w", instruments.ErrNotInitialized)
	}
	err := c.transport.WriteToAddr(ctx, cmps12Address, []byte{regBearing8})
	if err != nil {
		return o, fmt.Errorf("cmps12: could not set register pointer: %w", err)
	}
	err = c.transport.ReadFromAddr(ctx, cmps12Address, c.buf[:5])
	if err != nil {
		return o, fmt.Errorf("cmps12: could not read orientation block: %w", err)
	}
	o.Bearing8 = c.buf[0]
	o.Bearing = binary.BigEndian.Uint16(c.buf[1:3])
	o.Pitch = int8(c.buf[3])
	o.Roll = int8(c.buf[4])
	return o, nil
}

// SoftwareVersion reads the firmware version from the command register.
func (c *CMPS12) SoftwareVersion(ctx context.Context) (byte, error) {
	if !c.initialized {
		return 0, fmt.Errorf("cmps12: %w", instruments.ErrNotInitialized)
	}
	err := c.transport.WriteToAddr(ctx, cmps12Address, []byte{regCommand})
	if err != nil {
		return 0, fmt.Errorf("cmps12: could not set register pointer: %w", err)
	}
	err = c.transport.ReadFromAddr(ctx, cmps12Address, c.buf[:1])
	if err != nil {
		return 0, fmt.Errorf("cmps12: could not read version: %w", err)
	}
	return c.buf[0], nil
}

// ReadCalibrationState reads the calibration register and unpacks the four
// 2-bit calibration levels.
func (c *CMPS12) ReadCalibrationState(ctx context.Context) (CalibrationState, error) {
	var state CalibrationState
	if !c.initialized {
		return state, fmt.Errorf("cmps12: %w", instruments.ErrNotInitialized)
	}
	err := c.transport.WriteToAddr(ctx, cmps12Address, []byte{regCalibrationState})
	if err != nil {
		return state, fmt.Errorf("cmps12: could not set register pointer: %w", err)
	}
	err = c.transport.ReadFromAddr(ctx, cmps12Address, c.buf[:1])
	if err != nil {
		return state, fmt.Errorf("cmps12: could not read calibration state: %w", err)
	}
	raw := c.buf[0]
	state.Magnetometer = raw & 0b11
	state.Accelerometer = raw >> 2 & 0b11
	state.Gyroscope = raw >> 4 & 0b11
	state.System = raw >> 6 & 0b11
	return state, nil
}

// StoreCalibration saves the current calibration profile to the compass
// EEPROM so it survives power cycles.
func (c *CMPS12) StoreCalibration(ctx context.Context) error {
	return c.command(ctx, storeSequence)
}

// EraseCalibration deletes the stored calibration profile.
func (c *CMPS12) EraseCalibration(ctx context.Context) error {
	return c.command(ctx, eraseSequence)
}

func (c *CMPS12) command(ctx context.Context, sequence []byte) error {
	if !c.initialized {
		return fmt.Errorf("cmps12: %w", instruments.ErrNotInitialized)
	}
	for i, cmd := range sequence {
		if i > 0 {
			timer := time.NewTimer(commandGap)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			}
		}
		err := c.transport.WriteToAddr(ctx, cmps12Address, []byte{regCommand, cmd})
		if err != nil {
			return fmt.Errorf("cmps12: command byte %#02x failed: %w", cmd, err)
		}
	}
	return nil
}
