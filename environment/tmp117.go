package environment

import (
	"context"
	"encoding/binary"
	"fmt"
	"time"

	"github.com/mklimuk/instruments"
)

const tmp117DefaultAddress = 0x48

// Register map (16-bit registers, big endian on the wire)
const (
	tmp117RegTempResult    byte = 0x00
	tmp117RegConfiguration byte = 0x01
	tmp117RegTHighLimit    byte = 0x02
	tmp117RegTLowLimit     byte = 0x03
	tmp117RegTempOffset    byte = 0x07
	tmp117RegDeviceID      byte = 0x0F
)

// Low 12 bits of the device ID register
const tmp117DeviceID = 0x117

// Configuration register bits
const (
	tmp117ConfDataReady = uint16(1) << 13
	tmp117ConfSoftReset = uint16(1) << 1
)

// Temperature registers are Q7: 1 LSB = 1/128 degC = 7.8125 mdegC
const tmp117Resolution = float32(0.0078125)

// tmp117ResetDelay covers the ~1.5 ms the device needs to reload its EEPROM
// after a soft reset.
const tmp117ResetDelay = 2 * time.Millisecond

type TMP117Config struct {
	Address byte
}

type TMP117ConfigOption func(*TMP117Config)

func WithTMP117Address(address byte) TMP117ConfigOption {
	return func(c *TMP117Config) {
		c.Address = address
	}
}

// TMP117 represents the Texas Instruments TMP117 high-accuracy digital
// temperature sensor. Typical usage:
//
//	s := NewTMP117(bus)
//	if err := s.Begin(ctx); err != nil { ... }
//	temp, err := s.GetTemperature(ctx)
//
// Begin must succeed before any other operation; calls on an unverified
// handle return instruments.ErrNotInitialized without touching the bus.
type TMP117 struct {
	transport   instruments.I2CBus
	address     byte
	initialized bool
	buf         [3]byte
}

func NewTMP117(trans instruments.I2CBus, opts ...TMP117ConfigOption) *TMP117 {
	config := &TMP117Config{Address: tmp117DefaultAddress}
	for _, opt := range opts {
		opt(config)
	}
	return &TMP117{transport: trans, address: config.Address}
}

// Address returns the configured bus address.
func (sensor *TMP117) Address() byte { return sensor.address }

// Begin verifies the silicon identity. The device ID register carries the
// part number in its low 12 bits (revision in the top nibble).
func (sensor *TMP117) Begin(ctx context.Context) error {
	sensor.initialized = false
	id, err := sensor.readReg(ctx, tmp117RegDeviceID)
	if err != nil {
		return fmt.Errorf("tmp117: could not read device id: %w", err)
	}
	if id&0x0FFF != tmp117DeviceID {
		return fmt.Errorf("tmp117: %w: %#04x", instruments.ErrBadDeviceID, id)
	}
	sensor.initialized = true
	return nil
}

// SoftReset triggers a device reset, reloading the power-on EEPROM values,
// and waits for the device to come back.
func (sensor *TMP117) SoftReset(ctx context.Context) error {
	if !sensor.initialized {
		return fmt.Errorf("tmp117: %w", instruments.ErrNotInitialized)
	}
	config, err := sensor.readReg(ctx, tmp117RegConfiguration)
	if err != nil {
		return fmt.Errorf("tmp117: could not read configuration: %w", err)
	}
	err = sensor.writeReg(ctx, tmp117RegConfiguration, config|tmp117ConfSoftReset)
	if err != nil {
		return fmt.Errorf("tmp117: could not trigger soft reset: %w", err)
	}
	time.Sleep(tmp117ResetDelay)
	return nil
}

// IsDataReady reports whether a new conversion result is waiting in the
// temperature register. The flag clears when the result is read.
func (sensor *TMP117) IsDataReady(ctx context.Context) (bool, error) {
	if !sensor.initialized {
		return false, fmt.Errorf("tmp117: %w", instruments.ErrNotInitialized)
	}
	config, err := sensor.readReg(ctx, tmp117RegConfiguration)
	if err != nil {
		return false, fmt.Errorf("tmp117: could not read configuration: %w", err)
	}
	return config&tmp117ConfDataReady != 0, nil
}

// ReadRawTemperature returns the two's complement Q7 conversion result.
func (sensor *TMP117) ReadRawTemperature(ctx context.Context) (int16, error) {
	if !sensor.initialized {
		return 0, fmt.Errorf("tmp117: %w", instruments.ErrNotInitialized)
	}
	raw, err := sensor.readReg(ctx, tmp117RegTempResult)
	if err != nil {
		return 0, fmt.Errorf("tmp117: could not read temperature: %w", err)
	}
	return int16(raw), nil
}

// GetTemperature returns the current temperature in Celsius.
func (sensor *TMP117) GetTemperature(ctx context.Context) (float32, error) {
	raw, err := sensor.ReadRawTemperature(ctx)
	if err != nil {
		return 0, err
	}
	return float32(raw) * tmp117Resolution, nil
}

// GetTemperatureFahrenheit returns the current temperature in Fahrenheit.
func (sensor *TMP117) GetTemperatureFahrenheit(ctx context.Context) (float32, error) {
	celsius, err := sensor.GetTemperature(ctx)
	if err != nil {
		return 0, err
	}
	return celsius*9.0/5.0 + 32.0, nil
}

// GetOffset returns the programmed temperature offset in Celsius.
func (sensor *TMP117) GetOffset(ctx context.Context) (float32, error) {
	if !sensor.initialized {
		return 0, fmt.Errorf("tmp117: %w", instruments.ErrNotInitialized)
	}
	raw, err := sensor.readReg(ctx, tmp117RegTempOffset)
	if err != nil {
		return 0, fmt.Errorf("tmp117: could not read offset: %w", err)
	}
	return float32(int16(raw)) * tmp117Resolution, nil
}

// SetOffset programs a temperature offset in Celsius (Q7, same format as the
// result register).
func (sensor *TMP117) SetOffset(ctx context.Context, offset float32) error {
	if !sensor.initialized {
		return fmt.Errorf("tmp117: %w", instruments.ErrNotInitialized)
	}
	raw := int16(offset / tmp117Resolution)
	err := sensor.writeReg(ctx, tmp117RegTempOffset, uint16(raw))
	if err != nil {
		return fmt.Errorf("tmp117: could not write offset: %w", err)
	}
	return nil
}

func (sensor *TMP117) readReg(ctx context.Context, reg byte) (uint16, error) {
	sensor.buf[0] = reg
	err := sensor.transport.WriteToAddr(ctx, sensor.address, sensor.buf[:1])
	if err != nil {
		return 0, fmt.Errorf("could not write register pointer %#02x: %w", reg, err)
	}
	err = sensor.transport.ReadFromAddr(ctx, sensor.address, sensor.buf[1:3])
	if err != nil {
		return 0, fmt.Errorf("could not read register %#02x: %w", reg, err)
	}
	return binary.BigEndian.Uint16(sensor.buf[1:3]), nil
}

func (sensor *TMP117) writeReg(ctx context.Context, reg byte, value uint16) error {
	sensor.buf[0] = reg
	binary.BigEndian.PutUint16(sensor.buf[1:3], value)
	return sensor.transport.WriteToAddr(ctx, sensor.address, sensor.buf[:3])
}
