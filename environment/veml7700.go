package environment

import (
	"context"
	"fmt"
	"time"

	"github.com/mklimuk/instruments"
)

// VEML7700 I2C address (7-bit)
const veml7700Address = 0x10

// Register map (all registers are 16-bit, little endian on the wire)
const (
	regALSConf     byte = 0x00
	regALSWH       byte = 0x01
	regALSWL       byte = 0x02
	regPowerSaving byte = 0x03
	regALS         byte = 0x04
	regWhite       byte = 0x05
	regALSInt      byte = 0x06
	regDeviceID    byte = 0x07
)

// Device ID register: low byte is the device code, high byte carries the
// slave address option. Either matching is accepted.
const (
	veml7700DeviceCode  = 0x81
	veml7700AddressCode = 0x28
)

// ALS_CONF bit layout
const (
	confGainShift  = 11
	confGainMask   = uint16(0b11) << confGainShift
	confITShift    = 6
	confITMask     = uint16(0b1111) << confITShift
	confPersShift  = 4
	confPersMask   = uint16(0b11) << confPersShift
	confIntEnable  = uint16(1) << 1
	confShutdown   = uint16(1) << 0
	psmEnable      = uint16(1) << 0
	psmModeShift   = 1
	psmModeMask    = uint16(0b11) << psmModeShift
)

// Interrupt status flags (register 0x06). The device clears both latched
// flags as a side effect of reading the register.
const (
	VEML7700IntLowCrossed  = uint16(1) << 14
	VEML7700IntHighCrossed = uint16(1) << 15
)

type VEML7700Gain byte

const (
	VEML7700Gain1  VEML7700Gain = 0b00
	VEML7700Gain2  VEML7700Gain = 0b01
	VEML7700Gain18 VEML7700Gain = 0b10
	VEML7700Gain14 VEML7700Gain = 0b11
)

func (g VEML7700Gain) Factor() float32 {
	switch g {
	case VEML7700Gain18:
		return 0.125
	case VEML7700Gain14:
		return 0.25
	case VEML7700Gain2:
		return 2.0
	default:
		return 1.0
	}
}

func (g VEML7700Gain) String() string {
	switch g {
	case VEML7700Gain18:
		return "x1/8"
	case VEML7700Gain14:
		return "x1/4"
	case VEML7700Gain2:
		return "x2"
	default:
		return "x1"
	}
}

type VEML7700IntegrationTime byte

const (
	VEML7700IT25ms  VEML7700IntegrationTime = 0b1100
	VEML7700IT50ms  VEML7700IntegrationTime = 0b1000
	VEML7700IT100ms VEML7700IntegrationTime = 0b0000
	VEML7700IT200ms VEML7700IntegrationTime = 0b0001
	VEML7700IT400ms VEML7700IntegrationTime = 0b0010
	VEML7700IT800ms VEML7700IntegrationTime = 0b0011
)

func (it VEML7700IntegrationTime) Millis() float32 {
	switch it {
	case VEML7700IT25ms:
		return 25
	case VEML7700IT50ms:
		return 50
	case VEML7700IT200ms:
		return 200
	case VEML7700IT400ms:
		return 400
	case VEML7700IT800ms:
		return 800
	default:
		return 100
	}
}

type VEML7700Persistence byte

const (
	VEML7700Pers1 VEML7700Persistence = 0b00
	VEML7700Pers2 VEML7700Persistence = 0b01
	VEML7700Pers4 VEML7700Persistence = 0b10
	VEML7700Pers8 VEML7700Persistence = 0b11
)

type VEML7700PowerSavingMode byte

const (
	VEML7700PSM1 VEML7700PowerSavingMode = 0b00
	VEML7700PSM2 VEML7700PowerSavingMode = 0b01
	VEML7700PSM3 VEML7700PowerSavingMode = 0b10
	VEML7700PSM4 VEML7700PowerSavingMode = 0b11
)

// resolution returns the lux-per-count factor for a gain/integration time
// pair. Reference point is 0.0042 lx/count at gain x2 and 800 ms; halving
// either doubles the resolution, clamped to the datasheet range.
func resolution(gain VEML7700Gain, it VEML7700IntegrationTime) float32 {
	res := 0.0042 * (2.0 / gain.Factor()) * (800.0 / it.Millis())
	if res > 2.1504 {
		res = 2.1504
	}
	if res < 0.0042 {
		res = 0.0042
	}
	return res
}

// settleDelay is the time the ADC needs after power up before the first
// conversion is trustworthy.
const settleDelay = 10 * time.Millisecond

// VEML7700 represents the Vishay VEML7700 ambient light sensor.
// Typical usage:
//
//	s := NewVEML7700(bus)
//	if err := s.Init(ctx); err != nil { ... }
//	lux, err := s.ReadLux(ctx)
//
// The driver keeps an in-memory shadow of the configuration and power-saving
// registers; shadows are committed only after the corresponding bus write
// succeeded, so they always reflect the last known device state. A handle is
// owned by a single goroutine; there is no internal locking.
type VEML7700 struct {
	reg         *instruments.Reg16
	initialized bool

	config uint16
	psm    uint16
	gain   VEML7700Gain
	it     VEML7700IntegrationTime
}

func NewVEML7700(transport instruments.I2CBus) *VEML7700 {
	return &VEML7700{reg: instruments.NewReg16(transport, veml7700Address)}
}

// Init verifies the device identity and programs the power-on defaults:
// gain x1, integration time 100 ms, persistence 1, interrupt disabled,
// power saving off, thresholds at their widest range. The handle stays
// unusable until Init returns nil.
func (s *VEML7700) Init(ctx context.Context) error {
	s.initialized = false
	id, err := s.reg.Read(ctx, regDeviceID)
	if err != nil {
		return fmt.Errorf("veml7700: could not read device id: %w", err)
	}
	if byte(id&0xFF) != veml7700DeviceCode && byte(id>>8) != veml7700AddressCode {
		return fmt.Errorf("veml7700: %w: %#04x", instruments.ErrBadDeviceID, id)
	}

	config := uint16(VEML7700Gain1)<<confGainShift |
		uint16(VEML7700IT100ms)<<confITShift |
		uint16(VEML7700Pers1)<<confPersShift
	err = s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not write default configuration: %w", err)
	}
	s.config = config
	s.gain = VEML7700Gain1
	s.it = VEML7700IT100ms

	err = s.reg.Write(ctx, regPowerSaving, 0x0000)
	if err != nil {
		return fmt.Errorf("veml7700: could not disable power saving: %w", err)
	}
	s.psm = 0x0000

	err = s.reg.Write(ctx, regALSWH, 0xFFFF)
	if err != nil {
		return fmt.Errorf("veml7700: could not set high threshold: %w", err)
	}
	err = s.reg.Write(ctx, regALSWL, 0x0000)
	if err != nil {
		return fmt.Errorf("veml7700: could not set low threshold: %w", err)
	}

	time.Sleep(settleDelay)
	s.initialized = true
	return nil
}

// ReadALS returns the raw 16-bit ambient light channel count.
func (s *VEML7700) ReadALS(ctx context.Context) (uint16, error) {
	if !s.initialized {
		return 0, fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	raw, err := s.reg.Read(ctx, regALS)
	if err != nil {
		return 0, fmt.Errorf("veml7700: could not read ALS channel: %w", err)
	}
	return raw, nil
}

// ReadWhite returns the raw 16-bit white channel count.
func (s *VEML7700) ReadWhite(ctx context.Context) (uint16, error) {
	if !s.initialized {
		return 0, fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	raw, err := s.reg.Read(ctx, regWhite)
	if err != nil {
		return 0, fmt.Errorf("veml7700: could not read white channel: %w", err)
	}
	return raw, nil
}

// ReadLux reads the raw ALS count and converts it to lux. The configuration
// register is re-read first so out-of-band gain or integration time changes
// are picked up; the shadow and the cached gain/time follow the live value.
// On failure the returned lux is -1 together with the original error.
func (s *VEML7700) ReadLux(ctx context.Context) (float32, error) {
	if !s.initialized {
		return -1, fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	raw, err := s.reg.Read(ctx, regALS)
	if err != nil {
		return -1, fmt.Errorf("veml7700: could not read ALS channel: %w", err)
	}
	config, err := s.reg.Read(ctx, regALSConf)
	if err != nil {
		return -1, fmt.Errorf("veml7700: could not read configuration: %w", err)
	}
	s.config = config
	s.gain = VEML7700Gain(config >> confGainShift & 0b11)
	s.it = VEML7700IntegrationTime(config >> confITShift & 0b1111)
	return float32(raw) * resolution(s.gain, s.it), nil
}

// SetGain updates the sensitivity gain. The configuration shadow and the
// cached gain commit only after the write succeeded.
func (s *VEML7700) SetGain(ctx context.Context, gain VEML7700Gain) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	config := s.config&^confGainMask | uint16(gain)<<confGainShift
	err := s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not set gain: %w", err)
	}
	s.config = config
	s.gain = gain
	return nil
}

func (s *VEML7700) SetIntegrationTime(ctx context.Context, it VEML7700IntegrationTime) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	config := s.config&^confITMask | uint16(it)<<confITShift
	err := s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not set integration time: %w", err)
	}
	s.config = config
	s.it = it
	return nil
}

// SetPersistence sets how many consecutive out-of-threshold samples are
// needed before an interrupt condition latches.
func (s *VEML7700) SetPersistence(ctx context.Context, pers VEML7700Persistence) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	config := s.config&^confPersMask | uint16(pers)<<confPersShift
	err := s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not set persistence: %w", err)
	}
	s.config = config
	return nil
}

// EnableInterrupt switches the threshold interrupt mechanism on or off.
// The VEML7700 has no interrupt pin; latched flags are polled through
// ReadInterruptStatus.
func (s *VEML7700) EnableInterrupt(ctx context.Context, enable bool) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	config := s.config &^ confIntEnable
	if enable {
		config |= confIntEnable
	}
	err := s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not switch interrupt: %w", err)
	}
	s.config = config
	return nil
}

// SetHighThreshold writes the raw upper interrupt threshold. No shadow is
// involved, the value goes straight to the device.
func (s *VEML7700) SetHighThreshold(ctx context.Context, threshold uint16) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	err := s.reg.Write(ctx, regALSWH, threshold)
	if err != nil {
		return fmt.Errorf("veml7700: could not set high threshold: %w", err)
	}
	return nil
}

// SetLowThreshold writes the raw lower interrupt threshold.
func (s *VEML7700) SetLowThreshold(ctx context.Context, threshold uint16) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	err := s.reg.Write(ctx, regALSWL, threshold)
	if err != nil {
		return fmt.Errorf("veml7700: could not set low threshold: %w", err)
	}
	return nil
}

// ReadInterruptStatus reads the interrupt register. Check the returned value
// against VEML7700IntLowCrossed and VEML7700IntHighCrossed. Reading clears
// both latched flags on the physical device.
func (s *VEML7700) ReadInterruptStatus(ctx context.Context) (uint16, error) {
	if !s.initialized {
		return 0, fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	status, err := s.reg.Read(ctx, regALSInt)
	if err != nil {
		return 0, fmt.Errorf("veml7700: could not read interrupt status: %w", err)
	}
	return status, nil
}

// EnablePowerSaving switches power saving mode on or off. The selected mode
// (SetPowerSavingMode) only takes effect while power saving is enabled.
func (s *VEML7700) EnablePowerSaving(ctx context.Context, enable bool) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	psm := s.psm &^ psmEnable
	if enable {
		psm |= psmEnable
	}
	err := s.reg.Write(ctx, regPowerSaving, psm)
	if err != nil {
		return fmt.Errorf("veml7700: could not switch power saving: %w", err)
	}
	s.psm = psm
	return nil
}

func (s *VEML7700) SetPowerSavingMode(ctx context.Context, mode VEML7700PowerSavingMode) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	psm := s.psm&^psmModeMask | uint16(mode)<<psmModeShift
	err := s.reg.Write(ctx, regPowerSaving, psm)
	if err != nil {
		return fmt.Errorf("veml7700: could not set power saving mode: %w", err)
	}
	s.psm = psm
	return nil
}

// PowerOn clears the shutdown bit and waits for the ADC to stabilize.
func (s *VEML7700) PowerOn(ctx context.Context) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	config := s.config &^ confShutdown
	err := s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not power on: %w", err)
	}
	s.config = config
	time.Sleep(settleDelay)
	return nil
}

// Shutdown sets the shutdown bit, putting the sensor in its low-power state
// (typically 0.5 uA). The handle stays initialized; PowerOn resumes sampling.
func (s *VEML7700) Shutdown(ctx context.Context) error {
	if !s.initialized {
		return fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	config := s.config | confShutdown
	err := s.reg.Write(ctx, regALSConf, config)
	if err != nil {
		return fmt.Errorf("veml7700: could not shut down: %w", err)
	}
	s.config = config
	return nil
}

// ReadDeviceID returns the raw 16-bit device identification register.
func (s *VEML7700) ReadDeviceID(ctx context.Context) (uint16, error) {
	if !s.initialized {
		return 0, fmt.Errorf("veml7700: %w", instruments.ErrNotInitialized)
	}
	id, err := s.reg.Read(ctx, regDeviceID)
	if err != nil {
		return 0, fmt.Errorf("veml7700: could not read device id: %w", err)
	}
	return id, nil
}

// Gain returns the last gain committed to the device (or derived from the
// live configuration by ReadLux).
func (s *VEML7700) Gain() VEML7700Gain { return s.gain }

// IntegrationTime returns the last integration time committed to the device.
func (s *VEML7700) IntegrationTime() VEML7700IntegrationTime { return s.it }
