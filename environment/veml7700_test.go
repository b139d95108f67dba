package environment

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/instruments"
)

// regBus simulates a device with 16-bit little-endian registers behind a
// one-byte register pointer. Every bus transaction is counted so tests can
// assert that rejected operations never touch the bus.
type regBus struct {
	regs      map[byte]uint16
	order     binary.ByteOrder
	pointer   byte
	writes    int
	reads     int
	failWrite error
	failRead  error
}

func newRegBus() *regBus {
	return &regBus{regs: map[byte]uint16{}, order: binary.LittleEndian}
}

func newBigEndianRegBus() *regBus {
	return &regBus{regs: map[byte]uint16{}, order: binary.BigEndian}
}

func (b *regBus) WriteToAddr(_ context.Context, _ byte, buffer []byte) error {
	b.writes++
	if b.failWrite != nil {
		return b.failWrite
	}
	switch len(buffer) {
	case 1:
		b.pointer = buffer[0]
	case 3:
		b.regs[buffer[0]] = b.order.Uint16(buffer[1:])
	default:
		return fmt.Errorf("unexpected write size %d", len(buffer))
	}
	return nil
}

func (b *regBus) ReadFromAddr(_ context.Context, _ byte, buffer []byte) error {
	b.reads++
	if b.failRead != nil {
		return b.failRead
	}
	b.order.PutUint16(buffer, b.regs[b.pointer])
	return nil
}

func (b *regBus) Release(context.Context) error { return nil }

func (b *regBus) transactions() int { return b.writes + b.reads }

func initializedVEML7700(t *testing.T) (*VEML7700, *regBus) {
	t.Helper()
	bus := newRegBus()
	bus.regs[regDeviceID] = 0xC481 // low byte matches the device code
	s := NewVEML7700(bus)
	require.NoError(t, s.Init(context.Background()))
	return s, bus
}

func TestVEML7700_Resolution(t *testing.T) {
	tests := []struct {
		gain     VEML7700Gain
		it       VEML7700IntegrationTime
		expected float32
	}{
		{VEML7700Gain2, VEML7700IT800ms, 0.0042},
		{VEML7700Gain1, VEML7700IT800ms, 0.0084},
		{VEML7700Gain1, VEML7700IT100ms, 0.0672},
		{VEML7700Gain2, VEML7700IT100ms, 0.0336},
		{VEML7700Gain14, VEML7700IT400ms, 0.0672},
		{VEML7700Gain18, VEML7700IT25ms, 2.1504},
	}
	for _, test := range tests {
		t.Run(fmt.Sprintf("%s/%vms", test.gain, test.it.Millis()), func(t *testing.T) {
			assert.InDelta(t, test.expected, resolution(test.gain, test.it), 1e-5)
		})
	}
}

func TestVEML7700_ResolutionBounds(t *testing.T) {
	gains := []VEML7700Gain{VEML7700Gain2, VEML7700Gain1, VEML7700Gain14, VEML7700Gain18}
	times := []VEML7700IntegrationTime{
		VEML7700IT800ms, VEML7700IT400ms, VEML7700IT200ms,
		VEML7700IT100ms, VEML7700IT50ms, VEML7700IT25ms,
	}
	for _, it := range times {
		// gains are ordered by decreasing sensitivity: resolution must not decrease
		prev := float32(0)
		for _, gain := range gains {
			res := resolution(gain, it)
			assert.GreaterOrEqual(t, res, float32(0.0042))
			assert.LessOrEqual(t, res, float32(2.1504))
			assert.GreaterOrEqual(t, res, prev, "gain %s it %vms", gain, it.Millis())
			prev = res
		}
	}
	for _, gain := range gains {
		// same for decreasing integration time
		prev := float32(0)
		for _, it := range times {
			res := resolution(gain, it)
			assert.GreaterOrEqual(t, res, prev, "gain %s it %vms", gain, it.Millis())
			prev = res
		}
	}
}

func TestVEML7700_InitDefaults(t *testing.T) {
	bus := newRegBus()
	bus.regs[regDeviceID] = 0x28C4 // high byte matches the address code
	s := NewVEML7700(bus)
	require.NoError(t, s.Init(context.Background()))

	// gain x1, IT 100ms, persistence 1, interrupt off, powered on
	assert.Equal(t, uint16(0x0000), bus.regs[regALSConf])
	assert.Equal(t, uint16(0x0000), bus.regs[regPowerSaving])
	assert.Equal(t, uint16(0xFFFF), bus.regs[regALSWH])
	assert.Equal(t, uint16(0x0000), bus.regs[regALSWL])
	assert.Equal(t, VEML7700Gain1, s.Gain())
	assert.Equal(t, VEML7700IT100ms, s.IntegrationTime())
}

func TestVEML7700_InitBadDeviceID(t *testing.T) {
	bus := newRegBus()
	bus.regs[regDeviceID] = 0x1234
	s := NewVEML7700(bus)
	err := s.Init(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, instruments.ErrBadDeviceID)

	// handle stays uninitialized and rejects everything without bus traffic
	before := bus.transactions()
	_, err = s.ReadALS(context.Background())
	assert.ErrorIs(t, err, instruments.ErrNotInitialized)
	assert.Equal(t, before, bus.transactions())
}

func TestVEML7700_UninitializedRejected(t *testing.T) {
	bus := newRegBus()
	s := NewVEML7700(bus)
	ctx := context.Background()

	ops := map[string]func() error{
		"ReadALS":            func() error { _, err := s.ReadALS(ctx); return err },
		"ReadWhite":          func() error { _, err := s.ReadWhite(ctx); return err },
		"ReadLux":            func() error { _, err := s.ReadLux(ctx); return err },
		"ReadDeviceID":       func() error { _, err := s.ReadDeviceID(ctx); return err },
		"ReadInterrupt":      func() error { _, err := s.ReadInterruptStatus(ctx); return err },
		"SetGain":            func() error { return s.SetGain(ctx, VEML7700Gain2) },
		"SetIntegrationTime": func() error { return s.SetIntegrationTime(ctx, VEML7700IT400ms) },
		"SetPersistence":     func() error { return s.SetPersistence(ctx, VEML7700Pers4) },
		"EnableInterrupt":    func() error { return s.EnableInterrupt(ctx, true) },
		"SetHighThreshold":   func() error { return s.SetHighThreshold(ctx, 100) },
		"SetLowThreshold":    func() error { return s.SetLowThreshold(ctx, 10) },
		"EnablePowerSaving":  func() error { return s.EnablePowerSaving(ctx, true) },
		"SetPowerSavingMode": func() error { return s.SetPowerSavingMode(ctx, VEML7700PSM3) },
		"PowerOn":            func() error { return s.PowerOn(ctx) },
		"Shutdown":           func() error { return s.Shutdown(ctx) },
	}
	for name, op := range ops {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, op(), instruments.ErrNotInitialized)
			assert.Zero(t, bus.transactions())
		})
	}
	t.Run("ReadLux reports -1", func(t *testing.T) {
		lux, err := s.ReadLux(ctx)
		assert.Error(t, err)
		assert.Equal(t, float32(-1), lux)
	})
}

func TestVEML7700_ReadLux(t *testing.T) {
	tests := []struct {
		name     string
		config   uint16
		raw      uint16
		expected float32
	}{
		{
			name:     "gain x1 IT 800ms",
			config:   uint16(VEML7700Gain1)<<confGainShift | uint16(VEML7700IT800ms)<<confITShift,
			raw:      1000,
			expected: 8.4,
		},
		{
			name:     "gain x2 IT 800ms",
			config:   uint16(VEML7700Gain2)<<confGainShift | uint16(VEML7700IT800ms)<<confITShift,
			raw:      1000,
			expected: 4.2,
		},
		{
			name:     "gain x2 IT 800ms zero count",
			config:   uint16(VEML7700Gain2)<<confGainShift | uint16(VEML7700IT800ms)<<confITShift,
			raw:      0,
			expected: 0,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, bus := initializedVEML7700(t)
			// the configuration changes behind the driver's back
			bus.regs[regALSConf] = test.config
			bus.regs[regALS] = test.raw

			lux, err := s.ReadLux(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, test.expected, lux, 1e-4)
			// cached settings follow the live register
			assert.Equal(t, VEML7700Gain(test.config>>confGainShift&0b11), s.Gain())
			assert.Equal(t, VEML7700IntegrationTime(test.config>>confITShift&0b1111), s.IntegrationTime())
		})
	}
}

func TestVEML7700_ReadLuxFailure(t *testing.T) {
	s, bus := initializedVEML7700(t)
	bus.failRead = errors.New("bus read failed")
	lux, err := s.ReadLux(context.Background())
	assert.Error(t, err)
	assert.Equal(t, float32(-1), lux)
}

func TestVEML7700_SettersCommitAfterSuccess(t *testing.T) {
	s, bus := initializedVEML7700(t)
	ctx := context.Background()

	require.NoError(t, s.SetGain(ctx, VEML7700Gain2))
	require.NoError(t, s.SetIntegrationTime(ctx, VEML7700IT400ms))
	assert.Equal(t, VEML7700Gain2, s.Gain())
	assert.Equal(t, VEML7700IT400ms, s.IntegrationTime())

	// the shadow reflects the committed state without any bus read
	reads := bus.reads
	assert.Equal(t, uint16(VEML7700Gain2), s.config>>confGainShift&0b11)
	assert.Equal(t, uint16(VEML7700IT400ms), s.config>>confITShift&0b1111)
	assert.Equal(t, bus.regs[regALSConf], s.config)
	assert.Equal(t, reads, bus.reads)

	// a failed write leaves shadow and cached fields untouched
	bus.failWrite = errors.New("bus write failed")
	shadow := s.config
	assert.Error(t, s.SetGain(ctx, VEML7700Gain18))
	assert.Equal(t, shadow, s.config)
	assert.Equal(t, VEML7700Gain2, s.Gain())
}

func TestVEML7700_Thresholds(t *testing.T) {
	s, bus := initializedVEML7700(t)
	ctx := context.Background()

	require.NoError(t, s.SetHighThreshold(ctx, 0x0BB8))
	require.NoError(t, s.SetLowThreshold(ctx, 0x0064))
	assert.Equal(t, uint16(0x0BB8), bus.regs[regALSWH])
	assert.Equal(t, uint16(0x0064), bus.regs[regALSWL])
}

func TestVEML7700_InterruptFlags(t *testing.T) {
	s, bus := initializedVEML7700(t)
	bus.regs[regALSInt] = VEML7700IntLowCrossed | VEML7700IntHighCrossed

	status, err := s.ReadInterruptStatus(context.Background())
	require.NoError(t, err)
	assert.NotZero(t, status&VEML7700IntLowCrossed)
	assert.NotZero(t, status&VEML7700IntHighCrossed)
}

func TestVEML7700_EnableInterrupt(t *testing.T) {
	s, bus := initializedVEML7700(t)
	ctx := context.Background()

	require.NoError(t, s.EnableInterrupt(ctx, true))
	assert.NotZero(t, bus.regs[regALSConf]&confIntEnable)
	require.NoError(t, s.EnableInterrupt(ctx, false))
	assert.Zero(t, bus.regs[regALSConf]&confIntEnable)
}

func TestVEML7700_PowerCycle(t *testing.T) {
	s, bus := initializedVEML7700(t)
	ctx := context.Background()

	require.NoError(t, s.Shutdown(ctx))
	assert.NotZero(t, bus.regs[regALSConf]&confShutdown)
	require.NoError(t, s.PowerOn(ctx))
	assert.Zero(t, bus.regs[regALSConf]&confShutdown)
}

func TestVEML7700_PowerSaving(t *testing.T) {
	s, bus := initializedVEML7700(t)
	ctx := context.Background()

	require.NoError(t, s.EnablePowerSaving(ctx, true))
	require.NoError(t, s.SetPowerSavingMode(ctx, VEML7700PSM3))
	assert.Equal(t, psmEnable|uint16(VEML7700PSM3)<<psmModeShift, bus.regs[regPowerSaving])

	require.NoError(t, s.EnablePowerSaving(ctx, false))
	assert.Zero(t, bus.regs[regPowerSaving]&psmEnable)
	// mode selection survives the enable toggle
	assert.Equal(t, uint16(VEML7700PSM3), bus.regs[regPowerSaving]>>psmModeShift&0b11)
}
