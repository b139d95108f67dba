package environment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/instruments"
)

func startedTMP117(t *testing.T) (*TMP117, *regBus) {
	t.Helper()
	bus := newBigEndianRegBus()
	bus.regs[tmp117RegDeviceID] = 0x0117
	s := NewTMP117(bus)
	require.NoError(t, s.Begin(context.Background()))
	return s, bus
}

func TestTMP117_Begin(t *testing.T) {
	tests := []struct {
		name     string
		deviceID uint16
		ok       bool
	}{
		{"production id", 0x0117, true},
		{"id with revision bits", 0x1117, true},
		{"foreign device", 0x0075, false},
		{"empty bus", 0x0000, false},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			bus := newBigEndianRegBus()
			bus.regs[tmp117RegDeviceID] = test.deviceID
			s := NewTMP117(bus)
			err := s.Begin(context.Background())
			if test.ok {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, instruments.ErrBadDeviceID)

			before := bus.transactions()
			_, err = s.ReadRawTemperature(context.Background())
			assert.ErrorIs(t, err, instruments.ErrNotInitialized)
			assert.Equal(t, before, bus.transactions())
		})
	}
}

func TestTMP117_ReadTemperature(t *testing.T) {
	tests := []struct {
		name     string
		raw      uint16
		expected float32
	}{
		{"room temperature", 0x0C80, 25.0},   // 3200 * 1/128
		{"zero", 0x0000, 0.0},
		{"negative", 0xFF38, -1.5625},        // -200 * 1/128
		{"one lsb", 0x0001, 0.0078125},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, bus := startedTMP117(t)
			bus.regs[tmp117RegTempResult] = test.raw

			raw, err := s.ReadRawTemperature(context.Background())
			require.NoError(t, err)
			assert.Equal(t, int16(test.raw), raw)

			celsius, err := s.GetTemperature(context.Background())
			require.NoError(t, err)
			assert.InDelta(t, test.expected, celsius, 1e-5)
		})
	}
}

func TestTMP117_Fahrenheit(t *testing.T) {
	s, bus := startedTMP117(t)
	bus.regs[tmp117RegTempResult] = 0x0C80 // 25 degC

	f, err := s.GetTemperatureFahrenheit(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, 77.0, f, 1e-4)
}

func TestTMP117_DataReady(t *testing.T) {
	s, bus := startedTMP117(t)

	bus.regs[tmp117RegConfiguration] = 0x0000
	ready, err := s.IsDataReady(context.Background())
	require.NoError(t, err)
	assert.False(t, ready)

	bus.regs[tmp117RegConfiguration] = tmp117ConfDataReady
	ready, err = s.IsDataReady(context.Background())
	require.NoError(t, err)
	assert.True(t, ready)
}

func TestTMP117_SoftReset(t *testing.T) {
	s, bus := startedTMP117(t)
	bus.regs[tmp117RegConfiguration] = 0x0220

	require.NoError(t, s.SoftReset(context.Background()))
	assert.NotZero(t, bus.regs[tmp117RegConfiguration]&tmp117ConfSoftReset)
}

func TestTMP117_Offset(t *testing.T) {
	s, bus := startedTMP117(t)
	ctx := context.Background()

	require.NoError(t, s.SetOffset(ctx, -25.0))
	assert.Equal(t, uint16(0xF380), bus.regs[tmp117RegTempOffset]) // -3200 in Q7

	offset, err := s.GetOffset(ctx)
	require.NoError(t, err)
	assert.InDelta(t, -25.0, offset, 1e-5)
}

func TestTMP117_Address(t *testing.T) {
	assert.Equal(t, byte(0x48), NewTMP117(newBigEndianRegBus()).Address())
	assert.Equal(t, byte(0x49), NewTMP117(newBigEndianRegBus(), WithTMP117Address(0x49)).Address())
}
