package pressure

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mklimuk/instruments"
)

// sensorBus simulates the ICP10125 command protocol: every write starting
// with a 16-bit command word selects the response queue the next read is
// served from.
type sensorBus struct {
	responses map[uint16][][]byte
	lastCmd   uint16
	written   [][]byte
	writes    int
	reads     int
	failRead  error
}

func newSensorBus() *sensorBus {
	return &sensorBus{responses: map[uint16][][]byte{}}
}

func (b *sensorBus) respond(cmd uint16, frames ...[]byte) {
	b.responses[cmd] = append(b.responses[cmd], frames...)
}

func (b *sensorBus) WriteToAddr(_ context.Context, _ byte, buffer []byte) error {
	b.writes++
	b.written = append(b.written, append([]byte(nil), buffer...))
	if len(buffer) >= 2 {
		b.lastCmd = uint16(buffer[0])<<8 | uint16(buffer[1])
	}
	return nil
}

func (b *sensorBus) ReadFromAddr(_ context.Context, _ byte, buffer []byte) error {
	b.reads++
	if b.failRead != nil {
		return b.failRead
	}
	queue := b.responses[b.lastCmd]
	if len(queue) == 0 {
		return errors.New("no response queued")
	}
	copy(buffer, queue[0])
	b.responses[b.lastCmd] = queue[1:]
	return nil
}

func (b *sensorBus) Release(context.Context) error { return nil }

func (b *sensorBus) transactions() int { return b.writes + b.reads }

// Calibration constants 1000, -2000, 3000, 4000 as CRC-protected OTP frames.
func queueInitResponses(bus *sensorBus) {
	bus.respond(cmdReadID, []byte{0x05, 0x48, 0x72})
	bus.respond(cmdReadOTP,
		[]byte{0x03, 0xE8, 0xD4},
		[]byte{0xF8, 0x30, 0x6B},
		[]byte{0x0B, 0xB8, 0x9D},
		[]byte{0x0F, 0xA0, 0xE4},
	)
}

func initializedICP10125(t *testing.T) (*ICP10125, *sensorBus) {
	t.Helper()
	bus := newSensorBus()
	queueInitResponses(bus)
	s := NewICP10125(bus)
	require.NoError(t, s.Init(context.Background()))
	return s, bus
}

func TestCRC8(t *testing.T) {
	assert.Equal(t, byte(0x92), crc8([]byte{0xBE, 0xEF}))
	assert.Equal(t, byte(0x81), crc8([]byte{0x00, 0x00}))
}

func TestICP10125_Init(t *testing.T) {
	s, bus := initializedICP10125(t)
	assert.Equal(t, [4]int16{1000, -2000, 3000, 4000}, s.cal)

	// soft reset, id command, otp setup, four otp reads
	require.Len(t, bus.written, 7)
	assert.Equal(t, []byte{0x80, 0x5D}, bus.written[0])
	assert.Equal(t, []byte{0xEF, 0xC8}, bus.written[1])
	assert.Equal(t, []byte{0xC5, 0x95, 0x00, 0x66, 0x9C}, bus.written[2])
	for i := 3; i < 7; i++ {
		assert.Equal(t, []byte{0xC7, 0xF7}, bus.written[i])
	}
}

func TestICP10125_InitBadDeviceID(t *testing.T) {
	bus := newSensorBus()
	bus.respond(cmdReadID, []byte{0x00, 0x01, 0xB0}) // low 6 bits != product id
	s := NewICP10125(bus)

	err := s.Init(context.Background())
	assert.ErrorIs(t, err, instruments.ErrBadDeviceID)

	before := bus.transactions()
	_, err = s.Measure(context.Background(), ModeNormal)
	assert.ErrorIs(t, err, instruments.ErrNotInitialized)
	assert.Equal(t, before, bus.transactions())
}

func TestICP10125_InitCRCMismatch(t *testing.T) {
	bus := newSensorBus()
	bus.respond(cmdReadID, []byte{0x05, 0x48, 0x00})
	s := NewICP10125(bus)

	err := s.Init(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crc mismatch")
}

func TestICP10125_UninitializedRejected(t *testing.T) {
	bus := newSensorBus()
	s := NewICP10125(bus)

	_, err := s.Measure(context.Background(), ModeNormal)
	assert.ErrorIs(t, err, instruments.ErrNotInitialized)
	assert.Zero(t, bus.transactions())
}

func TestICP10125_Measure(t *testing.T) {
	tests := []struct {
		name     string
		mode     ICP10125Mode
		cmd      uint16
		frame    []byte
		temp     float64
		pressure float64
	}{
		{
			name:     "mid-scale",
			mode:     ModeNormal,
			cmd:      0x6825,
			frame:    []byte{0x80, 0x00, 0xA2, 0x60, 0x00, 0xD4, 0x00, 0x00, 0x81},
			temp:     42.5,
			pressure: 66143.345,
		},
		{
			name:     "room conditions",
			mode:     ModeLowNoise,
			cmd:      0x70DF,
			frame:    []byte{0x6A, 0x41, 0x36, 0x5A, 0x0F, 0xA6, 0x00, 0x00, 0x81},
			temp:     27.634506,
			pressure: 63183.185,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			s, bus := initializedICP10125(t)
			bus.respond(test.cmd, test.frame)

			m, err := s.Measure(context.Background(), test.mode)
			require.NoError(t, err)
			assert.InDelta(t, test.temp, m.Temperature, 1e-4)
			assert.InDelta(t, test.pressure, m.Pressure, 0.01)
			assert.Equal(t, []byte{byte(test.cmd >> 8), byte(test.cmd)}, bus.written[len(bus.written)-1])
		})
	}
}

func TestICP10125_MeasureCRCMismatch(t *testing.T) {
	s, bus := initializedICP10125(t)
	// pressure high word carries a corrupted checksum
	bus.respond(0x6825, []byte{0x80, 0x00, 0xA2, 0x60, 0x00, 0xFF, 0x00, 0x00, 0x81})

	_, err := s.Measure(context.Background(), ModeNormal)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "crc mismatch")
}

func TestICP10125_ModeCommands(t *testing.T) {
	tests := []struct {
		mode ICP10125Mode
		cmd  uint16
		name string
	}{
		{ModeNormal, 0x6825, "normal"},
		{ModeLowPower, 0x609C, "low-power"},
		{ModeLowNoise, 0x70DF, "low-noise"},
		{ModeUltraLowNoise, 0x7866, "ultra-low-noise"},
	}
	for _, test := range tests {
		cmd, err := test.mode.command()
		require.NoError(t, err)
		assert.Equal(t, test.cmd, cmd)
		assert.Equal(t, test.name, test.mode.String())
	}

	_, err := ICP10125Mode(42).command()
	assert.ErrorIs(t, err, instruments.ErrInvalidArgument)
}
