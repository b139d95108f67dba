package instruments

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingBus struct {
	writes   [][]byte
	readData []byte
	failRead error
}

func (b *recordingBus) WriteToAddr(_ context.Context, _ byte, buffer []byte) error {
	b.writes = append(b.writes, append([]byte(nil), buffer...))
	return nil
}

func (b *recordingBus) ReadFromAddr(_ context.Context, _ byte, buffer []byte) error {
	if b.failRead != nil {
		return b.failRead
	}
	copy(buffer, b.readData)
	return nil
}

func (b *recordingBus) Release(context.Context) error { return nil }

func TestReg16_Write(t *testing.T) {
	bus := &recordingBus{}
	reg := NewReg16(bus, 0x10)

	require.NoError(t, reg.Write(context.Background(), 0x01, 0xABCD))
	require.Len(t, bus.writes, 1)
	// register code followed by the value in little-endian order
	assert.Equal(t, []byte{0x01, 0xCD, 0xAB}, bus.writes[0])
}

func TestReg16_Read(t *testing.T) {
	bus := &recordingBus{readData: []byte{0x34, 0x12}}
	reg := NewReg16(bus, 0x10)

	value, err := reg.Read(context.Background(), 0x04)
	require.NoError(t, err)
	assert.Equal(t, uint16(0x1234), value)
	require.Len(t, bus.writes, 1)
	assert.Equal(t, []byte{0x04}, bus.writes[0])
}

func TestReg16_ReadFailure(t *testing.T) {
	bus := &recordingBus{failRead: errors.New("nack")}
	reg := NewReg16(bus, 0x10)

	_, err := reg.Read(context.Background(), 0x04)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read reg 0x04 failed")
}
