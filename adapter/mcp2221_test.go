package adapter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBufferToStatus(t *testing.T) {
	buffer := make([]byte, 64)
	buffer[9] = 0x03  // requested size low
	buffer[10] = 0x00 // requested size high
	buffer[11] = 0x02 // sent size low
	buffer[12] = 0x00
	buffer[13] = 5    // data buffer counter
	buffer[14] = 26   // speed divider (400 kHz)
	buffer[15] = 75   // timeout
	buffer[16] = 0x20 // address low (0x10 << 1)
	buffer[17] = 0x00
	buffer[25] = 1 // read pending

	status := bufferToStatus(buffer)
	assert.Equal(t, uint16(3), status.LastWriteRequestedSize)
	assert.Equal(t, uint16(2), status.LastWriteSentSize)
	assert.Equal(t, 5, status.I2CDataBufferCounter)
	assert.Equal(t, 26, status.I2CSpeedDivider)
	assert.Equal(t, 75, status.I2CTimeout)
	assert.Equal(t, "2000", status.CurrentAddress)
	assert.Equal(t, 1, status.ReadPending)
}

func TestResetBuffer(t *testing.T) {
	buf := []byte{0x90, 0x02, 0x00, 0x20, 0xAA}
	resetBuffer(buf)
	assert.Equal(t, make([]byte, 5), buf)
}
