package instruments

import (
	"context"
	"encoding/binary"
	"fmt"
)

// Reg16 is a register client for devices exposing 16-bit little-endian
// registers behind a one-byte command code (VEML7700 and friends).
// A register write is a single 3-byte transaction [reg, lo, hi]; a register
// read writes the register pointer and reads two bytes back.
type Reg16 struct {
	transport I2CBus
	addr      byte
	buf       [3]byte
}

func NewReg16(transport I2CBus, addr byte) *Reg16 {
	return &Reg16{transport: transport, addr: addr}
}

func (r *Reg16) Write(ctx context.Context, reg byte, value uint16) error {
	r.buf[0] = reg
	binary.LittleEndian.PutUint16(r.buf[1:3], value)
	err := r.transport.WriteToAddr(ctx, r.addr, r.buf[:3])
	if err != nil {
		return fmt.Errorf("write reg %#02x failed: %w", reg, err)
	}
	return nil
}

func (r *Reg16) Read(ctx context.Context, reg byte) (uint16, error) {
	r.buf[0] = reg
	err := r.transport.WriteToAddr(ctx, r.addr, r.buf[:1])
	if err != nil {
		return 0, fmt.Errorf("write reg pointer %#02x failed: %w", reg, err)
	}
	err = r.transport.ReadFromAddr(ctx, r.addr, r.buf[1:3])
	if err != nil {
		return 0, fmt.Errorf("read reg %#02x failed: %w", reg, err)
	}
	return binary.LittleEndian.Uint16(r.buf[1:3]), nil
}
