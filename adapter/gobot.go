package adapter

import (
	"context"
	"fmt"
	"sync"

	gobotI2C "gobot.io/x/gobot/v2/drivers/i2c"

	"github.com/mklimuk/instruments"
)

var _ instruments.I2CBus = &Gobot{}

// Gobot adapts a gobot I2C connector so the sensor drivers can run inside
// gobot robots next to the platform's own drivers. Gobot connections are
// bound to a single device address, so one connection per address is opened
// lazily and cached.
type Gobot struct {
	mx        sync.Mutex
	connector gobotI2C.Connector
	busNum    int
	conns     map[byte]gobotI2C.Connection
}

// NewGobot wraps a platform adaptor (raspi, beaglebone, ...) exposing bus
// busNum.
func NewGobot(connector gobotI2C.Connector, busNum int) *Gobot {
	return &Gobot{
		connector: connector,
		busNum:    busNum,
		conns:     map[byte]gobotI2C.Connection{},
	}
}

func (b *Gobot) connection(address byte) (gobotI2C.Connection, error) {
	if conn, ok := b.conns[address]; ok {
		return conn, nil
	}
	conn, err := b.connector.GetI2cConnection(int(address), b.busNum)
	if err != nil {
		return nil, fmt.Errorf("could not get connection to %x on bus %d: %w", address, b.busNum, err)
	}
	b.conns[address] = conn
	return conn, nil
}

func (b *Gobot) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Write(buffer)
	if err != nil {
		return fmt.Errorf("could not write to %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short write to %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

func (b *Gobot) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	conn, err := b.connection(address)
	if err != nil {
		return err
	}
	n, err := conn.Read(buffer)
	if err != nil {
		return fmt.Errorf("could not read from %x: %w", address, err)
	}
	if n != len(buffer) {
		return fmt.Errorf("short read from %x: %d of %d bytes", address, n, len(buffer))
	}
	return nil
}

// Release closes all cached connections.
func (b *Gobot) Release(ctx context.Context) error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var firstErr error
	for address, conn := range b.conns {
		if err := conn.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("could not close connection to %x: %w", address, err)
		}
		delete(b.conns, address)
	}
	return firstErr
}
