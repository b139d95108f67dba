// Package i2c exposes a Linux host I2C bus through the periph.io stack.
package i2c

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/host/v3"

	"github.com/mklimuk/instruments"
)

var _ instruments.I2CBus = &GenericBus{}

// GenericBus wraps a periph.io bus (for example /dev/i2c-1 on a Raspberry
// Pi) behind the instruments transaction contract.
type GenericBus struct {
	bus i2c.BusCloser
}

// NewGenericBus initializes the periph host drivers and opens the bus
// registered under dev. An empty dev opens the first available bus.
func NewGenericBus(dev string) (*GenericBus, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		log.Debug("loaded host driver", "driver", driver.String())
	}
	bus, err := i2creg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open i2c bus: %w", err)
	}
	return &GenericBus{
		bus: bus,
	}, nil
}

// SetSpeed changes the bus clock. Some sensors require slower clocks than
// the host default.
func (b *GenericBus) SetSpeed(freq physic.Frequency) error {
	err := b.bus.SetSpeed(freq)
	if err != nil {
		return fmt.Errorf("could not set i2c bus speed to %s: %w", freq, err)
	}
	return nil
}

func (b *GenericBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), nil, buffer)
	if err != nil {
		return fmt.Errorf("could not read from i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	err := b.bus.Tx(uint16(address), buffer, nil)
	if err != nil {
		return fmt.Errorf("could not write to i2c bus %x: %w", address, err)
	}
	return nil
}

func (b *GenericBus) Release(ctx context.Context) error {
	return nil
}

func (b *GenericBus) Close() error {
	return b.bus.Close()
}
