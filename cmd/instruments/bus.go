package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/mklimuk/instruments"
	"github.com/mklimuk/instruments/adapter"
	"github.com/mklimuk/instruments/i2c"
	"github.com/mklimuk/instruments/insctx"
)

// busFlags are shared by every command that talks to hardware.
var busFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "adapter",
		Aliases: []string{"a"},
		Value:   "mcp2221",
		Usage:   "bus adapter (mcp2221|i2c)",
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"d"},
		Usage:   "host bus name for the i2c adapter, e.g. /dev/i2c-1",
	},
	&cli.IntFlag{
		Name:  "speed",
		Usage: "bus clock in kHz for the i2c adapter",
	},
	&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}},
}

func withBusFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, busFlags...)
}

func commandContext(c *cli.Context) context.Context {
	return insctx.SetVerbose(context.Background(), c.Bool("verbose"))
}

func openBus(ctx context.Context, c *cli.Context) (instruments.I2CBus, error) {
	return openNamedBus(ctx, c.String("adapter"), c.String("device"), c.Int("speed"))
}

func openNamedBus(ctx context.Context, name, device string, speedKHz int) (instruments.I2CBus, error) {
	switch name {
	case "mcp2221":
		a := adapter.NewMCP2221()
		err := a.Init(ctx)
		if err != nil {
			return nil, fmt.Errorf("adapter initialization error: %w", err)
		}
		return a, nil
	case "i2c":
		bus, err := i2c.NewGenericBus(device)
		if err != nil {
			return nil, err
		}
		if speedKHz > 0 {
			err = bus.SetSpeed(physic.Frequency(speedKHz) * physic.KiloHertz)
			if err != nil {
				return nil, err
			}
		}
		return bus, nil
	}
	return nil, fmt.Errorf("unknown adapter %q", name)
}
