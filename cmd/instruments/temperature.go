package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/instruments/cmd/instruments/console"
	"github.com/mklimuk/instruments/environment"
)

var tempCmd = cli.Command{
	Name:    "temperature",
	Aliases: []string{"temp"},
	Flags: withBusFlags(
		&cli.UintFlag{Name: "addr", Value: 0x48, Usage: "sensor address"},
		&cli.BoolFlag{Name: "fahrenheit", Aliases: []string{"f"}},
		&cli.Float64Flag{Name: "offset", Usage: "program a temperature offset in degrees Celsius", Value: noOffset},
	),
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		bus, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		s := environment.NewTMP117(bus, environment.WithTMP117Address(byte(c.Uint("addr"))))
		err = s.Begin(ctx)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		if offset := c.Float64("offset"); offset != noOffset {
			err = s.SetOffset(ctx, float32(offset))
			if err != nil {
				return console.Exit(1, "error setting offset: %s", console.Red(err))
			}
			console.Infof("offset set to %s", console.White(offset))
		}
		if c.Bool("fahrenheit") {
			temp, err := s.GetTemperatureFahrenheit(ctx)
			if err != nil {
				return console.Exit(1, "error getting temperature read: %s", console.Red(err))
			}
			console.PInfof(console.PictoThermometer, "%s °F", console.White(temp))
			return nil
		}
		temp, err := s.GetTemperature(ctx)
		if err != nil {
			return console.Exit(1, "error getting temperature read: %s", console.Red(err))
		}
		console.PInfof(console.PictoThermometer, "%s °C", console.White(temp))
		return nil
	},
}

// noOffset marks the offset flag as unset; valid offsets are within ±256 °C.
const noOffset = -1000.0
