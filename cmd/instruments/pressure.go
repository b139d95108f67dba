package main

import (
	"github.com/urfave/cli/v2"

	"github.com/mklimuk/instruments/cmd/instruments/console"
	"github.com/mklimuk/instruments/pressure"
)

var pressureModes = map[string]pressure.ICP10125Mode{
	"normal":          pressure.ModeNormal,
	"low-power":       pressure.ModeLowPower,
	"low-noise":       pressure.ModeLowNoise,
	"ultra-low-noise": pressure.ModeUltraLowNoise,
}

var pressureCmd = cli.Command{
	Name:    "pressure",
	Aliases: []string{"press"},
	Flags: withBusFlags(
		&cli.StringFlag{
			Name:  "mode",
			Value: "normal",
			Usage: "measurement mode (normal|low-power|low-noise|ultra-low-noise)",
		},
	),
	Action: func(c *cli.Context) error {
		mode, ok := pressureModes[c.String("mode")]
		if !ok {
			return console.Exit(1, "unknown measurement mode %s", console.Red(c.String("mode")))
		}
		ctx := commandContext(c)
		bus, err := openBus(ctx, c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		s := pressure.NewICP10125(bus)
		err = s.Init(ctx)
		if err != nil {
			return console.Exit(1, "sensor initialization error: %s", console.Red(err))
		}
		m, err := s.Measure(ctx, mode)
		if err != nil {
			return console.Exit(1, "error getting pressure read: %s", console.Red(err))
		}
		console.PInfof(console.PictoBarometer, "%s hPa at %s °C",
			console.White(m.Pressure/100.0), console.White(m.Temperature))
		return nil
	},
}
