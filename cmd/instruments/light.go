package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/instruments/cmd/instruments/console"
	"github.com/mklimuk/instruments/environment"
)

var lightCmd = cli.Command{
	Name: "light",
	Subcommands: []*cli.Command{
		&lightReadCmd,
		&lightGainCmd,
		&lightIntegrationCmd,
		&lightThresholdCmd,
		&lightInterruptCmd,
		&lightPowerCmd,
	},
}

var lightGains = map[string]environment.VEML7700Gain{
	"1":   environment.VEML7700Gain1,
	"2":   environment.VEML7700Gain2,
	"1/8": environment.VEML7700Gain18,
	"1/4": environment.VEML7700Gain14,
}

var lightIntegrationTimes = map[string]environment.VEML7700IntegrationTime{
	"25":  environment.VEML7700IT25ms,
	"50":  environment.VEML7700IT50ms,
	"100": environment.VEML7700IT100ms,
	"200": environment.VEML7700IT200ms,
	"400": environment.VEML7700IT400ms,
	"800": environment.VEML7700IT800ms,
}

func lightSensor(c *cli.Context) (*environment.VEML7700, error) {
	ctx := commandContext(c)
	bus, err := openBus(ctx, c)
	if err != nil {
		return nil, err
	}
	s := environment.NewVEML7700(bus)
	err = s.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("sensor initialization error: %w", err)
	}
	return s, nil
}

var lightReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags: withBusFlags(
		&cli.BoolFlag{Name: "raw", Usage: "print raw ALS and white channel counts"},
	),
	Action: func(c *cli.Context) error {
		s, err := lightSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		if c.Bool("raw") {
			als, err := s.ReadALS(ctx)
			if err != nil {
				return console.Exit(1, "error reading ALS channel: %s", console.Red(err))
			}
			white, err := s.ReadWhite(ctx)
			if err != nil {
				return console.Exit(1, "error reading white channel: %s", console.Red(err))
			}
			console.Printf("als: %s white: %s\n", console.White(als), console.White(white))
			return nil
		}
		lux, err := s.ReadLux(ctx)
		if err != nil {
			return console.Exit(1, "error getting light sensor read: %s", console.Red(err))
		}
		console.PInfof(console.PictoLight, "%s lux (gain %s, integration %.0f ms)",
			console.White(lux), s.Gain(), s.IntegrationTime().Millis())
		return nil
	},
}

var lightGainCmd = cli.Command{
	Name:      "gain",
	Usage:     "set sensor gain",
	ArgsUsage: "<1|2|1/4|1/8>",
	Flags:     busFlags,
	Action: func(c *cli.Context) error {
		gain, ok := lightGains[c.Args().First()]
		if !ok {
			return console.Exit(1, "unknown gain %s", console.Red(c.Args().First()))
		}
		s, err := lightSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		err = s.SetGain(commandContext(c), gain)
		if err != nil {
			return console.Exit(1, "error setting gain: %s", console.Red(err))
		}
		console.Infof("gain set to %s", console.White(gain))
		return nil
	},
}

var lightIntegrationCmd = cli.Command{
	Name:      "integration",
	Aliases:   []string{"it"},
	Usage:     "set integration time in milliseconds",
	ArgsUsage: "<25|50|100|200|400|800>",
	Flags:     busFlags,
	Action: func(c *cli.Context) error {
		it, ok := lightIntegrationTimes[c.Args().First()]
		if !ok {
			return console.Exit(1, "unknown integration time %s", console.Red(c.Args().First()))
		}
		s, err := lightSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		err = s.SetIntegrationTime(commandContext(c), it)
		if err != nil {
			return console.Exit(1, "error setting integration time: %s", console.Red(err))
		}
		console.Infof("integration time set to %s ms", console.White(it.Millis()))
		return nil
	},
}

var lightThresholdCmd = cli.Command{
	Name:  "threshold",
	Usage: "program interrupt thresholds",
	Flags: withBusFlags(
		&cli.UintFlag{Name: "high", Value: 0xFFFF},
		&cli.UintFlag{Name: "low", Value: 0},
	),
	Action: func(c *cli.Context) error {
		s, err := lightSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		err = s.SetHighThreshold(ctx, uint16(c.Uint("high")))
		if err != nil {
			return console.Exit(1, "error setting high threshold: %s", console.Red(err))
		}
		err = s.SetLowThreshold(ctx, uint16(c.Uint("low")))
		if err != nil {
			return console.Exit(1, "error setting low threshold: %s", console.Red(err))
		}
		console.Infof("thresholds set to [%s, %s]", console.White(c.Uint("low")), console.White(c.Uint("high")))
		return nil
	},
}

var lightInterruptCmd = cli.Command{
	Name:  "interrupt",
	Usage: "enable the threshold interrupt and read its status",
	Flags: withBusFlags(
		&cli.BoolFlag{Name: "enable"},
		&cli.BoolFlag{Name: "disable"},
	),
	Action: func(c *cli.Context) error {
		s, err := lightSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		if c.Bool("enable") || c.Bool("disable") {
			err = s.EnableInterrupt(ctx, c.Bool("enable"))
			if err != nil {
				return console.Exit(1, "error toggling interrupt: %s", console.Red(err))
			}
		}
		status, err := s.ReadInterruptStatus(ctx)
		if err != nil {
			return console.Exit(1, "error reading interrupt status: %s", console.Red(err))
		}
		// reading the register clears latched flags
		console.Printf("low crossed: %s high crossed: %s\n",
			console.White(status&environment.VEML7700IntLowCrossed != 0),
			console.White(status&environment.VEML7700IntHighCrossed != 0))
		return nil
	},
}

var lightPowerCmd = cli.Command{
	Name:      "power",
	Usage:     "power the sensor on or off",
	ArgsUsage: "<on|off>",
	Flags:     busFlags,
	Action: func(c *cli.Context) error {
		s, err := lightSensor(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		switch c.Args().First() {
		case "on":
			err = s.PowerOn(ctx)
		case "off":
			err = s.Shutdown(ctx)
		default:
			return console.Exit(1, "expected %s or %s", console.White("on"), console.White("off"))
		}
		if err != nil {
			return console.Exit(1, "error switching power state: %s", console.Red(err))
		}
		console.Infof("power %s", console.White(c.Args().First()))
		return nil
	},
}
