package main

import (
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/instruments/cmd/instruments/console"
	"github.com/mklimuk/instruments/heading"
)

var compassCmd = cli.Command{
	Name: "compass",
	Subcommands: []*cli.Command{
		&compassReadCmd,
		&compassWatchCmd,
		&compassCalibrationCmd,
	},
}

func compass(c *cli.Context) (*heading.CMPS12, error) {
	ctx := commandContext(c)
	bus, err := openBus(ctx, c)
	if err != nil {
		return nil, err
	}
	s := heading.NewCMPS12(bus)
	err = s.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("compass initialization error: %w", err)
	}
	return s, nil
}

func printOrientation(o heading.Orientation) {
	console.PInfof(console.PictoCompass, "bearing %s° (%s) pitch %s° roll %s°",
		console.White(fmt.Sprintf("%.1f", o.Degrees())), console.White(o.Direction()),
		console.White(o.Pitch), console.White(o.Roll))
}

var compassReadCmd = cli.Command{
	Name:    "read",
	Aliases: []string{"rd"},
	Flags:   busFlags,
	Action: func(c *cli.Context) error {
		s, err := compass(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		o, err := s.Read(commandContext(c))
		if err != nil {
			return console.Exit(1, "error reading orientation: %s", console.Red(err))
		}
		printOrientation(o)
		return nil
	},
}

var compassWatchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll orientation continuously",
	Flags: withBusFlags(
		&cli.DurationFlag{Name: "interval", Value: 500 * time.Millisecond},
	),
	Action: func(c *cli.Context) error {
		s, err := compass(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		ctx := commandContext(c)
		ticker := time.NewTicker(c.Duration("interval"))
		defer ticker.Stop()
		for range ticker.C {
			o, err := s.Read(ctx)
			if err != nil {
				console.Errorf("error reading orientation: %s", console.Red(err))
				continue
			}
			printOrientation(o)
		}
		return nil
	},
}

var compassCalibrationCmd = cli.Command{
	Name:    "calibration",
	Aliases: []string{"cal"},
	Subcommands: []*cli.Command{
		&compassCalibrationStatusCmd,
		&compassCalibrationStoreCmd,
		&compassCalibrationEraseCmd,
	},
}

var compassCalibrationStatusCmd = cli.Command{
	Name:  "status",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		s, err := compass(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		state, err := s.ReadCalibrationState(commandContext(c))
		if err != nil {
			return console.Exit(1, "error reading calibration state: %s", console.Red(err))
		}
		console.Infof("calibration %s", console.White(state))
		return nil
	},
}

var compassCalibrationStoreCmd = cli.Command{
	Name:  "store",
	Usage: "store the current calibration profile in sensor flash",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		answer, err := console.YesOrNo("store the current calibration profile?")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if answer != console.Yes {
			console.Info("aborted")
			return nil
		}
		s, err := compass(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		err = s.StoreCalibration(commandContext(c))
		if err != nil {
			return console.Exit(1, "error storing calibration: %s", console.Red(err))
		}
		console.Infof("calibration profile %s", console.Green("stored"))
		return nil
	},
}

var compassCalibrationEraseCmd = cli.Command{
	Name:  "erase",
	Usage: "restore the factory calibration profile",
	Flags: busFlags,
	Action: func(c *cli.Context) error {
		answer, err := console.YesOrNo("erase the stored calibration profile?")
		if err != nil {
			return console.Exit(1, "prompt error: %s", console.Red(err))
		}
		if answer != console.Yes {
			console.Info("aborted")
			return nil
		}
		s, err := compass(c)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		err = s.EraseCalibration(commandContext(c))
		if err != nil {
			return console.Exit(1, "error erasing calibration: %s", console.Red(err))
		}
		console.Infof("calibration profile %s", console.Yellow("erased"))
		return nil
	},
}
