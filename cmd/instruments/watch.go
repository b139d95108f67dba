package main

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/mklimuk/instruments/cmd/instruments/console"
	"github.com/mklimuk/instruments/environment"
	"github.com/mklimuk/instruments/heading"
	"github.com/mklimuk/instruments/pressure"
)

var watchCmd = cli.Command{
	Name:  "watch",
	Usage: "poll the whole sensor head on an interval",
	Flags: withBusFlags(
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "yaml configuration file"},
		&cli.DurationFlag{Name: "interval", Usage: "poll interval, overrides the config file"},
	),
	Action: func(c *cli.Context) error {
		config, err := loadWatchConfig(c.String("config"))
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}
		if c.IsSet("adapter") {
			config.Adapter = c.String("adapter")
		}
		if c.IsSet("device") {
			config.Device = c.String("device")
		}
		if c.IsSet("speed") {
			config.SpeedKHz = c.Int("speed")
		}
		if c.IsSet("interval") {
			config.Interval = duration(c.Duration("interval"))
		}
		mode, ok := pressureModes[config.PressureMode]
		if !ok {
			return console.Exit(1, "unknown measurement mode %s", console.Red(config.PressureMode))
		}

		ctx := commandContext(c)
		bus, err := openNamedBus(ctx, config.Adapter, config.Device, config.SpeedKHz)
		if err != nil {
			return console.Exit(1, "%s", console.Red(err))
		}

		compass := heading.NewCMPS12(bus)
		err = compass.Init(ctx)
		if err != nil {
			return console.Exit(1, "compass initialization error: %s", console.Red(err))
		}
		var thermometer *environment.TMP117
		if config.Temperature {
			thermometer = environment.NewTMP117(bus)
			err = thermometer.Begin(ctx)
			if err != nil {
				return console.Exit(1, "thermometer initialization error: %s", console.Red(err))
			}
		}
		var barometer *pressure.ICP10125
		if config.Pressure {
			barometer = pressure.NewICP10125(bus)
			err = barometer.Init(ctx)
			if err != nil {
				return console.Exit(1, "barometer initialization error: %s", console.Red(err))
			}
		}
		var light *environment.VEML7700
		if config.Light {
			light = environment.NewVEML7700(bus)
			err = light.Init(ctx)
			if err != nil {
				return console.Exit(1, "light sensor initialization error: %s", console.Red(err))
			}
		}

		ticker := time.NewTicker(time.Duration(config.Interval))
		defer ticker.Stop()
		for range ticker.C {
			printSensorHead(ctx, config, compass, thermometer, barometer, light, mode)
		}
		return nil
	},
}

func printSensorHead(ctx context.Context, config watchConfig, compass *heading.CMPS12,
	thermometer *environment.TMP117, barometer *pressure.ICP10125,
	light *environment.VEML7700, mode pressure.ICP10125Mode) {

	var line strings.Builder
	o, err := compass.Read(ctx)
	if err != nil {
		console.Errorf("compass read error: %s", console.Red(err))
		return
	}
	bearing := math.Mod(float64(o.Degrees())+config.BearingOffset, 360)
	if bearing < 0 {
		bearing += 360
	}
	console.Printf("%s %s° %s pitch %s° roll %s°", console.PictoCompass,
		console.White(fmt.Sprintf("%.1f", bearing)), console.White(heading.CardinalDirection(int(bearing))),
		console.White(o.Pitch), console.White(o.Roll))

	if thermometer != nil {
		temp, err := thermometer.GetTemperature(ctx)
		if err != nil {
			console.Errorf("thermometer read error: %s", console.Red(err))
		} else {
			line.WriteString(console.PictoThermometer)
			line.WriteString("  ")
			line.WriteString(console.White(fmt.Sprintf("%.2f", temp)))
			line.WriteString(" °C  ")
		}
	}
	if barometer != nil {
		m, err := barometer.Measure(ctx, mode)
		if err != nil {
			console.Errorf("barometer read error: %s", console.Red(err))
		} else {
			line.WriteString(console.PictoBarometer)
			line.WriteString(" ")
			line.WriteString(console.White(fmt.Sprintf("%.2f", m.Pressure/100.0)))
			line.WriteString(" hPa  ")
		}
	}
	if light != nil {
		lux, err := light.ReadLux(ctx)
		if err != nil {
			console.Errorf("light read error: %s", console.Red(err))
		} else {
			line.WriteString(console.PictoLight)
			line.WriteString(" ")
			line.WriteString(console.White(fmt.Sprintf("%.1f", lux)))
			line.WriteString(" lux")
		}
	}
	if line.Len() > 0 {
		console.Printf("   %s\n", line.String())
	} else {
		console.Printf("\n")
	}
}
