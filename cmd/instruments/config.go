package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type duration time.Duration

func (d *duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	err := value.Decode(&raw)
	if err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = duration(parsed)
	return nil
}

// watchConfig drives the watch command sensor head loop.
type watchConfig struct {
	Interval duration `yaml:"interval"`
	// BearingOffset in degrees is added to every compass reading to
	// compensate for the sensor mounting angle.
	BearingOffset float64 `yaml:"bearing_offset"`
	Adapter       string  `yaml:"adapter"`
	Device        string  `yaml:"device"`
	SpeedKHz      int     `yaml:"speed_khz"`
	Light         bool    `yaml:"light"`
	Temperature   bool    `yaml:"temperature"`
	Pressure      bool    `yaml:"pressure"`
	PressureMode  string  `yaml:"pressure_mode"`
}

func defaultWatchConfig() watchConfig {
	return watchConfig{
		Interval:     duration(time.Second),
		Adapter:      "mcp2221",
		Temperature:  true,
		Pressure:     true,
		PressureMode: "normal",
	}
}

func loadWatchConfig(path string) (watchConfig, error) {
	config := defaultWatchConfig()
	if path == "" {
		return config, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return config, fmt.Errorf("could not open config file: %w", err)
	}
	defer func() { _ = file.Close() }()
	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)
	err = dec.Decode(&config)
	if err != nil {
		return config, fmt.Errorf("could not parse config file %s: %w", path, err)
	}
	return config, nil
}
