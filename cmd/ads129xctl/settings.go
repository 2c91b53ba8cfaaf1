// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/warthog618/ads129x/board"
	"github.com/warthog618/config"
	"github.com/warthog618/config/blob"
	"github.com/warthog618/config/blob/decoder/json"
	"github.com/warthog618/config/dict"
	"github.com/warthog618/config/env"
	"github.com/warthog618/go-gpiocdev/device/rpi"
)

// The default wiring is for a Raspberry Pi, with the ADCs on SPI0 and the
// chip selects driven as GPIOs.
var defaultConfig = map[string]interface{}{
	"gpiochip": "gpiochip0",
	"port":     "/dev/spidev0.0",
	"clock":    4000000,
	"priority": 0,
	"timeout":  "200ms",
	"powerup":  "1s",
	"log":      "info",
	"sim":      false,
	"rate":     "2ms",
	"cs0":      "J8p24",
	"cs1":      "J8p26",
	"start":    "J8p11",
	"drdy":     "J8p13",
	"reset":    "J8p15",
	"pwdn":     "J8p16",
	"power":    "J8p18",
	"sclk":     "J8p23",
	"mosi":     "J8p19",
	"miso":     "J8p21",
}

// loadConfig layers the changed command line flags over the environment,
// an optional config file and the defaults.
func loadConfig(cmd *cobra.Command) *config.Config {
	def := dict.New(dict.WithMap(defaultConfig))
	cfg := config.New(
		flagGetter(cmd.Flags()),
		env.New(env.WithEnvPrefix("ADS129X_")),
		config.WithDefault(def))
	cfg.Append(
		blob.NewConfigFile(cfg, "config.file", "ads129x.json", json.NewDecoder()))
	return cfg.GetConfig("", config.WithMust())
}

// flagGetter provides the flags explicitly set on the command line.
//
// Unset flags are left to the lower layers.
func flagGetter(fs *pflag.FlagSet) *dict.Getter {
	m := map[string]interface{}{}
	fs.Visit(func(f *pflag.Flag) {
		if f.Name == "config-file" {
			m["config"] = map[string]interface{}{"file": f.Value.String()}
			return
		}
		m[f.Name] = f.Value.String()
	})
	return dict.New(dict.WithMap(m))
}

func newLogger(cfg *config.Config) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.MustGet("log").String())
	if err != nil {
		return zerolog.Nop(), err
	}
	w := zerolog.ConsoleWriter{Out: os.Stderr}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger(), nil
}

// pin returns the offset of the named pin, which may be a J8 pin name, a
// GPIO name or an offset.
//
// An empty name or "nc" indicates the pin is not connected.
func pin(cfg *config.Config, key string) (int, error) {
	name := strings.TrimSpace(cfg.MustGet(key).String())
	if name == "" || strings.EqualFold(name, "nc") {
		return board.NotConnected, nil
	}
	offset, err := rpi.Pin(name)
	if err != nil {
		return 0, errPin{key, name}
	}
	return offset, nil
}

func pins(cfg *config.Config) (p board.Pins, err error) {
	for _, key := range []string{"cs0", "cs1"} {
		var cs int
		if cs, err = pin(cfg, key); err != nil {
			return
		}
		p.CS = append(p.CS, cs)
	}
	for _, l := range []struct {
		key    string
		offset *int
	}{
		{"start", &p.Start},
		{"drdy", &p.DRDY},
		{"reset", &p.Reset},
		{"pwdn", &p.PWDN},
		{"power", &p.Power},
	} {
		if *l.offset, err = pin(cfg, l.key); err != nil {
			return
		}
	}
	return
}

type errPin struct {
	key  string
	name string
}

func (e errPin) Error() string {
	return "invalid " + e.key + " pin: " + e.name
}
