// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/warthog618/ads129x/board"
	"github.com/warthog618/config"
	"github.com/warthog618/config/dict"
)

func TestParseRegWrite(t *testing.T) {
	patterns := []struct {
		name string
		arg  string
		w    regWrite
		err  bool
	}{
		{"hex", "0:0x04=0x48", regWrite{0, 0x04, 0x48}, false},
		{"decimal", "1:5=16", regWrite{1, 5, 16}, false},
		{"adc range", "2:0x04=0x48", regWrite{}, true},
		{"value range", "0:0x04=0x148", regWrite{}, true},
		{"missing value", "0:0x04", regWrite{}, true},
		{"garbage", "foo", regWrite{}, true},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			w, err := parseRegWrite(p.arg)
			if p.err {
				assert.NotNil(t, err)
				return
			}
			assert.Nil(t, err)
			assert.Equal(t, p.w, w)
		}
		t.Run(p.name, tf)
	}
}

func TestPins(t *testing.T) {
	m := map[string]interface{}{}
	for k, v := range defaultConfig {
		m[k] = v
	}
	m["reset"] = "nc"
	m["pwdn"] = ""
	m["power"] = "GPIO5"
	cfg := config.New(dict.New(dict.WithMap(m)))
	p, err := pins(cfg)
	assert.Nil(t, err)
	assert.Equal(t, board.Pins{
		CS:    []int{8, 7},
		Start: 17,
		DRDY:  27,
		Reset: board.NotConnected,
		PWDN:  board.NotConnected,
		Power: 5,
	}, p)

	m["drdy"] = "J8p99"
	cfg = config.New(dict.New(dict.WithMap(m)))
	_, err = pins(cfg)
	assert.Equal(t, errPin{"drdy", "J8p99"}, err)
}
