// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package board drives the control lines of a pair of ADS1298s from GPIO
// lines.
//
// The chip selects, START, RESET, PWDN and the analog supply enable are
// outputs, and the shared DRDY is an input monitored for falling edges.
package board

import (
	"sync"
	"sync/atomic"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/ads129x/spibus"
	"go.uber.org/multierr"
)

// NotConnected indicates an optional line is not connected.
const NotConnected = -1

// Pins contains the offsets of the lines on the GPIO chip.
type Pins struct {
	// CS are the active low chip selects of the ADCs.
	CS []int

	// Start is the active high START line.
	Start int

	// DRDY is the active low data ready line shared by the ADCs.
	DRDY int

	// Reset is the active low RESET line, or NotConnected.
	Reset int

	// PWDN is the active low power down line, or NotConnected.
	PWDN int

	// Power is the active high analog supply enable, or NotConnected.
	Power int
}

// Board provides the control lines of the ADCs.
type Board struct {
	cs    []*ChipSelect
	start *gpiocdev.Line
	drdy  *gpiocdev.Line
	reset *gpiocdev.Line
	pwdn  *gpiocdev.Line
	power *gpiocdev.Line

	enabled atomic.Bool
	mu      sync.Mutex
	handler func()
	events  atomic.Uint64
}

// New requests the lines from the chip.
//
// The ADCs are left held in power down and reset, with the analog supply
// off and all chip selects released.
func New(c *gpiocdev.Chip, pins Pins) (b *Board, err error) {
	b = &Board{}
	defer func() {
		if err != nil {
			b.Close()
			b = nil
		}
	}()
	for _, offset := range pins.CS {
		var l *gpiocdev.Line
		l, err = c.RequestLine(offset, gpiocdev.AsActiveLow, gpiocdev.AsOutput(0))
		if err != nil {
			return
		}
		b.cs = append(b.cs, &ChipSelect{l: l})
	}
	if b.start, err = c.RequestLine(pins.Start, gpiocdev.AsOutput(0)); err != nil {
		return
	}
	if b.reset, err = requestOptional(c, pins.Reset, gpiocdev.AsActiveLow, gpiocdev.AsOutput(1)); err != nil {
		return
	}
	if b.pwdn, err = requestOptional(c, pins.PWDN, gpiocdev.AsActiveLow, gpiocdev.AsOutput(1)); err != nil {
		return
	}
	if b.power, err = requestOptional(c, pins.Power, gpiocdev.AsOutput(0)); err != nil {
		return
	}
	b.drdy, err = c.RequestLine(pins.DRDY,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(b.edge))
	return
}

func requestOptional(c *gpiocdev.Chip, offset int, options ...gpiocdev.LineReqOption) (*gpiocdev.Line, error) {
	if offset == NotConnected {
		return nil, nil
	}
	return c.RequestLine(offset, options...)
}

// Close releases the lines.
func (b *Board) Close() error {
	b.enabled.Store(false)
	var err error
	for _, cs := range b.cs {
		err = multierr.Append(err, cs.l.Close())
	}
	for _, l := range []*gpiocdev.Line{b.drdy, b.start, b.reset, b.pwdn, b.power} {
		if l != nil {
			err = multierr.Append(err, l.Close())
		}
	}
	return err
}

// ChipSelect returns the chip select of the nth ADC.
func (b *Board) ChipSelect(n int) spibus.ChipSelect {
	if n < 0 || n >= len(b.cs) {
		return nil
	}
	return b.cs[n]
}

// PowerUp releases power down and reset and enables the analog supply.
func (b *Board) PowerUp() error {
	return multierr.Combine(
		setOptional(b.pwdn, 0),
		setOptional(b.reset, 0),
		setOptional(b.power, 1),
	)
}

// PowerDown disables the analog supply and places the ADCs in power down.
func (b *Board) PowerDown() error {
	return multierr.Combine(
		b.start.SetValue(0),
		setOptional(b.power, 0),
		setOptional(b.pwdn, 1),
	)
}

func setOptional(l *gpiocdev.Line, v int) error {
	if l == nil {
		return nil
	}
	return l.SetValue(v)
}

// SetStart sets the START line.
func (b *Board) SetStart(start bool) error {
	v := 0
	if start {
		v = 1
	}
	return b.start.SetValue(v)
}

// EnableDataReady calls the handler on each falling edge of DRDY.
func (b *Board) EnableDataReady(handler func()) error {
	b.mu.Lock()
	b.handler = handler
	b.mu.Unlock()
	b.enabled.Store(handler != nil)
	return nil
}

// DisableDataReady stops calls to the data ready handler.
//
// Edges continue to be detected, and counted, but are ignored.
func (b *Board) DisableDataReady() error {
	b.enabled.Store(false)
	return nil
}

// Edges returns the number of DRDY edges detected.
func (b *Board) Edges() uint64 {
	return b.events.Load()
}

func (b *Board) edge(evt gpiocdev.LineEvent) {
	b.events.Add(1)
	if !b.enabled.Load() {
		return
	}
	b.mu.Lock()
	h := b.handler
	b.mu.Unlock()
	if h != nil {
		h()
	}
}

// ChipSelect is an active low chip select line.
type ChipSelect struct {
	l *gpiocdev.Line
}

// Assert selects the ADC.
func (cs *ChipSelect) Assert() error {
	return cs.l.SetValue(1)
}

// Deassert deselects the ADC.
func (cs *ChipSelect) Deassert() error {
	return cs.l.SetValue(0)
}
