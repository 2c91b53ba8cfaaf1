// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/warthog618/ads129x"
	"github.com/warthog618/ads129x/board"
	"github.com/warthog618/ads129x/sim"
	"github.com/warthog618/ads129x/spibus"
	"github.com/warthog618/config"
	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/multierr"
	"periph.io/x/conn/v3/physic"
)

// frameBuffer is the number of frames buffered between the controller and
// the output.
const frameBuffer = 64

// session is an initialised controller and the resources it depends on.
type session struct {
	c       *ads129x.Controller
	frames  chan ads129x.Frame
	timeout time.Duration
	log     zerolog.Logger

	// closers release the resources behind the controller, in reverse
	// order of acquisition.
	closers []func() error
}

func openSession(cmd *cobra.Command) (s *session, err error) {
	cfg := loadConfig(cmd)
	log, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	s = &session{
		frames:  make(chan ads129x.Frame, frameBuffer),
		timeout: cfg.MustGet("timeout").Duration(),
		log:     log,
	}
	defer func() {
		if err != nil {
			s.release()
			s = nil
		}
	}()
	var bus *spibus.Bus
	var brd ads129x.Board
	if cfg.MustGet("sim").Bool() {
		bus, brd, err = s.openSim(cfg)
	} else {
		bus, brd, err = s.openHardware(cfg)
	}
	if err != nil {
		return
	}
	s.c, err = ads129x.New(bus, brd, s.handle,
		ads129x.WithLogger(log),
		ads129x.WithAccessTimeout(s.timeout),
		ads129x.WithPowerUpDelay(cfg.MustGet("powerup").Duration()),
		ads129x.WithPriority(cfg.MustGet("priority").Int()))
	if err != nil {
		return
	}
	if err = s.c.WaitReady(5 * time.Second); err != nil {
		s.c.Close()
		s.c = nil
	}
	return
}

func (s *session) openSim(cfg *config.Config) (*spibus.Bus, ads129x.Board, error) {
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	bus, err := spibus.New(sim.NewPeripheral(chips...))
	if err != nil {
		return nil, nil, err
	}
	s.closers = append(s.closers, bus.Close)
	b := sim.NewBoard(chips, sim.WithRate(cfg.MustGet("rate").Duration()))
	return bus, b, nil
}

func (s *session) openHardware(cfg *config.Config) (*spibus.Bus, ads129x.Board, error) {
	p, err := pins(cfg)
	if err != nil {
		return nil, nil, err
	}
	chip, err := gpiocdev.NewChip(cfg.MustGet("gpiochip").String(),
		gpiocdev.WithConsumer("ads129xctl"))
	if err != nil {
		return nil, nil, err
	}
	s.closers = append(s.closers, chip.Close)
	b, err := board.New(chip, p)
	if err != nil {
		return nil, nil, errors.Wrap(err, "request control lines")
	}
	s.closers = append(s.closers, b.Close)

	var per spibus.Peripheral
	port := cfg.MustGet("port").String()
	if port == "gpio" {
		var sclk, mosi, miso int
		for _, l := range []struct {
			key    string
			offset *int
		}{{"sclk", &sclk}, {"mosi", &mosi}, {"miso", &miso}} {
			if *l.offset, err = pin(cfg, l.key); err != nil {
				return nil, nil, err
			}
		}
		bb, err := board.NewBitBang(chip, sclk, mosi, miso)
		if err != nil {
			return nil, nil, errors.Wrap(err, "request spi lines")
		}
		per = bb
	} else {
		pp, err := spibus.OpenPort(port,
			spibus.WithClock(physic.Frequency(cfg.MustGet("clock").Int())*physic.Hertz),
			spibus.WithPriority(cfg.MustGet("priority").Int()))
		if err != nil {
			return nil, nil, err
		}
		per = pp
	}
	var host spibus.Host
	id, err := host.Init(per)
	if err != nil {
		per.Close()
		return nil, nil, err
	}
	s.closers = append(s.closers, func() error { return host.Deinit(id) })
	bus, err := host.Bus(id)
	if err != nil {
		return nil, nil, err
	}
	return bus, b, nil
}

// handle passes frames to the output, dropping them if it falls behind.
func (s *session) handle(f ads129x.Frame) {
	select {
	case s.frames <- f:
	default:
		s.log.Warn().Uint64("seqno", f.Seqno).Msg("output overrun")
	}
}

func (s *session) release() error {
	var err error
	for i := len(s.closers) - 1; i >= 0; i-- {
		err = multierr.Append(err, s.closers[i]())
	}
	s.closers = nil
	return err
}

// Close closes the controller and releases its resources.
func (s *session) Close() error {
	var err error
	if s.c != nil {
		err = s.c.Close()
	}
	return multierr.Append(err, s.release())
}
