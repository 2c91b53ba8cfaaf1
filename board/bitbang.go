// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package board

import (
	"sync"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/ads129x/spibus"
	"go.uber.org/multierr"
)

// BitBang is an SPI master bit bashed on GPIO lines, in SPI mode 1.
//
// This is an alternative to a spidev Port on boards where the ADCs are not
// wired to an SPI controller. It is not related to the SPI device drivers
// provided by Linux. Chip selects are driven separately, as for a Port.
type BitBang struct {
	// time between clock edges, i.e. half the cycle time
	tclk time.Duration
	sclk *gpiocdev.Line
	mosi *gpiocdev.Line
	miso *gpiocdev.Line

	jobs chan bitBangJob
	done chan struct{}

	mu     sync.Mutex
	closed bool

	hmu sync.Mutex
	h   spibus.EventHandler
}

type bitBangJob struct {
	tx   []byte
	rx   []byte
	stop bool
}

// BitBangOption specifies a construction option for a BitBang.
type BitBangOption func(*BitBang)

// WithTclk sets the half cycle period of the clock.
func WithTclk(tclk time.Duration) BitBangOption {
	return func(s *BitBang) {
		s.tclk = tclk
	}
}

// NewBitBang requests the SPI lines from the chip.
func NewBitBang(c *gpiocdev.Chip, sclk, mosi, miso int, options ...BitBangOption) (s *BitBang, err error) {
	s = &BitBang{
		// default to 1MHz full cycle.
		tclk: 500 * time.Nanosecond,
		jobs: make(chan bitBangJob, 4),
		done: make(chan struct{}),
	}
	for _, option := range options {
		option(s)
	}
	defer func() {
		if err != nil {
			s.release()
			s = nil
		}
	}()
	if s.sclk, err = c.RequestLine(sclk, gpiocdev.AsOutput(0)); err != nil {
		return
	}
	if s.mosi, err = c.RequestLine(mosi, gpiocdev.AsOutput(0)); err != nil {
		return
	}
	if s.miso, err = c.RequestLine(miso, gpiocdev.AsInput); err != nil {
		return
	}
	go s.serve()
	return
}

// Start queues a phase.
func (s *BitBang) Start(tx, rx []byte) error {
	return s.queue(bitBangJob{tx: tx, rx: rx})
}

// Stop queues a stop.
func (s *BitBang) Stop() error {
	return s.queue(bitBangJob{stop: true})
}

// Handle installs the event handler.
func (s *BitBang) Handle(h spibus.EventHandler) {
	s.hmu.Lock()
	s.h = h
	s.hmu.Unlock()
}

// Close stops the worker and releases the lines.
func (s *BitBang) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.jobs)
	s.mu.Unlock()
	<-s.done
	return s.release()
}

func (s *BitBang) release() error {
	var err error
	for _, l := range []*gpiocdev.Line{s.sclk, s.mosi, s.miso} {
		if l != nil {
			err = multierr.Append(err, l.Close())
		}
	}
	return err
}

func (s *BitBang) queue(j bitBangJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return spibus.ErrNotInitialized
	}
	s.jobs <- j
	return nil
}

func (s *BitBang) serve() {
	defer close(s.done)
	for j := range s.jobs {
		evt := spibus.Event{Type: spibus.EventEnd}
		if j.stop {
			evt.Type = spibus.EventStopped
		} else {
			evt.Err = s.transfer(j.tx, j.rx)
		}
		s.hmu.Lock()
		h := s.h
		s.hmu.Unlock()
		if h != nil {
			h(evt)
		}
	}
}

func (s *BitBang) transfer(tx, rx []byte) error {
	for _, b := range tx {
		if _, err := s.exchange(b); err != nil {
			return err
		}
	}
	for i := range rx {
		v, err := s.exchange(0x00)
		if err != nil {
			return err
		}
		rx[i] = v
	}
	return nil
}

// exchange clocks a byte out on MOSI and in from MISO, MSB first.
//
// Starts and ends with the clock idle low.
func (s *BitBang) exchange(out byte) (byte, error) {
	var in byte
	for i := 7; i >= 0; i-- {
		v, err := s.clockBit(int(out>>uint(i)) & 1)
		if err != nil {
			return 0, err
		}
		in = in<<1 | byte(v)
	}
	return in, nil
}

// clockBit shifts out a bit on the rising edge of the clock and samples
// MISO on the falling edge.
func (s *BitBang) clockBit(v int) (int, error) {
	if err := s.sclk.SetValue(1); err != nil {
		return 0, err
	}
	if err := s.mosi.SetValue(v); err != nil {
		return 0, err
	}
	time.Sleep(s.tclk)
	if err := s.sclk.SetValue(0); err != nil {
		return 0, err
	}
	in, err := s.miso.Value()
	if err != nil {
		return 0, err
	}
	time.Sleep(s.tclk)
	return in, nil
}
