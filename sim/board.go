// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sim

import (
	"sync"
	"time"

	"github.com/warthog618/ads129x/spibus"
)

// ChipSelect is the simulated chip select line of a Chip.
type ChipSelect struct {
	c *Chip

	mu        sync.Mutex
	asserts   int
	deasserts int
	fail      error
}

// Assert selects the chip.
func (cs *ChipSelect) Assert() error {
	cs.mu.Lock()
	if err := cs.fail; err != nil {
		cs.fail = nil
		cs.mu.Unlock()
		return err
	}
	cs.asserts++
	cs.mu.Unlock()
	cs.c.sel(true)
	return nil
}

// Deassert deselects the chip.
func (cs *ChipSelect) Deassert() error {
	cs.c.sel(false)
	cs.mu.Lock()
	cs.deasserts++
	cs.mu.Unlock()
	return nil
}

// FailNext causes the next Assert to fail with err.
func (cs *ChipSelect) FailNext(err error) {
	cs.mu.Lock()
	cs.fail = err
	cs.mu.Unlock()
}

// Counts returns the number of times the line has been asserted and
// deasserted.
func (cs *ChipSelect) Counts() (asserts, deasserts int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cs.asserts, cs.deasserts
}

// Board simulates the control lines shared by the chips, the START and
// data ready lines and the power supply.
type Board struct {
	chips []*Chip
	rate  time.Duration

	mu       sync.Mutex
	powered  bool
	start    bool
	handler  func()
	enabled  bool
	ticker   *time.Ticker
	quit     chan struct{}
	powerUps int
}

// BoardOption specifies a construction option for a Board.
type BoardOption func(*Board)

// WithRate generates a conversion at the given interval while the START
// line is asserted.
func WithRate(d time.Duration) BoardOption {
	return func(b *Board) {
		b.rate = d
	}
}

// NewBoard creates a board carrying the chips.
func NewBoard(chips []*Chip, options ...BoardOption) *Board {
	b := Board{chips: chips}
	for _, option := range options {
		option(&b)
	}
	return &b
}

// ChipSelect returns the chip select of the nth chip, or nil if there is no
// such chip.
func (b *Board) ChipSelect(n int) spibus.ChipSelect {
	if n < 0 || n >= len(b.chips) {
		return nil
	}
	return b.chips[n].ChipSelect()
}

// PowerUp applies power to the chips.
func (b *Board) PowerUp() error {
	b.mu.Lock()
	b.powered = true
	b.powerUps++
	b.mu.Unlock()
	return nil
}

// PowerDown removes power from the chips.
func (b *Board) PowerDown() error {
	b.mu.Lock()
	b.powered = false
	b.mu.Unlock()
	return nil
}

// SetStart sets the level of the START line.
func (b *Board) SetStart(start bool) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if start == b.start {
		return nil
	}
	b.start = start
	if b.rate <= 0 {
		return nil
	}
	if start {
		b.ticker = time.NewTicker(b.rate)
		b.quit = make(chan struct{})
		go b.tick(b.ticker, b.quit)
	} else {
		b.ticker.Stop()
		close(b.quit)
	}
	return nil
}

// EnableDataReady installs the data ready handler and enables the
// interrupt.
func (b *Board) EnableDataReady(h func()) error {
	b.mu.Lock()
	b.handler = h
	b.enabled = true
	b.mu.Unlock()
	return nil
}

// DisableDataReady disables the data ready interrupt.
func (b *Board) DisableDataReady() error {
	b.mu.Lock()
	b.enabled = false
	b.mu.Unlock()
	return nil
}

// DataReady performs a conversion on all chips and signals data ready.
//
// Returns true if the interrupt was enabled and the handler called.
func (b *Board) DataReady() bool {
	for _, c := range b.chips {
		c.Convert()
	}
	b.mu.Lock()
	h := b.handler
	enabled := b.enabled
	b.mu.Unlock()
	if h != nil && enabled {
		h()
		return true
	}
	return false
}

// Powered returns true if power is applied.
func (b *Board) Powered() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.powered
}

// PowerUps returns the number of times power has been applied.
func (b *Board) PowerUps() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.powerUps
}

// Started returns the level of the START line.
func (b *Board) Started() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.start
}

// DataReadyEnabled returns true if the data ready interrupt is enabled.
func (b *Board) DataReadyEnabled() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.enabled
}

func (b *Board) tick(t *time.Ticker, quit <-chan struct{}) {
	for {
		select {
		case <-t.C:
			b.DataReady()
		case <-quit:
			return
		}
	}
}
