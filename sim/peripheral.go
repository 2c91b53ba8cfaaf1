// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sim

import (
	"sync"

	"github.com/warthog618/ads129x/spibus"
)

// Peripheral is a simulated SPI master connected to a set of chips.
//
// Phases are clocked by a worker goroutine that raises the corresponding
// events, as a DMA driven peripheral would from its interrupt handler.
type Peripheral struct {
	chips []*Chip
	jobs  chan func()
	done  chan struct{}

	mu     sync.Mutex
	h      spibus.EventHandler
	closed bool
	stall  bool
	phases int
}

// NewPeripheral creates a peripheral with the chips sharing its lines.
func NewPeripheral(chips ...*Chip) *Peripheral {
	p := Peripheral{
		chips: chips,
		jobs:  make(chan func(), 4),
		done:  make(chan struct{}),
	}
	go p.serve()
	return &p
}

// Start queues a phase.
func (p *Peripheral) Start(tx, rx []byte) error {
	return p.queue(func() {
		if len(rx) > 0 {
			for i := range rx {
				rx[i] = p.exchange(0x00)
			}
		} else {
			for _, b := range tx {
				p.exchange(b)
			}
		}
		p.raise(spibus.Event{Type: spibus.EventEnd})
	})
}

// Stop queues a stop.
func (p *Peripheral) Stop() error {
	return p.queue(func() {
		p.raise(spibus.Event{Type: spibus.EventStopped})
	})
}

// Handle installs the event handler.
func (p *Peripheral) Handle(h spibus.EventHandler) {
	p.mu.Lock()
	p.h = h
	p.mu.Unlock()
}

// Close stops the worker.
func (p *Peripheral) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	<-p.done
	return nil
}

// SetStall suppresses all events while set, as if the peripheral had hung.
func (p *Peripheral) SetStall(stall bool) {
	p.mu.Lock()
	p.stall = stall
	p.mu.Unlock()
}

// Phases returns the number of phases performed.
func (p *Peripheral) Phases() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.phases
}

func (p *Peripheral) queue(j func()) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return spibus.ErrNotInitialized
	}
	p.jobs <- j
	return nil
}

func (p *Peripheral) serve() {
	defer close(p.done)
	for j := range p.jobs {
		j()
	}
}

func (p *Peripheral) raise(evt spibus.Event) {
	p.mu.Lock()
	if evt.Type == spibus.EventEnd {
		p.phases++
	}
	h := p.h
	stall := p.stall
	p.mu.Unlock()
	if h != nil && !stall {
		h(evt)
	}
}

// exchange clocks a byte to all chips, returning the byte driven by any
// selected chip.
func (p *Peripheral) exchange(mosi byte) byte {
	var miso byte
	for _, c := range p.chips {
		if v, ok := c.exchange(mosi); ok {
			miso |= v
		}
	}
	return miso
}
