// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spibus

import (
	"runtime"
	"sync"

	"github.com/pkg/errors"
	"github.com/warthog618/ads129x/internal/rt"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// DefaultClock is the default SPI clock rate for a Port.
const DefaultClock = physic.MegaHertz

// Port is a Peripheral backed by a periph.io SPI port, typically a Linux
// spidev device.
//
// Each phase is performed as a single transfer by a worker goroutine, which
// then raises the corresponding event. The chip select of the port is not
// driven by the kernel, so devices must provide their own ChipSelect.
type Port struct {
	pc       spi.PortCloser
	conn     spi.Conn
	clock    physic.Frequency
	mode     spi.Mode
	priority int

	jobs chan portJob
	wg   sync.WaitGroup

	// orc is clocked out while reading.
	orc []byte

	// discard receives the bytes clocked in while writing.
	discard []byte

	mu     sync.Mutex
	closed bool

	hmu sync.Mutex
	h   EventHandler
}

type portJob struct {
	tx   []byte
	rx   []byte
	stop bool
}

// PortOption specifies a construction option for a Port.
type PortOption func(*Port)

// WithClock sets the SPI clock rate.
func WithClock(f physic.Frequency) PortOption {
	return func(p *Port) {
		p.clock = f
	}
}

// WithMode sets the SPI mode.
//
// The default is mode 1, MSB first, with no kernel driven chip select.
func WithMode(m spi.Mode) PortOption {
	return func(p *Port) {
		p.mode = m
	}
}

// WithPriority runs the worker goroutine on a SCHED_FIFO thread at the
// given priority.
func WithPriority(priority int) PortOption {
	return func(p *Port) {
		p.priority = priority
	}
}

// OpenPort opens the named SPI port, e.g. "/dev/spidev0.0" or "SPI0.0".
func OpenPort(name string, options ...PortOption) (*Port, error) {
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "periph host init")
	}
	p := Port{
		clock: DefaultClock,
		mode:  spi.Mode1 | spi.NoCS,
		jobs:  make(chan portJob, 4),
	}
	for _, option := range options {
		option(&p)
	}
	pc, err := spireg.Open(name)
	if err != nil {
		return nil, errors.Wrapf(err, "open spi port %s", name)
	}
	conn, err := pc.Connect(p.clock, p.mode, 8)
	if err != nil {
		pc.Close()
		return nil, errors.Wrapf(err, "connect spi port %s", name)
	}
	p.pc = pc
	p.conn = conn
	started := make(chan error, 1)
	p.wg.Add(1)
	go p.serve(started)
	if err = <-started; err != nil {
		p.Close()
		return nil, errors.Wrap(err, "set worker priority")
	}
	return &p, nil
}

// Start queues a phase for the worker.
func (p *Port) Start(tx, rx []byte) error {
	return p.queue(portJob{tx: tx, rx: rx})
}

// Stop queues a stop for the worker.
func (p *Port) Stop() error {
	return p.queue(portJob{stop: true})
}

// Handle installs the event handler.
func (p *Port) Handle(h EventHandler) {
	p.hmu.Lock()
	p.h = h
	p.hmu.Unlock()
}

// Close stops the worker and closes the port.
func (p *Port) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()
	p.wg.Wait()
	return p.pc.Close()
}

func (p *Port) queue(j portJob) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrNotInitialized
	}
	p.jobs <- j
	return nil
}

func (p *Port) serve(started chan<- error) {
	defer p.wg.Done()
	var err error
	if p.priority > 0 {
		runtime.LockOSThread()
		err = rt.SetFIFO(p.priority)
	}
	started <- err
	for j := range p.jobs {
		evt := Event{Type: EventEnd}
		if j.stop {
			evt.Type = EventStopped
		} else {
			evt.Err = p.transfer(j.tx, j.rx)
		}
		p.hmu.Lock()
		h := p.h
		p.hmu.Unlock()
		if h != nil {
			h(evt)
		}
	}
}

func (p *Port) transfer(tx, rx []byte) error {
	if len(rx) > 0 {
		if len(p.orc) < len(rx) {
			p.orc = make([]byte, len(rx))
		}
		return p.conn.Tx(p.orc[:len(rx)], rx)
	}
	if len(p.discard) < len(tx) {
		p.discard = make([]byte, len(tx))
	}
	return p.conn.Tx(tx, p.discard[:len(tx)])
}
