// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package spibus provides a phase driven SPI master transaction engine.
//
// A Bus serialises transactions from any number of goroutines onto a single
// Peripheral. Each transaction is split into up to three phases, a command
// header, an additional write, and a read, which the Peripheral performs
// asynchronously, reporting the end of each phase from its own goroutine.
// The caller of Execute sleeps until the bus has been stopped and the chip
// select released.
package spibus

import (
	"errors"
	"sync"
	"time"

	"go.uber.org/multierr"
)

var (
	// ErrNotInitialized indicates the bus has not been initialized or has
	// been closed.
	ErrNotInitialized = errors.New("not initialized")

	// ErrTimeout indicates the bus could not be acquired, or the
	// transaction did not complete, within the allowed time.
	ErrTimeout = errors.New("timeout")

	// ErrNoSpace indicates there is no free slot for a bus or device.
	ErrNoSpace = errors.New("no space")

	// ErrInvalidParameter indicates a malformed request.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Phase is the state of the transaction engine.
type Phase int

const (
	// PhaseIdle indicates no transaction is in progress.
	PhaseIdle Phase = iota

	// PhaseCmd indicates the header is being written.
	PhaseCmd

	// PhaseTxd indicates the payload is being written.
	PhaseTxd

	// PhaseRxd indicates data is being read.
	PhaseRxd

	// PhaseStopping indicates the bus is being stopped.
	PhaseStopping
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCmd:
		return "cmd"
	case PhaseTxd:
		return "txd"
	case PhaseRxd:
		return "rxd"
	case PhaseStopping:
		return "stopping"
	}
	return "unknown"
}

// Transaction describes a single exchange with one device.
//
// The buffers are owned by the caller and must not be modified until
// Execute returns.
type Transaction struct {
	// Header holds the command and address bytes, written first.
	Header []byte

	// Write holds any payload written after the header.
	Write []byte

	// Read receives the bytes clocked in after all writes.
	Read []byte

	// CS is the chip select of the device, or nil if unused.
	CS ChipSelect

	// Delay holds the bus idle after the transaction completes.
	Delay time.Duration
}

// Bus is the transaction engine for one SPI peripheral.
type Bus struct {
	p           Peripheral
	xferTimeout time.Duration
	maxDevices  int

	// busy is the bus mutex, taken with a timeout.
	busy chan struct{}

	// done signals completion of the transaction to the caller.
	done chan error

	// quit is closed when the bus is closed.
	quit chan struct{}

	// mu guards the fields below, which are shared with the event handler.
	mu      sync.Mutex
	phase   Phase
	tx      *Transaction
	err     error
	devices []ChipSelect
	closed  bool

	// failed is set once the peripheral has hung.
	failed bool
}

// New creates a Bus driving the peripheral.
//
// The Bus takes ownership of the peripheral and closes it when the Bus is
// closed.
func New(p Peripheral, options ...Option) (*Bus, error) {
	if p == nil {
		return nil, ErrInvalidParameter
	}
	b := Bus{
		p:           p,
		xferTimeout: DefaultTransferTimeout,
		maxDevices:  DefaultMaxDevices,
		busy:        make(chan struct{}, 1),
		done:        make(chan error, 1),
		quit:        make(chan struct{}),
	}
	for _, option := range options {
		option(&b)
	}
	p.Handle(b.handleEvent)
	return &b, nil
}

// Close stops the bus and closes the peripheral.
//
// Close waits for any transaction in progress to complete.
// Subsequent calls to Execute return ErrNotInitialized.
func (b *Bus) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	b.devices = nil
	close(b.quit)
	b.mu.Unlock()
	// hold the bus for good
	b.busy <- struct{}{}
	b.p.Handle(nil)
	return b.p.Close()
}

// Attach reserves a device slot for the chip select.
func (b *Bus) Attach(cs ChipSelect) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return ErrNotInitialized
	}
	for _, d := range b.devices {
		if d == cs {
			return ErrInvalidParameter
		}
	}
	if len(b.devices) >= b.maxDevices {
		return ErrNoSpace
	}
	b.devices = append(b.devices, cs)
	return nil
}

// Detach releases the device slot held by the chip select.
func (b *Bus) Detach(cs ChipSelect) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, d := range b.devices {
		if d == cs {
			b.devices = append(b.devices[:i], b.devices[i+1:]...)
			return
		}
	}
}

// Phase returns the current phase of the engine.
func (b *Bus) Phase() Phase {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.phase
}

// Execute performs the transaction.
//
// The timeout limits the wait to acquire the bus. Once acquired the
// transaction itself is limited by the transfer timeout of the bus, after
// which the bus is stopped and ErrTimeout returned. The bus is held until
// the peripheral confirms the stop, for up to another transfer timeout,
// and if it never does the bus is failed and subsequent calls return
// ErrNotInitialized.
// Execute blocks until the bus has stopped and the chip select has been
// deasserted, so it must not be called from an EventHandler.
func (b *Bus) Execute(tx *Transaction, timeout time.Duration) error {
	if tx == nil || len(tx.Header)+len(tx.Write)+len(tx.Read) == 0 {
		return ErrInvalidParameter
	}
	if err := b.acquire(timeout); err != nil {
		return err
	}
	defer b.release()
	err := b.run(tx)
	if tx.Delay > 0 {
		time.Sleep(tx.Delay)
	}
	return err
}

func (b *Bus) acquire(timeout time.Duration) error {
	select {
	case <-b.quit:
		return ErrNotInitialized
	default:
	}
	select {
	case b.busy <- struct{}{}:
	default:
		t := time.NewTimer(timeout)
		defer t.Stop()
		select {
		case b.busy <- struct{}{}:
		case <-b.quit:
			return ErrNotInitialized
		case <-t.C:
			return ErrTimeout
		}
	}
	select {
	case <-b.quit:
		b.release()
		return ErrNotInitialized
	default:
	}
	b.mu.Lock()
	failed := b.failed
	b.mu.Unlock()
	if failed {
		b.release()
		return ErrNotInitialized
	}
	return nil
}

func (b *Bus) release() {
	<-b.busy
}

func (b *Bus) run(tx *Transaction) error {
	select {
	case <-b.done:
	default:
	}
	if tx.CS != nil {
		if err := tx.CS.Assert(); err != nil {
			return err
		}
	}
	b.mu.Lock()
	b.tx = tx
	b.err = nil
	b.phase = PhaseIdle
	if err := b.advance(); err != nil {
		b.stop(err)
	}
	b.mu.Unlock()

	t := time.NewTimer(b.xferTimeout)
	defer t.Stop()
	select {
	case err := <-b.done:
		return err
	case <-t.C:
		return b.abort()
	}
}

// advance starts the next non-empty phase.
//
// Called with mu held.
func (b *Bus) advance() error {
	tx := b.tx
	for {
		b.phase++
		switch b.phase {
		case PhaseCmd:
			if len(tx.Header) > 0 {
				return b.p.Start(tx.Header, nil)
			}
		case PhaseTxd:
			if len(tx.Write) > 0 {
				return b.p.Start(tx.Write, nil)
			}
		case PhaseRxd:
			if len(tx.Read) > 0 {
				return b.p.Start(nil, tx.Read)
			}
		default:
			b.phase = PhaseStopping
			return b.p.Stop()
		}
	}
}

// stop abandons any remaining phases, recording err as the outcome.
//
// Called with mu held.
func (b *Bus) stop(err error) {
	if b.err == nil {
		b.err = err
	}
	if b.phase == PhaseStopping {
		// the stop itself failed so no stopped event will follow
		b.complete()
		return
	}
	b.phase = PhaseStopping
	if err := b.p.Stop(); err != nil {
		b.complete()
	}
}

// complete releases the chip select and wakes the caller.
//
// Called with mu held.
func (b *Bus) complete() {
	if cs := b.tx.CS; cs != nil {
		if err := cs.Deassert(); err != nil && b.err == nil {
			b.err = err
		}
	}
	b.phase = PhaseIdle
	b.tx = nil
	select {
	case b.done <- b.err:
	default:
	}
}

// abort recovers the bus after the transfer timeout expires.
//
// The peripheral may still be working through the phases already started,
// so the bus is held until the peripheral reports it has stopped. If that
// report does not arrive within a further transfer timeout then the
// peripheral is considered hung and the bus is failed.
func (b *Bus) abort() error {
	b.mu.Lock()
	if b.tx == nil {
		// completed as the timer expired
		b.mu.Unlock()
		return <-b.done
	}
	if b.err == nil {
		b.err = ErrTimeout
	}
	if b.phase != PhaseStopping {
		b.phase = PhaseStopping
		if err := b.p.Stop(); err != nil {
			b.err = multierr.Append(b.err, err)
			b.complete()
			b.mu.Unlock()
			return <-b.done
		}
	}
	b.mu.Unlock()

	t := time.NewTimer(b.xferTimeout)
	defer t.Stop()
	select {
	case err := <-b.done:
		return err
	case <-t.C:
		return b.fail()
	}
}

// fail abandons a transaction the peripheral never stopped.
//
// Any events subsequently raised by the peripheral are ignored, and
// subsequent calls to Execute return ErrNotInitialized.
func (b *Bus) fail() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		// stopped as the timer expired
		return <-b.done
	}
	b.failed = true
	err := b.err
	if cs := b.tx.CS; cs != nil {
		err = multierr.Append(err, cs.Deassert())
	}
	b.tx = nil
	b.phase = PhaseIdle
	return err
}

// handleEvent runs the phase machine from the peripheral goroutine.
func (b *Bus) handleEvent(evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.tx == nil {
		return
	}
	switch evt.Type {
	case EventEnd:
		if b.phase == PhaseIdle || b.phase == PhaseStopping {
			return
		}
		if evt.Err != nil {
			b.stop(evt.Err)
			return
		}
		if err := b.advance(); err != nil {
			b.stop(err)
		}
	case EventStopped:
		if b.phase == PhaseStopping {
			b.complete()
		}
	}
}
