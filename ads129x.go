// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package ads129x acquires synchronised samples from a pair of ADS1298 ADCs
// sharing an SPI bus.
//
// A Controller owns the two ADCs and a goroutine that processes commands in
// strict order. Data ready edges from the ADCs enqueue data cycles, each of
// which reads a frame from both ADCs and passes it to the FrameHandler.
// Control requests are interleaved with the data cycles, and register
// accesses are only permitted while acquisition is stopped.
package ads129x

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/warthog618/ads129x/adc"
	"github.com/warthog618/ads129x/regmap"
	"github.com/warthog618/ads129x/spibus"
)

// State is the state of a Controller.
type State int32

const (
	// StateUninitialized indicates the controller has not been created.
	StateUninitialized State = iota

	// StateInitializing indicates the ADCs are being initialised.
	StateInitializing

	// StateIdle indicates the ADCs are initialised and not converting.
	StateIdle

	// StateRunning indicates acquisition is in progress.
	StateRunning

	// StateTerminated indicates the controller has been closed.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitializing:
		return "initializing"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	}
	return "unknown"
}

// Controller acquires frames from a pair of ADS1298s.
type Controller struct {
	bus     *spibus.Bus
	board   Board
	handler FrameHandler
	opts    options
	log     zerolog.Logger
	devs    [NumADCs]*adc.Device

	cmds    chan command
	results chan result

	// capability serialises requests over the single result slot.
	capability chan struct{}

	// ready is closed once the init command completes.
	ready   chan struct{}
	initErr error

	// done is closed once the controller goroutine exits.
	done     chan struct{}
	closeErr error
	once     sync.Once

	state   atomic.Int32
	dropped atomic.Uint64
	seq     atomic.Uint64

	// singleRun is set while a single shot run awaits its data cycle, and
	// singleLost once that cycle has been dropped.
	singleRun  atomic.Bool
	singleLost atomic.Bool

	// owned by the controller goroutine
	img           [NumADCs]regmap.Image
	faulted       bool
	singlePending bool
	stopAfterData bool
	frameSeq      uint64
	raw           [NumADCs]adc.DataFrame
}

// New creates a Controller acquiring from the ADCs on the bus.
//
// The board is powered up and allowed to settle before the ADCs are added
// to the bus. The ADCs are then reset and configured asynchronously, with
// the outcome available from WaitReady.
//
// The Controller takes ownership of the bus and closes it when the
// Controller is closed.
func New(bus *spibus.Bus, board Board, handler FrameHandler, options ...Option) (*Controller, error) {
	if bus == nil || board == nil || handler == nil {
		return nil, ErrInvalidParameter
	}
	c := Controller{
		bus:     bus,
		board:   board,
		handler: handler,
		opts:    defaultOptions(),
	}
	for _, option := range options {
		option.applyOption(&c.opts)
	}
	c.log = c.opts.log
	if err := board.PowerUp(); err != nil {
		return nil, errors.WithMessage(err, "power up")
	}
	time.Sleep(c.opts.powerUpDelay)
	for i := range c.devs {
		d, err := c.addDevice(i)
		if err != nil {
			c.removeDevices()
			board.PowerDown()
			return nil, err
		}
		c.devs[i] = d
	}
	c.cmds = make(chan command, c.opts.queueSize)
	c.results = make(chan result, 1)
	c.capability = make(chan struct{}, 1)
	c.ready = make(chan struct{})
	c.done = make(chan struct{})
	c.state.Store(int32(StateInitializing))
	c.cmds <- command{typ: cmdInit}
	go c.run()
	return &c, nil
}

func (c *Controller) addDevice(i int) (*adc.Device, error) {
	cs := c.board.ChipSelect(i)
	if cs == nil {
		return nil, ErrInvalidParameter
	}
	d, err := adc.Add(c.bus, cs, adc.WithTimeout(c.opts.accessTimeout))
	if err != nil {
		return nil, errors.Wrapf(err, "add adc%d", i)
	}
	return d, nil
}

func (c *Controller) removeDevices() {
	for _, d := range c.devs {
		if d != nil {
			d.Remove()
		}
	}
}

// Close stops acquisition and releases the ADCs, the bus and the board.
//
// Close is queued behind any commands already pending and waits for them
// to be processed.
func (c *Controller) Close() error {
	c.once.Do(func() {
		c.cmds <- command{typ: cmdTerminate}
		<-c.done
	})
	return c.closeErr
}

// Start starts acquisition.
//
// If singleShot is set then acquisition stops after a single frame, or
// once the queue has drained if the data cycle for that frame is dropped.
// The start is queued, and so Start does not wait for acquisition to
// begin.
func (c *Controller) Start(singleShot bool) error {
	if err := c.checkAlive(); err != nil {
		return err
	}
	select {
	case <-c.ready:
		if c.initErr != nil {
			return ErrInvalidState
		}
	default:
	}
	if !singleShot {
		return c.post(command{typ: cmdStart})
	}
	if err := c.post(command{typ: cmdStop}); err != nil {
		return err
	}
	return c.post(command{typ: cmdSingle})
}

// Stop stops acquisition.
//
// The stop is queued, and so any data cycles queued ahead of it are still
// processed.
func (c *Controller) Stop() error {
	if err := c.checkAlive(); err != nil {
		return err
	}
	return c.post(command{typ: cmdStop})
}

// GetConfig renders the register configuration of an ADC into out, and
// returns the length of the rendered configuration.
//
// The configuration is rendered as the ADC index followed by a ",RRVV"
// entry for each register, where RR is the address and VV the value, both
// in hex. Entries that do not fit in out are dropped.
func (c *Controller) GetConfig(which int, out []byte, timeout time.Duration) (int, error) {
	if err := c.checkRequest(which); err != nil {
		return 0, err
	}
	if len(out) < 1+configEntryLen {
		return 0, ErrInvalidParameter
	}
	r, err := c.request(command{typ: cmdGetConfig, which: which}, timeout)
	if err != nil {
		return 0, err
	}
	return formatConfig(out, which, &r.img), nil
}

// Config returns the complete register configuration of an ADC, rendered
// as for GetConfig.
func (c *Controller) Config(which int, timeout time.Duration) (string, error) {
	out := make([]byte, ConfigLen)
	n, err := c.GetConfig(which, out, timeout)
	if err != nil {
		return "", err
	}
	return string(out[:n]), nil
}

// SetRegister writes a register of an ADC.
//
// The write persists until the controller is closed, including across the
// CONFIG4 changes made by single shot acquisitions.
func (c *Controller) SetRegister(which int, addr, val byte, timeout time.Duration) error {
	if err := c.checkRequest(which); err != nil {
		return err
	}
	if addr > regmap.LastRegister {
		return ErrInvalidParameter
	}
	_, err := c.request(command{typ: cmdSetRegister, which: which, addr: addr, val: val}, timeout)
	return err
}

// WaitReady waits for the initialisation of the ADCs to complete and
// returns its outcome.
//
// A failure of either ADC is returned, and a failure of both is returned
// as a combined error.
func (c *Controller) WaitReady(timeout time.Duration) error {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-c.ready:
		return c.initErr
	case <-t.C:
		return ErrTimeout
	}
}

// State returns the current state of the controller.
func (c *Controller) State() State {
	return State(c.state.Load())
}

// Dropped returns the number of data ready edges dropped as the command
// queue was full.
func (c *Controller) Dropped() uint64 {
	return c.dropped.Load()
}

func (c *Controller) checkAlive() error {
	if c.State() == StateTerminated {
		return ErrNotInitialized
	}
	return nil
}

func (c *Controller) checkRequest(which int) error {
	switch c.State() {
	case StateTerminated:
		return ErrNotInitialized
	case StateRunning:
		return ErrInvalidState
	}
	if which < 0 || which >= NumADCs {
		return ErrInvalidParameter
	}
	return nil
}

// post enqueues a command without blocking.
func (c *Controller) post(cmd command) error {
	select {
	case c.cmds <- cmd:
		return nil
	default:
		return ErrFifoOverflow
	}
}

// request performs a command that returns a result.
func (c *Controller) request(cmd command, timeout time.Duration) (result, error) {
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case c.capability <- struct{}{}:
	case <-t.C:
		return result{}, ErrTimeout
	}
	defer func() { <-c.capability }()
	cmd.seq = c.seq.Add(1)
	if err := c.post(cmd); err != nil {
		return result{}, err
	}
	for {
		select {
		case r := <-c.results:
			if r.seq != cmd.seq {
				// reply to an earlier request that timed out
				continue
			}
			return r, r.err
		case <-t.C:
			return result{}, ErrTimeout
		case <-c.done:
			return result{}, ErrNotInitialized
		}
	}
}

// dataReady is the data ready handler, called from the board.
func (c *Controller) dataReady() {
	if c.State() != StateRunning {
		return
	}
	select {
	case c.cmds <- command{typ: cmdData}:
	default:
		c.dropped.Add(1)
		if c.singleRun.Load() {
			c.singleLost.Store(true)
		}
	}
}
