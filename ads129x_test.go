// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads129x_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/ads129x"
	"github.com/warthog618/ads129x/regmap"
	"github.com/warthog618/ads129x/sim"
	"github.com/warthog618/ads129x/spibus"
	"go.uber.org/multierr"
)

type rig struct {
	c      *ads129x.Controller
	board  *sim.Board
	chips  []*sim.Chip
	frames chan ads129x.Frame
}

func newRig(t *testing.T, chips []*sim.Chip, handler ads129x.FrameHandler, options ...ads129x.Option) *rig {
	t.Helper()
	r := rig{
		board:  sim.NewBoard(chips),
		chips:  chips,
		frames: make(chan ads129x.Frame, 10),
	}
	if handler == nil {
		handler = func(f ads129x.Frame) {
			r.frames <- f
		}
	}
	bus, err := spibus.New(sim.NewPeripheral(chips...))
	require.Nil(t, err)
	opts := append([]ads129x.Option{ads129x.WithPowerUpDelay(0)}, options...)
	c, err := ads129x.New(bus, r.board, handler, opts...)
	require.Nil(t, err)
	require.NotNil(t, c)
	t.Cleanup(func() { c.Close() })
	r.c = c
	return &r
}

func setup(t *testing.T, options ...ads129x.Option) *rig {
	t.Helper()
	r := newRig(t, []*sim.Chip{sim.NewChip(), sim.NewChip()}, nil, options...)
	require.Nil(t, r.c.WaitReady(time.Second))
	return r
}

func (r *rig) waitFrame(t *testing.T) ads129x.Frame {
	t.Helper()
	select {
	case f := <-r.frames:
		return f
	case <-time.After(time.Second):
		require.Fail(t, "no frame")
	}
	return ads129x.Frame{}
}

func (r *rig) noFrame(t *testing.T) {
	t.Helper()
	select {
	case f := <-r.frames:
		assert.Fail(t, "unexpected frame", "%v", f)
	case <-time.After(20 * time.Millisecond):
	}
}

func (r *rig) waitStarted(t *testing.T) {
	t.Helper()
	require.Eventually(t, r.board.Started, time.Second, time.Millisecond)
	require.Equal(t, ads129x.StateRunning, r.c.State())
}

func (r *rig) waitIdle(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool {
		return r.c.State() == ads129x.StateIdle
	}, time.Second, time.Millisecond)
}

func expectedImage(adc int) regmap.Image {
	cfg := regmap.Default()
	ads129x.DefaultConfigurator(adc, &cfg)
	return cfg.Image()
}

func TestNew(t *testing.T) {
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	b := sim.NewBoard(chips)
	bus, err := spibus.New(sim.NewPeripheral(chips...))
	require.Nil(t, err)
	defer bus.Close()
	h := func(ads129x.Frame) {}

	c, err := ads129x.New(nil, b, h)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	assert.Nil(t, c)
	c, err = ads129x.New(bus, nil, h)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	assert.Nil(t, c)
	c, err = ads129x.New(bus, b, nil)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	assert.Nil(t, c)
	assert.Zero(t, b.PowerUps())

	r := setup(t)
	assert.Equal(t, ads129x.StateIdle, r.c.State())
	assert.True(t, r.board.Powered())
	assert.False(t, r.board.Started())
	assert.False(t, r.board.DataReadyEnabled())
	for i, chip := range r.chips {
		assert.Equal(t, 1, chip.Resets())
		assert.False(t, chip.Continuous())
		assert.Equal(t, expectedImage(i), chip.Registers())
	}
	assert.Equal(t, byte(0x60), r.chips[1].Register(regmap.RegCh8Set))
	assert.Equal(t, byte(0x08), r.chips[0].Register(regmap.RegWCT1))
	assert.Equal(t, byte(0xca), r.chips[0].Register(regmap.RegWCT2))
	assert.Equal(t, byte(0x00), r.chips[1].Register(regmap.RegWCT1))
	assert.Equal(t, byte(0x0a), r.chips[1].Register(regmap.RegWCT2))
}

func TestNewMissingChipSelect(t *testing.T) {
	chip := sim.NewChip()
	b := sim.NewBoard([]*sim.Chip{chip})
	bus, err := spibus.New(sim.NewPeripheral(chip))
	require.Nil(t, err)
	defer bus.Close()
	c, err := ads129x.New(bus, b, func(ads129x.Frame) {}, ads129x.WithPowerUpDelay(0))
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	assert.Nil(t, c)
	assert.Equal(t, 1, b.PowerUps())
	assert.False(t, b.Powered())
	// the first device slot is released
	assert.Nil(t, bus.Attach(chip.ChipSelect()))
}

func TestNewOutOfMemory(t *testing.T) {
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	b := sim.NewBoard(chips)
	bus, err := spibus.New(sim.NewPeripheral(chips...), spibus.WithMaxDevices(1))
	require.Nil(t, err)
	defer bus.Close()
	c, err := ads129x.New(bus, b, func(ads129x.Frame) {}, ads129x.WithPowerUpDelay(0))
	assert.True(t, errors.Is(err, ads129x.ErrOutOfMemory))
	assert.Equal(t, ads129x.CodeOutOfMemory, ads129x.Code(err))
	assert.Nil(t, c)
	assert.False(t, b.Powered())
}

func TestInitChipIDMismatch(t *testing.T) {
	var buf bytes.Buffer
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip(sim.WithID(0x90))}
	r := newRig(t, chips, nil, ads129x.WithLogger(zerolog.New(&buf)))
	err := r.c.WaitReady(time.Second)
	require.NotNil(t, err)
	assert.True(t, errors.Is(err, ads129x.ErrInvalidParameter))
	var idErr ads129x.ChipIDError
	require.True(t, errors.As(err, &idErr))
	assert.Equal(t, ads129x.ChipIDError{ADC: 1, ID: 0x90}, idErr)
	assert.Equal(t, ads129x.CodeInvalidParameter, ads129x.Code(err))
	assert.Contains(t, buf.String(), "unsupported chip")

	// the valid device is still configured, the invalid one untouched
	assert.Equal(t, expectedImage(0), chips[0].Registers())
	assert.Equal(t, byte(0x06), chips[1].Register(regmap.RegConfig1))

	assert.Equal(t, ads129x.StateIdle, r.c.State())
	assert.Equal(t, ads129x.ErrInvalidState, r.c.Start(false))
	assert.Equal(t, ads129x.ErrInvalidState, r.c.Start(true))
	assert.Nil(t, r.c.Stop())

	// registers remain accessible for diagnosis
	cfg, err := r.c.Config(1, time.Second)
	assert.Nil(t, err)
	assert.True(t, strings.HasPrefix(cfg, "1,0090,0106"), cfg)
}

func TestInitBothFail(t *testing.T) {
	chips := []*sim.Chip{sim.NewChip(sim.WithID(0xd2)), sim.NewChip(sim.WithID(0x3e))}
	r := newRig(t, chips, nil)
	err := r.c.WaitReady(time.Second)
	require.NotNil(t, err)
	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Equal(t, ads129x.ChipIDError{ADC: 0, ID: 0xd2}, errs[0])
	assert.Equal(t, ads129x.ChipIDError{ADC: 1, ID: 0x3e}, errs[1])
}

func TestWaitReadyTimeout(t *testing.T) {
	release := make(chan struct{})
	configure := func(adc int, cfg *regmap.Config) {
		<-release
	}
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	r := newRig(t, chips, nil, ads129x.WithConfigurator(configure))
	assert.Equal(t, ads129x.ErrTimeout, r.c.WaitReady(10*time.Millisecond))
	assert.Equal(t, ads129x.StateInitializing, r.c.State())
	close(release)
	assert.Nil(t, r.c.WaitReady(time.Second))
	// the configurator replaced the default customisation
	assert.Equal(t, byte(0xe1), chips[0].Register(regmap.RegCh1Set))
	assert.Equal(t, byte(0x00), chips[0].Register(regmap.RegWCT1))
}

func TestWithConfigurator(t *testing.T) {
	configure := func(adc int, cfg *regmap.Config) {
		cfg.Config1.DataRate = regmap.DR1k
		cfg.Channels[adc] = regmap.ChannelSetting(regmap.MuxTest, regmap.Gain1, false)
	}
	r := setup(t, ads129x.WithConfigurator(configure))
	assert.Equal(t, byte(0xc5), r.chips[0].Register(regmap.RegConfig1))
	assert.Equal(t, byte(0xc5), r.chips[1].Register(regmap.RegConfig1))
	assert.Equal(t, byte(0x15), r.chips[0].Register(regmap.RegCh1Set))
	assert.Equal(t, byte(0xe1), r.chips[0].Register(regmap.RegCh2Set))
	assert.Equal(t, byte(0x15), r.chips[1].Register(regmap.RegCh2Set))

	r = setup(t, ads129x.WithConfigurator(nil))
	for _, chip := range r.chips {
		img := regmap.Default()
		assert.Equal(t, img.Image(), chip.Registers())
	}
}

func TestStream(t *testing.T) {
	r := setup(t)
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)
	assert.True(t, r.board.DataReadyEnabled())
	for n := 0; n < 3; n++ {
		require.True(t, r.board.DataReady())
		f := r.waitFrame(t)
		assert.Equal(t, uint64(n), f.Seqno)
		for i := range f.Samples {
			assert.Equal(t, uint32(0xc00000), f.Status[i])
			for ch, s := range f.Samples[i] {
				assert.Equal(t, sim.Ramp(ch, uint64(n)), s)
			}
		}
	}
	// a second start is ignored
	require.Nil(t, r.c.Start(false))
	require.True(t, r.board.DataReady())
	f := r.waitFrame(t)
	assert.Equal(t, uint64(3), f.Seqno)

	require.Nil(t, r.c.Stop())
	r.waitIdle(t)
	assert.False(t, r.board.Started())
	assert.False(t, r.board.DataReadyEnabled())
	assert.False(t, r.board.DataReady())
	r.noFrame(t)
	assert.Zero(t, r.c.Dropped())

	// restart continues the sequence
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)
	require.True(t, r.board.DataReady())
	f = r.waitFrame(t)
	assert.Equal(t, uint64(4), f.Seqno)
}

func TestStreamTicker(t *testing.T) {
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	r := rig{
		board:  sim.NewBoard(chips, sim.WithRate(2*time.Millisecond)),
		chips:  chips,
		frames: make(chan ads129x.Frame, 100),
	}
	bus, err := spibus.New(sim.NewPeripheral(chips...))
	require.Nil(t, err)
	c, err := ads129x.New(bus, r.board, func(f ads129x.Frame) {
		select {
		case r.frames <- f:
		default:
		}
	}, ads129x.WithPowerUpDelay(0))
	require.Nil(t, err)
	defer c.Close()
	require.Nil(t, c.WaitReady(time.Second))
	require.Nil(t, c.Start(false))
	for n := 0; n < 5; n++ {
		f := r.waitFrame(t)
		assert.Equal(t, uint64(n), f.Seqno)
	}
	require.Nil(t, c.Stop())
	require.Eventually(t, func() bool {
		return c.State() == ads129x.StateIdle
	}, time.Second, time.Millisecond)
}

func TestSingleShot(t *testing.T) {
	r := setup(t)
	require.Nil(t, r.c.Start(true))
	r.waitStarted(t)
	for _, chip := range r.chips {
		assert.Equal(t, regmap.SingleShotBit, chip.Register(regmap.RegConfig4))
	}
	require.True(t, r.board.DataReady())
	f := r.waitFrame(t)
	assert.Equal(t, uint64(0), f.Seqno)

	// stops without an explicit Stop
	r.waitIdle(t)
	assert.False(t, r.board.Started())
	assert.False(t, r.board.DataReady())
	r.noFrame(t)
	for _, chip := range r.chips {
		assert.Zero(t, chip.Register(regmap.RegConfig4))
	}

	// a subsequent continuous start runs continuously
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)
	for n := 1; n < 4; n++ {
		require.True(t, r.board.DataReady())
		f := r.waitFrame(t)
		assert.Equal(t, uint64(n), f.Seqno)
	}
	assert.Equal(t, ads129x.StateRunning, r.c.State())
}

func TestSingleShotWhileRunning(t *testing.T) {
	r := setup(t)
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)
	require.Nil(t, r.c.Start(true))
	require.Eventually(t, func() bool {
		return r.chips[1].Register(regmap.RegConfig4) == regmap.SingleShotBit &&
			r.board.Started()
	}, time.Second, time.Millisecond)
	require.True(t, r.board.DataReady())
	r.waitFrame(t)
	r.waitIdle(t)
}

func TestStateGating(t *testing.T) {
	r := setup(t)
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)

	out := make([]byte, ads129x.ConfigLen)
	n, err := r.c.GetConfig(0, out, time.Second)
	assert.Equal(t, ads129x.ErrInvalidState, err)
	assert.Zero(t, n)
	err = r.c.SetRegister(0, regmap.RegConfig1, 0x86, time.Second)
	assert.Equal(t, ads129x.ErrInvalidState, err)
	assert.Equal(t, ads129x.CodeInvalidState, ads129x.Code(err))
	assert.Equal(t, byte(0xc6), r.chips[0].Register(regmap.RegConfig1))

	require.Nil(t, r.c.Stop())
	r.waitIdle(t)
	n, err = r.c.GetConfig(0, out, time.Second)
	assert.Nil(t, err)
	assert.Equal(t, ads129x.ConfigLen, n)
	assert.Nil(t, r.c.SetRegister(0, regmap.RegConfig1, 0x86, time.Second))
	assert.Equal(t, byte(0x86), r.chips[0].Register(regmap.RegConfig1))
}

func TestConfig(t *testing.T) {
	r := setup(t)
	require.Nil(t, r.c.SetRegister(0, regmap.RegConfig1, 0x06, time.Second))

	s, err := r.c.Config(0, time.Second)
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(s, "0,0092,0106,0213,03C8,0400,0560"), s)
	assert.Len(t, s, ads129x.ConfigLen)

	img := r.chips[1].Registers()
	var sb strings.Builder
	sb.WriteString("1")
	for addr, val := range img {
		fmt.Fprintf(&sb, ",%02X%02X", addr, val)
	}
	s, err = r.c.Config(1, time.Second)
	require.Nil(t, err)
	assert.Equal(t, sb.String(), s)
	assert.True(t, strings.HasSuffix(s, ",1700,1800,190A"), s)

	patterns := []struct {
		name string
		size int
		out  string
		err  error
	}{
		{"too small", 5, "", ads129x.ErrInvalidParameter},
		{"one", 6, "0,0092", nil},
		{"partial", 14, "0,0092,0106", nil},
		{"two", 16, "0,0092,0106,0213", nil},
	}
	for _, p := range patterns {
		tf := func(t *testing.T) {
			out := make([]byte, p.size)
			n, err := r.c.GetConfig(0, out, time.Second)
			assert.Equal(t, p.err, err)
			assert.Equal(t, p.out, string(out[:n]))
		}
		t.Run(p.name, tf)
	}
}

func TestRequestInvalid(t *testing.T) {
	r := setup(t)
	out := make([]byte, ads129x.ConfigLen)
	_, err := r.c.GetConfig(2, out, time.Second)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	_, err = r.c.GetConfig(-1, out, time.Second)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	_, err = r.c.Config(2, time.Second)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	err = r.c.SetRegister(2, regmap.RegConfig1, 0, time.Second)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
	err = r.c.SetRegister(0, regmap.LastRegister+1, 0, time.Second)
	assert.Equal(t, ads129x.ErrInvalidParameter, err)
}

func TestSetRegisterPersists(t *testing.T) {
	r := setup(t)
	// respiration frequency bits survive the single-shot restore
	require.Nil(t, r.c.SetRegister(1, regmap.RegConfig4, 0x40, time.Second))
	require.Nil(t, r.c.Start(true))
	r.waitStarted(t)
	assert.Equal(t, byte(0x48), r.chips[1].Register(regmap.RegConfig4))
	assert.Equal(t, byte(0x08), r.chips[0].Register(regmap.RegConfig4))
	require.True(t, r.board.DataReady())
	r.waitFrame(t)
	r.waitIdle(t)
	assert.Equal(t, byte(0x40), r.chips[1].Register(regmap.RegConfig4))
	assert.Equal(t, byte(0x00), r.chips[0].Register(regmap.RegConfig4))
}

func TestRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	configure := func(adc int, cfg *regmap.Config) {
		if adc == 0 {
			<-release
		}
	}
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	r := newRig(t, chips, nil, ads129x.WithConfigurator(configure))

	// the controller is busy with the init
	_, err := r.c.Config(0, 10*time.Millisecond)
	assert.Equal(t, ads129x.ErrTimeout, err)
	assert.Equal(t, ads129x.CodeTimeout, ads129x.Code(err))
	close(release)
	require.Nil(t, r.c.WaitReady(time.Second))

	// the reply to the timed out request is discarded
	require.Nil(t, r.c.SetRegister(0, regmap.RegConfig1, 0x06, time.Second))
	s, err := r.c.Config(0, time.Second)
	require.Nil(t, err)
	assert.True(t, strings.HasPrefix(s, "0,0092,0106"), s)
}

// gatedBoard holds the controller in SetStart until released.
type gatedBoard struct {
	*sim.Board
	entered chan struct{}
	release chan struct{}
}

func (b *gatedBoard) SetStart(start bool) error {
	if start {
		b.entered <- struct{}{}
		<-b.release
	}
	return b.Board.SetStart(start)
}

func TestSingleShotDataCycleDropped(t *testing.T) {
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	board := &gatedBoard{
		Board:   sim.NewBoard(chips),
		entered: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
	frames := make(chan ads129x.Frame, 10)
	bus, err := spibus.New(sim.NewPeripheral(chips...))
	require.Nil(t, err)
	c, err := ads129x.New(bus, board, func(f ads129x.Frame) { frames <- f },
		ads129x.WithPowerUpDelay(0),
		ads129x.WithQueueSize(2))
	require.Nil(t, err)
	defer c.Close()
	require.Nil(t, c.WaitReady(time.Second))

	require.Nil(t, c.Start(true))
	select {
	case <-board.entered:
	case <-time.After(time.Second):
		require.Fail(t, "not started")
	}
	// fill the queue with starts, which are ignored while running
	require.Nil(t, c.Start(false))
	require.Nil(t, c.Start(false))
	// the one conversion of the run is lost
	require.True(t, board.DataReady())
	assert.Equal(t, uint64(1), c.Dropped())
	close(board.release)

	require.Eventually(t, func() bool {
		return c.State() == ads129x.StateIdle
	}, time.Second, time.Millisecond)
	assert.False(t, board.Started())
	for _, chip := range chips {
		assert.Zero(t, chip.Register(regmap.RegConfig4))
	}
	select {
	case f := <-frames:
		assert.Fail(t, "unexpected frame", "%v", f)
	case <-time.After(20 * time.Millisecond):
	}
	// register requests are accepted again
	_, err = c.Config(0, time.Second)
	assert.Nil(t, err)
}

func TestBackpressure(t *testing.T) {
	entered := make(chan ads129x.Frame, 10)
	release := make(chan struct{})
	handler := func(f ads129x.Frame) {
		entered <- f
		<-release
	}
	chips := []*sim.Chip{sim.NewChip(), sim.NewChip()}
	r := newRig(t, chips, handler, ads129x.WithQueueSize(2))
	require.Nil(t, r.c.WaitReady(time.Second))
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)

	// first cycle blocks in the handler
	require.True(t, r.board.DataReady())
	select {
	case <-entered:
	case <-time.After(time.Second):
		require.Fail(t, "handler not called")
	}
	// fill the queue
	require.True(t, r.board.DataReady())
	require.True(t, r.board.DataReady())
	assert.Zero(t, r.c.Dropped())

	// further commands fail immediately
	require.True(t, r.board.DataReady())
	assert.Equal(t, uint64(1), r.c.Dropped())
	start := time.Now()
	assert.Equal(t, ads129x.ErrFifoOverflow, r.c.Stop())
	assert.Equal(t, ads129x.ErrFifoOverflow, r.c.Start(false))
	assert.Equal(t, ads129x.ErrFifoOverflow, r.c.Start(true))
	assert.Equal(t, ads129x.CodeFifoOverflow, ads129x.Code(r.c.Stop()))
	assert.Less(t, time.Since(start), 100*time.Millisecond)

	close(release)
	for n := 1; n < 3; n++ {
		select {
		case f := <-entered:
			assert.Equal(t, uint64(n), f.Seqno)
		case <-time.After(time.Second):
			require.Fail(t, "handler not called")
		}
	}
	require.Eventually(t, func() bool {
		return r.c.Stop() == nil
	}, time.Second, time.Millisecond)
	r.waitIdle(t)
}

func TestDataReadFailure(t *testing.T) {
	var buf bytes.Buffer
	r := setup(t, ads129x.WithLogger(zerolog.New(&buf)))
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)

	r.chips[1].ChipSelect().FailNext(errors.New("cs fault"))
	require.True(t, r.board.DataReady())
	r.noFrame(t)

	require.True(t, r.board.DataReady())
	f := r.waitFrame(t)
	assert.Equal(t, uint64(0), f.Seqno)
	assert.Equal(t, sim.Ramp(0, 1), f.Samples[0][0])
	assert.Equal(t, sim.Ramp(7, 1), f.Samples[1][7])
	assert.Equal(t, ads129x.StateRunning, r.c.State())

	require.Nil(t, r.c.Stop())
	r.waitIdle(t)
	assert.Contains(t, buf.String(), "data read failed")
}

func TestClose(t *testing.T) {
	r := setup(t)
	require.Nil(t, r.c.Start(false))
	r.waitStarted(t)

	assert.Nil(t, r.c.Close())
	assert.Equal(t, ads129x.StateTerminated, r.c.State())
	assert.False(t, r.board.Powered())
	assert.False(t, r.board.Started())
	assert.False(t, r.board.DataReadyEnabled())

	assert.Equal(t, ads129x.ErrNotInitialized, r.c.Start(false))
	assert.Equal(t, ads129x.ErrNotInitialized, r.c.Stop())
	_, err := r.c.Config(0, time.Second)
	assert.Equal(t, ads129x.ErrNotInitialized, err)
	err = r.c.SetRegister(0, regmap.RegConfig1, 0, time.Second)
	assert.Equal(t, ads129x.ErrNotInitialized, err)
	assert.Equal(t, ads129x.CodeNotInitialized, ads129x.Code(err))

	// idempotent
	assert.Nil(t, r.c.Close())
}

func TestStateString(t *testing.T) {
	patterns := []struct {
		state ads129x.State
		name  string
	}{
		{ads129x.StateUninitialized, "uninitialized"},
		{ads129x.StateInitializing, "initializing"},
		{ads129x.StateIdle, "idle"},
		{ads129x.StateRunning, "running"},
		{ads129x.StateTerminated, "terminated"},
		{ads129x.State(42), "unknown"},
	}
	for _, p := range patterns {
		assert.Equal(t, p.name, p.state.String())
	}
}

func TestFrameString(t *testing.T) {
	f := ads129x.Frame{Seqno: 12}
	f.Status[0] = 0xc00000
	f.Status[1] = 0xc0f000
	for ch := 0; ch < regmap.NumChannels; ch++ {
		f.Samples[0][ch] = int32(ch)
		f.Samples[1][ch] = -int32(ch)
	}
	assert.Equal(t, "12,c00000,0,1,2,3,4,5,6,7,c0f000,0,-1,-2,-3,-4,-5,-6,-7", f.String())
}
