// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads129x

import (
	"runtime"
	"time"

	"github.com/pkg/errors"
	"github.com/warthog618/ads129x/adc"
	"github.com/warthog618/ads129x/internal/rt"
	"github.com/warthog618/ads129x/regmap"
	"go.uber.org/multierr"
)

// run is the controller goroutine.
func (c *Controller) run() {
	defer close(c.done)
	if p := c.opts.priority; p > 0 {
		runtime.LockOSThread()
		if err := rt.SetFIFO(p); err != nil {
			c.log.Warn().Err(err).Int("priority", p).Msg("set priority")
		}
	}
	for {
		cmd := <-c.cmds
		switch cmd.typ {
		case cmdInit:
			c.init()
		case cmdData:
			c.data()
		case cmdStart:
			c.start()
		case cmdStop:
			c.stop()
		case cmdSingle:
			c.single()
		case cmdGetConfig:
			c.reply(c.getConfig(cmd))
		case cmdSetRegister:
			c.reply(c.setRegister(cmd))
		case cmdTerminate:
			c.terminate()
			return
		}
		if c.singleLost.Load() && len(c.cmds) == 0 {
			c.singleLost.Store(false)
			if c.stopAfterData {
				// no data cycle will follow to end the single shot run
				c.log.Warn().Msg("single shot data cycle dropped")
				c.stop()
			}
		}
	}
}

// enqueue posts a command from the controller goroutine itself.
func (c *Controller) enqueue(cmd command) {
	if err := c.post(cmd); err != nil {
		c.log.Warn().Stringer("cmd", cmd.typ).Msg("command dropped")
	}
}

// reply posts a result, displacing any result not collected by an earlier
// request.
func (c *Controller) reply(r result) {
	for {
		select {
		case c.results <- r:
			return
		default:
		}
		select {
		case <-c.results:
		default:
		}
	}
}

func (c *Controller) init() {
	var errs error
	for i, d := range c.devs {
		cfg := regmap.Default()
		if c.opts.configure != nil {
			c.opts.configure(i, &cfg)
		}
		c.img[i] = cfg.Image()
		if err := c.initDevice(i, d, &cfg); err != nil {
			var idErr ChipIDError
			if errors.As(err, &idErr) {
				c.log.Error().Int("adc", i).Hex("id", []byte{idErr.ID}).Msg("unsupported chip")
			} else {
				c.log.Error().Err(err).Int("adc", i).Msg("init failed")
			}
			errs = multierr.Append(errs, err)
			continue
		}
		c.log.Info().Int("adc", i).Msg("initialised")
	}
	c.initErr = errs
	c.faulted = errs != nil
	c.state.Store(int32(StateIdle))
	close(c.ready)
}

func (c *Controller) initDevice(i int, d *adc.Device, cfg *regmap.Config) error {
	if err := d.SendCommand(adc.OpSDATAC); err != nil {
		return errors.Wrapf(err, "adc%d: stop continuous read", i)
	}
	if err := d.SendCommand(adc.OpReset); err != nil {
		return errors.Wrapf(err, "adc%d: reset", i)
	}
	time.Sleep(c.opts.resetDelay)
	// the reset restores continuous read
	if err := d.SendCommand(adc.OpSDATAC); err != nil {
		return errors.Wrapf(err, "adc%d: stop continuous read", i)
	}
	var id [1]byte
	if err := d.ReadRegisters(regmap.RegID, id[:]); err != nil {
		return errors.Wrapf(err, "adc%d: read id", i)
	}
	if id[0]&regmap.ChipIDMask != regmap.ChipID {
		return ChipIDError{ADC: i, ID: id[0]}
	}
	for _, b := range cfg.WriteBlocks() {
		if err := d.WriteRegisters(b.Addr, b.Data); err != nil {
			return errors.Wrapf(err, "adc%d: write %s", i, regmap.Name(b.Addr))
		}
	}
	return nil
}

func (c *Controller) data() {
	if c.State() != StateRunning {
		// queued before a stop
		return
	}
	if c.stopAfterData {
		defer c.stop()
	}
	for i, d := range c.devs {
		if err := d.ReadDataFrame(&c.raw[i]); err != nil {
			c.log.Warn().Err(err).Int("adc", i).Msg("data read failed")
			return
		}
	}
	f := Frame{Seqno: c.frameSeq}
	c.frameSeq++
	for i := range c.raw {
		f.set(i, &c.raw[i])
	}
	c.handler(f)
}

func (c *Controller) start() {
	if c.faulted {
		c.log.Error().Msg("start refused as init failed")
		return
	}
	if c.State() == StateRunning {
		return
	}
	c.stopAfterData = c.singlePending
	c.singlePending = false
	c.singleRun.Store(c.stopAfterData)
	c.state.Store(int32(StateRunning))
	if err := c.board.EnableDataReady(c.dataReady); err != nil {
		c.log.Error().Err(err).Msg("enable data ready")
		c.singleRun.Store(false)
		c.state.Store(int32(StateIdle))
		return
	}
	if err := c.board.SetStart(true); err != nil {
		c.log.Error().Err(err).Msg("set start")
		c.board.DisableDataReady()
		c.singleRun.Store(false)
		c.state.Store(int32(StateIdle))
		return
	}
	c.log.Debug().Bool("single", c.stopAfterData).Msg("started")
}

func (c *Controller) stop() {
	c.stopAfterData = false
	c.singleRun.Store(false)
	c.singleLost.Store(false)
	running := c.State() == StateRunning
	if running {
		if err := c.board.DisableDataReady(); err != nil {
			c.log.Warn().Err(err).Msg("disable data ready")
		}
		if err := c.board.SetStart(false); err != nil {
			c.log.Warn().Err(err).Msg("clear start")
		}
	}
	c.setSingleShot(false)
	if running {
		c.log.Debug().Msg("stopped")
		c.state.Store(int32(StateIdle))
	}
}

// setSingleShot sets or clears the single-shot bit of both ADCs.
func (c *Controller) setSingleShot(on bool) error {
	for i, d := range c.devs {
		v := c.img[i][regmap.RegConfig4] &^ regmap.SingleShotBit
		if on {
			v |= regmap.SingleShotBit
		}
		if v == c.img[i][regmap.RegConfig4] {
			continue
		}
		if err := d.WriteRegister(regmap.RegConfig4, v); err != nil {
			c.log.Error().Err(err).Int("adc", i).Bool("single", on).Msg("write CONFIG4")
			return err
		}
		c.img[i][regmap.RegConfig4] = v
	}
	return nil
}

func (c *Controller) single() {
	if c.faulted {
		c.log.Error().Msg("single refused as init failed")
		return
	}
	if c.State() == StateRunning {
		c.log.Warn().Msg("single refused while running")
		return
	}
	if err := c.setSingleShot(true); err != nil {
		return
	}
	c.singlePending = true
	c.enqueue(command{typ: cmdStart})
}

func (c *Controller) getConfig(cmd command) result {
	r := result{seq: cmd.seq}
	if c.State() == StateRunning {
		r.err = ErrInvalidState
		return r
	}
	r.err = c.devs[cmd.which].ReadRegisters(regmap.RegID, r.img[:])
	return r
}

func (c *Controller) setRegister(cmd command) result {
	r := result{seq: cmd.seq}
	if c.State() == StateRunning {
		r.err = ErrInvalidState
		return r
	}
	r.err = c.devs[cmd.which].WriteRegister(cmd.addr, cmd.val)
	if r.err == nil && !regmap.ReadOnly(cmd.addr) {
		c.img[cmd.which][cmd.addr] = cmd.val
	}
	return r
}

func (c *Controller) terminate() {
	c.state.Store(int32(StateTerminated))
drain:
	for {
		select {
		case cmd := <-c.cmds:
			if cmd.request() {
				c.reply(result{seq: cmd.seq, err: ErrNotInitialized})
			}
		default:
			break drain
		}
	}
	err := multierr.Combine(
		c.board.DisableDataReady(),
		c.board.SetStart(false),
	)
	c.removeDevices()
	err = multierr.Append(err, c.bus.Close())
	err = multierr.Append(err, c.board.PowerDown())
	c.closeErr = err
	c.log.Debug().Err(err).Msg("terminated")
}
