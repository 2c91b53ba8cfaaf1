// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package ads129x

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/warthog618/ads129x/regmap"
)

const (
	// DefaultQueueSize is the default depth of the command queue.
	DefaultQueueSize = 5

	// DefaultPowerUpDelay is the default settling time after power is
	// applied to the ADCs.
	DefaultPowerUpDelay = time.Second

	// DefaultResetDelay is the default time allowed for an ADC to reset.
	DefaultResetDelay = 10 * time.Microsecond

	// DefaultAccessTimeout is the default limit on acquiring the bus for a
	// register or data access.
	DefaultAccessTimeout = 200 * time.Millisecond
)

// Option defines the interface required to provide a Controller option.
type Option interface {
	applyOption(*options)
}

type options struct {
	log           zerolog.Logger
	queueSize     int
	powerUpDelay  time.Duration
	resetDelay    time.Duration
	accessTimeout time.Duration
	priority      int
	configure     Configurator
}

func defaultOptions() options {
	return options{
		log:           zerolog.Nop(),
		queueSize:     DefaultQueueSize,
		powerUpDelay:  DefaultPowerUpDelay,
		resetDelay:    DefaultResetDelay,
		accessTimeout: DefaultAccessTimeout,
		configure:     DefaultConfigurator,
	}
}

// LoggerOption provides the logger for the controller.
type LoggerOption struct {
	l zerolog.Logger
}

// WithLogger sets the logger used by the controller.
//
// By default the controller does not log.
func WithLogger(l zerolog.Logger) LoggerOption {
	return LoggerOption{l}
}

func (o LoggerOption) applyOption(opts *options) {
	opts.log = o.l
}

// QueueSizeOption sets the depth of the command queue.
type QueueSizeOption int

// WithQueueSize sets the depth of the command queue.
//
// The queue is shared by control requests and data ready cycles, so it
// limits the number of cycles that may be pending before they are dropped.
func WithQueueSize(n int) QueueSizeOption {
	return QueueSizeOption(n)
}

func (o QueueSizeOption) applyOption(opts *options) {
	if o > 0 {
		opts.queueSize = int(o)
	}
}

// PowerUpDelayOption sets the settling time after power up.
type PowerUpDelayOption time.Duration

// WithPowerUpDelay sets the time waited after power is applied and before
// the ADCs are accessed.
func WithPowerUpDelay(d time.Duration) PowerUpDelayOption {
	return PowerUpDelayOption(d)
}

func (o PowerUpDelayOption) applyOption(opts *options) {
	opts.powerUpDelay = time.Duration(o)
}

// ResetDelayOption sets the time allowed for a reset.
type ResetDelayOption time.Duration

// WithResetDelay sets the time waited after the reset command.
func WithResetDelay(d time.Duration) ResetDelayOption {
	return ResetDelayOption(d)
}

func (o ResetDelayOption) applyOption(opts *options) {
	opts.resetDelay = time.Duration(o)
}

// AccessTimeoutOption sets the bus acquisition timeout for ADC accesses.
type AccessTimeoutOption time.Duration

// WithAccessTimeout sets the limit on acquiring the bus for each ADC access.
func WithAccessTimeout(d time.Duration) AccessTimeoutOption {
	return AccessTimeoutOption(d)
}

func (o AccessTimeoutOption) applyOption(opts *options) {
	opts.accessTimeout = time.Duration(o)
}

// PriorityOption sets the real-time priority of the controller goroutine.
type PriorityOption int

// WithPriority runs the controller goroutine on a locked OS thread with the
// SCHED_FIFO policy at the given priority, 1 to 99.
//
// Failure to set the priority is logged and the controller continues at
// normal priority.
func WithPriority(priority int) PriorityOption {
	return PriorityOption(priority)
}

func (o PriorityOption) applyOption(opts *options) {
	opts.priority = int(o)
}

// Configurator modifies the register configuration applied to an ADC
// during initialisation.
//
// The configuration passed in is the regmap.Default.
type Configurator func(adc int, cfg *regmap.Config)

// ConfiguratorOption provides the Configurator for the controller.
type ConfiguratorOption struct {
	c Configurator
}

// WithConfigurator replaces the DefaultConfigurator.
//
// A nil Configurator applies the regmap.Default unchanged.
func WithConfigurator(c Configurator) ConfiguratorOption {
	return ConfiguratorOption{c}
}

func (o ConfiguratorOption) applyOption(opts *options) {
	opts.configure = o.c
}

// DefaultConfigurator brings all channels to normal electrode input at a
// gain of 12, and has the first ADC drive the Wilson central terminal from
// the first two channels.
func DefaultConfigurator(adc int, cfg *regmap.Config) {
	cfg.SetChannels(regmap.ChannelSetting(regmap.MuxNormal, regmap.Gain12, false))
	if adc != 0 {
		return
	}
	cfg.WCT1.WCTAEnable = true
	cfg.WCT1.WCTA = regmap.WCTCh1P
	cfg.WCT2.WCTBEnable = true
	cfg.WCT2.WCTB = regmap.WCTCh1N
	cfg.WCT2.WCTCEnable = true
	cfg.WCT2.WCTC = regmap.WCTCh2P
}
