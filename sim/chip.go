// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package sim simulates a pair of ADS1298 chips on an SPI bus.
//
// The simulation is intended for testing code that uses the ads129x
// packages without hardware, but is also able to drive the ads129xctl
// utility.
package sim

import (
	"sync"

	"github.com/warthog618/ads129x/regmap"
)

// Opcodes recognised by the chip.
const (
	opWakeup  = 0x02
	opStandby = 0x04
	opReset   = 0x06
	opStart   = 0x08
	opStop    = 0x0a
	opRDATAC  = 0x10
	opSDATAC  = 0x11
	opRDATA   = 0x12
	opRREG    = 0x20
	opWREG    = 0x40
)

// power on reset values.
var resetImage = regmap.Image{
	regmap.RegID:      regmap.ChipID,
	regmap.RegConfig1: 0x06,
	regmap.RegConfig2: 0x40,
	regmap.RegConfig3: 0x40,
	regmap.RegGPIO:    0x0f,
}

type decodeState int

const (
	stateOpcode decodeState = iota
	stateCount
	stateData
)

// Source provides the code for a channel of the nth conversion.
type Source func(ch int, n uint64) int32

// Chip is a simulated ADS1298.
//
// The chip decodes the bytes clocked in while it is selected and shifts out
// register contents and conversion data in response.
type Chip struct {
	cs *ChipSelect

	mu         sync.Mutex
	regs       regmap.Image
	selected   bool
	continuous bool
	converting bool
	resets     int
	id         byte
	source     Source
	conversion uint64
	frame      [27]byte

	// command decoding
	state     decodeState
	op        byte
	addr      byte
	remaining int
	out       []byte
}

// ChipOption specifies a construction option for a Chip.
type ChipOption func(*Chip)

// WithID overrides the content of the ID register.
func WithID(id byte) ChipOption {
	return func(c *Chip) {
		c.regs[regmap.RegID] = id
	}
}

// WithSource sets the source of conversion data.
func WithSource(s Source) ChipOption {
	return func(c *Chip) {
		c.source = s
	}
}

// NewChip creates a chip in its power on state.
func NewChip(options ...ChipOption) *Chip {
	c := Chip{
		regs:       resetImage,
		continuous: true,
		source:     Ramp,
	}
	c.cs = &ChipSelect{c: &c}
	for _, option := range options {
		option(&c)
	}
	c.id = c.regs[regmap.RegID]
	return &c
}

// Ramp is the default Source, providing codes that increment with each
// conversion and alternate in sign between channels.
func Ramp(ch int, n uint64) int32 {
	v := int32(ch+1)*0x1000 + int32(n&0xfff)
	if ch%2 == 1 {
		return -v
	}
	return v
}

// ChipSelect returns the chip select line of the chip.
func (c *Chip) ChipSelect() *ChipSelect {
	return c.cs
}

// Register returns the content of the register at addr.
func (c *Chip) Register(addr byte) byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs[addr]
}

// Registers returns the content of the register file.
func (c *Chip) Registers() regmap.Image {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.regs
}

// SetRegister sets the content of the register, including read-only
// registers, as if it were changed by the chip itself.
func (c *Chip) SetRegister(addr, val byte) {
	c.mu.Lock()
	c.regs[addr] = val
	c.mu.Unlock()
}

// Continuous returns true if the chip is in continuous data mode, in which
// it ignores register accesses.
func (c *Chip) Continuous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.continuous
}

// Converting returns true if conversions have been started by command.
func (c *Chip) Converting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.converting
}

// Resets returns the number of reset commands received.
func (c *Chip) Resets() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resets
}

// Conversions returns the number of conversions performed.
func (c *Chip) Conversions() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conversion
}

// Convert performs a conversion, latching the next sample into the output
// frame.
func (c *Chip) Convert() {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.conversion
	c.conversion++
	gpio := c.regs[regmap.RegGPIO] >> 4
	status := uint32(0xc00000) |
		uint32(c.regs[regmap.RegLeadOffStatP])<<12 |
		uint32(c.regs[regmap.RegLeadOffStatN])<<4 |
		uint32(gpio)
	putUint24(c.frame[0:3], status)
	for ch := 0; ch < regmap.NumChannels; ch++ {
		var v int32
		if !regmap.DecodeChannelSet(c.regs[regmap.RegChSet(ch)]).PowerDown {
			v = c.source(ch, n)
		}
		o := 3 + ch*3
		putUint24(c.frame[o:o+3], uint32(v))
	}
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v >> 16)
	b[1] = byte(v >> 8)
	b[2] = byte(v)
}

func (c *Chip) sel(selected bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = selected
	// the serial interface resets whenever the chip is deselected
	c.state = stateOpcode
	c.out = nil
}

// exchange clocks one byte in and out of the chip.
//
// Returns false if the chip is not selected, and so not driving MISO.
func (c *Chip) exchange(mosi byte) (byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.selected {
		return 0, false
	}
	if len(c.out) > 0 {
		miso := c.out[0]
		c.out = c.out[1:]
		return miso, true
	}
	switch c.state {
	case stateOpcode:
		c.decode(mosi)
	case stateCount:
		c.remaining = int(mosi) + 1
		if c.op == opRREG {
			end := int(c.addr) + c.remaining
			if end > regmap.NumRegisters {
				end = regmap.NumRegisters
			}
			if int(c.addr) < end {
				c.out = append([]byte(nil), c.regs[c.addr:end]...)
			}
			c.state = stateOpcode
		} else {
			c.state = stateData
		}
	case stateData:
		if int(c.addr) < regmap.NumRegisters && !regmap.ReadOnly(c.addr) {
			c.regs[c.addr] = mosi
		}
		c.addr++
		c.remaining--
		if c.remaining == 0 {
			c.state = stateOpcode
		}
	}
	return 0, true
}

func (c *Chip) decode(op byte) {
	switch {
	case op == opWakeup, op == opStandby:
		// power states are not modelled
	case op == opReset:
		c.regs = resetImage
		c.regs[regmap.RegID] = c.id
		c.continuous = true
		c.converting = false
		c.resets++
	case op == opStart:
		c.converting = true
	case op == opStop:
		c.converting = false
	case op == opRDATAC:
		c.continuous = true
	case op == opSDATAC:
		c.continuous = false
	case op == opRDATA:
		c.out = append([]byte(nil), c.frame[:]...)
	case op&0xe0 == opRREG, op&0xe0 == opWREG:
		if c.continuous {
			// register access is ignored in continuous mode
			return
		}
		c.op = op & 0xe0
		c.addr = op & 0x1f
		c.state = stateCount
	}
}
