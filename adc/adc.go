// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package adc frames the commands, register accesses and data reads of an
// ADS1298 as transactions on a shared SPI bus.
package adc

import (
	"errors"
	"sync"
	"time"

	"github.com/warthog618/ads129x/regmap"
	"github.com/warthog618/ads129x/spibus"
)

// Opcodes.
const (
	OpWakeup  byte = 0x02
	OpStandby byte = 0x04
	OpReset   byte = 0x06
	OpStart   byte = 0x08
	OpStop    byte = 0x0a
	OpRDATAC  byte = 0x10
	OpSDATAC  byte = 0x11
	OpRDATA   byte = 0x12
	OpRREG    byte = 0x20
	OpWREG    byte = 0x40
)

// DefaultTimeout is the default limit on acquiring the bus for an access.
const DefaultTimeout = 200 * time.Millisecond

var (
	// ErrOutOfMemory indicates the bus has no free device slot.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidParameter indicates a malformed request.
	ErrInvalidParameter = spibus.ErrInvalidParameter
)

// Device is one ADS1298 on a bus.
type Device struct {
	cs      spibus.ChipSelect
	timeout time.Duration

	mu  sync.Mutex
	bus *spibus.Bus
}

// Option specifies a construction option for a Device.
type Option func(*Device)

// WithTimeout sets the limit on acquiring the bus for each access.
func WithTimeout(d time.Duration) Option {
	return func(dev *Device) {
		dev.timeout = d
	}
}

// Add attaches a device, selected by cs, to the bus.
func Add(bus *spibus.Bus, cs spibus.ChipSelect, options ...Option) (*Device, error) {
	if bus == nil {
		return nil, ErrInvalidParameter
	}
	if err := bus.Attach(cs); err != nil {
		if err == spibus.ErrNoSpace {
			return nil, ErrOutOfMemory
		}
		return nil, err
	}
	d := Device{bus: bus, cs: cs, timeout: DefaultTimeout}
	for _, option := range options {
		option(&d)
	}
	return &d, nil
}

// Remove detaches the device from the bus.
//
// Subsequent accesses return spibus.ErrNotInitialized.
func (d *Device) Remove() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.bus != nil {
		d.bus.Detach(d.cs)
		d.bus = nil
	}
}

// SendCommand sends a single byte command.
func (d *Device) SendCommand(op byte) error {
	return d.execute(&spibus.Transaction{Header: []byte{op}})
}

// ReadRegisters reads len(buf) registers starting from addr.
func (d *Device) ReadRegisters(addr byte, buf []byte) error {
	if err := checkRange(addr, len(buf)); err != nil {
		return err
	}
	return d.execute(&spibus.Transaction{
		Header: header(OpRREG, addr, len(buf)),
		Read:   buf,
	})
}

// WriteRegisters writes buf to the registers starting from addr.
func (d *Device) WriteRegisters(addr byte, buf []byte) error {
	if err := checkRange(addr, len(buf)); err != nil {
		return err
	}
	return d.execute(&spibus.Transaction{
		Header: header(OpWREG, addr, len(buf)),
		Write:  buf,
	})
}

// WriteRegister writes a single register.
func (d *Device) WriteRegister(addr, val byte) error {
	return d.WriteRegisters(addr, []byte{val})
}

// ReadDataFrame reads the most recent conversion.
func (d *Device) ReadDataFrame(f *DataFrame) error {
	if f == nil {
		return ErrInvalidParameter
	}
	return d.execute(&spibus.Transaction{
		Header: []byte{OpRDATA},
		Read:   f[:],
	})
}

func (d *Device) execute(tx *spibus.Transaction) error {
	d.mu.Lock()
	bus := d.bus
	d.mu.Unlock()
	if bus == nil {
		return spibus.ErrNotInitialized
	}
	tx.CS = d.cs
	return bus.Execute(tx, d.timeout)
}

func header(op, addr byte, count int) []byte {
	return []byte{op | addr&0x1f, byte(count - 1)}
}

func checkRange(addr byte, count int) error {
	if count < 1 || int(addr)+count > regmap.NumRegisters {
		return ErrInvalidParameter
	}
	return nil
}
