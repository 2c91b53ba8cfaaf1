// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package sim_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warthog618/ads129x/regmap"
	"github.com/warthog618/ads129x/sim"
	"github.com/warthog618/ads129x/spibus"
)

func newBus(t *testing.T, chips ...*sim.Chip) *spibus.Bus {
	t.Helper()
	b, err := spibus.New(sim.NewPeripheral(chips...))
	require.Nil(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func rreg(b *spibus.Bus, c *sim.Chip, addr byte, n int) ([]byte, error) {
	buf := make([]byte, n)
	err := b.Execute(&spibus.Transaction{
		Header: []byte{0x20 | addr, byte(n - 1)},
		Read:   buf,
		CS:     c.ChipSelect(),
	}, time.Second)
	return buf, err
}

func cmd(b *spibus.Bus, c *sim.Chip, op byte) error {
	return b.Execute(&spibus.Transaction{Header: []byte{op}, CS: c.ChipSelect()}, time.Second)
}

func TestChipContinuousIgnoresRegisters(t *testing.T) {
	c := sim.NewChip()
	b := newBus(t, c)
	assert.True(t, c.Continuous())
	buf, err := rreg(b, c, regmap.RegID, 1)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x00}, buf)

	require.Nil(t, cmd(b, c, 0x11))
	assert.False(t, c.Continuous())
	buf, err = rreg(b, c, regmap.RegID, 4)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x92, 0x06, 0x40, 0x40}, buf)
}

func TestChipReset(t *testing.T) {
	c := sim.NewChip(sim.WithID(0x3e))
	b := newBus(t, c)
	require.Nil(t, cmd(b, c, 0x11))
	err := b.Execute(&spibus.Transaction{
		Header: []byte{0x40 | regmap.RegConfig1, 0x00},
		Write:  []byte{0xc6},
		CS:     c.ChipSelect(),
	}, time.Second)
	require.Nil(t, err)
	assert.Equal(t, byte(0xc6), c.Register(regmap.RegConfig1))

	require.Nil(t, cmd(b, c, 0x06))
	assert.Equal(t, 1, c.Resets())
	assert.True(t, c.Continuous())
	assert.Equal(t, byte(0x06), c.Register(regmap.RegConfig1))
	assert.Equal(t, byte(0x3e), c.Register(regmap.RegID))
}

func TestChipReadOnly(t *testing.T) {
	c := sim.NewChip()
	b := newBus(t, c)
	require.Nil(t, cmd(b, c, 0x11))
	err := b.Execute(&spibus.Transaction{
		Header: []byte{0x40 | regmap.RegID, 0x01},
		Write:  []byte{0x00, 0x86},
		CS:     c.ChipSelect(),
	}, time.Second)
	require.Nil(t, err)
	assert.Equal(t, regmap.ChipID, c.Register(regmap.RegID))
	assert.Equal(t, byte(0x86), c.Register(regmap.RegConfig1))
}

func TestChipData(t *testing.T) {
	c := sim.NewChip(sim.WithSource(func(ch int, n uint64) int32 {
		return int32(ch) - 4
	}))
	b := newBus(t, c)
	require.Nil(t, cmd(b, c, 0x11))
	// power down channel 3
	err := b.Execute(&spibus.Transaction{
		Header: []byte{0x40 | regmap.RegChSet(3), 0x00},
		Write:  []byte{0x80},
		CS:     c.ChipSelect(),
	}, time.Second)
	require.Nil(t, err)
	c.Convert()
	assert.Equal(t, uint64(1), c.Conversions())
	frame := make([]byte, 27)
	err = b.Execute(&spibus.Transaction{
		Header: []byte{0x12},
		Read:   frame,
		CS:     c.ChipSelect(),
	}, time.Second)
	require.Nil(t, err)
	assert.Equal(t, []byte{0xc0, 0x00, 0x00}, frame[0:3])
	assert.Equal(t, []byte{0xff, 0xff, 0xfc}, frame[3:6])
	assert.Equal(t, []byte{0xff, 0xff, 0xfd}, frame[6:9])
	assert.Equal(t, []byte{0x00, 0x00, 0x00}, frame[12:15])
	assert.Equal(t, []byte{0x00, 0x00, 0x03}, frame[24:27])
}

func TestChipOnlySelectedResponds(t *testing.T) {
	c0 := sim.NewChip()
	c1 := sim.NewChip(sim.WithID(0x55))
	b := newBus(t, c0, c1)
	require.Nil(t, cmd(b, c1, 0x11))
	assert.True(t, c0.Continuous())
	assert.False(t, c1.Continuous())
	buf, err := rreg(b, c1, regmap.RegID, 1)
	assert.Nil(t, err)
	assert.Equal(t, []byte{0x55}, buf)
}

func TestChipSelect(t *testing.T) {
	c := sim.NewChip()
	b := newBus(t, c)
	cs := c.ChipSelect()
	require.Nil(t, cmd(b, c, 0x11))
	a, d := cs.Counts()
	assert.Equal(t, 1, a)
	assert.Equal(t, 1, d)

	fail := errors.New("stuck")
	cs.FailNext(fail)
	assert.Equal(t, fail, cmd(b, c, 0x11))
	assert.Nil(t, cmd(b, c, 0x11))
	a, d = cs.Counts()
	assert.Equal(t, 2, a)
	assert.Equal(t, 2, d)
}

func TestPeripheralStall(t *testing.T) {
	c := sim.NewChip()
	p := sim.NewPeripheral(c)
	b, err := spibus.New(p, spibus.WithTransferTimeout(20*time.Millisecond))
	require.Nil(t, err)
	defer b.Close()
	p.SetStall(true)
	assert.Equal(t, spibus.ErrTimeout, cmd(b, c, 0x11))
	// a peripheral that never stops fails the bus
	p.SetStall(false)
	assert.Equal(t, spibus.ErrNotInitialized, cmd(b, c, 0x11))
	assert.Equal(t, 1, p.Phases())
}

func TestBoard(t *testing.T) {
	c0 := sim.NewChip()
	c1 := sim.NewChip()
	b := sim.NewBoard([]*sim.Chip{c0, c1})
	assert.Equal(t, c0.ChipSelect(), b.ChipSelect(0))
	assert.Equal(t, c1.ChipSelect(), b.ChipSelect(1))
	assert.Nil(t, b.ChipSelect(2))

	assert.False(t, b.Powered())
	assert.Nil(t, b.PowerUp())
	assert.True(t, b.Powered())
	assert.Equal(t, 1, b.PowerUps())

	count := 0
	assert.False(t, b.DataReady())
	assert.Nil(t, b.EnableDataReady(func() { count++ }))
	assert.True(t, b.DataReadyEnabled())
	assert.True(t, b.DataReady())
	assert.Nil(t, b.DisableDataReady())
	assert.False(t, b.DataReady())
	assert.Equal(t, 1, count)
	assert.Equal(t, uint64(3), c0.Conversions())
	assert.Equal(t, uint64(3), c1.Conversions())

	assert.Nil(t, b.SetStart(true))
	assert.True(t, b.Started())
	assert.Nil(t, b.PowerDown())
	assert.False(t, b.Powered())
}

func TestBoardRate(t *testing.T) {
	c := sim.NewChip()
	b := sim.NewBoard([]*sim.Chip{c}, sim.WithRate(time.Millisecond))
	ready := make(chan struct{}, 100)
	require.Nil(t, b.EnableDataReady(func() {
		select {
		case ready <- struct{}{}:
		default:
		}
	}))
	require.Nil(t, b.SetStart(true))
	for i := 0; i < 3; i++ {
		select {
		case <-ready:
		case <-time.After(time.Second):
			require.Fail(t, "no data ready")
		}
	}
	require.Nil(t, b.SetStart(false))
	n := c.Conversions()
	time.Sleep(10 * time.Millisecond)
	assert.LessOrEqual(t, c.Conversions(), n+1)
}
