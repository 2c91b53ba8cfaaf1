// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

// Package regmap describes the register file of the ADS1298.
//
// Each configuration register has a corresponding type that encodes to, and
// decodes from, the register byte with the field positions and widths of the
// datasheet. Config aggregates the complete register image.
package regmap

import "fmt"

// Register addresses.
const (
	RegID byte = iota
	RegConfig1
	RegConfig2
	RegConfig3
	RegLeadOff
	RegCh1Set
	RegCh2Set
	RegCh3Set
	RegCh4Set
	RegCh5Set
	RegCh6Set
	RegCh7Set
	RegCh8Set
	RegRLDSenseP
	RegRLDSenseN
	RegLeadOffSenseP
	RegLeadOffSenseN
	RegLeadOffFlip
	RegLeadOffStatP
	RegLeadOffStatN
	RegGPIO
	RegPace
	RegResp
	RegConfig4
	RegWCT1
	RegWCT2
)

const (
	// LastRegister is the address of the last register.
	LastRegister = RegWCT2

	// NumRegisters is the size of the register file.
	NumRegisters = int(LastRegister) + 1

	// NumChannels is the number of input channels.
	NumChannels = 8

	// ChipID is the content of the ID register of an ADS1298.
	ChipID byte = 0x92

	// ChipIDMask selects the bits of the ID register that identify the chip.
	ChipIDMask byte = 0xff
)

var names = [NumRegisters]string{
	"ID", "CONFIG1", "CONFIG2", "CONFIG3", "LOFF",
	"CH1SET", "CH2SET", "CH3SET", "CH4SET", "CH5SET", "CH6SET", "CH7SET", "CH8SET",
	"RLD_SENSP", "RLD_SENSN", "LOFF_SENSP", "LOFF_SENSN", "LOFF_FLIP",
	"LOFF_STATP", "LOFF_STATN", "GPIO", "PACE", "RESP", "CONFIG4", "WCT1", "WCT2",
}

// Name returns the datasheet name of the register at addr.
func Name(addr byte) string {
	if int(addr) >= NumRegisters {
		return fmt.Sprintf("REG%02X", addr)
	}
	return names[addr]
}

// RegChSet returns the address of the setting register for the channel,
// numbered from 0.
func RegChSet(ch int) byte {
	return RegCh1Set + byte(ch)
}

// ReadOnly returns true if the register at addr ignores writes.
func ReadOnly(addr byte) bool {
	switch addr {
	case RegID, RegLeadOffStatP, RegLeadOffStatN:
		return true
	}
	return false
}

// Image is the content of the complete register file.
type Image [NumRegisters]byte

// Block is a contiguous run of registers.
type Block struct {
	Addr byte
	Data []byte
}

// Config is the configuration held in the writable registers.
type Config struct {
	Config1       Config1
	Config2       Config2
	Config3       Config3
	LeadOff       LeadOff
	Channels      [NumChannels]ChannelSet
	RLDSenseP     byte
	RLDSenseN     byte
	LeadOffSenseP byte
	LeadOffSenseN byte
	LeadOffFlip   byte
	GPIO          GPIO
	Pace          Pace
	Resp          Resp
	Config4       Config4
	WCT1          WCT1
	WCT2          WCT2
}

// Image encodes the configuration into a register image.
//
// The read-only registers are set to their expected values, the chip ID and
// no lead-off detected.
func (c *Config) Image() Image {
	var img Image
	img[RegID] = ChipID
	img[RegConfig1] = c.Config1.Byte()
	img[RegConfig2] = c.Config2.Byte()
	img[RegConfig3] = c.Config3.Byte()
	img[RegLeadOff] = c.LeadOff.Byte()
	for i, ch := range c.Channels {
		img[RegChSet(i)] = ch.Byte()
	}
	img[RegRLDSenseP] = c.RLDSenseP
	img[RegRLDSenseN] = c.RLDSenseN
	img[RegLeadOffSenseP] = c.LeadOffSenseP
	img[RegLeadOffSenseN] = c.LeadOffSenseN
	img[RegLeadOffFlip] = c.LeadOffFlip
	img[RegGPIO] = c.GPIO.Byte()
	img[RegPace] = c.Pace.Byte()
	img[RegResp] = c.Resp.Byte()
	img[RegConfig4] = c.Config4.Byte()
	img[RegWCT1] = c.WCT1.Byte()
	img[RegWCT2] = c.WCT2.Byte()
	return img
}

// Decode returns the configuration held in a register image.
func Decode(img Image) Config {
	c := Config{
		Config1:       DecodeConfig1(img[RegConfig1]),
		Config2:       DecodeConfig2(img[RegConfig2]),
		Config3:       DecodeConfig3(img[RegConfig3]),
		LeadOff:       DecodeLeadOff(img[RegLeadOff]),
		RLDSenseP:     img[RegRLDSenseP],
		RLDSenseN:     img[RegRLDSenseN],
		LeadOffSenseP: img[RegLeadOffSenseP],
		LeadOffSenseN: img[RegLeadOffSenseN],
		LeadOffFlip:   img[RegLeadOffFlip],
		GPIO:          DecodeGPIO(img[RegGPIO]),
		Pace:          DecodePace(img[RegPace]),
		Resp:          DecodeResp(img[RegResp]),
		Config4:       DecodeConfig4(img[RegConfig4]),
		WCT1:          DecodeWCT1(img[RegWCT1]),
		WCT2:          DecodeWCT2(img[RegWCT2]),
	}
	for i := range c.Channels {
		c.Channels[i] = DecodeChannelSet(img[RegChSet(i)])
	}
	return c
}

// WriteBlocks returns the writable registers as the blocks to be written to
// the chip, CONFIG1 to LOFF_FLIP and GPIO to WCT2.
func (c *Config) WriteBlocks() []Block {
	img := c.Image()
	return []Block{
		{Addr: RegConfig1, Data: img[RegConfig1 : RegLeadOffFlip+1]},
		{Addr: RegGPIO, Data: img[RegGPIO : RegWCT2+1]},
	}
}

// SetChannels applies the setting to all channels.
func (c *Config) SetChannels(cs ChannelSet) {
	for i := range c.Channels {
		c.Channels[i] = cs
	}
}

// Default returns a configuration that is safe to apply before the inputs
// are known.
//
// The chip samples at 500 SPS in high resolution mode with every channel
// shorted at a gain of 12 and powered down. Lead-off detection and the
// Wilson central terminal are disabled and the GPIOs are inputs.
func Default() Config {
	c := Config{
		Config1: Config1{HighRes: true, DaisyDisable: true, DataRate: DR500},
		Config2: Config2{IntTest: true, TestFreq: TestFreqDC},
		Config3: Config3{RefBufEnable: true, RLDRefInt: true},
		LeadOff: LeadOff{FLeadOff: FLeadOffOff},
		GPIO:    GPIO{Control: 0x0f},
		WCT1:    WCT1{WCTA: WCTCh1P},
		WCT2:    WCT2{WCTB: WCTCh1N, WCTC: WCTCh2P},
	}
	c.SetChannels(ChannelSetting(MuxShorted, Gain12, true))
	return c
}
