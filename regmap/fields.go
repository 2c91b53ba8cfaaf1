// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package regmap

// field places the low width bits of v at the shift position.
func field(v uint8, width, shift uint) byte {
	return (v & (1<<width - 1)) << shift
}

// flag places b at the shift position.
func flag(b bool, shift uint) byte {
	if b {
		return 1 << shift
	}
	return 0
}

// get extracts the width bits at the shift position.
func get(b byte, width, shift uint) uint8 {
	return (b >> shift) & (1<<width - 1)
}

// isSet returns the bit at the shift position.
func isSet(b byte, shift uint) bool {
	return b&(1<<shift) != 0
}

// DataRate is the output data rate code, named by the rate in high
// resolution mode.
type DataRate uint8

// Data rates.
const (
	DR32k DataRate = iota
	DR16k
	DR8k
	DR4k
	DR2k
	DR1k
	DR500
)

// SPS returns the samples per second of the rate, which halves in low power
// mode, or 0 for a reserved code.
func (r DataRate) SPS(highRes bool) int {
	if r > DR500 {
		return 0
	}
	sps := 32000 >> r
	if !highRes {
		sps /= 2
	}
	return sps
}

// TestFreq is the frequency of the internal test signal.
type TestFreq uint8

// Test signal frequencies.
const (
	TestFreqSlow TestFreq = 0
	TestFreqFast TestFreq = 1
	TestFreqDC   TestFreq = 3
)

// FLeadOff is the lead-off detection mode.
type FLeadOff uint8

// Lead-off modes.
//
// FLeadOffOff must not be used while any LOFF_SENSP or LOFF_SENSN bit is
// set.
const (
	FLeadOffOff FLeadOff = 0
	FLeadOffAC  FLeadOff = 1
	FLeadOffDC  FLeadOff = 3
)

// Mux is the input selection of a channel.
type Mux uint8

// Channel inputs.
const (
	MuxNormal Mux = iota
	MuxShorted
	MuxRLDMeasure
	MuxSupply
	MuxTemperature
	MuxTest
	MuxRLDDrivePositive
	MuxRLDDriveNegative
)

// Gain is the PGA gain code of a channel.
type Gain uint8

// PGA gains.
const (
	Gain6 Gain = iota
	Gain1
	Gain2
	Gain3
	Gain4
	Gain8
	Gain12
)

var gains = [...]int{6, 1, 2, 3, 4, 8, 12}

// Value returns the numeric gain, or 0 if the code is invalid.
func (g Gain) Value() int {
	if int(g) >= len(gains) {
		return 0
	}
	return gains[g]
}

// WCTInput is the channel input connected to a WCT amplifier.
type WCTInput uint8

// WCT amplifier inputs.
const (
	WCTCh1P WCTInput = iota
	WCTCh1N
	WCTCh2P
	WCTCh2N
	WCTCh3P
	WCTCh3N
	WCTCh4P
	WCTCh4N
)

// Config1 is the CONFIG1 register.
type Config1 struct {
	HighRes      bool
	DaisyDisable bool
	ClockOut     bool
	DataRate     DataRate
}

// Byte encodes the register.
func (r Config1) Byte() byte {
	return flag(r.HighRes, 7) |
		flag(r.DaisyDisable, 6) |
		flag(r.ClockOut, 5) |
		field(uint8(r.DataRate), 3, 0)
}

// DecodeConfig1 decodes the CONFIG1 register.
func DecodeConfig1(b byte) Config1 {
	return Config1{
		HighRes:      isSet(b, 7),
		DaisyDisable: isSet(b, 6),
		ClockOut:     isSet(b, 5),
		DataRate:     DataRate(get(b, 3, 0)),
	}
}

// Config2 is the CONFIG2 register.
type Config2 struct {
	WCTChop  bool
	IntTest  bool
	TestAmp  bool
	TestFreq TestFreq
}

// Byte encodes the register.
func (r Config2) Byte() byte {
	return flag(r.WCTChop, 5) |
		flag(r.IntTest, 4) |
		flag(r.TestAmp, 2) |
		field(uint8(r.TestFreq), 2, 0)
}

// DecodeConfig2 decodes the CONFIG2 register.
func DecodeConfig2(b byte) Config2 {
	return Config2{
		WCTChop:  isSet(b, 5),
		IntTest:  isSet(b, 4),
		TestAmp:  isSet(b, 2),
		TestFreq: TestFreq(get(b, 2, 0)),
	}
}

// Config3 is the CONFIG3 register.
//
// Bit 6 is reserved and always written as 1.
type Config3 struct {
	RefBufEnable    bool
	Vref4V          bool
	RLDMeasure      bool
	RLDRefInt       bool
	RLDEnable       bool
	RLDLeadOffSense bool
	RLDStat         bool
}

// Byte encodes the register.
func (r Config3) Byte() byte {
	return flag(r.RefBufEnable, 7) |
		1<<6 |
		flag(r.Vref4V, 5) |
		flag(r.RLDMeasure, 4) |
		flag(r.RLDRefInt, 3) |
		flag(r.RLDEnable, 2) |
		flag(r.RLDLeadOffSense, 1) |
		flag(r.RLDStat, 0)
}

// DecodeConfig3 decodes the CONFIG3 register.
func DecodeConfig3(b byte) Config3 {
	return Config3{
		RefBufEnable:    isSet(b, 7),
		Vref4V:          isSet(b, 5),
		RLDMeasure:      isSet(b, 4),
		RLDRefInt:       isSet(b, 3),
		RLDEnable:       isSet(b, 2),
		RLDLeadOffSense: isSet(b, 1),
		RLDStat:         isSet(b, 0),
	}
}

// Config4 is the CONFIG4 register.
type Config4 struct {
	RespFreq          uint8
	SingleShot        bool
	WCTToRLD          bool
	LeadOffCompEnable bool
}

// Byte encodes the register.
func (r Config4) Byte() byte {
	return field(r.RespFreq, 3, 5) |
		flag(r.SingleShot, 3) |
		flag(r.WCTToRLD, 2) |
		flag(r.LeadOffCompEnable, 1)
}

// DecodeConfig4 decodes the CONFIG4 register.
func DecodeConfig4(b byte) Config4 {
	return Config4{
		RespFreq:          get(b, 3, 5),
		SingleShot:        isSet(b, 3),
		WCTToRLD:          isSet(b, 2),
		LeadOffCompEnable: isSet(b, 1),
	}
}

// SingleShotBit is the single-shot conversion bit of CONFIG4.
const SingleShotBit byte = 1 << 3

// LeadOff is the LOFF register.
type LeadOff struct {
	CompThreshold uint8
	VLeadOff      bool
	ILeadOff      uint8
	FLeadOff      FLeadOff
}

// Byte encodes the register.
func (r LeadOff) Byte() byte {
	return field(r.CompThreshold, 3, 5) |
		flag(r.VLeadOff, 4) |
		field(r.ILeadOff, 2, 2) |
		field(uint8(r.FLeadOff), 2, 0)
}

// DecodeLeadOff decodes the LOFF register.
func DecodeLeadOff(b byte) LeadOff {
	return LeadOff{
		CompThreshold: get(b, 3, 5),
		VLeadOff:      isSet(b, 4),
		ILeadOff:      get(b, 2, 2),
		FLeadOff:      FLeadOff(get(b, 2, 0)),
	}
}

// ChannelSet is a CHnSET register.
type ChannelSet struct {
	PowerDown bool
	Gain      Gain
	Mux       Mux
}

// ChannelSetting returns the channel setting for the input, gain and power
// state.
func ChannelSetting(mux Mux, gain Gain, powerDown bool) ChannelSet {
	return ChannelSet{PowerDown: powerDown, Gain: gain, Mux: mux}
}

// Byte encodes the register.
func (r ChannelSet) Byte() byte {
	return flag(r.PowerDown, 7) |
		field(uint8(r.Gain), 3, 4) |
		field(uint8(r.Mux), 3, 0)
}

// DecodeChannelSet decodes a CHnSET register.
func DecodeChannelSet(b byte) ChannelSet {
	return ChannelSet{
		PowerDown: isSet(b, 7),
		Gain:      Gain(get(b, 3, 4)),
		Mux:       Mux(get(b, 3, 0)),
	}
}

// GPIO is the GPIO register.
//
// Control bits set the corresponding pin as an input.
type GPIO struct {
	Data    uint8
	Control uint8
}

// Byte encodes the register.
func (r GPIO) Byte() byte {
	return field(r.Data, 4, 4) | field(r.Control, 4, 0)
}

// DecodeGPIO decodes the GPIO register.
func DecodeGPIO(b byte) GPIO {
	return GPIO{Data: get(b, 4, 4), Control: get(b, 4, 0)}
}

// Pace is the PACE register.
type Pace struct {
	PaceEven         uint8
	PaceOdd          uint8
	PaceBufferEnable bool
}

// Byte encodes the register.
func (r Pace) Byte() byte {
	return field(r.PaceEven, 2, 3) |
		field(r.PaceOdd, 2, 1) |
		flag(r.PaceBufferEnable, 0)
}

// DecodePace decodes the PACE register.
func DecodePace(b byte) Pace {
	return Pace{
		PaceEven:         get(b, 2, 3),
		PaceOdd:          get(b, 2, 1),
		PaceBufferEnable: isSet(b, 0),
	}
}

// Resp is the RESP register.
//
// Bit 5 is reserved and always written as 1.
type Resp struct {
	DemodEnable bool
	ModEnable   bool
	Phase       uint8
	Control     uint8
}

// Byte encodes the register.
func (r Resp) Byte() byte {
	return flag(r.DemodEnable, 7) |
		flag(r.ModEnable, 6) |
		1<<5 |
		field(r.Phase, 3, 2) |
		field(r.Control, 2, 0)
}

// DecodeResp decodes the RESP register.
func DecodeResp(b byte) Resp {
	return Resp{
		DemodEnable: isSet(b, 7),
		ModEnable:   isSet(b, 6),
		Phase:       get(b, 3, 2),
		Control:     get(b, 2, 0),
	}
}

// WCT1 is the WCT1 register.
type WCT1 struct {
	AVFCh6     bool
	AVLCh5     bool
	AVRCh7     bool
	AVRCh4     bool
	WCTAEnable bool
	WCTA       WCTInput
}

// Byte encodes the register.
func (r WCT1) Byte() byte {
	return flag(r.AVFCh6, 7) |
		flag(r.AVLCh5, 6) |
		flag(r.AVRCh7, 5) |
		flag(r.AVRCh4, 4) |
		flag(r.WCTAEnable, 3) |
		field(uint8(r.WCTA), 3, 0)
}

// DecodeWCT1 decodes the WCT1 register.
func DecodeWCT1(b byte) WCT1 {
	return WCT1{
		AVFCh6:     isSet(b, 7),
		AVLCh5:     isSet(b, 6),
		AVRCh7:     isSet(b, 5),
		AVRCh4:     isSet(b, 4),
		WCTAEnable: isSet(b, 3),
		WCTA:       WCTInput(get(b, 3, 0)),
	}
}

// WCT2 is the WCT2 register.
type WCT2 struct {
	WCTCEnable bool
	WCTBEnable bool
	WCTB       WCTInput
	WCTC       WCTInput
}

// Byte encodes the register.
func (r WCT2) Byte() byte {
	return flag(r.WCTCEnable, 7) |
		flag(r.WCTBEnable, 6) |
		field(uint8(r.WCTB), 3, 3) |
		field(uint8(r.WCTC), 3, 0)
}

// DecodeWCT2 decodes the WCT2 register.
func DecodeWCT2(b byte) WCT2 {
	return WCT2{
		WCTCEnable: isSet(b, 7),
		WCTBEnable: isSet(b, 6),
		WCTB:       WCTInput(get(b, 3, 3)),
		WCTC:       WCTInput(get(b, 3, 0)),
	}
}
