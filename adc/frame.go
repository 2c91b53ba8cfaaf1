// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package adc

import "github.com/warthog618/ads129x/regmap"

// FrameSize is the size of a data frame, a 24-bit status word followed by
// eight 24-bit channel codes.
const FrameSize = 3 + regmap.NumChannels*3

// DataFrame is the raw content of one conversion.
type DataFrame [FrameSize]byte

// Status returns the status word.
//
// The top nibble reads 0xc, followed by LOFF_STATP, LOFF_STATN and the GPIO
// data bits.
func (f *DataFrame) Status() uint32 {
	return uint32(f[0])<<16 | uint32(f[1])<<8 | uint32(f[2])
}

// Channel returns the code for the channel, numbered from 0.
func (f *DataFrame) Channel(ch int) int32 {
	o := 3 + ch*3
	return Convert24(f[o : o+3])
}

// Channels returns the codes for all channels.
func (f *DataFrame) Channels() [regmap.NumChannels]int32 {
	var cc [regmap.NumChannels]int32
	for i := range cc {
		cc[i] = f.Channel(i)
	}
	return cc
}

// Convert24 converts a big endian 24-bit two's complement code to an int32.
func Convert24(b []byte) int32 {
	v := int32(b[0])<<16 | int32(b[1])<<8 | int32(b[2])
	if v&0x800000 != 0 {
		v -= 1 << 24
	}
	return v
}
