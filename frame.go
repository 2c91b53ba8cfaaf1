// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads129x

import (
	"strconv"

	"github.com/warthog618/ads129x/adc"
	"github.com/warthog618/ads129x/regmap"
)

// NumADCs is the number of ADCs sampled by the controller.
const NumADCs = 2

// Frame is the set of samples from one conversion of both ADCs.
type Frame struct {
	// Seqno is the number of the frame, starting from 0 and incremented for
	// each frame delivered.
	//
	// Gaps are not possible, as dropped cycles are never read, but Dropped
	// reports how many conversions were missed.
	Seqno uint64

	// Status is the 24-bit status word of each ADC.
	Status [NumADCs]uint32

	// Samples holds the channel codes of each ADC, sign extended.
	Samples [NumADCs][regmap.NumChannels]int32
}

// FrameHandler receives frames from the controller.
//
// It is called from the controller goroutine, so it blocks all other
// controller activity while it runs.
type FrameHandler func(Frame)

func (f *Frame) set(i int, df *adc.DataFrame) {
	f.Status[i] = df.Status()
	f.Samples[i] = df.Channels()
}

// String renders the frame as comma separated fields, the sequence number
// followed by the status, in hex, and samples of each ADC in turn.
func (f Frame) String() string {
	b := make([]byte, 0, 256)
	b = strconv.AppendUint(b, f.Seqno, 10)
	for i := range f.Status {
		b = append(b, ',')
		b = strconv.AppendUint(b, uint64(f.Status[i]), 16)
		for _, s := range f.Samples[i] {
			b = append(b, ',')
			b = strconv.AppendInt(b, int64(s), 10)
		}
	}
	return string(b)
}
