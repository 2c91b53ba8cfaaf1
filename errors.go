// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads129x

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/warthog618/ads129x/adc"
	"github.com/warthog618/ads129x/spibus"
)

var (
	// ErrInvalidParameter indicates a malformed request.
	ErrInvalidParameter = spibus.ErrInvalidParameter

	// ErrNotInitialized indicates the controller, or the bus beneath it, is
	// not available.
	ErrNotInitialized = spibus.ErrNotInitialized

	// ErrTimeout indicates a request could not be completed in the time
	// allowed.
	ErrTimeout = spibus.ErrTimeout

	// ErrNoSpace indicates there is no free bus slot.
	ErrNoSpace = spibus.ErrNoSpace

	// ErrOutOfMemory indicates there is no free device slot on the bus.
	ErrOutOfMemory = adc.ErrOutOfMemory

	// ErrFifoOverflow indicates the command queue is full.
	ErrFifoOverflow = errors.New("command queue overflow")

	// ErrInvalidState indicates the request is not permitted in the current
	// state, such as a register access while running.
	ErrInvalidState = errors.New("invalid state")

	// ErrUnknown is the code of errors without a more specific code.
	ErrUnknown = errors.New("unknown error")
)

// ChipIDError indicates the ID register of an ADC does not identify an
// ADS1298.
type ChipIDError struct {
	// ADC is the index of the ADC.
	ADC int

	// ID is the content of the ID register.
	ID byte
}

func (e ChipIDError) Error() string {
	return fmt.Sprintf("adc%d: unexpected chip id 0x%02x", e.ADC, e.ID)
}

// Is identifies a ChipIDError as an ErrInvalidParameter.
func (e ChipIDError) Is(target error) bool {
	return target == ErrInvalidParameter
}

// Numeric error codes, as reported to remote clients.
const (
	CodeNoError          uint16 = 0x00
	CodeFifoOverflow     uint16 = 0x05
	CodeUnknown          uint16 = 0x06
	CodeInvalidParameter uint16 = 0x09
	CodeNoSpace          uint16 = 0x0d
	CodeNotInitialized   uint16 = 0x0e
	CodeTimeout          uint16 = 0x10
	CodeOutOfMemory      uint16 = 0x15
	CodeInvalidState     uint16 = 0x17
)

var codes = []struct {
	err  error
	code uint16
}{
	{ErrFifoOverflow, CodeFifoOverflow},
	{ErrInvalidParameter, CodeInvalidParameter},
	{ErrNoSpace, CodeNoSpace},
	{ErrNotInitialized, CodeNotInitialized},
	{ErrTimeout, CodeTimeout},
	{ErrOutOfMemory, CodeOutOfMemory},
	{ErrInvalidState, CodeInvalidState},
}

// Code returns the numeric code for the error.
//
// Errors that do not wrap one of the package errors map to CodeUnknown.
func Code(err error) uint16 {
	if err == nil {
		return CodeNoError
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeUnknown
}
