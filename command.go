// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package ads129x

import (
	"strconv"

	"github.com/warthog618/ads129x/regmap"
)

type commandType int

const (
	cmdInit commandType = iota
	cmdData
	cmdStart
	cmdStop
	cmdSingle
	cmdGetConfig
	cmdSetRegister
	cmdTerminate
)

var commandNames = [...]string{
	cmdInit:        "init",
	cmdData:        "data",
	cmdStart:       "start",
	cmdStop:        "stop",
	cmdSingle:      "single",
	cmdGetConfig:   "getconfig",
	cmdSetRegister: "setregister",
	cmdTerminate:   "terminate",
}

func (t commandType) String() string {
	if t < 0 || int(t) >= len(commandNames) {
		return "unknown"
	}
	return commandNames[t]
}

// command is a request to the controller goroutine.
type command struct {
	typ commandType

	// seq tags requests that return a result.
	seq uint64

	which int
	addr  byte
	val   byte
}

// request returns true if the command is answered on the result channel.
func (c command) request() bool {
	return c.typ == cmdGetConfig || c.typ == cmdSetRegister
}

// result is the response to a request.
type result struct {
	seq uint64
	err error
	img regmap.Image
}

// ConfigLen is the length of a complete rendered configuration.
const ConfigLen = 1 + regmap.NumRegisters*configEntryLen

const (
	configEntryLen = 5
	hexDigits      = "0123456789ABCDEF"
)

// formatConfig renders the register image into out as the ADC index
// followed by a ",RRVV" entry per register, stopping at the last entry
// that fits.
//
// Returns the number of bytes written.
func formatConfig(out []byte, which int, img *regmap.Image) int {
	n := copy(out, strconv.Itoa(which))
	var entry [configEntryLen]byte
	entry[0] = ','
	for addr, val := range img {
		if n+configEntryLen > len(out) {
			break
		}
		entry[1] = hexDigits[addr>>4]
		entry[2] = hexDigits[addr&0x0f]
		entry[3] = hexDigits[val>>4]
		entry[4] = hexDigits[val&0x0f]
		n += copy(out[n:], entry[:])
	}
	return n
}
