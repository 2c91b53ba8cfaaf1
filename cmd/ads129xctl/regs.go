// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/warthog618/ads129x"
)

func init() {
	rootCmd.AddCommand(configCmd)
	setregCmd.Flags().BoolVarP(&setregOpts.Show, "show", "s", false, "display the configuration after the write")
	rootCmd.AddCommand(setregCmd)
}

var (
	configCmd = &cobra.Command{
		Use:   "config <adc>",
		Short: "Display the configuration of an ADC",
		Long: `Display the identity and register configuration of an ADC.

The configuration is printed as the ADC number followed by an address and
value pair, in hex, for each register.`,
		Args: cobra.ExactArgs(1),
		RunE: showConfig,
	}
	setregCmd = &cobra.Command{
		Use:   "setreg [flags] <adc> <addr> <value>",
		Short: "Write a register of an ADC",
		Long: `Write a register of an ADC, while acquisition is stopped.

The address and value may be given in decimal, or in hex with a 0x prefix.
The ADCs are reinitialised on each invocation, so the write only lasts for
the invocation. Use the --reg option of stream and single to acquire with
modified registers.`,
		Args:                  cobra.ExactArgs(3),
		RunE:                  setreg,
		DisableFlagsInUseLine: true,
	}
	setregOpts = struct {
		Show bool
	}{}
)

func parseADC(arg string) (int, error) {
	v, err := strconv.ParseUint(arg, 10, 8)
	if err != nil || v >= ads129x.NumADCs {
		return 0, fmt.Errorf("can't parse adc '%s'", arg)
	}
	return int(v), nil
}

func parseByte(name, arg string) (byte, error) {
	v, err := strconv.ParseUint(arg, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("can't parse %s '%s'", name, arg)
	}
	return byte(v), nil
}

func showConfig(cmd *cobra.Command, args []string) error {
	which, err := parseADC(args[0])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logErr(cmd, err)
		}
	}()
	cfg, err := s.c.Config(which, s.timeout)
	if err != nil {
		return err
	}
	fmt.Println(cfg)
	return nil
}

func setreg(cmd *cobra.Command, args []string) error {
	which, err := parseADC(args[0])
	if err != nil {
		return err
	}
	addr, err := parseByte("address", args[1])
	if err != nil {
		return err
	}
	val, err := parseByte("value", args[2])
	if err != nil {
		return err
	}
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer func() {
		if err := s.Close(); err != nil {
			logErr(cmd, err)
		}
	}()
	if err = s.c.SetRegister(which, addr, val, s.timeout); err != nil {
		return err
	}
	if !setregOpts.Show {
		return nil
	}
	cfg, err := s.c.Config(which, s.timeout)
	if err != nil {
		return err
	}
	fmt.Println(cfg)
	return nil
}

// regWrite is a register write requested on the command line, in the form
// <adc>:<addr>=<value>.
type regWrite struct {
	which int
	addr  byte
	val   byte
}

func parseRegWrite(arg string) (w regWrite, err error) {
	parts := strings.FieldsFunc(arg, func(r rune) bool { return r == ':' || r == '=' })
	if len(parts) != 3 {
		return w, fmt.Errorf("can't parse register write '%s'", arg)
	}
	if w.which, err = parseADC(parts[0]); err != nil {
		return
	}
	if w.addr, err = parseByte("address", parts[1]); err != nil {
		return
	}
	w.val, err = parseByte("value", parts[2])
	return
}

func parseRegWrites(args []string) ([]regWrite, error) {
	ww := make([]regWrite, 0, len(args))
	for _, arg := range args {
		w, err := parseRegWrite(arg)
		if err != nil {
			return nil, err
		}
		ww = append(ww, w)
	}
	return ww, nil
}

func (s *session) writeRegisters(ww []regWrite) error {
	for _, w := range ww {
		if err := s.c.SetRegister(w.which, w.addr, w.val, s.timeout); err != nil {
			return err
		}
		s.log.Debug().
			Int("adc", w.which).
			Hex("addr", []byte{w.addr}).
			Hex("value", []byte{w.val}).
			Msg("register written")
	}
	return nil
}
