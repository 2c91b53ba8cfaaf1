// SPDX-FileCopyrightText: 2019 Kent Gibson <warthog618@gmail.com>
//
// SPDX-License-Identifier: MIT

//go:build linux
// +build linux

// A utility to acquire from and configure a pair of ADS1298s.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/warthog618/ads129x"
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringP("config-file", "c", "", "read settings from the JSON file")
	pf.String("gpiochip", "", "the GPIO chip carrying the control lines")
	pf.String("port", "", "the SPI port, or \"gpio\" to bit bash the bus")
	pf.Int("clock", 0, "the SPI clock rate in Hz")
	pf.Int("priority", 0, "the SCHED_FIFO priority of the acquisition goroutines")
	pf.Duration("timeout", 0, "the timeout for register requests")
	pf.String("log", "", "the log level")
	pf.Bool("sim", false, "acquire from simulated ADCs")
	pf.Duration("rate", 0, "the conversion interval of the simulated ADCs")
}

var rootCmd = &cobra.Command{
	Use:   "ads129xctl",
	Short: "ads129xctl is a utility to acquire from a pair of ADS1298s",
	Long: "ads129xctl is a utility to acquire synchronised samples from, " +
		"and configure, a pair of ADS1298 ADCs sharing an SPI bus",
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

func main() {
	if cmd, err := rootCmd.ExecuteC(); err != nil {
		logErr(cmd, err)
		os.Exit(1)
	}
}

func logErr(cmd *cobra.Command, err error) {
	fmt.Fprintf(os.Stderr, "ads129xctl %s: %s (code 0x%02x)\n",
		cmd.Name(), err, ads129x.Code(err))
}
