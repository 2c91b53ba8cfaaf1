// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
)

func init() {
	streamCmd.Flags().UintVarP(&streamOpts.NumFrames, "num-frames", "n", 0, "exit after n frames")
	streamCmd.Flags().BoolVarP(&streamOpts.Quiet, "quiet", "q", false, "don't display the frames")
	streamCmd.Flags().StringSliceVarP(&streamOpts.Regs, "reg", "r", nil, "write a register, as <adc>:<addr>=<value>, before starting")
	rootCmd.AddCommand(streamCmd)
	singleCmd.Flags().DurationVarP(&singleOpts.Wait, "wait", "w", time.Second, "the time to wait for the frame")
	singleCmd.Flags().StringSliceVarP(&singleOpts.Regs, "reg", "r", nil, "write a register, as <adc>:<addr>=<value>, before starting")
	rootCmd.AddCommand(singleCmd)
}

var (
	streamCmd = &cobra.Command{
		Use:   "stream [flags]",
		Short: "Stream frames from the ADCs",
		Long: `Acquire continuously from both ADCs and print each frame to standard output.

Each frame is printed as a line containing the frame sequence number followed,
for each ADC, by the status word in hex and the eight channel samples.`,
		Args: cobra.NoArgs,
		RunE: stream,
	}
	streamOpts = struct {
		NumFrames uint
		Quiet     bool
		Regs      []string
	}{}
	singleCmd = &cobra.Command{
		Use:   "single [flags]",
		Short: "Acquire a single frame from the ADCs",
		Long:  `Perform a single conversion on both ADCs and print the frame to standard output.`,
		Args:  cobra.NoArgs,
		RunE:  single,
	}
	singleOpts = struct {
		Wait time.Duration
		Regs []string
	}{}
)

func stream(cmd *cobra.Command, args []string) error {
	regs, err := parseRegWrites(streamOpts.Regs)
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
	sigdone := make(chan os.Signal, 1)
	signal.Notify(sigdone, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigdone)
	if err := s.writeRegisters(regs); err != nil {
		return err
	}
	if err := s.c.Start(false); err != nil {
		return err
	}
	count := uint(0)
	for {
		select {
		case f := <-s.frames:
			if !streamOpts.Quiet {
				fmt.Println(f.String())
			}
			count++
			if streamOpts.NumFrames > 0 && count >= streamOpts.NumFrames {
				return s.c.Stop()
			}
		case <-sigdone:
			return s.c.Stop()
		}
	}
}

func single(cmd *cobra.Command, args []string) error {
	regs, err := parseRegWrites(singleOpts.Regs)
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
	if err := s.writeRegisters(regs); err != nil {
		return err
	}
	if err := s.c.Start(true); err != nil {
		return err
	}
	t := time.NewTimer(singleOpts.Wait)
	defer t.Stop()
	select {
	case f := <-s.frames:
		fmt.Println(f.String())
		return nil
	case <-t.C:
		return fmt.Errorf("no frame within %s", singleOpts.Wait)
	}
}
