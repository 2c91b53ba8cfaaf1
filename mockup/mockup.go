// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

// Package mockup provides a mock GPIO chip, using the Linux gpio-mockup
// kernel module, on which to test the board wiring.
//
// The lines of the chip can be pulled up or down from the test, as an
// external driver such as the DRDY output of an ADC would, and the level
// driven by an output can be read back.
//
// Requires root, the gpio-mockup module and a debugfs mounted at
// /sys/kernel/debug.
package mockup

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"
)

const dbgfsRoot = "/sys/kernel/debug/gpio-mockup"

// ErrNotRoot indicates the mockup cannot be created without root.
var ErrNotRoot = errors.New("gpio-mockup requires root")

// Mockup is a mocked GPIO chip.
//
// Only one Mockup can be present on a system at any time.
type Mockup struct {
	mu   sync.Mutex
	chip *Chip
}

// Chip describes the mocked chip.
type Chip struct {
	// Name is the name of the chip, e.g. gpiochip0.
	Name string

	// Label is the label of the chip.
	Label string

	// Lines is the number of lines on the chip.
	Lines int

	// DevPath is the path to the chip character device.
	DevPath string

	// DbgfsPath is the debugfs directory containing the line controls.
	DbgfsPath string
}

// New loads the gpio-mockup module to provide a single chip with the given
// number of lines.
//
// Any existing gpio-mockup module is unloaded first.
func New(lines int) (*Mockup, error) {
	if lines <= 0 {
		return nil, unix.EINVAL
	}
	if err := IsSupported(); err != nil {
		return nil, err
	}
	exec.Command("rmmod", "gpio-mockup").Run()

	um, err := newUdevMonitor()
	if err != nil {
		return nil, fmt.Errorf("failed to start udev monitor: %s", err)
	}
	defer um.close()

	cmd := exec.Command("modprobe", "gpio-mockup",
		"gpio_mockup_named_lines",
		fmt.Sprintf("gpio_mockup_ranges=-1,%d", lines))
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("failed to load gpio-mockup: %s", err)
	}
	if err := unix.Access(dbgfsRoot, unix.R_OK|unix.W_OK); err != nil {
		return nil, err
	}
	c, err := um.chip(lines)
	if err != nil {
		exec.Command("rmmod", "gpio-mockup").Run()
		return nil, err
	}
	return &Mockup{chip: c}, nil
}

// Chip returns the mocked chip.
func (m *Mockup) Chip() *Chip {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.chip
}

// Close unloads the gpio-mockup module, removing the chip.
func (m *Mockup) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.chip == nil {
		return nil
	}
	m.chip = nil
	return exec.Command("rmmod", "gpio-mockup").Run()
}

func (c *Chip) linePath(offset int) (string, error) {
	if offset < 0 || offset >= c.Lines {
		return "", ErrorIndexRange{offset, c.Lines}
	}
	return fmt.Sprintf("%s%d", c.DbgfsPath, offset), nil
}

// Level returns the level of the line, as driven by an output or pulled
// by Pull.
func (c *Chip) Level(offset int) (int, error) {
	path, err := c.linePath(offset)
	if err != nil {
		return 0, err
	}
	v, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	if len(v) > 0 && v[0] == '1' {
		return 1, nil
	}
	return 0, nil
}

// Pull sets the pull of the line, which determines the level of an input.
func (c *Chip) Pull(offset int, value int) error {
	path, err := c.linePath(offset)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	defer f.Close()
	v := []byte{'0'}
	if value != 0 {
		v[0] = '1'
	}
	_, err = f.Write(v)
	return err
}

// IsSupported returns an error if the mockup cannot be created on this
// platform.
func IsSupported() error {
	if unix.Geteuid() != 0 {
		return ErrNotRoot
	}
	return CheckKernelVersion(version{5, 1, 0})
}

// KernelVersion returns the running kernel version.
func KernelVersion() ([]byte, error) {
	var uts unix.Utsname
	if err := unix.Uname(&uts); err != nil {
		return nil, err
	}
	release := unix.ByteSliceToString(uts.Release[:])
	r := regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)`)
	vers := r.FindStringSubmatch(release)
	if len(vers) != 4 {
		return nil, fmt.Errorf("can't parse kernel release: %s", release)
	}
	v := []byte{0, 0, 0}
	for i, vf := range vers[1:] {
		vfi, err := strconv.ParseUint(vf, 10, 8)
		if err != nil {
			return nil, err
		}
		v[i] = byte(vfi)
	}
	return v, nil
}

// CheckKernelVersion returns an error if the kernel version is less than
// the min.
func CheckKernelVersion(min version) error {
	kv, err := KernelVersion()
	if err != nil {
		return err
	}
	if bytes.Compare(kv, min) < 0 {
		return ErrorBadVersion{Need: min, Have: kv}
	}
	return nil
}

// 3 part version, Major, Minor, Patch.
type version []byte

func (v version) String() string {
	if len(v) == 0 {
		return ""
	}
	vstr := strconv.Itoa(int(v[0]))
	for i := 1; i < len(v); i++ {
		vstr += "." + strconv.Itoa(int(v[i]))
	}
	return vstr
}

// ErrorIndexRange indicates the requested line is beyond the chip.
type ErrorIndexRange struct {
	Req   int
	Limit int
}

func (e ErrorIndexRange) Error() string {
	return fmt.Sprintf("index out of range - got %d, limit is %d.", e.Req, e.Limit)
}

// ErrorBadVersion indicates the kernel version is insufficient.
type ErrorBadVersion struct {
	Need version
	Have version
}

func (e ErrorBadVersion) Error() string {
	return fmt.Sprintf("require kernel %s or later, but running %s", e.Need, e.Have)
}
