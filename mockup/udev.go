// SPDX-License-Identifier: MIT
//
// SPDX-FileCopyrightText: © 2019 Kent Gibson <warthog618@gmail.com>.

//go:build linux
// +build linux

package mockup

import (
	"errors"
	"fmt"
	"time"

	"github.com/pilebones/go-udev/netlink"
)

// udevMonitor watches for the creation of gpio-mockup chips.
type udevMonitor struct {
	conn   *netlink.UEventConn
	queue  chan netlink.UEvent
	errors chan error
	quit   chan struct{}
}

func newUdevMonitor() (*udevMonitor, error) {
	conn := new(netlink.UEventConn)
	if err := conn.Connect(netlink.UdevEvent); err != nil {
		return nil, fmt.Errorf("unable to connect to Netlink Kobject UEvent socket")
	}
	action := "add"
	matcher := &netlink.RuleDefinition{Action: &action,
		Env: map[string]string{
			"SUBSYSTEM": "gpio",
			"DEVPATH":   "/devices/platform/gpio-mockup\\.\\d+/gpiochip\\d+",
		}}
	m := udevMonitor{
		conn:   conn,
		queue:  make(chan netlink.UEvent, 4),
		errors: make(chan error),
	}
	m.quit = conn.Monitor(m.queue, m.errors, matcher)
	return &m, nil
}

// chip waits for the chip to be added and describes it.
func (m *udevMonitor) chip(lines int) (*Chip, error) {
	t := time.NewTimer(time.Second)
	defer t.Stop()
	var evt netlink.UEvent
	select {
	case evt = <-m.queue:
	case err := <-m.errors:
		return nil, err
	case <-t.C:
		return nil, errors.New("timeout waiting for udev events")
	}
	devpath := evt.Env["DEVNAME"]
	if len(devpath) <= len("/dev/") {
		return nil, fmt.Errorf("unexpected device name: %q", devpath)
	}
	name := devpath[len("/dev/"):]
	var num int
	if _, err := fmt.Sscanf(name, "gpiochip%d", &num); err != nil {
		return nil, fmt.Errorf("failed to parse chip num: %s", err)
	}
	return &Chip{
		Name:      name,
		Label:     "gpio-mockup-A",
		Lines:     lines,
		DevPath:   devpath,
		DbgfsPath: fmt.Sprintf("%s/%s/", dbgfsRoot, name),
	}, nil
}

func (m *udevMonitor) close() {
	close(m.quit)
	m.conn.Close()
}
