// SPDX-License-Identifier: MIT
//
// Copyright © 2019 Kent Gibson <warthog618@gmail.com>.

package spibus

import (
	"sync"
	"time"
)

// MaxBuses is the number of buses a Host can drive.
const MaxBuses = 2

// ID identifies a bus within a Host.
type ID int

// Host is a fixed table of buses, addressed by ID.
//
// The zero value is ready to use.
type Host struct {
	mu    sync.Mutex
	buses [MaxBuses]*Bus
}

// Init creates a Bus for the peripheral in a free slot.
//
// Returns ErrNoSpace if all slots are in use.
func (h *Host) Init(p Peripheral, options ...Option) (ID, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, b := range h.buses {
		if b != nil {
			continue
		}
		b, err := New(p, options...)
		if err != nil {
			return 0, err
		}
		h.buses[i] = b
		return ID(i), nil
	}
	return 0, ErrNoSpace
}

// Bus returns the Bus with the given ID.
func (h *Host) Bus(id ID) (*Bus, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if id < 0 || int(id) >= len(h.buses) || h.buses[id] == nil {
		return nil, ErrNotInitialized
	}
	return h.buses[id], nil
}

// Execute performs the transaction on the identified bus.
func (h *Host) Execute(id ID, tx *Transaction, timeout time.Duration) error {
	b, err := h.Bus(id)
	if err != nil {
		return err
	}
	return b.Execute(tx, timeout)
}

// Deinit closes the identified bus and frees its slot.
func (h *Host) Deinit(id ID) error {
	h.mu.Lock()
	if id < 0 || int(id) >= len(h.buses) || h.buses[id] == nil {
		h.mu.Unlock()
		return ErrNotInitialized
	}
	b := h.buses[id]
	h.buses[id] = nil
	h.mu.Unlock()
	return b.Close()
}
