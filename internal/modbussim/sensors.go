// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package modbussim implements a small Modbus/TCP slave: a bank of six
// holding registers fed by deterministic sinusoids, served over the subset
// of the protocol the tag store's Modbus driver speaks (function 3, single
// slave, MBAP framing).
package modbussim

import (
	"math"
	"sync"
	"time"
)

const SensorCount = 6

// Sensors is the shared register bank. The update loop holds the mutex
// briefly to write, connection handlers briefly to read.
type Sensors struct {
	mu     sync.Mutex
	values [SensorCount]uint16
}

func NewSensors() *Sensors {
	return &Sensors{
		values: [SensorCount]uint16{200, 500, 1013, 120, 1000, 1},
	}
}

// Update recomputes the bank for the given elapsed time since start. The
// shapes are deterministic, so two simulators started together agree.
func (s *Sensors) Update(elapsed time.Duration) {
	t := elapsed.Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[0] = uint16(200.0 + math.Sin(t*0.1)*50.0)
	s.values[1] = uint16(500.0 + math.Cos(t*0.05)*100.0)
	s.values[2] = uint16(1013.0 + math.Sin(t*0.1)*10.0)
	s.values[3] = uint16(120.0 + math.Cos(t*0.2)*20.0)
	s.values[4] = uint16(1000.0 + math.Sin(t*0.3)*200.0)
	s.values[5] = 1
}

// Read returns count words starting at addr; out-of-range registers read
// as zero.
func (s *Sensors) Read(addr, count uint16) []uint16 {
	s.mu.Lock()
	defer s.mu.Unlock()

	values := make([]uint16, count)
	for i := uint16(0); i < count; i++ {
		if a := addr + i; int(a) < SensorCount {
			values[i] = s.values[a]
		}
	}
	return values
}
