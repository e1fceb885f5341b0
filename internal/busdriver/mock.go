// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package busdriver

import (
	"math"
	"sync"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

// MockDriver generates a sinusoid in [min,max] for every registered tag.
// It stands in for a real field bus during development and demos.
type MockDriver struct {
	dispatcher  *dispatch.Dispatcher
	defaultRate time.Duration
	min, max    float64

	tags map[string]time.Duration
	stop chan struct{}
	wg   sync.WaitGroup
}

func NewMockDriver(d *dispatch.Dispatcher, min, max float64, defaultRate time.Duration) *MockDriver {
	return &MockDriver{
		dispatcher:  d,
		defaultRate: defaultRate,
		min:         min,
		max:         max,
		tags:        make(map[string]time.Duration),
		stop:        make(chan struct{}),
	}
}

func (m *MockDriver) DefaultPollRate() time.Duration {
	return m.defaultRate
}

func (m *MockDriver) RegisterTag(name string, pollRate *time.Duration) {
	rate := m.defaultRate
	if pollRate != nil {
		rate = *pollRate
	}
	m.tags[name] = rate
}

// CreateTag creates the Float tag this driver will feed. Convenience for
// bootstrap; AlreadyExists is fine.
func (m *MockDriver) CreateTag(name string, unit schema.Unit) {
	if _, err := m.dispatcher.CreateTag(name, unit, schema.DataTypeFloat); err != nil {
		cclog.Warnf("MOCKDRIVER > creating tag '%s' failed: %s", name, err.Error())
	}
}

func (m *MockDriver) Start() {
	if len(m.tags) == 0 {
		return
	}

	start := time.Now()
	for name, rate := range m.tags {
		m.wg.Add(1)
		go func(name string, rate time.Duration) {
			defer m.wg.Done()
			ticker := time.NewTicker(rate)
			defer ticker.Stop()

			for {
				select {
				case <-m.stop:
					return
				case <-ticker.C:
					m.emit(name, start)
				}
			}
		}(name, rate)
	}

	cclog.Infof("MOCKDRIVER > started %d tag tasks", len(m.tags))
}

func (m *MockDriver) Stop() {
	close(m.stop)
	m.wg.Wait()
	cclog.Info("MOCKDRIVER > stopped")
}

func (m *MockDriver) Poll() {
	start := time.Now()
	for name := range m.tags {
		m.emit(name, start)
	}
}

func (m *MockDriver) emit(name string, start time.Time) {
	elapsed := time.Since(start).Seconds()
	value := m.min + math.Sin(elapsed*2.0)*(m.max-m.min)/2.0 + (m.max-m.min)/2.0

	now := time.Now().UTC()
	tv := schema.TagValue{
		Value:     schema.FloatValue(float32(value)),
		Timestamp: &now,
	}

	if _, err := m.dispatcher.UpdateValue(name, tv); err != nil {
		cclog.Warnf("MOCKDRIVER > update for tag '%s' rejected: %s", name, err.Error())
	}
}
