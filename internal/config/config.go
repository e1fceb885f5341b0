// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package config holds the global program configuration. Keys carries the
// defaults, Init overrides them from a JSON file after validating it
// against the embedded schema.
package config

import (
	"bytes"
	"encoding/json"
	"os"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/ingest"
)

// MockDriverConfig configures the sinusoid signal generator.
type MockDriverConfig struct {
	Enable bool     `json:"enable"`
	Tags   []string `json:"tags"`
	Min    float64  `json:"min"`
	Max    float64  `json:"max"`
	Rate   string   `json:"rate"`
}

// ModbusDriverConfig configures the Modbus/TCP polling driver. Registers
// maps tag names onto holding register addresses.
type ModbusDriverConfig struct {
	Enable    bool              `json:"enable"`
	Address   string            `json:"address"`
	Rate      string            `json:"rate"`
	Registers map[string]uint16 `json:"registers"`
}

type ProgramConfig struct {
	// Address where the http server will listen on (for example: 'localhost:8080').
	Addr string `json:"addr"`

	// Drop root permissions once the port was taken.
	User  string `json:"user"`
	Group string `json:"group"`

	// Capacity of the dispatcher's request channel.
	QueueSize int `json:"queue-size"`

	// Interval for the periodic catalog stats log line; empty disables it.
	StatsInterval string `json:"stats-interval"`

	// Interval for forced out-of-band driver polls; empty disables it.
	DriverPollInterval string `json:"driver-poll-interval"`

	MockDriver   *MockDriverConfig   `json:"mock-driver"`
	ModbusDriver *ModbusDriverConfig `json:"modbus-driver"`

	// NATS ingest of Influx line protocol updates, optional.
	Nats *ingest.Config `json:"nats"`
}

var Keys ProgramConfig = ProgramConfig{
	Addr:          "127.0.0.1:8080",
	QueueSize:     256,
	StatsInterval: "30s",
	MockDriver: &MockDriverConfig{
		Enable: true,
		Tags:   []string{"plant/temperature", "plant/pressure"},
		Min:    0.0,
		Max:    100.0,
		Rate:   "250ms",
	},
}

func Init(flagConfigFile string) {
	raw, err := os.ReadFile(flagConfigFile)
	if err != nil {
		if !os.IsNotExist(err) {
			cclog.Abortf("Config Init: Could not read config file '%s'.\nError: %s\n", flagConfigFile, err.Error())
		}
		return
	}

	Validate(configSchema, raw)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&Keys); err != nil {
		cclog.Abortf("Config Init: Could not decode config file '%s'.\nError: %s\n", flagConfigFile, err.Error())
	}
}
