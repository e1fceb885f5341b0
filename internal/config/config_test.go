// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestInitOverridesDefaults(t *testing.T) {
	const testconfig = `{
	"addr": "0.0.0.0:9090",
	"queue-size": 512,
	"stats-interval": "10s",
	"mock-driver": {
		"enable": true,
		"tags": ["hall/temperature"],
		"min": -20.0,
		"max": 40.0,
		"rate": "100ms"
	},
	"modbus-driver": {
		"enable": false,
		"address": "127.0.0.1:502",
		"registers": { "boiler/pressure": 2 }
	}
}`

	tmpdir := t.TempDir()
	cfgFilePath := filepath.Join(tmpdir, "config.json")
	if err := os.WriteFile(cfgFilePath, []byte(testconfig), 0666); err != nil {
		t.Fatal(err)
	}

	Init(cfgFilePath)

	if Keys.Addr != "0.0.0.0:9090" {
		t.Errorf("wrong addr: %s", Keys.Addr)
	}
	if Keys.QueueSize != 512 {
		t.Errorf("wrong queue size: %d", Keys.QueueSize)
	}
	if Keys.MockDriver == nil || len(Keys.MockDriver.Tags) != 1 {
		t.Fatal("mock driver config not applied")
	}
	if Keys.ModbusDriver == nil || Keys.ModbusDriver.Registers["boiler/pressure"] != 2 {
		t.Error("modbus driver config not applied")
	}
}

func TestInitMissingFileKeepsDefaults(t *testing.T) {
	addr := Keys.Addr
	Init(filepath.Join(t.TempDir(), "does-not-exist.json"))
	if Keys.Addr != addr {
		t.Error("missing config file changed defaults")
	}
}
