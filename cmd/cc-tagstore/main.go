// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/busdriver"
	"github.com/ClusterCockpit/cc-tagstore/internal/config"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/internal/ingest"
	"github.com/ClusterCockpit/cc-tagstore/internal/runtimeEnv"
	"github.com/ClusterCockpit/cc-tagstore/internal/tagstore"
	"github.com/ClusterCockpit/cc-tagstore/internal/taskmanager"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
	"github.com/google/gops/agent"
)

const (
	version = "1.0.0"
)

func main() {
	cliInit()

	if flagVersion {
		fmt.Printf("Version:\t%s\n", version)
		os.Exit(0)
	}

	cclog.Init(flagLogLevel, flagLogDateTime)

	// See https://github.com/google/gops (Runtime overhead is almost zero)
	if flagGops {
		if err := agent.Listen(agent.Options{}); err != nil {
			cclog.Fatalf("gops/agent.Listen failed: %s", err.Error())
		}
	}

	if err := runtimeEnv.LoadEnv("./.env"); err != nil && !os.IsNotExist(err) {
		cclog.Fatalf("parsing './.env' file failed: %s", err.Error())
	}

	config.Init(flagConfigFile)

	store := tagstore.New()
	dispatcher := dispatch.New(store, config.Keys.QueueSize)

	ctx, shutdown := context.WithCancel(context.Background())
	var wg sync.WaitGroup

	dispatcher.Run(ctx, &wg)

	drivers := startDrivers(dispatcher)

	if config.Keys.Nats != nil {
		if err := ingest.Start(ctx, *config.Keys.Nats, dispatcher); err != nil {
			cclog.Fatalf("starting NATS ingest failed: %s", err.Error())
		}
	}

	taskmanager.Start()
	if config.Keys.StatsInterval != "" {
		if d, err := time.ParseDuration(config.Keys.StatsInterval); err == nil && d > 0 {
			taskmanager.RegisterCatalogStatsService(d, dispatcher)
		} else {
			cclog.Warnf("Could not parse duration for stats interval: %v", config.Keys.StatsInterval)
		}
	}
	if config.Keys.DriverPollInterval != "" && len(drivers) > 0 {
		if d, err := time.ParseDuration(config.Keys.DriverPollInterval); err == nil && d > 0 {
			taskmanager.RegisterDriverPollService(d, drivers)
		} else {
			cclog.Warnf("Could not parse duration for driver poll interval: %v", config.Keys.DriverPollInterval)
		}
	}

	serverInit(dispatcher)

	wg.Add(1)
	go func() {
		defer wg.Done()
		serverStart()
	}()

	wg.Add(1)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		defer wg.Done()
		<-sigs
		cclog.Info("MAIN > shutdown...")

		for _, drv := range drivers {
			drv.Stop()
		}
		taskmanager.Shutdown()
		serverShutdown()
		shutdown()
	}()

	wg.Wait()
	cclog.Print("Graceful shutdown completed!")
}

// startDrivers creates and starts the configured field drivers. Every
// driver first creates its tags through the dispatcher, then registers
// them with itself.
func startDrivers(dispatcher *dispatch.Dispatcher) []busdriver.BusDriver {
	var drivers []busdriver.BusDriver

	if mc := config.Keys.MockDriver; mc != nil && mc.Enable {
		rate := 250 * time.Millisecond
		if mc.Rate != "" {
			if d, err := time.ParseDuration(mc.Rate); err == nil && d > 0 {
				rate = d
			} else {
				cclog.Warnf("Could not parse duration for mock driver rate: %v", mc.Rate)
			}
		}

		drv := busdriver.NewMockDriver(dispatcher, mc.Min, mc.Max, rate)
		for _, name := range mc.Tags {
			drv.CreateTag(name, schema.UnitPercent)
			drv.RegisterTag(name, nil)
		}
		drv.Start()
		drivers = append(drivers, drv)
	}

	if mc := config.Keys.ModbusDriver; mc != nil && mc.Enable {
		rate := 500 * time.Millisecond
		if mc.Rate != "" {
			if d, err := time.ParseDuration(mc.Rate); err == nil && d > 0 {
				rate = d
			} else {
				cclog.Warnf("Could not parse duration for modbus driver rate: %v", mc.Rate)
			}
		}

		drv := busdriver.NewModbusDriver(dispatcher, mc.Address, mc.Registers, rate)
		for name := range mc.Registers {
			drv.CreateTag(name, schema.UnitNone)
			drv.RegisterTag(name, nil)
		}
		drv.Start()
		drivers = append(drivers, drv)
	}

	return drivers
}
