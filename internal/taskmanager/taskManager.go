// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package taskmanager schedules the periodic background services of the
// server: catalog statistics logging and forced driver polls.
package taskmanager

import (
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/busdriver"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/go-co-op/gocron/v2"
)

var s gocron.Scheduler

func Start() {
	var err error
	s, err = gocron.NewScheduler()
	if err != nil {
		cclog.Abortf("Taskmanager Start: Could not create gocron scheduler.\nError: %s\n", err.Error())
	}

	s.Start()
}

// RegisterCatalogStatsService periodically logs catalog size and dispatcher
// queue depth.
func RegisterCatalogStatsService(interval time.Duration, d *dispatch.Dispatcher) {
	cclog.Info("Register catalog stats service")

	s.NewJob(gocron.DurationJob(interval),
		gocron.NewTask(
			func() {
				tags, err := d.GetAllTags()
				if err != nil {
					cclog.Warnf("Error while reading catalog for stats: %s", err.Error())
					return
				}
				cclog.Infof("TASK > catalog: %d tags, dispatcher queue depth %d", len(tags), d.QueueDepth())
			}))
}

// RegisterDriverPollService forces one out-of-band Poll of every driver at
// the given interval, independent of the drivers' own cadences.
func RegisterDriverPollService(interval time.Duration, drivers []busdriver.BusDriver) {
	cclog.Info("Register driver poll service")

	s.NewJob(gocron.DurationJob(interval),
		gocron.NewTask(
			func() {
				for _, drv := range drivers {
					drv.Poll()
				}
			}))
}

func Shutdown() {
	if s != nil {
		s.Shutdown()
	}
}
