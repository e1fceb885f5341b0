// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dispatch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "cc_tagstore_dispatcher_requests_total",
	Help: "Processed dispatcher requests by kind and outcome.",
}, []string{"kind", "outcome"})

var catalogSize = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "cc_tagstore_catalog_tags",
	Help: "Number of tags currently in the catalog.",
})
