// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"io"
	"net"
	"net/http"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/api"
	"github.com/ClusterCockpit/cc-tagstore/internal/config"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/internal/runtimeEnv"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	router    *mux.Router
	server    *http.Server
	apiHandle *api.RestApi
)

func serverInit(dispatcher *dispatch.Dispatcher) {
	apiHandle = api.New(dispatcher)

	router = mux.NewRouter()
	apiHandle.MountRoutes(router)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	router.Use(handlers.CompressHandler)
	router.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))
	router.Use(handlers.CORS(
		handlers.AllowedHeaders([]string{"X-Requested-With", "Content-Type", "Origin"}),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "HEAD", "OPTIONS"}),
		handlers.AllowedOrigins([]string{"*"})))
}

func serverStart() {
	handler := handlers.CustomLoggingHandler(io.Discard, router, func(_ io.Writer, params handlers.LogFormatterParams) {
		cclog.Debugf("%s %s (%d, %.02fkb, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, float32(params.Size)/1024,
			time.Since(params.TimeStamp).Milliseconds())
	})

	server = &http.Server{
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
		Handler:      handler,
		Addr:         config.Keys.Addr,
	}

	// Because this program may want to bind to a privileged port, the
	// listener must be established first, then the user can be changed,
	// and after that the actual http server can be started.
	listener, err := net.Listen("tcp", config.Keys.Addr)
	if err != nil {
		cclog.Fatalf("starting http listener failed: %v", err)
	}

	if err := runtimeEnv.DropPrivileges(config.Keys.Group, config.Keys.User); err != nil {
		cclog.Fatalf("error while preparing server start: %s", err.Error())
	}

	runtimeEnv.SystemdNotifiy(true, "running")
	cclog.Infof("HTTP server listening at %s...", config.Keys.Addr)

	if err = server.Serve(listener); err != nil && err != http.ErrServerClosed {
		cclog.Fatalf("starting server failed: %v", err)
	}
}

func serverShutdown() {
	// Shut down the server gracefully, waiting for all ongoing requests.
	server.Shutdown(context.Background())
}
