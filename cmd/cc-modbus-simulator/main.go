// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package main

import (
	"context"
	"flag"
	"os/signal"
	"sync"
	"syscall"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/modbussim"
)

const defaultAddr = "127.0.0.1:502"

func main() {
	flag.Parse()

	addr := defaultAddr
	if flag.NArg() > 0 {
		addr = flag.Arg(0)
	}

	cclog.Init("info", false)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	if err := modbussim.Serve(ctx, addr, &wg); err != nil {
		cclog.Fatalf("binding %s failed: %s", addr, err.Error())
	}

	<-ctx.Done()
	wg.Wait()
	cclog.Info("MODBUSSIM > shut down")
}
