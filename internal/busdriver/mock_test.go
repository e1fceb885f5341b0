// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package busdriver

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/internal/tagstore"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) *dispatch.Dispatcher {
	t.Helper()

	d := dispatch.New(tagstore.New(), 64)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	d.Run(ctx, wg)
	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})
	return d
}

func TestMockDriverEmitsValues(t *testing.T) {
	d := setup(t)

	drv := NewMockDriver(d, 0.0, 100.0, 10*time.Millisecond)
	drv.CreateTag("sine", schema.UnitPercent)
	drv.RegisterTag("sine", nil)
	drv.Start()
	defer drv.Stop()

	require.Eventually(t, func() bool {
		tv, ok, err := d.GetTagValue("sine")
		return err == nil && ok && tv.Timestamp != nil
	}, time.Second, 5*time.Millisecond)

	tv, ok, err := d.GetTagValue("sine")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, schema.DataTypeFloat, tv.Value.DataType())
	assert.GreaterOrEqual(t, tv.Value.Float(), float32(0.0))
	assert.LessOrEqual(t, tv.Value.Float(), float32(100.0))
}

func TestMockDriverStopTerminatesTasks(t *testing.T) {
	d := setup(t)

	drv := NewMockDriver(d, 0.0, 1.0, 5*time.Millisecond)
	drv.CreateTag("a", schema.UnitPercent)
	drv.RegisterTag("a", nil)
	drv.Start()

	require.Eventually(t, func() bool {
		tv, ok, _ := d.GetTagValue("a")
		return ok && tv.Timestamp != nil
	}, time.Second, 5*time.Millisecond)

	drv.Stop()

	// No further writes after Stop returned.
	tv1, _, err := d.GetTagValue("a")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	tv2, _, err := d.GetTagValue("a")
	require.NoError(t, err)
	assert.True(t, tv1.Timestamp.Equal(*tv2.Timestamp))
}

func TestMockDriverRegisterOverridesRate(t *testing.T) {
	d := setup(t)

	drv := NewMockDriver(d, 0.0, 1.0, time.Hour)
	assert.Equal(t, time.Hour, drv.DefaultPollRate())

	fast := 5 * time.Millisecond
	drv.CreateTag("fast", schema.UnitPercent)
	drv.RegisterTag("fast", &fast)
	drv.Start()
	defer drv.Stop()

	// With the hour-long default this only ever fires via the override.
	require.Eventually(t, func() bool {
		tv, ok, _ := d.GetTagValue("fast")
		return ok && tv.Timestamp != nil
	}, time.Second, 5*time.Millisecond)
}

func TestMockDriverPoll(t *testing.T) {
	d := setup(t)

	drv := NewMockDriver(d, 10.0, 20.0, time.Hour)
	drv.CreateTag("manual", schema.UnitPercent)
	drv.RegisterTag("manual", nil)

	// Poll works without Start: one out-of-band emission per registered tag.
	drv.Poll()

	tv, ok, err := d.GetTagValue("manual")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, tv.Timestamp)
	assert.GreaterOrEqual(t, tv.Value.Float(), float32(10.0))
	assert.LessOrEqual(t, tv.Value.Float(), float32(20.0))
}
