// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dispatch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-tagstore/internal/tagstore"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Dispatcher, context.CancelFunc, *sync.WaitGroup) {
	t.Helper()

	d := New(tagstore.New(), 16)
	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	d.Run(ctx, wg)

	t.Cleanup(func() {
		cancel()
		wg.Wait()
	})

	return d, cancel, wg
}

func TestCreateUpdateReadRoundTrip(t *testing.T) {
	d, _, _ := setup(t)

	res, err := d.CreateTag("temp", schema.UnitCelsius, schema.DataTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, tagstore.Created, res)

	res, err = d.CreateTag("temp", schema.UnitKelvin, schema.DataTypeFloat)
	require.NoError(t, err)
	assert.Equal(t, tagstore.AlreadyExists, res)

	now := time.Now().UTC()
	ures, err := d.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(25.5), Timestamp: &now})
	require.NoError(t, err)
	assert.Equal(t, tagstore.Updated, ures)

	tag, ok, err := d.GetTag("temp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, tag.Value.Value.Equal(schema.FloatValue(25.5)))
	assert.Equal(t, schema.UnitCelsius, tag.Meta.Unit)

	exists, err := d.TagExists("temp")
	require.NoError(t, err)
	assert.True(t, exists)

	dt, ok, err := d.GetDataType("temp")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, schema.DataTypeFloat, dt)

	tv, ok, err := d.GetTagValue("temp")
	require.NoError(t, err)
	require.True(t, ok)
	require.NotNil(t, tv.Timestamp)
	assert.True(t, tv.Timestamp.Equal(now))
}

func TestUpdateErrorsPassThrough(t *testing.T) {
	d, _, _ := setup(t)

	now := time.Now().UTC()
	_, err := d.UpdateValue("ghost", schema.TagValue{Value: schema.FloatValue(1), Timestamp: &now})
	assert.ErrorIs(t, err, tagstore.ErrTagNotFound)
}

func TestDeleteTag(t *testing.T) {
	d, _, _ := setup(t)

	_, err := d.CreateTag("temp", schema.UnitCelsius, schema.DataTypeFloat)
	require.NoError(t, err)

	require.NoError(t, d.DeleteTag("temp"))
	assert.ErrorIs(t, d.DeleteTag("temp"), tagstore.ErrTagNotFound)

	tags, err := d.GetAllTags()
	require.NoError(t, err)
	assert.Empty(t, tags)
}

func TestGetAllTags(t *testing.T) {
	d, _, _ := setup(t)

	for _, name := range []string{"a", "b", "c"} {
		_, err := d.CreateTag(name, schema.UnitNone, schema.DataTypeInteger)
		require.NoError(t, err)
	}

	tags, err := d.GetAllTags()
	require.NoError(t, err)
	assert.Len(t, tags, 3)
}

func TestShutdownRejectsRequests(t *testing.T) {
	d, cancel, wg := setup(t)

	cancel()
	wg.Wait()

	_, err := d.CreateTag("late", schema.UnitNone, schema.DataTypeInteger)
	assert.ErrorIs(t, err, ErrShutdown)

	_, err = d.GetAllTags()
	assert.ErrorIs(t, err, ErrShutdown)
}

func TestDroppedReplyIsDiscarded(t *testing.T) {
	d, _, _ := setup(t)

	// Enqueue a raw request whose reply nobody reads. The consumer must
	// neither block nor crash; a follow-up request still gets served.
	req := tagExistsRequest{name: "whatever", reply: make(chan bool, 1)}
	require.NoError(t, d.enqueue(req))
	// Drain nothing; the buffered channel absorbs the reply. Do it again
	// with an already-full reply channel to exercise the drop path.
	full := tagExistsRequest{name: "whatever", reply: make(chan bool, 1)}
	full.reply <- true
	require.NoError(t, d.enqueue(full))

	exists, err := d.TagExists("whatever")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestConcurrentClients(t *testing.T) {
	d, _, _ := setup(t)

	const clients = 24
	var wg sync.WaitGroup
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := string(rune('a' + i%8))
			if _, err := d.CreateTag(name, schema.UnitNone, schema.DataTypeInteger); err != nil {
				t.Errorf("create: %v", err)
			}
			if _, err := d.GetAllTags(); err != nil {
				t.Errorf("list: %v", err)
			}
		}(i)
	}
	wg.Wait()

	tags, err := d.GetAllTags()
	require.NoError(t, err)
	assert.Len(t, tags, 8)
}
