// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package tagstore

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ts(t time.Time) *time.Time {
	return &t
}

func TestUpdateValueSuccess(t *testing.T) {
	s := New()
	s.Insert("temp", schema.UnitCelsius, schema.DataTypeFloat)

	res, err := s.UpdateValue("temp", schema.TagValue{
		Value:     schema.FloatValue(25.5),
		Timestamp: ts(time.Now().UTC()),
	})
	require.NoError(t, err)
	assert.Equal(t, Updated, res)
}

func TestUpdateValueNotFound(t *testing.T) {
	s := New()

	_, err := s.UpdateValue("nonexistent", schema.TagValue{
		Value:     schema.FloatValue(25.5),
		Timestamp: ts(time.Now().UTC()),
	})
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestUpdateValueInvalidDataType(t *testing.T) {
	s := New()
	s.Insert("temp", schema.UnitCelsius, schema.DataTypeFloat)

	_, err := s.UpdateValue("temp", schema.TagValue{
		Value:     schema.IntegerValue(25),
		Timestamp: ts(time.Now().UTC()),
	})

	var typeErr *InvalidDataTypeError
	require.True(t, errors.As(err, &typeErr))
	assert.Equal(t, schema.DataTypeFloat, typeErr.Expected)
	assert.Equal(t, schema.DataTypeInteger, typeErr.Actual)

	// The store is unchanged: still the bootstrap state.
	tv, ok := s.ValueOf("temp")
	require.True(t, ok)
	assert.Nil(t, tv.Timestamp)
	assert.True(t, tv.Value.Equal(schema.DefaultValue(schema.DataTypeFloat)))
}

func TestUpdateValueTimestampOutOfOrder(t *testing.T) {
	s := New()
	s.Insert("temp", schema.UnitCelsius, schema.DataTypeFloat)

	later := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(25.5), Timestamp: ts(later)})
	require.NoError(t, err)

	for _, stale := range []time.Time{later, later.Add(-time.Second)} {
		_, err = s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(30.0), Timestamp: ts(stale)})

		var orderErr *OutOfOrderError
		require.True(t, errors.As(err, &orderErr))
		assert.True(t, orderErr.Previous.Equal(later))
	}

	// The stored value still carries the accepted write.
	tv, _ := s.ValueOf("temp")
	assert.True(t, tv.Value.Equal(schema.FloatValue(25.5)))
	assert.True(t, tv.Timestamp.Equal(later))
}

func TestUpdateValueNoneTimestampProvided(t *testing.T) {
	s := New()
	s.Insert("temp", schema.UnitCelsius, schema.DataTypeFloat)

	_, err := s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(25.5), Timestamp: ts(time.Now().UTC())})
	require.NoError(t, err)

	_, err = s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(30.0)})
	assert.ErrorIs(t, err, ErrNoTimestamp)
}

func TestUpdateValueBootstrapWithoutTimestamp(t *testing.T) {
	s := New()
	s.Insert("temp", schema.UnitCelsius, schema.DataTypeFloat)

	// The first write after creation may omit the timestamp.
	res, err := s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(25.5)})
	require.NoError(t, err)
	assert.Equal(t, Updated, res)

	tv, _ := s.ValueOf("temp")
	assert.Nil(t, tv.Timestamp)

	// Another timestampless write is fine as long as none is stored yet.
	res, err = s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(26.0)})
	require.NoError(t, err)
	assert.Equal(t, Updated, res)
}

func TestUpdateValueIgnoredWhenSame(t *testing.T) {
	s := New()
	s.Insert("temp", schema.UnitCelsius, schema.DataTypeFloat)

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	res, err := s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(25.5), Timestamp: ts(first)})
	require.NoError(t, err)
	require.Equal(t, Updated, res)

	second := first.Add(time.Second)
	res, err = s.UpdateValue("temp", schema.TagValue{Value: schema.FloatValue(25.5), Timestamp: ts(second)})
	require.NoError(t, err)
	assert.Equal(t, Ignored, res)

	// The idempotent write still advanced the timestamp.
	tv, _ := s.ValueOf("temp")
	assert.True(t, tv.Timestamp.Equal(second))
}

func TestUpdateValueMonotonicSequence(t *testing.T) {
	s := New()
	s.Insert("count", schema.UnitNone, schema.DataTypeInteger)

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 10; i++ {
		_, err := s.UpdateValue("count", schema.TagValue{
			Value:     schema.IntegerValue(int64(i)),
			Timestamp: ts(base.Add(time.Duration(i) * time.Millisecond)),
		})
		require.NoError(t, err)
	}

	// An attempt at or before the last accepted timestamp fails and names it.
	_, err := s.UpdateValue("count", schema.TagValue{
		Value:     schema.IntegerValue(11),
		Timestamp: ts(base.Add(10 * time.Millisecond)),
	})
	var orderErr *OutOfOrderError
	require.True(t, errors.As(err, &orderErr))
	assert.True(t, orderErr.Previous.Equal(base.Add(10*time.Millisecond)))

	tv, _ := s.ValueOf("count")
	assert.True(t, tv.Value.Equal(schema.IntegerValue(10)))
}

func TestUpdateValueConcurrentSameTag(t *testing.T) {
	s := New()
	s.Insert("shared", schema.UnitNone, schema.DataTypeInteger)

	// Writers with pre-assigned distinct timestamps race on one tag. The
	// per-key critical section guarantees that whatever subset is accepted,
	// the stored timestamp afterwards is the maximum of the accepted ones
	// and every rejection is an ordering rejection.
	const writers = 16
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	var wg sync.WaitGroup
	for i := range writers {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.UpdateValue("shared", schema.TagValue{
				Value:     schema.IntegerValue(int64(i)),
				Timestamp: ts(base.Add(time.Duration(i) * time.Millisecond)),
			})
			if err != nil {
				var orderErr *OutOfOrderError
				if !errors.As(err, &orderErr) {
					t.Errorf("unexpected error kind: %v", err)
				}
			}
		}(i)
	}
	wg.Wait()

	tv, ok := s.ValueOf("shared")
	require.True(t, ok)
	require.NotNil(t, tv.Timestamp)

	// The writer with the greatest timestamp can never be rejected, so the
	// final state carries it.
	assert.True(t, tv.Timestamp.Equal(base.Add((writers-1)*time.Millisecond)))
	assert.True(t, tv.Value.Equal(schema.IntegerValue(writers-1)))
}
