// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package tagstore

import (
	"errors"
	"fmt"
	"time"

	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

// UpdateResult reports whether an accepted write changed the stored value.
// An idempotent write still advances the timestamp but returns Ignored.
type UpdateResult string

const (
	Updated UpdateResult = "Updated"
	Ignored UpdateResult = "Ignored"
)

var (
	// ErrTagNotFound: create was never called for this name, or delete ran.
	ErrTagNotFound = errors.New("tag name not found")

	// ErrNoTimestamp: a post-bootstrap write arrived without a timestamp.
	ErrNoTimestamp = errors.New("timestamp required once a timestamp is stored")
)

// InvalidDataTypeError is returned when the incoming value's runtime type
// does not match the tag's declared type. The store is left unchanged.
type InvalidDataTypeError struct {
	Expected schema.DataType
	Actual   schema.DataType
}

func (e *InvalidDataTypeError) Error() string {
	return fmt.Sprintf("invalid data type: expected %s, got %s", e.Expected, e.Actual)
}

// OutOfOrderError is returned when the incoming timestamp is not strictly
// greater than the stored one.
type OutOfOrderError struct {
	Previous time.Time
}

func (e *OutOfOrderError) Error() string {
	return fmt.Sprintf("timestamp out of order: previous is %s", e.Previous.Format(time.RFC3339Nano))
}

// UpdateValue validates and applies one write. The whole check-and-swap runs
// under the tag's entry lock, so concurrent writers to the same tag observe
// each other's committed timestamps.
//
// Rules, in order: the tag must exist; the value's runtime type must equal
// the declared type; once a timestamp is stored, every further write must
// carry one, strictly greater than the stored one. The first write after
// creation may carry any timestamp, or none.
func (s *TagStore) UpdateValue(name string, incoming schema.TagValue) (UpdateResult, error) {
	e := s.lookup(name)
	if e == nil {
		return "", ErrTagNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	// The entry may have been removed between lookup and lock.
	if s.lookup(name) != e {
		return "", ErrTagNotFound
	}

	if dt := incoming.Value.DataType(); dt != e.meta.DataType {
		return "", &InvalidDataTypeError{Expected: e.meta.DataType, Actual: dt}
	}

	if e.value.Timestamp != nil {
		if incoming.Timestamp == nil {
			return "", ErrNoTimestamp
		}
		if !e.value.Timestamp.Before(*incoming.Timestamp) {
			return "", &OutOfOrderError{Previous: *e.value.Timestamp}
		}
	}

	prior := e.value
	e.value = incoming

	if prior.Value.Equal(incoming.Value) {
		return Ignored, nil
	}
	return Updated, nil
}
