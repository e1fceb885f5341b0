// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package tagstore implements the process-local concurrent tag catalog: a
// mapping tag name -> (current value, metadata) with atomic primitives and
// the validated update path sitting on top of them.
//
// The catalog is a single map of composite records guarded by an RWMutex.
// Each record additionally carries its own mutex so that the check-and-swap
// of UpdateValue runs as a per-key critical section; concurrent writers to
// the same tag are serialized against each other, writers to distinct tags
// are not.
package tagstore

import (
	"sync"

	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

type entry struct {
	mu    sync.Mutex
	value schema.TagValue
	meta  schema.TagMeta
}

// TagStore is safe for concurrent use by multiple goroutines.
type TagStore struct {
	mu   sync.RWMutex
	tags map[string]*entry
}

func New() *TagStore {
	return &TagStore{
		tags: make(map[string]*entry),
	}
}

// InsertResult reports the outcome of a check-and-insert.
type InsertResult string

const (
	Created       InsertResult = "SuccessfullyCreated"
	AlreadyExists InsertResult = "AlreadyExists"
)

func (s *TagStore) Exists(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.tags[name]
	return ok
}

// Insert atomically creates the tag if absent. The initial value is the
// declared type's zero with no timestamp. Has no effect on an existing tag;
// the first writer's (unit, type) persist.
func (s *TagStore) Insert(name string, unit schema.Unit, dt schema.DataType) InsertResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[name]; ok {
		return AlreadyExists
	}

	s.tags[name] = &entry{
		value: schema.TagValue{Value: schema.DefaultValue(dt)},
		meta:  schema.TagMeta{Unit: unit, DataType: dt},
	}
	return Created
}

// Get returns a snapshot of both value and meta. The two are taken under the
// entry lock and are mutually consistent.
func (s *TagStore) Get(name string) (schema.Tag, bool) {
	e := s.lookup(name)
	if e == nil {
		return schema.Tag{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return schema.Tag{Name: name, Value: e.value, Meta: e.meta}, true
}

// List returns a snapshot of the whole catalog in unspecified order. Each
// tag is internally consistent; the set as a whole is not isolated against
// concurrent mutation.
func (s *TagStore) List() []schema.Tag {
	s.mu.RLock()
	names := make([]string, 0, len(s.tags))
	for name := range s.tags {
		names = append(names, name)
	}
	s.mu.RUnlock()

	tags := make([]schema.Tag, 0, len(names))
	for _, name := range names {
		if t, ok := s.Get(name); ok {
			tags = append(tags, t)
		}
	}
	return tags
}

// ReplaceValue atomically swaps the stored value, returning the prior one.
// Meta is untouched.
func (s *TagStore) ReplaceValue(name string, tv schema.TagValue) (schema.TagValue, bool) {
	e := s.lookup(name)
	if e == nil {
		return schema.TagValue{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	prior := e.value
	e.value = tv
	return prior, true
}

// Remove deletes value and meta in one step.
func (s *TagStore) Remove(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.tags[name]; !ok {
		return false
	}
	delete(s.tags, name)
	return true
}

func (s *TagStore) DataTypeOf(name string) (schema.DataType, bool) {
	e := s.lookup(name)
	if e == nil {
		return "", false
	}

	// Meta is immutable, no entry lock needed.
	return e.meta.DataType, true
}

func (s *TagStore) ValueOf(name string) (schema.TagValue, bool) {
	e := s.lookup(name)
	if e == nil {
		return schema.TagValue{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, true
}

func (s *TagStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tags)
}

func (s *TagStore) lookup(name string) *entry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tags[name]
}
