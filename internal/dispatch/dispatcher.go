// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package dispatch is the message-passing facade in front of the tag store.
// HTTP handlers, field drivers and the NATS ingest all talk to the catalog
// through it. A single consumer goroutine drains a bounded request channel
// and serializes all store access, which gives the strongest per-tag
// ordering the contract allows.
package dispatch

import (
	"context"
	"errors"
	"sync"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/tagstore"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

const DefaultQueueSize = 256

// ErrShutdown is returned by every operation once the dispatcher's consumer
// has stopped. Distinguish it from validation errors with errors.Is.
var ErrShutdown = errors.New("dispatcher is shut down")

type Dispatcher struct {
	store    *tagstore.TagStore
	requests chan request
	done     chan struct{}
}

func New(store *tagstore.TagStore, queueSize int) *Dispatcher {
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}

	return &Dispatcher{
		store:    store,
		requests: make(chan request, queueSize),
		done:     make(chan struct{}),
	}
}

// Run starts the consumer goroutine and returns immediately. The consumer
// exits when ctx is cancelled; pending senders then receive ErrShutdown.
func (d *Dispatcher) Run(ctx context.Context, wg *sync.WaitGroup) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer close(d.done)
		cclog.Info("DISPATCH > consumer started")
		for {
			select {
			case <-ctx.Done():
				cclog.Info("DISPATCH > consumer stopped")
				return
			case req := <-d.requests:
				d.handle(req)
			}
		}
	}()
}

// QueueDepth reports the number of requests waiting in the channel.
func (d *Dispatcher) QueueDepth() int {
	return len(d.requests)
}

func (d *Dispatcher) handle(req request) {
	outcome := "ok"

	switch r := req.(type) {
	case createTagRequest:
		res := d.store.Insert(r.name, r.unit, r.dtype)
		if res == tagstore.AlreadyExists {
			outcome = "already_exists"
		}
		catalogSize.Set(float64(d.store.Len()))
		sendReply(r.reply, res, req)
	case updateValueRequest:
		res, err := d.store.UpdateValue(r.name, r.value)
		if err != nil {
			outcome = "rejected"
		}
		sendReply(r.reply, updateValueReply{result: res, err: err}, req)
	case deleteTagRequest:
		var err error
		if !d.store.Remove(r.name) {
			err = tagstore.ErrTagNotFound
			outcome = "not_found"
		}
		catalogSize.Set(float64(d.store.Len()))
		sendReply(r.reply, err, req)
	case tagExistsRequest:
		sendReply(r.reply, d.store.Exists(r.name), req)
	case getTagRequest:
		tag, ok := d.store.Get(r.name)
		if !ok {
			outcome = "not_found"
		}
		sendReply(r.reply, getTagReply{tag: tag, ok: ok}, req)
	case getAllTagsRequest:
		sendReply(r.reply, d.store.List(), req)
	case getDataTypeRequest:
		dt, ok := d.store.DataTypeOf(r.name)
		if !ok {
			outcome = "not_found"
		}
		sendReply(r.reply, getDataTypeReply{dtype: dt, ok: ok}, req)
	case getTagValueRequest:
		tv, ok := d.store.ValueOf(r.name)
		if !ok {
			outcome = "not_found"
		}
		sendReply(r.reply, getTagValueReply{value: tv, ok: ok}, req)
	}

	requestsTotal.WithLabelValues(req.kind(), outcome).Inc()
}

// sendReply delivers the outcome without blocking. The reply channel has
// capacity one and is used exactly once, so the send lands in its buffer
// even if the receiver gave up. Only an already full channel makes the
// send fail; that is benign and merely logged.
func sendReply[T any](ch chan T, v T, req request) {
	select {
	case ch <- v:
	default:
		cclog.Warnf("DISPATCH > reply receiver for %s request gone, dropping result", req.kind())
	}
}

func (d *Dispatcher) enqueue(req request) error {
	select {
	case d.requests <- req:
		return nil
	case <-d.done:
		return ErrShutdown
	}
}

func await[T any](d *Dispatcher, reply chan T) (T, error) {
	select {
	case v := <-reply:
		return v, nil
	case <-d.done:
		var zero T
		return zero, ErrShutdown
	}
}

// CreateTag registers a new tag with the given schema. The result reports
// whether this call created it or it already existed.
func (d *Dispatcher) CreateTag(name string, unit schema.Unit, dt schema.DataType) (tagstore.InsertResult, error) {
	req := createTagRequest{name: name, unit: unit, dtype: dt, reply: make(chan tagstore.InsertResult, 1)}
	if err := d.enqueue(req); err != nil {
		return "", err
	}
	return await(d, req.reply)
}

// UpdateValue submits one validated write. The returned error is either a
// validation error from the store (tagstore.ErrTagNotFound and friends) or
// ErrShutdown.
func (d *Dispatcher) UpdateValue(name string, value schema.TagValue) (tagstore.UpdateResult, error) {
	req := updateValueRequest{name: name, value: value, reply: make(chan updateValueReply, 1)}
	if err := d.enqueue(req); err != nil {
		return "", err
	}
	rep, err := await(d, req.reply)
	if err != nil {
		return "", err
	}
	return rep.result, rep.err
}

func (d *Dispatcher) DeleteTag(name string) error {
	req := deleteTagRequest{name: name, reply: make(chan error, 1)}
	if err := d.enqueue(req); err != nil {
		return err
	}
	rep, err := await(d, req.reply)
	if err != nil {
		return err
	}
	return rep
}

func (d *Dispatcher) TagExists(name string) (bool, error) {
	req := tagExistsRequest{name: name, reply: make(chan bool, 1)}
	if err := d.enqueue(req); err != nil {
		return false, err
	}
	return await(d, req.reply)
}

func (d *Dispatcher) GetTag(name string) (schema.Tag, bool, error) {
	req := getTagRequest{name: name, reply: make(chan getTagReply, 1)}
	if err := d.enqueue(req); err != nil {
		return schema.Tag{}, false, err
	}
	rep, err := await(d, req.reply)
	if err != nil {
		return schema.Tag{}, false, err
	}
	return rep.tag, rep.ok, nil
}

func (d *Dispatcher) GetAllTags() ([]schema.Tag, error) {
	req := getAllTagsRequest{reply: make(chan []schema.Tag, 1)}
	if err := d.enqueue(req); err != nil {
		return nil, err
	}
	return await(d, req.reply)
}

func (d *Dispatcher) GetDataType(name string) (schema.DataType, bool, error) {
	req := getDataTypeRequest{name: name, reply: make(chan getDataTypeReply, 1)}
	if err := d.enqueue(req); err != nil {
		return "", false, err
	}
	rep, err := await(d, req.reply)
	if err != nil {
		return "", false, err
	}
	return rep.dtype, rep.ok, nil
}

func (d *Dispatcher) GetTagValue(name string) (schema.TagValue, bool, error) {
	req := getTagValueRequest{name: name, reply: make(chan getTagValueReply, 1)}
	if err := d.enqueue(req); err != nil {
		return schema.TagValue{}, false, err
	}
	rep, err := await(d, req.reply)
	if err != nil {
		return schema.TagValue{}, false, err
	}
	return rep.value, rep.ok, nil
}
