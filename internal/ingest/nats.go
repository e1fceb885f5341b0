// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ingest feeds tag updates arriving over NATS into the dispatcher.
// Messages are Influx line protocol: the measurement is the tag name, the
// field 'value' carries the sample, the line timestamp (if any) is the
// acquisition time. Decode failures and rejected updates are logged and
// never fatal; they are expected under races and stale field clocks.
package ingest

import (
	"context"
	"fmt"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/pkg/nats"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
	"github.com/influxdata/line-protocol/v2/lineprotocol"
)

type Config struct {
	nats.Config
	Subject string `json:"subject"`
}

// Start connects, subscribes and returns. The subscription lives until ctx
// is cancelled; the connection is closed on the way out.
func Start(ctx context.Context, cfg Config, d *dispatch.Dispatcher) error {
	client, err := nats.NewClient(cfg.Config)
	if err != nil {
		return err
	}

	err = client.Subscribe(cfg.Subject, func(subject string, data []byte) {
		dec := lineprotocol.NewDecoderWithBytes(data)
		if err := DecodeLines(dec, d); err != nil {
			cclog.Errorf("INGEST > decoding message on '%s' failed: %s", subject, err.Error())
		}
	})
	if err != nil {
		client.Close()
		return err
	}

	go func() {
		<-ctx.Done()
		client.Close()
	}()

	return nil
}

// DecodeLines decodes all lines of one message and submits an UpdateValue
// per line. A line for an unknown tag or with a mismatched field type is
// skipped with a warning.
func DecodeLines(dec *lineprotocol.Decoder, d *dispatch.Dispatcher) error {
	for dec.Next() {
		rawName, err := dec.Measurement()
		if err != nil {
			return err
		}
		// Copy: the slice is invalidated by further decoder calls.
		name := string(rawName)

		// Tags on the line are accepted and ignored.
		for {
			key, _, err := dec.NextTag()
			if err != nil {
				return err
			}
			if key == nil {
				break
			}
		}

		var sample *lineprotocol.Value
		for {
			key, val, err := dec.NextField()
			if err != nil {
				return err
			}
			if key == nil {
				break
			}
			if string(key) == "value" {
				v := val
				sample = &v
			}
		}

		if sample == nil {
			cclog.Warnf("INGEST > line for '%s' has no 'value' field, skipping", name)
			continue
		}

		ts, err := dec.Time(lineprotocol.Nanosecond, time.Time{})
		if err != nil {
			return err
		}
		if ts.IsZero() {
			ts = time.Now()
		}
		ts = ts.UTC()

		dt, ok, err := d.GetDataType(name)
		if err != nil {
			return err
		}
		if !ok {
			cclog.Warnf("INGEST > unknown tag '%s', skipping line", name)
			continue
		}

		value, err := convert(*sample, dt)
		if err != nil {
			cclog.Warnf("INGEST > tag '%s': %s", name, err.Error())
			continue
		}

		if _, err := d.UpdateValue(name, schema.TagValue{Value: value, Timestamp: &ts}); err != nil {
			cclog.Warnf("INGEST > update for tag '%s' rejected: %s", name, err.Error())
		}
	}

	return nil
}

// convert maps a line protocol field value onto the tag's declared type.
// Numeric widening (int -> float) is performed; anything else is a mismatch.
func convert(v lineprotocol.Value, dt schema.DataType) (schema.Value, error) {
	switch dt {
	case schema.DataTypeInteger:
		switch v.Kind() {
		case lineprotocol.Int:
			return schema.IntegerValue(v.IntV()), nil
		case lineprotocol.Uint:
			return schema.IntegerValue(int64(v.UintV())), nil
		}
	case schema.DataTypeFloat:
		switch v.Kind() {
		case lineprotocol.Float:
			return schema.FloatValue(float32(v.FloatV())), nil
		case lineprotocol.Int:
			return schema.FloatValue(float32(v.IntV())), nil
		case lineprotocol.Uint:
			return schema.FloatValue(float32(v.UintV())), nil
		}
	case schema.DataTypeBoolean:
		if v.Kind() == lineprotocol.Bool {
			return schema.BooleanValue(v.BoolV()), nil
		}
	case schema.DataTypeString:
		if v.Kind() == lineprotocol.String {
			return schema.StringValue(v.StringV()), nil
		}
	}

	return schema.Value{}, fmt.Errorf("field kind %s does not match declared type %s", v.Kind(), dt)
}
