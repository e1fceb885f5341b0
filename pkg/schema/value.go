// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package schema defines the data model shared by the tag store, the REST
// API, the field drivers and the viewer: typed values, engineering units and
// the tag record itself.
//
// A Value is a tagged union over the four supported arms (Integer, Float,
// Boolean, String). Its JSON form is externally tagged, e.g. {"Float": 25.5},
// which is also the wire format of the REST API.
package schema

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// DataType names the runtime type of a Value. It is fixed per tag at
// creation time and serialized by variant name.
type DataType string

const (
	DataTypeInteger DataType = "Integer"
	DataTypeFloat   DataType = "Float"
	DataTypeBoolean DataType = "Boolean"
	DataTypeString  DataType = "String"
)

func (dt DataType) Valid() bool {
	switch dt {
	case DataTypeInteger, DataTypeFloat, DataTypeBoolean, DataTypeString:
		return true
	}
	return false
}

func (dt *DataType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	v := DataType(s)
	if !v.Valid() {
		return fmt.Errorf("SCHEMA/VALUE > invalid data type: %#v", s)
	}

	*dt = v
	return nil
}

// Value is the current measurement carried by a tag. The zero Value is not
// usable; construct one with IntegerValue, FloatValue, BooleanValue,
// StringValue or DefaultValue.
type Value struct {
	dtype DataType
	i     int64
	f     float32
	b     bool
	s     string
}

func IntegerValue(v int64) Value {
	return Value{dtype: DataTypeInteger, i: v}
}

func FloatValue(v float32) Value {
	return Value{dtype: DataTypeFloat, f: v}
}

func BooleanValue(v bool) Value {
	return Value{dtype: DataTypeBoolean, b: v}
}

func StringValue(v string) Value {
	return Value{dtype: DataTypeString, s: v}
}

// DefaultValue returns the zero of each arm: 0, 0.0, false, "".
func DefaultValue(dt DataType) Value {
	return Value{dtype: dt}
}

// DataType resolves the runtime type of the value.
func (v Value) DataType() DataType {
	return v.dtype
}

func (v Value) Int() int64     { return v.i }
func (v Value) Float() float32 { return v.f }
func (v Value) Bool() bool     { return v.b }
func (v Value) Str() string    { return v.s }

// Equal is structural equality: same arm and same payload. Floats compare
// exactly, without tolerance.
func (v Value) Equal(o Value) bool {
	return v == o
}

// String renders the payload for display, without the type tag.
func (v Value) String() string {
	switch v.dtype {
	case DataTypeInteger:
		return strconv.FormatInt(v.i, 10)
	case DataTypeFloat:
		return strconv.FormatFloat(float64(v.f), 'f', 2, 32)
	case DataTypeBoolean:
		return strconv.FormatBool(v.b)
	case DataTypeString:
		return v.s
	}
	return "<invalid>"
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.dtype {
	case DataTypeInteger:
		return json.Marshal(map[string]int64{string(DataTypeInteger): v.i})
	case DataTypeFloat:
		return json.Marshal(map[string]float32{string(DataTypeFloat): v.f})
	case DataTypeBoolean:
		return json.Marshal(map[string]bool{string(DataTypeBoolean): v.b})
	case DataTypeString:
		return json.Marshal(map[string]string{string(DataTypeString): v.s})
	}
	return nil, fmt.Errorf("SCHEMA/VALUE > cannot marshal value of invalid type %#v", string(v.dtype))
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 1 {
		return fmt.Errorf("SCHEMA/VALUE > expected exactly one variant key, got %d", len(raw))
	}

	for key, payload := range raw {
		switch DataType(key) {
		case DataTypeInteger:
			if err := json.Unmarshal(payload, &v.i); err != nil {
				return err
			}
		case DataTypeFloat:
			if err := json.Unmarshal(payload, &v.f); err != nil {
				return err
			}
		case DataTypeBoolean:
			if err := json.Unmarshal(payload, &v.b); err != nil {
				return err
			}
		case DataTypeString:
			if err := json.Unmarshal(payload, &v.s); err != nil {
				return err
			}
		default:
			return fmt.Errorf("SCHEMA/VALUE > unknown value variant: %#v", key)
		}
		v.dtype = DataType(key)
	}

	return nil
}
