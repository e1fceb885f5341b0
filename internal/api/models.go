// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package api

import (
	"time"

	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

// CreateTagRequest model
type CreateTagRequest struct {
	Name     string          `json:"name"`
	Unit     schema.Unit     `json:"unit"`
	DataType schema.DataType `json:"data_type"`
}

// CreateTagResponse model
type CreateTagResponse struct {
	Name   string `json:"name"`
	Result string `json:"result"` // "SuccessfullyCreated" or "AlreadyExists"
}

// UpdateValueRequest model. A missing timestamp is substituted with "now"
// before dispatch; the core itself never auto-timestamps.
type UpdateValueRequest struct {
	Value     schema.Value `json:"value"`
	Timestamp *time.Time   `json:"timestamp"`
}

// UpdateValueResponse model
type UpdateValueResponse struct {
	Result string `json:"result"` // "Updated" or "Ignored"
}

// ValueResponse carries the current value, its acquisition time and the
// runtime-resolved type of the value itself.
type ValueResponse struct {
	Value     schema.Value    `json:"value"`
	Timestamp *time.Time      `json:"timestamp"`
	DataType  schema.DataType `json:"data_type"`
}

// TagMetaResponse model
type TagMetaResponse struct {
	Unit     schema.Unit     `json:"unit"`
	DataType schema.DataType `json:"data_type"`
}

// TagResponse model
type TagResponse struct {
	Name  string          `json:"name"`
	Value ValueResponse   `json:"value"`
	Meta  TagMetaResponse `json:"meta"`
}

// ListTagsResponse model
type ListTagsResponse struct {
	Tags []TagResponse `json:"tags"`
}

// HealthResponse model
type HealthResponse struct {
	Status string `json:"status"`
}

// ErrorResponse model. Expected/Actual are set for type mismatches,
// PreviousTimestamp for out-of-order writes.
type ErrorResponse struct {
	Error             string     `json:"error"`
	Expected          string     `json:"expected,omitempty"`
	Actual            string     `json:"actual,omitempty"`
	PreviousTimestamp *time.Time `json:"previous_timestamp,omitempty"`
}

func tagResponse(t schema.Tag) TagResponse {
	return TagResponse{
		Name: t.Name,
		Value: ValueResponse{
			Value:     t.Value.Value,
			Timestamp: t.Value.Timestamp,
			DataType:  t.Value.Value.DataType(),
		},
		Meta: TagMetaResponse{
			Unit:     t.Meta.Unit,
			DataType: t.Meta.DataType,
		},
	}
}
