// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.
package dispatch

import (
	"github.com/ClusterCockpit/cc-tagstore/internal/tagstore"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
)

// The request surface is a closed set of message kinds. Every message
// carries its payload and a single-use reply channel of capacity one; the
// consumer delivers the outcome exactly once and drops it if the receiver
// is gone.

type request interface {
	kind() string
}

type createTagRequest struct {
	name  string
	unit  schema.Unit
	dtype schema.DataType
	reply chan tagstore.InsertResult
}

type updateValueRequest struct {
	name  string
	value schema.TagValue
	reply chan updateValueReply
}

type updateValueReply struct {
	result tagstore.UpdateResult
	err    error
}

type deleteTagRequest struct {
	name  string
	reply chan error
}

type tagExistsRequest struct {
	name  string
	reply chan bool
}

type getTagRequest struct {
	name  string
	reply chan getTagReply
}

type getTagReply struct {
	tag schema.Tag
	ok  bool
}

type getAllTagsRequest struct {
	reply chan []schema.Tag
}

type getDataTypeRequest struct {
	name  string
	reply chan getDataTypeReply
}

type getDataTypeReply struct {
	dtype schema.DataType
	ok    bool
}

type getTagValueRequest struct {
	name  string
	reply chan getTagValueReply
}

type getTagValueReply struct {
	value schema.TagValue
	ok    bool
}

func (createTagRequest) kind() string   { return "CreateTag" }
func (updateValueRequest) kind() string { return "UpdateValue" }
func (deleteTagRequest) kind() string   { return "DeleteTag" }
func (tagExistsRequest) kind() string   { return "TagExists" }
func (getTagRequest) kind() string      { return "GetTag" }
func (getAllTagsRequest) kind() string  { return "GetAllTags" }
func (getDataTypeRequest) kind() string { return "GetDataType" }
func (getTagValueRequest) kind() string { return "GetTagValue" }
