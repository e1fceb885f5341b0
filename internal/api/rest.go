// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of cc-tagstore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api translates REST operations into dispatcher messages and
// dispatcher outcomes back into HTTP status codes and JSON bodies.
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/ClusterCockpit/cc-tagstore/internal/dispatch"
	"github.com/ClusterCockpit/cc-tagstore/internal/tagstore"
	"github.com/ClusterCockpit/cc-tagstore/pkg/schema"
	"github.com/gorilla/mux"
)

type RestApi struct {
	Dispatcher *dispatch.Dispatcher
}

func New(d *dispatch.Dispatcher) *RestApi {
	return &RestApi{Dispatcher: d}
}

func (api *RestApi) MountRoutes(r *mux.Router) {
	r = r.PathPrefix("/api/v1").Subrouter()
	r.StrictSlash(true)

	r.HandleFunc("/tags", api.createTag).Methods(http.MethodPost)
	r.HandleFunc("/tags", api.listTags).Methods(http.MethodGet)
	r.HandleFunc("/tags/{name}", api.getTag).Methods(http.MethodGet)
	r.HandleFunc("/tags/{name}/value", api.updateTagValue).Methods(http.MethodPut)
	r.HandleFunc("/tags/{name}", api.deleteTag).Methods(http.MethodDelete)
	r.HandleFunc("/health", api.health).Methods(http.MethodGet)
}

func handleError(err error, statusCode int, rw http.ResponseWriter) {
	cclog.Warnf("REST ERROR : %s", err.Error())
	writeJSON(rw, statusCode, ErrorResponse{Error: err.Error()})
}

func writeJSON(rw http.ResponseWriter, statusCode int, payload any) {
	rw.Header().Add("Content-Type", "application/json")
	rw.WriteHeader(statusCode)
	if err := json.NewEncoder(rw).Encode(payload); err != nil {
		cclog.Errorf("REST > encoding response failed: %s", err.Error())
	}
}

func decode(r io.Reader, val any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	return dec.Decode(val)
}

func (api *RestApi) createTag(rw http.ResponseWriter, r *http.Request) {
	var req CreateTagRequest
	if err := decode(r.Body, &req); err != nil {
		handleError(fmt.Errorf("parsing request body failed: %w", err), http.StatusBadRequest, rw)
		return
	}

	if req.Name == "" {
		handleError(errors.New("the field 'name' must not be empty"), http.StatusBadRequest, rw)
		return
	}
	if req.Unit == "" {
		req.Unit = schema.UnitNone
	}
	if !req.DataType.Valid() {
		handleError(errors.New("the field 'data_type' is required"), http.StatusBadRequest, rw)
		return
	}

	res, err := api.Dispatcher.CreateTag(req.Name, req.Unit, req.DataType)
	if err != nil {
		handleError(err, http.StatusServiceUnavailable, rw)
		return
	}

	status := http.StatusCreated
	if res == tagstore.AlreadyExists {
		status = http.StatusConflict
		cclog.Debugf("REST > tag already exists: %s", req.Name)
	} else {
		cclog.Debugf("REST > tag created: %s", req.Name)
	}

	writeJSON(rw, status, CreateTagResponse{Name: req.Name, Result: string(res)})
}

func (api *RestApi) listTags(rw http.ResponseWriter, r *http.Request) {
	tags, err := api.Dispatcher.GetAllTags()
	if err != nil {
		handleError(err, http.StatusServiceUnavailable, rw)
		return
	}

	resp := ListTagsResponse{Tags: make([]TagResponse, 0, len(tags))}
	for _, t := range tags {
		resp.Tags = append(resp.Tags, tagResponse(t))
	}

	writeJSON(rw, http.StatusOK, resp)
}

func (api *RestApi) getTag(rw http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	tag, ok, err := api.Dispatcher.GetTag(name)
	if err != nil {
		handleError(err, http.StatusServiceUnavailable, rw)
		return
	}
	if !ok {
		handleError(fmt.Errorf("tag not found: %s", name), http.StatusNotFound, rw)
		return
	}

	writeJSON(rw, http.StatusOK, tagResponse(tag))
}

func (api *RestApi) updateTagValue(rw http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var req UpdateValueRequest
	if err := decode(r.Body, &req); err != nil {
		handleError(fmt.Errorf("parsing request body failed: %w", err), http.StatusBadRequest, rw)
		return
	}

	ts := req.Timestamp
	if ts == nil {
		now := time.Now().UTC()
		ts = &now
	}

	res, err := api.Dispatcher.UpdateValue(name, schema.TagValue{Value: req.Value, Timestamp: ts})
	if err != nil {
		api.handleUpdateError(name, err, rw)
		return
	}

	writeJSON(rw, http.StatusOK, UpdateValueResponse{Result: string(res)})
}

func (api *RestApi) handleUpdateError(name string, err error, rw http.ResponseWriter) {
	var typeErr *tagstore.InvalidDataTypeError
	var orderErr *tagstore.OutOfOrderError

	switch {
	case errors.Is(err, dispatch.ErrShutdown):
		handleError(err, http.StatusServiceUnavailable, rw)
	case errors.Is(err, tagstore.ErrTagNotFound):
		handleError(fmt.Errorf("tag not found: %s", name), http.StatusNotFound, rw)
	case errors.As(err, &typeErr):
		cclog.Warnf("REST > invalid data type for tag %s: %s", name, err.Error())
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{
			Error:    "Invalid data type",
			Expected: string(typeErr.Expected),
			Actual:   string(typeErr.Actual),
		})
	case errors.As(err, &orderErr):
		cclog.Warnf("REST > timestamp out of order for tag %s: %s", name, err.Error())
		writeJSON(rw, http.StatusBadRequest, ErrorResponse{
			Error:             "Timestamp out of order",
			PreviousTimestamp: &orderErr.Previous,
		})
	default:
		handleError(err, http.StatusBadRequest, rw)
	}
}

func (api *RestApi) deleteTag(rw http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	err := api.Dispatcher.DeleteTag(name)
	switch {
	case err == nil:
		cclog.Debugf("REST > tag deleted: %s", name)
		rw.WriteHeader(http.StatusNoContent)
	case errors.Is(err, tagstore.ErrTagNotFound):
		handleError(fmt.Errorf("tag not found: %s", name), http.StatusNotFound, rw)
	default:
		handleError(err, http.StatusServiceUnavailable, rw)
	}
}

func (api *RestApi) health(rw http.ResponseWriter, r *http.Request) {
	writeJSON(rw, http.StatusOK, HealthResponse{Status: "healthy"})
}
