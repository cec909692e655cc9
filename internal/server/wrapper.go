package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strconv"

	"github.com/flatdoc/flatdoc/internal/docstore"
	apierrors "github.com/flatdoc/flatdoc/internal/errors"
)

// Wrap wraps a handler function to work as an http.Handler.
// The function must have signature: func(context.Context, In) (*Out, error)
// where In can be unmarshalled from JSON and Out is a struct.
// Path parameters are bound via `path:"name"` struct tags and query
// parameters via `query:"name"`.
//
// Engine errors are mapped to the API contract: validation, not-found,
// and duplicate failures are client faults; I/O, corruption, and lock
// timeouts are server faults.
func Wrap[In any, Out any](fn func(context.Context, In) (*Out, error)) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		body, err := io.ReadAll(r.Body)
		if err2 := r.Body.Close(); err == nil {
			err = err2
		}
		if err != nil {
			slog.ErrorContext(ctx, "Failed to read request body", "err", err)
			writeError(w, http.StatusBadRequest, apierrors.ErrValidationFailed, "Failed to read request body", nil)
			return
		}
		var input In
		if len(body) > 0 {
			d := json.NewDecoder(bytes.NewReader(body))
			d.DisallowUnknownFields()
			if err := d.Decode(&input); err != nil {
				slog.ErrorContext(ctx, "Failed to decode request body", "err", err)
				writeError(w, http.StatusBadRequest, apierrors.ErrValidationFailed, "Invalid request body", nil)
				return
			}
		}

		populatePathParams(r, &input)
		populateQueryParams(r, &input)

		output, err := fn(ctx, input)
		if err != nil {
			statusCode, code, details := classify(err)
			slog.ErrorContext(ctx, "Handler error", "err", err, "statusCode", statusCode, "code", code)
			writeError(w, statusCode, code, err.Error(), details)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if err := json.NewEncoder(w).Encode(output); err != nil {
			slog.ErrorContext(ctx, "Failed to encode response", "err", err)
		}
	})
}

// classify resolves an error to its HTTP status, code, and details.
func classify(err error) (int, apierrors.ErrorCode, map[string]any) {
	var ews apierrors.ErrorWithStatus
	if errors.As(err, &ews) {
		return ews.StatusCode(), ews.Code(), ews.Details()
	}
	var se *docstore.Error
	if errors.As(err, &se) {
		switch se.Kind() {
		case docstore.KindValidation:
			return http.StatusBadRequest, apierrors.ErrValidationFailed, map[string]any{"violations": se.Violations()}
		case docstore.KindNotFound:
			return http.StatusNotFound, apierrors.ErrNotFound, nil
		case docstore.KindDuplicate:
			return http.StatusConflict, apierrors.ErrDuplicate, nil
		case docstore.KindLockTimeout:
			return http.StatusServiceUnavailable, apierrors.ErrUnavailable, nil
		case docstore.KindIO, docstore.KindCorruption:
			return http.StatusInternalServerError, apierrors.ErrStorageError, nil
		}
	}
	return http.StatusInternalServerError, apierrors.ErrInternal, nil
}

// populatePathParams extracts path parameters from the request and populates
// struct fields tagged with `path:"paramName"`.
func populatePathParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Ptr {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}

	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("path")
		if tag == "" {
			continue
		}
		paramValue := r.PathValue(tag)
		if paramValue == "" {
			continue
		}
		if field.Type.Kind() == reflect.String {
			elem.Field(i).SetString(paramValue)
		}
	}
}

// populateQueryParams extracts query parameters and populates struct
// fields tagged with `query:"paramName"`. Strings and ints are
// supported; everything else is left at its zero value.
func populateQueryParams(r *http.Request, input any) {
	val := reflect.ValueOf(input)
	if val.Kind() != reflect.Ptr {
		return
	}
	elem := val.Elem()
	if elem.Kind() != reflect.Struct {
		return
	}

	query := r.URL.Query()
	typ := elem.Type()
	for i := range typ.NumField() {
		field := typ.Field(i)
		tag := field.Tag.Get("query")
		if tag == "" {
			continue
		}
		paramValue := query.Get(tag)
		if paramValue == "" {
			continue
		}
		switch field.Type.Kind() {
		case reflect.String:
			elem.Field(i).SetString(paramValue)
		case reflect.Int:
			if intVal, err := strconv.Atoi(paramValue); err == nil {
				elem.Field(i).SetInt(int64(intVal))
			}
		default:
		}
	}
}

// writeError writes a structured error response as JSON.
func writeError(w http.ResponseWriter, statusCode int, code apierrors.ErrorCode, message string, details map[string]any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	if len(details) > 0 {
		response["details"] = details
	}
	_ = json.NewEncoder(w).Encode(response)
}
