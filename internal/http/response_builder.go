// Package http serves the ledger as a JSON API.
//
// This file implements a small builder for JSON responses so handlers share
// one way of setting status, headers and error bodies.

package http

import (
	"encoding/json"
	"net/http"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error  string       `json:"error"`
	Fields []FieldIssue `json:"fields,omitempty"`
}

// FieldIssue names one rejected request field.
type FieldIssue struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// JSONResponseBuilder provides a fluent API for building JSON responses.
type JSONResponseBuilder struct {
	statusCode int
	headers    map[string]string
	payload    any
	indent     bool
}

// NewJSONResponse creates a builder with a 200 status.
func NewJSONResponse() *JSONResponseBuilder {
	return &JSONResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *JSONResponseBuilder) Status(code int) *JSONResponseBuilder {
	b.statusCode = code
	return b
}

func (b *JSONResponseBuilder) Header(name, value string) *JSONResponseBuilder {
	b.headers[name] = value
	return b
}

// Attachment marks the body as a download named filename.
func (b *JSONResponseBuilder) Attachment(filename string) *JSONResponseBuilder {
	return b.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
}

func (b *JSONResponseBuilder) Body(v any) *JSONResponseBuilder {
	b.payload = v
	return b
}

// Indent pretty-prints the body.
func (b *JSONResponseBuilder) Indent() *JSONResponseBuilder {
	b.indent = true
	return b
}

// Write sends the response. An unencodable payload becomes a 500.
func (b *JSONResponseBuilder) Write(w http.ResponseWriter) {
	var (
		data []byte
		err  error
	)
	if b.payload != nil {
		if b.indent {
			data, err = json.MarshalIndent(b.payload, "", "  ")
		} else {
			data, err = json.Marshal(b.payload)
		}
		if err != nil {
			data, _ = json.Marshal(ErrorBody{Error: "failed to encode response"})
			b.statusCode = http.StatusInternalServerError
		}
	}

	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if _, set := b.headers["Content-Type"]; !set {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}

	w.WriteHeader(b.statusCode)
	if len(data) > 0 {
		_, _ = w.Write(data)
		_, _ = w.Write([]byte("\n"))
	}
}

// ErrorResponse creates a standard error response.
func ErrorResponse(statusCode int, message string, fields ...FieldIssue) *JSONResponseBuilder {
	return NewJSONResponse().
		Status(statusCode).
		Body(ErrorBody{Error: message, Fields: fields})
}

func BadRequestError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func UnprocessableEntityError(message string, fields ...FieldIssue) *JSONResponseBuilder {
	return ErrorResponse(http.StatusUnprocessableEntity, message, fields...)
}

func NotFoundError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *JSONResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

func TooManyRequestsError() *JSONResponseBuilder {
	return ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.")
}
