package http

import (
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestJSONResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(map[string]int{"count": 2}).
		Write(w)

	if w.Code != http.StatusCreated {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusCreated)
	}
	if got := w.Header().Get("Content-Type"); got != "application/json; charset=utf-8" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Body.String() != "{\"count\":2}\n" {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_AttachmentAndIndent(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().
		Attachment("finance-export.json").
		Indent().
		Body(map[string]string{"a": "b"}).
		Write(w)

	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="finance-export.json"` {
		t.Errorf("Content-Disposition = %q", got)
	}
	if !strings.Contains(w.Body.String(), "\n  \"a\": \"b\"\n") {
		t.Errorf("Body not indented: %q", w.Body.String())
	}
}

func TestJSONResponseBuilder_CustomContentType(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Header("Content-Type", "application/problem+json").Write(w)

	if got := w.Header().Get("Content-Type"); got != "application/problem+json" {
		t.Errorf("Content-Type = %q", got)
	}
	if w.Body.Len() != 0 {
		t.Errorf("Body = %q, want empty", w.Body.String())
	}
}

func TestJSONResponseBuilder_UnencodablePayload(t *testing.T) {
	w := httptest.NewRecorder()

	NewJSONResponse().Body(math.Inf(1)).Write(w)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("Status code = %d, want %d", w.Code, http.StatusInternalServerError)
	}
	if !strings.Contains(w.Body.String(), "failed to encode response") {
		t.Errorf("Body = %q", w.Body.String())
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *JSONResponseBuilder
		code    int
		message string
	}{
		{"bad request", BadRequestError("bad"), http.StatusBadRequest, "bad"},
		{"unprocessable", UnprocessableEntityError("invalid"), http.StatusUnprocessableEntity, "invalid"},
		{"not found", NotFoundError("missing"), http.StatusNotFound, "missing"},
		{"internal", InternalServerError("boom"), http.StatusInternalServerError, "boom"},
		{"rate limited", TooManyRequestsError(), http.StatusTooManyRequests, "Rate limit exceeded. Please try again later."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			if w.Code != tt.code {
				t.Errorf("Status code = %d, want %d", w.Code, tt.code)
			}
			var body ErrorBody
			if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if body.Error != tt.message {
				t.Errorf("Error = %q, want %q", body.Error, tt.message)
			}
			if strings.Contains(w.Body.String(), "fields") {
				t.Errorf("empty fields should be omitted: %s", w.Body.String())
			}
		})
	}
}

func TestUnprocessableEntityError_Fields(t *testing.T) {
	w := httptest.NewRecorder()
	UnprocessableEntityError("invalid transaction",
		FieldIssue{Field: "amount", Message: "must be a number greater than 0"}).Write(w)

	want := `{"error":"invalid transaction","fields":[{"field":"amount","message":"must be a number greater than 0"}]}` + "\n"
	if w.Body.String() != want {
		t.Errorf("Body = %s, want %s", w.Body.String(), want)
	}
}
