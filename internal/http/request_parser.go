// This file decodes and validates request bodies. Shape checks run through
// go-playground/validator; domain checks are left to the ledger.

package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"finboard/internal/core"
	"finboard/internal/ledger"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// errMalformedBody is returned when the body is not decodable JSON.
var errMalformedBody = errors.New("request body must be valid JSON")

// RequestError is a rejected request: a message plus the offending fields.
type RequestError struct {
	Message string
	Fields  []FieldIssue
}

func (e *RequestError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// numberOrString holds a JSON number or string as its literal text.
type numberOrString string

func (n *numberOrString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = numberOrString(strings.TrimSpace(s))
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = numberOrString(num.String())
	return nil
}

type transactionRequest struct {
	Description string         `json:"desc" validate:"required,max=200"`
	Amount      numberOrString `json:"amount" validate:"required"`
	Kind        string         `json:"type" validate:"required,oneof=income expense"`
	Category    string         `json:"category" validate:"max=100"`
	Date        string         `json:"date" validate:"required"`
}

type deleteRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type themeRequest struct {
	Theme string `json:"theme" validate:"required,oneof=dark light"`
}

// decodeJSON reads at most maxBodyBytes of JSON into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}
	return nil
}

// checkShape runs struct validation and converts failures to field issues.
func checkShape(s any) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &RequestError{Message: "invalid request"}
	for _, fe := range verrs {
		out.Fields = append(out.Fields, FieldIssue{Field: fieldName(fe), Message: describe(fe)})
	}
	return out
}

func fieldName(fe validator.FieldError) string {
	// Namespace is "transactionRequest.desc"; drop the struct name.
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return "is invalid"
	}
}

// toInput converts a shape-checked request into ledger input, reporting
// unparsable amount and date together.
func (req transactionRequest) toInput() (ledger.Input, error) {
	in := ledger.Input{
		Description: sanitizeInput(req.Description),
		Kind:        core.Kind(req.Kind),
		Category:    sanitizeInput(req.Category),
	}

	out := &RequestError{Message: "invalid request"}
	amount, err := core.ParseAmount(string(req.Amount))
	if err != nil {
		out.Fields = append(out.Fields, FieldIssue{Field: "amount", Message: "must be a number greater than 0"})
	}
	in.Amount = amount

	date, err := core.ParseDate(req.Date)
	if err != nil {
		out.Fields = append(out.Fields, FieldIssue{Field: "date", Message: "must be a date in YYYY-MM-DD format"})
	}
	in.Date = date

	if len(out.Fields) > 0 {
		return ledger.Input{}, out
	}
	return in, nil
}

// parseTransaction decodes, shape-checks and converts a transaction body.
func parseTransaction(w http.ResponseWriter, r *http.Request) (ledger.Input, error) {
	var req transactionRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return ledger.Input{}, err
	}
	if err := checkShape(req); err != nil {
		return ledger.Input{}, err
	}
	return req.toInput()
}

// parseBudgets decodes a {category: limit} object. Limits must be >= 0.
func parseBudgets(w http.ResponseWriter, r *http.Request) (core.BudgetMap, error) {
	var raw map[string]numberOrString
	if err := decodeJSON(w, r, &raw); err != nil {
		return nil, err
	}
	out := &RequestError{Message: "invalid budgets"}
	if len(raw) == 0 {
		out.Fields = append(out.Fields, FieldIssue{Field: "budgets", Message: "must contain at least 1 item(s)"})
		return nil, out
	}

	budgets := make(core.BudgetMap, len(raw))
	for cat, v := range raw {
		name := sanitizeInput(cat)
		if name == "" {
			out.Fields = append(out.Fields, FieldIssue{Field: "category", Message: "is required"})
			continue
		}
		limit, err := core.ParseLimit(string(v))
		if err != nil {
			out.Fields = append(out.Fields, FieldIssue{Field: name, Message: "must be a number of at least 0"})
			continue
		}
		budgets[name] = limit
	}
	if len(out.Fields) > 0 {
		return nil, out
	}
	return budgets, nil
}

func parseDelete(w http.ResponseWriter, r *http.Request) ([]string, error) {
	var req deleteRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return nil, err
	}
	if err := checkShape(req); err != nil {
		return nil, err
	}
	return req.IDs, nil
}

func parseTheme(w http.ResponseWriter, r *http.Request) (core.Theme, error) {
	var req themeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		return "", err
	}
	if err := checkShape(req); err != nil {
		return "", err
	}
	return core.Theme(req.Theme), nil
}
