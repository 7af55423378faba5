package http

import (
	"net/http"
	"strconv"
	"strings"

	"finboard/internal/core"
	"finboard/internal/pipeline"
)

// maxBodyBytes bounds JSON bodies and import uploads.
const maxBodyBytes = 5 << 20

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// filterFromQuery reads q, category, kind, from and to from the URL query.
func filterFromQuery(r *http.Request) pipeline.FilterSpec {
	q := r.URL.Query()
	return pipeline.ParseFilter(
		sanitizeInput(q.Get("q")),
		sanitizeInput(q.Get("category")),
		sanitizeInput(q.Get("kind")),
		q.Get("from"),
		q.Get("to"),
	)
}

// footer renders the table footer line, e.g. "2 transaction(s) • Net: GHS 10.00".
func footer(count int, net core.Money, currency string) string {
	return strconv.Itoa(count) + " transaction(s) • Net: " + net.Format(currency)
}
