package http

import (
	"bytes"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"finboard/internal/ledger"
	"finboard/internal/log"
	"finboard/internal/transfer"
)

func (s *Server) handleSetBudgets(w http.ResponseWriter, r *http.Request) {
	budgets, err := parseBudgets(w, r)
	if err != nil {
		s.writeError(w, r, "set_budgets", err)
		return
	}
	s.apply(w, r, ledger.SetBudgets{Budgets: budgets}, http.StatusOK)
}

func (s *Server) handleSetTheme(w http.ResponseWriter, r *http.Request) {
	theme, err := parseTheme(w, r)
	if err != nil {
		s.writeError(w, r, "set_theme", err)
		return
	}
	s.apply(w, r, ledger.SetTheme{Theme: theme}, http.StatusOK)
}

func (s *Server) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, ledger.ToggleTheme{}, http.StatusOK)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.apply(w, r, ledger.ResetLedger{}, http.StatusOK)
}

// handleImport accepts a multipart upload in field "file" or a raw body.
// The format comes from ?format= or the uploaded file name.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, filename, err := readUpload(w, r)
	if err != nil {
		s.logger.WarnContext(r.Context(), "Unreadable import upload", log.FieldError, err)
		BadRequestError(importFailedMessage).Write(w)
		return
	}

	name := r.URL.Query().Get("format")
	if name == "" {
		name = filename
	}
	format, err := transfer.ParseFormat(name)
	if err != nil {
		s.writeError(w, r, "import_file", err)
		return
	}

	replace, _ := strconv.ParseBool(r.URL.Query().Get("replace"))
	s.apply(w, r, ledger.ImportFile{
		Format:  format,
		Data:    data,
		Options: ledger.ImportOptions{Replace: replace},
	}, http.StatusOK)
}

// readUpload returns the "file" part of a multipart/form-data body, or the
// raw body for any other content type. An empty upload is an invalid import.
func readUpload(w http.ResponseWriter, r *http.Request) ([]byte, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var (
		data     []byte
		filename string
		err      error
	)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "multipart/form-data" {
		data, filename, err = readFormFile(r)
	} else {
		data, err = io.ReadAll(r.Body)
	}
	if err != nil {
		return nil, "", err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, filename, fmt.Errorf("%w: empty upload", transfer.ErrInvalidImport)
	}
	return data, filename, nil
}

func readFormFile(r *http.Request) ([]byte, string, error) {
	if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
		return nil, "", err
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	return data, hdr.Filename, err
}

// handleExport downloads the ledger as the JSON export document, or as CSV
// with ?format=csv.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	doc := s.service.Export()

	if r.URL.Query().Get("format") == string(transfer.FormatCSV) {
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", `attachment; filename="`+transfer.ExportCSVFileName+`"`)
		_, _ = io.WriteString(w, transfer.WriteCSV(doc.Transactions))
		return
	}

	NewJSONResponse().
		Attachment(transfer.ExportFileName).
		Indent().
		Body(doc).
		Write(w)
}
