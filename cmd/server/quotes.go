package main

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Simplici0/pricepilot/internal/draft"
	apperrors "github.com/Simplici0/pricepilot/internal/errors"
	"github.com/Simplici0/pricepilot/internal/export"
	"github.com/Simplici0/pricepilot/internal/pricing"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type savedQuoteResponse struct {
	ID    int64         `json:"id"`
	Quote pricing.Quote `json:"quote"`
}

// priceRequest decodes a draft from the body and prices it against a single
// rate snapshot.
func (s *server) priceRequest(w http.ResponseWriter, r *http.Request) (pricing.Quote, error) {
	var d draft.Draft
	if err := decodeJSON(w, r, &d); err != nil {
		return pricing.Quote{}, err
	}
	return d.Price(s.engine, s.currentRates())
}

func (s *server) handleQuotePreview(w http.ResponseWriter, r *http.Request) {
	q, err := s.priceRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, q)
}

func (s *server) handleQuoteCreate(w http.ResponseWriter, r *http.Request) {
	q, err := s.priceRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	id, err := s.store.SaveQuote(r.Context(), q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, savedQuoteResponse{ID: id, Quote: q})
}

func (s *server) handleQuotesList(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	quotes, err := s.store.ListQuotes(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func quoteID(r *http.Request) (int64, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NotFound("quote %q not found", raw)
	}
	return id, nil
}

func (s *server) loadQuote(r *http.Request) (pricing.Quote, error) {
	id, err := quoteID(r)
	if err != nil {
		return pricing.Quote{}, err
	}
	rec, err := s.store.GetQuote(r.Context(), id)
	if err != nil {
		return pricing.Quote{}, err
	}
	return rec.Quote, nil
}

func (s *server) handleQuoteGet(w http.ResponseWriter, r *http.Request) {
	id, err := quoteID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rec, err := s.store.GetQuote(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleQuoteText(w http.ResponseWriter, r *http.Request) {
	q, err := s.loadQuote(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteText(&buf, q); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *server) handleQuoteXLSX(w http.ResponseWriter, r *http.Request) {
	q, err := s.loadQuote(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWorkbook(w, r, q)
}

func (s *server) handleExport(w http.ResponseWriter, r *http.Request) {
	q, err := s.priceRequest(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeWorkbook(w, r, q)
}

// writeWorkbook renders the whole workbook before writing any bytes so a
// failed export never produces a partial file.
func (s *server) writeWorkbook(w http.ResponseWriter, r *http.Request, q pricing.Quote) {
	data, err := export.XLSX(q)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": export.FileName(q),
	}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
