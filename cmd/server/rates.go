package main

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

func (s *server) handleRatesGet(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.currentRates())
}

func (s *server) handleRatesUpdate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		BaseHourlyRate *float64 `json:"base_hourly_rate"`
		TaxRate        *float64 `json:"tax_rate"`
		DefaultType    *string  `json:"default_type"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	cfg, err := s.updateRates(r.Context(), func(cur *ratecfg.Config) (*ratecfg.Config, error) {
		next := cur
		var err error
		if body.BaseHourlyRate != nil {
			if next, err = next.WithBaseHourlyRate(*body.BaseHourlyRate); err != nil {
				return nil, err
			}
		}
		if body.TaxRate != nil {
			if next, err = next.WithTaxRate(*body.TaxRate); err != nil {
				return nil, err
			}
		}
		if body.DefaultType != nil {
			label := strings.TrimSpace(*body.DefaultType)
			if label == "" {
				return nil, apperrors.Config("default task type cannot be empty")
			}
			next = next.Clone()
			next.DefaultType = label
		}
		return next, nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

type salaryResponse struct {
	HourlyRate float64         `json:"hourly_rate"`
	Config     *ratecfg.Config `json:"config"`
}

func (s *server) handleRatesSalary(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Monthly  float64 `json:"monthly"`
		WorkDays int     `json:"work_days"`
		Overtime float64 `json:"overtime"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	if body.Monthly < 0 || body.Overtime < 0 {
		s.writeError(w, r, apperrors.Config("salary and overtime multiplier must be non-negative"))
		return
	}

	hourly := ratecfg.DeriveHourlyRate(body.Monthly, body.WorkDays)
	if body.Overtime > 0 {
		hourly = ratecfg.EffectiveHourlyRate(hourly, body.Overtime)
	}

	cfg, err := s.updateRates(r.Context(), func(cur *ratecfg.Config) (*ratecfg.Config, error) {
		return cur.WithBaseHourlyRate(hourly)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, salaryResponse{HourlyRate: hourly, Config: cfg})
}

func (s *server) handleRatesReset(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.updateRates(r.Context(), func(*ratecfg.Config) (*ratecfg.Config, error) {
		return ratecfg.Defaults(), nil
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *server) handleRateEntryAdd(w http.ResponseWriter, r *http.Request) {
	kind, err := ratecfg.ParseTableKind(chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Label  string  `json:"label"`
		Factor float64 `json:"factor"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.editTable(w, r, kind, http.StatusCreated, func(t ratecfg.Table) (ratecfg.Table, error) {
		return t.Add(body.Label, body.Factor)
	})
}

func (s *server) handleRateEntryUpdate(w http.ResponseWriter, r *http.Request) {
	kind, err := ratecfg.ParseTableKind(chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	label := labelParam(r)
	var body struct {
		Label  *string  `json:"label"`
		Factor *float64 `json:"factor"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.editTable(w, r, kind, http.StatusOK, func(t ratecfg.Table) (ratecfg.Table, error) {
		current := label
		if body.Label != nil {
			next, err := t.Rename(current, *body.Label)
			if err != nil {
				return ratecfg.Table{}, err
			}
			t = next
			current = strings.TrimSpace(*body.Label)
		}
		if body.Factor != nil {
			return t.SetFactor(current, *body.Factor)
		}
		return t, nil
	})
}

func (s *server) handleRateEntryDelete(w http.ResponseWriter, r *http.Request) {
	kind, err := ratecfg.ParseTableKind(chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	label := labelParam(r)

	s.editTable(w, r, kind, http.StatusOK, func(t ratecfg.Table) (ratecfg.Table, error) {
		return t.Remove(label)
	})
}

func (s *server) handleRateDefaultSet(w http.ResponseWriter, r *http.Request) {
	kind, err := ratecfg.ParseTableKind(chi.URLParam(r, "table"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var body struct {
		Label string `json:"label"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.editTable(w, r, kind, http.StatusOK, func(t ratecfg.Table) (ratecfg.Table, error) {
		return t.SetDefault(body.Label)
	})
}

func (s *server) editTable(w http.ResponseWriter, r *http.Request, kind ratecfg.TableKind, status int, edit func(ratecfg.Table) (ratecfg.Table, error)) {
	cfg, err := s.updateRates(r.Context(), func(cur *ratecfg.Config) (*ratecfg.Config, error) {
		return cur.EditTable(kind, edit)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, status, cfg.Table(kind))
}

// labelParam returns the decoded label. chi matches on the raw path only when
// the request path needed non-default escaping, such as an encoded slash.
func labelParam(r *http.Request) string {
	label := chi.URLParam(r, "label")
	if r.URL.RawPath == "" {
		return label
	}
	if decoded, err := url.PathUnescape(label); err == nil {
		return decoded
	}
	return label
}
