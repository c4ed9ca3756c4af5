// Package draft models the editable quote form: what the user typed, before
// pricing. Drafts round-trip through JSON unchanged so a saved draft can be
// reloaded and priced again.
package draft

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/spf13/cast"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
	"github.com/Simplici0/pricepilot/internal/pricing"
	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

// Draft is the serialized quote form.
type Draft struct {
	ProjectName string              `json:"projectName"`
	ClientName  string              `json:"clientName"`
	Tasks       []pricing.TaskInput `json:"tasks"`
	Extras      pricing.ExtraCosts  `json:"extras"`
}

// Blank returns the form as first shown: one task row of one hour with the
// configured defaults and the fixed extras at zero.
func Blank(cfg *ratecfg.Config) Draft {
	return Draft{
		Tasks: []pricing.TaskInput{{
			Type:       cfg.DefaultType,
			Hours:      1.0,
			Complexity: cfg.Complexity.Default,
			Risk:       cfg.Risk.Default,
		}},
		Extras: pricing.Extras(
			pricing.ExtraHosting, 0.0,
			pricing.ExtraDomain, 0.0,
			pricing.ExtraMaintenance, 0.0,
		),
	}
}

// Decode parses a draft from JSON.
func Decode(data []byte) (Draft, error) {
	var d Draft
	if err := json.Unmarshal(data, &d); err != nil {
		return Draft{}, apperrors.Wrap(apperrors.TypeInput, "decode draft", err)
	}
	return d, nil
}

// Encode serializes d as JSON.
func (d Draft) Encode() ([]byte, error) {
	return json.Marshal(d)
}

// Validate applies the form-level checks that gate pricing and export:
// non-empty names and non-negative numeric hours and extras. Failing rows
// are reported per field.
func (d Draft) Validate() error {
	err := validation.ValidateStruct(&d,
		validation.Field(&d.ProjectName, validation.By(notBlank)),
		validation.Field(&d.ClientName, validation.By(notBlank)),
		validation.Field(&d.Tasks, validation.By(validTasks)),
		validation.Field(&d.Extras, validation.By(validExtras)),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.TypeInput, "invalid quote form", err)
	}
	return nil
}

// Price validates d and prices it with cfg.
func (d Draft) Price(engine *pricing.Engine, cfg *ratecfg.Config) (pricing.Quote, error) {
	if err := d.Validate(); err != nil {
		return pricing.Quote{}, err
	}
	return engine.PriceQuote(
		strings.TrimSpace(d.ProjectName),
		strings.TrimSpace(d.ClientName),
		d.Tasks,
		d.Extras,
		cfg,
	), nil
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return validation.NewError("validation_required", "cannot be blank")
	}
	return nil
}

func validTasks(value any) error {
	tasks, _ := value.([]pricing.TaskInput)
	errs := validation.Errors{}
	for i, t := range tasks {
		if err := boundedNumber(t.Hours, pricing.MaxHours); err != nil {
			errs[fmt.Sprintf("%d.hours", i)] = err
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

func validExtras(value any) error {
	extras, _ := value.(pricing.ExtraCosts)
	errs := validation.Errors{}
	for _, c := range extras {
		if err := boundedNumber(c.Value, pricing.MaxAmount); err != nil {
			errs[c.Label] = err
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// boundedNumber accepts numbers and numeric strings in [0, max]. An empty
// field reads as zero, as an empty number input does in the form.
func boundedNumber(v any, max float64) error {
	if v == nil {
		return nil
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return validation.NewError("validation_not_numeric", "must be a number")
	}
	if f < 0 {
		return validation.NewError("validation_negative", "must be no less than 0")
	}
	if f > max {
		return validation.NewError("validation_too_large", fmt.Sprintf("must be no greater than %s", strconv.FormatFloat(max, 'f', -1, 64)))
	}
	return nil
}
