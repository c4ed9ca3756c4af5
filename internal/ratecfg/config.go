// Package ratecfg holds the rate configuration used to price quotes: the base
// hourly rate, the tax rate and the complexity and risk multiplier tables.
//
// A *Config is treated as an immutable snapshot. Edits go through the With*
// methods, which validate the result and return a fresh snapshot, so a quote
// computation can keep reading the snapshot it started with.
package ratecfg

import (
	"fmt"
	"math"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/shopspring/decimal"
	"github.com/tiendc/go-deepcopy"

	apperrors "github.com/Simplici0/pricepilot/internal/errors"
)

// TableKind names one of the two multiplier tables.
type TableKind string

const (
	Complexity TableKind = "complexity"
	Risk       TableKind = "risk"
)

// ParseTableKind accepts "complexity" or "risk".
func ParseTableKind(s string) (TableKind, error) {
	switch TableKind(s) {
	case Complexity, Risk:
		return TableKind(s), nil
	}
	return "", apperrors.NotFound("unknown multiplier table %q", s)
}

// Config is a rate configuration snapshot.
type Config struct {
	BaseHourlyRate float64 `json:"base_hourly_rate" yaml:"base_hourly_rate"`
	TaxRate        float64 `json:"tax_rate" yaml:"tax_rate"`
	Complexity     Table   `json:"complexity" yaml:"complexity"`
	Risk           Table   `json:"risk" yaml:"risk"`
	// DefaultType is the task type label used when a task has none.
	DefaultType string `json:"default_type" yaml:"default_type"`
}

// Defaults returns the built-in configuration.
func Defaults() *Config {
	return &Config{
		BaseHourlyRate: 1200,
		TaxRate:        0.05,
		Complexity: NewTable("中等",
			Entry{Label: "簡單", Factor: 1.0},
			Entry{Label: "中等", Factor: 1.3},
			Entry{Label: "複雜", Factor: 1.8},
			Entry{Label: "非常複雜", Factor: 2.5},
		),
		Risk: NewTable("中風險",
			Entry{Label: "低風險", Factor: 1.0},
			Entry{Label: "中風險", Factor: 1.2},
			Entry{Label: "高風險", Factor: 1.5},
		),
		DefaultType: "中級開發",
	}
}

// ComplexityFactor looks up a complexity label with default fallback.
func (c *Config) ComplexityFactor(label string) float64 {
	return c.Complexity.MultiplierFor(label)
}

// RiskFactor looks up a risk label with default fallback.
func (c *Config) RiskFactor(label string) float64 {
	return c.Risk.MultiplierFor(label)
}

// Table returns the table named by kind.
func (c *Config) Table(kind TableKind) Table {
	if kind == Risk {
		return c.Risk
	}
	return c.Complexity
}

// Validate reports configuration-consistency errors as TypeConfig errors.
func (c *Config) Validate() error {
	err := validation.ValidateStruct(c,
		validation.Field(&c.BaseHourlyRate, validation.By(finite), validation.Min(0.0).Error("must be >= 0")),
		validation.Field(&c.TaxRate, validation.By(finite), validation.Min(0.0).Error("must be >= 0")),
		validation.Field(&c.Complexity),
		validation.Field(&c.Risk),
	)
	if err != nil {
		return apperrors.Wrap(apperrors.TypeConfig, "invalid rate configuration", err)
	}
	return nil
}

// finite rejects NaN and infinities, which Min lets through.
func finite(value any) error {
	f, _ := value.(float64)
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return validation.NewError("validation_not_finite", "must be a finite number")
	}
	return nil
}

// Clone returns an independent deep copy of c.
func (c *Config) Clone() *Config {
	out := &Config{}
	if err := deepcopy.Copy(out, c); err != nil {
		// Config only holds plain values and slices; a copy failure is a bug.
		panic(fmt.Sprintf("ratecfg: clone config: %v", err))
	}
	return out
}

// WithBaseHourlyRate returns a copy with a new base hourly rate.
func (c *Config) WithBaseHourlyRate(rate float64) (*Config, error) {
	out := c.Clone()
	out.BaseHourlyRate = rate
	return out, out.Validate()
}

// WithTaxRate returns a copy with a new tax rate.
func (c *Config) WithTaxRate(rate float64) (*Config, error) {
	out := c.Clone()
	out.TaxRate = rate
	return out, out.Validate()
}

// WithTable returns a copy with the table named by kind replaced.
func (c *Config) WithTable(kind TableKind, t Table) (*Config, error) {
	out := c.Clone()
	t = t.clone()
	if kind == Risk {
		out.Risk = t
	} else {
		out.Complexity = t
	}
	return out, out.Validate()
}

// EditTable applies edit to the table named by kind and returns the new snapshot.
func (c *Config) EditTable(kind TableKind, edit func(Table) (Table, error)) (*Config, error) {
	t, err := edit(c.Table(kind))
	if err != nil {
		return c, err
	}
	return c.WithTable(kind, t)
}

// DeriveHourlyRate converts a monthly salary into an hourly rate assuming
// eight-hour days, rounded to cents. workDays below 1 count as 1.
func DeriveHourlyRate(monthly float64, workDays int) float64 {
	if workDays < 1 {
		workDays = 1
	}
	hourly := decimal.NewFromFloat(monthly).
		Div(decimal.NewFromInt(int64(workDays))).
		Div(decimal.NewFromInt(8)).
		Round(2)
	return hourly.InexactFloat64()
}

// EffectiveHourlyRate folds an overtime multiplier into the base rate,
// rounded to cents.
func EffectiveHourlyRate(base, overtimeMultiplier float64) float64 {
	return decimal.NewFromFloat(base).Mul(decimal.NewFromFloat(overtimeMultiplier)).Round(2).InexactFloat64()
}
