// Package pricing turns task rows and extra costs into an itemized quote.
//
// Every function here is total: malformed per-row input is absorbed into
// defaults (hours clamp to zero, unknown labels fall back to the table
// default, garbage extras count as zero). The only precondition is a rate
// configuration that passed ratecfg.Config.Validate.
package pricing

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

// DateLayout is the layout of Quote.Date.
const DateLayout = "2006-01-02"

// Upper bounds accepted by form validation. Larger inputs would push
// subtotals past what an int64 amount can hold.
const (
	MaxHours  = 1_000_000
	MaxAmount = 1_000_000_000_000
)

// TaskInput is a raw task row as typed by the user. Hours may hold a number,
// a numeric string, nil or anything else.
type TaskInput struct {
	Type        string `json:"type"`
	Hours       any    `json:"hours"`
	Complexity  string `json:"complexity"`
	Risk        string `json:"risk"`
	Description string `json:"description"`
}

// ValidatedTask is a sanitized TaskInput.
type ValidatedTask struct {
	Type        string
	Hours       float64
	Complexity  string
	Risk        string
	Description string
}

// PricedItem is one priced line of a quote.
type PricedItem struct {
	Type         string  `json:"type"`
	Hours        float64 `json:"hours"`
	Complexity   string  `json:"complexity"`
	Risk         string  `json:"risk"`
	BaseRate     float64 `json:"base_rate"`
	AdjustedRate int64   `json:"adjusted_rate"`
	Subtotal     int64   `json:"subtotal"`
	Description  string  `json:"description"`
}

// Quote is the result of one pricing run. It is built once and never modified.
type Quote struct {
	ProjectName         string        `json:"project_name"`
	ClientName          string        `json:"client_name"`
	Date                string        `json:"quote_date"`
	Items               []PricedItem  `json:"items"`
	DevelopmentSubtotal int64         `json:"development_subtotal"`
	Extras              []ExtraAmount `json:"extras"`
	ExtrasSubtotal      int64         `json:"extras_subtotal"`
	PreTax              int64         `json:"pre_tax"`
	Tax                 int64         `json:"tax"`
	GrandTotal          int64         `json:"grand_total"`
}

// ExtrasWithSubtotal returns the extras followed by the subtotal entry
// labelled ExtrasSubtotalLabel.
func (q Quote) ExtrasWithSubtotal() []ExtraAmount {
	out := make([]ExtraAmount, 0, len(q.Extras)+1)
	out = append(out, q.Extras...)
	return append(out, ExtraAmount{Label: ExtrasSubtotalLabel, Amount: q.ExtrasSubtotal})
}

// SanitizeTask coerces a raw row into a ValidatedTask. It never fails.
func SanitizeTask(raw TaskInput, cfg *ratecfg.Config) ValidatedTask {
	task := ValidatedTask{
		Type:        raw.Type,
		Hours:       clampNumber(raw.Hours),
		Complexity:  raw.Complexity,
		Risk:        raw.Risk,
		Description: raw.Description,
	}
	if task.Type == "" {
		task.Type = cfg.DefaultType
	}
	if task.Complexity == "" {
		task.Complexity = cfg.Complexity.Default
	}
	if task.Risk == "" {
		task.Risk = cfg.Risk.Default
	}
	return task
}

// PriceItem prices a validated task. Type and description pass through and
// never influence the price.
func PriceItem(task ValidatedTask, cfg *ratecfg.Config) PricedItem {
	base := toDecimal(cfg.BaseHourlyRate)
	cf := toDecimal(cfg.ComplexityFactor(task.Complexity))
	rf := toDecimal(cfg.RiskFactor(task.Risk))

	adjusted := roundHalfUp(base.Mul(cf).Mul(rf))
	subtotal := roundHalfUp(decimal.NewFromInt(adjusted).Mul(toDecimal(task.Hours)))

	return PricedItem{
		Type:         task.Type,
		Hours:        task.Hours,
		Complexity:   task.Complexity,
		Risk:         task.Risk,
		BaseRate:     cfg.BaseHourlyRate,
		AdjustedRate: adjusted,
		Subtotal:     subtotal,
		Description:  task.Description,
	}
}

// Engine prices quotes and stamps them with the date from its clock.
type Engine struct {
	now func() time.Time
}

// NewEngine returns an engine reading dates from now; nil means time.Now.
func NewEngine(now func() time.Time) *Engine {
	if now == nil {
		now = time.Now
	}
	return &Engine{now: now}
}

var defaultEngine = NewEngine(nil)

// PriceQuote prices a quote with the system clock.
func PriceQuote(projectName, clientName string, tasks []TaskInput, extras ExtraCosts, cfg *ratecfg.Config) Quote {
	return defaultEngine.PriceQuote(projectName, clientName, tasks, extras, cfg)
}

// PriceQuote sanitizes and prices every task in input order, adds the clamped
// extras and applies tax on the pre-tax total.
func (e *Engine) PriceQuote(projectName, clientName string, tasks []TaskInput, extras ExtraCosts, cfg *ratecfg.Config) Quote {
	items := make([]PricedItem, 0, len(tasks))
	var devSubtotal int64
	for _, raw := range tasks {
		item := PriceItem(SanitizeTask(raw, cfg), cfg)
		devSubtotal = addAmounts(devSubtotal, item.Subtotal)
		items = append(items, item)
	}

	amounts := extras.Amounts()
	var extrasSubtotal int64
	for _, a := range amounts {
		extrasSubtotal = addAmounts(extrasSubtotal, a.Amount)
	}

	preTax := addAmounts(devSubtotal, extrasSubtotal)
	tax := roundHalfUp(decimal.NewFromInt(preTax).Mul(toDecimal(cfg.TaxRate)))

	return Quote{
		ProjectName:         projectName,
		ClientName:          clientName,
		Date:                e.now().UTC().Format(DateLayout),
		Items:               items,
		DevelopmentSubtotal: devSubtotal,
		Extras:              amounts,
		ExtrasSubtotal:      extrasSubtotal,
		PreTax:              preTax,
		Tax:                 tax,
		GrandTotal:          addAmounts(preTax, tax),
	}
}

// clampNumber coerces v to a finite number >= 0; anything else becomes 0.
func clampNumber(v any) float64 {
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return math.Max(0, f)
}

var int64Ceiling = decimal.NewFromInt(math.MaxInt64)

// roundHalfUp rounds to the nearest integer, halves away from zero. All
// amounts reaching it are non-negative, so this is round-half-up. Results
// beyond the int64 range saturate at math.MaxInt64.
func roundHalfUp(d decimal.Decimal) int64 {
	r := d.Round(0)
	if r.GreaterThan(int64Ceiling) {
		return math.MaxInt64
	}
	return r.IntPart()
}

// addAmounts adds two non-negative amounts, saturating at math.MaxInt64.
func addAmounts(a, b int64) int64 {
	if a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}

func toDecimal(f float64) decimal.Decimal {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}
