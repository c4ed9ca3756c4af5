package pricing

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"

	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

func fixedEngine() *Engine {
	return NewEngine(func() time.Time {
		return time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)
	})
}

func configWithBase(t *testing.T, base float64) *ratecfg.Config {
	t.Helper()
	cfg, err := ratecfg.Defaults().WithBaseHourlyRate(base)
	if err != nil {
		t.Fatalf("WithBaseHourlyRate(%v): %v", base, err)
	}
	return cfg
}

func TestPriceItem_ComplexAndHighRisk(t *testing.T) {
	cfg := configWithBase(t, 1200)

	item := PriceItem(SanitizeTask(TaskInput{Hours: 2, Complexity: "複雜", Risk: "高風險"}, cfg), cfg)

	if item.AdjustedRate != 3240 {
		t.Fatalf("adjustedRate = %d, want 3240", item.AdjustedRate)
	}
	if item.Subtotal != 6480 {
		t.Fatalf("subtotal = %d, want 6480", item.Subtotal)
	}
	if item.BaseRate != 1200 {
		t.Fatalf("baseRate = %v, want 1200", item.BaseRate)
	}
}

func TestPriceQuote_TwoTasksWithHosting(t *testing.T) {
	cfg := configWithBase(t, 1800)

	tasks := []TaskInput{
		{Type: "高級開發", Hours: 2, Complexity: "複雜", Risk: "高風險", Description: "API"},
		{Type: "測試", Hours: 5, Complexity: "簡單", Risk: "低風險"},
	}
	quote := fixedEngine().PriceQuote("Portal", "ACME", tasks, Extras(ExtraHosting, 200), cfg)

	if quote.Items[0].AdjustedRate != 4860 || quote.Items[0].Subtotal != 9720 {
		t.Fatalf("unexpected first item: %+v", quote.Items[0])
	}
	if quote.Items[1].AdjustedRate != 1800 || quote.Items[1].Subtotal != 9000 {
		t.Fatalf("unexpected second item: %+v", quote.Items[1])
	}
	if quote.DevelopmentSubtotal != 18720 {
		t.Fatalf("developmentSubtotal = %d, want 18720", quote.DevelopmentSubtotal)
	}
	if quote.ExtrasSubtotal != 200 {
		t.Fatalf("extrasSubtotal = %d, want 200", quote.ExtrasSubtotal)
	}
	if quote.PreTax != 18920 {
		t.Fatalf("preTax = %d, want 18920", quote.PreTax)
	}
	if quote.Tax != 946 || quote.GrandTotal != 19866 {
		t.Fatalf("tax/grand = %d/%d, want 946/19866", quote.Tax, quote.GrandTotal)
	}
	if quote.Date != "2024-03-15" {
		t.Fatalf("date = %q, want 2024-03-15", quote.Date)
	}
	if quote.Items[0].Type != "高級開發" || quote.Items[0].Description != "API" {
		t.Fatalf("type/description not passed through: %+v", quote.Items[0])
	}
}

func TestPriceQuote_EmptyInput(t *testing.T) {
	quote := fixedEngine().PriceQuote("Empty", "Nobody", nil, nil, ratecfg.Defaults())

	if quote.DevelopmentSubtotal != 0 || quote.ExtrasSubtotal != 0 || quote.PreTax != 0 || quote.Tax != 0 || quote.GrandTotal != 0 {
		t.Fatalf("expected all zero totals, got %+v", quote)
	}
	if len(quote.Items) != 0 {
		t.Fatalf("expected no items, got %d", len(quote.Items))
	}
}

func TestSanitizeTask_AbsorbsBadInput(t *testing.T) {
	cfg := ratecfg.Defaults()

	tests := []struct {
		name  string
		hours any
		want  float64
	}{
		{"missing", nil, 0},
		{"negative", -3.5, 0},
		{"numeric string", "2.5", 2.5},
		{"garbage string", "two", 0},
		{"empty string", "", 0},
		{"not a number", "NaN", 0},
		{"infinite", "Inf", 0},
		{"integer", 4, 4},
		{"json number", json.Number("1.5"), 1.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SanitizeTask(TaskInput{Hours: tt.hours}, cfg)
			if got.Hours != tt.want {
				t.Fatalf("hours = %v, want %v", got.Hours, tt.want)
			}
		})
	}

	defaults := SanitizeTask(TaskInput{}, cfg)
	if defaults.Complexity != "中等" || defaults.Risk != "中風險" || defaults.Type != "中級開發" || defaults.Description != "" {
		t.Fatalf("unexpected defaults: %+v", defaults)
	}
}

func TestPriceItem_UnknownLabelsUseDefaultFactors(t *testing.T) {
	cfg := configWithBase(t, 1000)

	unknown := PriceItem(SanitizeTask(TaskInput{Hours: 1, Complexity: "極難", Risk: "未知"}, cfg), cfg)
	defaults := PriceItem(SanitizeTask(TaskInput{Hours: 1}, cfg), cfg)

	if unknown.AdjustedRate != defaults.AdjustedRate || unknown.AdjustedRate != 1560 {
		t.Fatalf("unknown labels should price like defaults (1560), got %d vs %d", unknown.AdjustedRate, defaults.AdjustedRate)
	}
	if unknown.Complexity != "極難" {
		t.Fatalf("label should pass through unchanged, got %q", unknown.Complexity)
	}
}

func TestPriceItem_TypeAndDescriptionNeverChangePrice(t *testing.T) {
	cfg := ratecfg.Defaults()
	base := PriceItem(SanitizeTask(TaskInput{Type: "初級開發", Hours: 3, Complexity: "複雜"}, cfg), cfg)

	for _, typ := range []string{"架構設計", "測試", "", "自訂"} {
		other := PriceItem(SanitizeTask(TaskInput{Type: typ, Hours: 3, Complexity: "複雜", Description: typ + " work"}, cfg), cfg)
		if other.AdjustedRate != base.AdjustedRate || other.Subtotal != base.Subtotal {
			t.Fatalf("type %q changed price: %+v vs %+v", typ, other, base)
		}
	}
}

func TestPriceItem_RoundsHalfUp(t *testing.T) {
	cfg := configWithBase(t, 1005)
	cfg, err := cfg.EditTable(ratecfg.Risk, func(tb ratecfg.Table) (ratecfg.Table, error) {
		return tb.SetFactor("中風險", 1.0)
	})
	if err != nil {
		t.Fatalf("set risk factor: %v", err)
	}

	// 1005 × 1.3 × 1.0 = 1306.5
	item := PriceItem(SanitizeTask(TaskInput{Hours: 0.5}, cfg), cfg)
	if item.AdjustedRate != 1307 {
		t.Fatalf("adjustedRate = %d, want 1307", item.AdjustedRate)
	}
	// 1307 × 0.5 = 653.5
	if item.Subtotal != 654 {
		t.Fatalf("subtotal = %d, want 654", item.Subtotal)
	}
}

func TestPriceQuote_ExtrasClampAndTaxRounding(t *testing.T) {
	cfg, err := ratecfg.Defaults().WithTaxRate(0.05)
	if err != nil {
		t.Fatalf("WithTaxRate: %v", err)
	}

	extras := Extras(
		ExtraHosting, -50,
		ExtraDomain, "9.5",
		ExtraMaintenance, "abc",
		ExtrasSubtotalLabel, 1000,
		"", 30,
	)
	quote := fixedEngine().PriceQuote("P", "C", nil, extras, cfg)

	want := []ExtraAmount{
		{Label: ExtraHosting, Amount: 0},
		{Label: ExtraDomain, Amount: 10},
		{Label: ExtraMaintenance, Amount: 0},
	}
	if !reflect.DeepEqual(quote.Extras, want) {
		t.Fatalf("extras = %+v, want %+v", quote.Extras, want)
	}
	if quote.ExtrasSubtotal != 10 || quote.PreTax != 10 {
		t.Fatalf("extrasSubtotal/preTax = %d/%d, want 10/10", quote.ExtrasSubtotal, quote.PreTax)
	}
	// 10 × 0.05 = 0.5 rounds up.
	if quote.Tax != 1 || quote.GrandTotal != 11 {
		t.Fatalf("tax/grand = %d/%d, want 1/11", quote.Tax, quote.GrandTotal)
	}
}

func TestPriceQuote_TotalsInvariants(t *testing.T) {
	cfg := ratecfg.Defaults()
	tasks := []TaskInput{
		{Hours: 1.5, Complexity: "非常複雜", Risk: "高風險"},
		{Hours: "7", Complexity: "中等"},
		{Hours: -2},
		{Hours: 0.25, Risk: "低風險"},
	}
	extras := Extras(ExtraHosting, 333.3, ExtraDomain, 12.5)

	for _, taxRate := range []float64{0, 0.05, 0.13, 0.175, 1} {
		c, err := cfg.WithTaxRate(taxRate)
		if err != nil {
			t.Fatalf("WithTaxRate(%v): %v", taxRate, err)
		}
		q := fixedEngine().PriceQuote("P", "C", tasks, extras, c)

		var sum int64
		for _, it := range q.Items {
			sum += it.Subtotal
		}
		if q.DevelopmentSubtotal != sum {
			t.Fatalf("tax %v: developmentSubtotal %d != sum %d", taxRate, q.DevelopmentSubtotal, sum)
		}
		if q.PreTax != q.DevelopmentSubtotal+q.ExtrasSubtotal {
			t.Fatalf("tax %v: preTax mismatch: %+v", taxRate, q)
		}
		if q.GrandTotal != q.PreTax+q.Tax {
			t.Fatalf("tax %v: grandTotal mismatch: %+v", taxRate, q)
		}
		if q.Items[2].Hours != 0 || q.Items[2].Subtotal != 0 {
			t.Fatalf("negative hours should clamp to 0: %+v", q.Items[2])
		}
	}
}

func TestPriceQuote_IsDeterministicOnSameDate(t *testing.T) {
	cfg := ratecfg.Defaults()
	tasks := []TaskInput{{Hours: 3, Complexity: "複雜"}, {Hours: "1.5", Risk: "高風險"}}
	extras := Extras(ExtraHosting, 120, ExtraDomain, 45)

	first := fixedEngine().PriceQuote("P", "C", tasks, extras, cfg)
	second := fixedEngine().PriceQuote("P", "C", tasks, extras, cfg)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical quotes:\n%+v\n%+v", first, second)
	}
}

func TestPriceQuote_PreservesInputOrder(t *testing.T) {
	cfg := ratecfg.Defaults()
	tasks := []TaskInput{{Description: "c"}, {Description: "a"}, {Description: "b"}}

	q := fixedEngine().PriceQuote("P", "C", tasks, nil, cfg)
	for i, want := range []string{"c", "a", "b"} {
		if q.Items[i].Description != want {
			t.Fatalf("item %d description = %q, want %q", i, q.Items[i].Description, want)
		}
	}
}

func TestExtrasWithSubtotal(t *testing.T) {
	q := fixedEngine().PriceQuote("P", "C", nil, Extras(ExtraHosting, 100, ExtraDomain, 20), ratecfg.Defaults())

	all := q.ExtrasWithSubtotal()
	if len(all) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(all))
	}
	last := all[len(all)-1]
	if last.Label != ExtrasSubtotalLabel || last.Amount != 120 {
		t.Fatalf("unexpected subtotal entry: %+v", last)
	}
	if len(q.Extras) != 2 {
		t.Fatalf("ExtrasWithSubtotal must not modify the quote")
	}
}

func TestPriceQuote_SaturatesInsteadOfOverflowing(t *testing.T) {
	cfg := ratecfg.Defaults()

	// 1872 × 1e17 is far beyond int64.
	quote := fixedEngine().PriceQuote("P", "C",
		[]TaskInput{{Hours: "1e17"}, {Hours: 1}},
		Extras(ExtraHosting, 1e19),
		cfg,
	)

	if quote.Items[0].AdjustedRate != 1872 {
		t.Fatalf("adjustedRate = %d, want 1872", quote.Items[0].AdjustedRate)
	}
	if quote.Items[0].Subtotal != math.MaxInt64 {
		t.Fatalf("subtotal = %d, want saturated %d", quote.Items[0].Subtotal, int64(math.MaxInt64))
	}
	if quote.DevelopmentSubtotal != math.MaxInt64 || quote.ExtrasSubtotal != math.MaxInt64 {
		t.Fatalf("subtotals = %d/%d, want saturated", quote.DevelopmentSubtotal, quote.ExtrasSubtotal)
	}
	if quote.PreTax != math.MaxInt64 || quote.GrandTotal != math.MaxInt64 {
		t.Fatalf("preTax/grand = %d/%d, want saturated", quote.PreTax, quote.GrandTotal)
	}
	if quote.Tax <= 0 {
		t.Fatalf("tax = %d, want positive", quote.Tax)
	}
}
