package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/Simplici0/pricepilot/internal/db"
	"github.com/Simplici0/pricepilot/internal/draft"
	apperrors "github.com/Simplici0/pricepilot/internal/errors"
	"github.com/Simplici0/pricepilot/internal/migrations"
	"github.com/Simplici0/pricepilot/internal/pricing"
	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	ctx := context.Background()
	database, err := db.Open(ctx, filepath.Join(t.TempDir(), "store-test.db"))
	if err != nil {
		t.Fatalf("open sqlite database: %v", err)
	}
	t.Cleanup(func() { database.Close() })

	if _, err := migrations.Up(ctx, database); err != nil {
		t.Fatalf("run migrations: %v", err)
	}
	return New(database)
}

func TestLoadRateConfigFallsBackWhenEmpty(t *testing.T) {
	s := newTestStore(t)

	cfg, fallbacks, err := s.LoadRateConfig(context.Background())
	if err != nil {
		t.Fatalf("load rate config: %v", err)
	}
	if cfg.BaseHourlyRate != 1200 || cfg.TaxRate != 0.05 {
		t.Fatalf("expected defaults, got base=%v tax=%v", cfg.BaseHourlyRate, cfg.TaxRate)
	}
	if len(fallbacks) != 5 {
		t.Fatalf("expected every key to fall back, got %v", fallbacks)
	}
}

func TestSaveAndLoadRateConfig(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	cfg, err := ratecfg.Defaults().WithBaseHourlyRate(1800)
	if err != nil {
		t.Fatalf("set base rate: %v", err)
	}
	cfg, err = cfg.EditTable(ratecfg.Complexity, func(tbl ratecfg.Table) (ratecfg.Table, error) {
		return tbl.Add("極複雜", 3.2)
	})
	if err != nil {
		t.Fatalf("add complexity: %v", err)
	}

	if err := s.SaveRateConfig(ctx, cfg); err != nil {
		t.Fatalf("save rate config: %v", err)
	}
	// Saving twice must upsert rather than fail on the primary key.
	if err := s.SaveRateConfig(ctx, cfg); err != nil {
		t.Fatalf("save rate config again: %v", err)
	}

	loaded, fallbacks, err := s.LoadRateConfig(ctx)
	if err != nil {
		t.Fatalf("load rate config: %v", err)
	}
	if len(fallbacks) != 0 {
		t.Fatalf("expected no fallbacks, got %v", fallbacks)
	}
	if loaded.BaseHourlyRate != 1800 {
		t.Fatalf("expected base 1800, got %v", loaded.BaseHourlyRate)
	}
	if got := loaded.ComplexityFactor("極複雜"); got != 3.2 {
		t.Fatalf("expected added factor 3.2, got %v", got)
	}
	labels := loaded.Complexity.Labels()
	if labels[len(labels)-1] != "極複雜" {
		t.Fatalf("expected table order preserved, got %v", labels)
	}
}

func TestLoadRateConfigFallsBackPerKey(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.PutSetting(ctx, KeyBaseHourlyRate, "1500"); err != nil {
		t.Fatalf("put base rate: %v", err)
	}
	if err := s.PutSetting(ctx, KeyTaxRate, "not-a-number"); err != nil {
		t.Fatalf("put tax rate: %v", err)
	}
	if err := s.PutSetting(ctx, KeyComplexity, "{broken"); err != nil {
		t.Fatalf("put complexity: %v", err)
	}

	cfg, fallbacks, err := s.LoadRateConfig(ctx)
	if err != nil {
		t.Fatalf("load rate config: %v", err)
	}
	if cfg.BaseHourlyRate != 1500 {
		t.Fatalf("expected stored base rate, got %v", cfg.BaseHourlyRate)
	}
	if cfg.TaxRate != 0.05 {
		t.Fatalf("expected default tax, got %v", cfg.TaxRate)
	}
	if cfg.Complexity.Default != "中等" {
		t.Fatalf("expected default complexity table, got %+v", cfg.Complexity)
	}

	want := map[string]bool{KeyTaxRate: true, KeyComplexity: true, KeyRisk: true, KeyDefaultType: true}
	if len(fallbacks) != len(want) {
		t.Fatalf("expected fallbacks %v, got %v", want, fallbacks)
	}
	for _, key := range fallbacks {
		if !want[key] {
			t.Fatalf("unexpected fallback key %q", key)
		}
	}
}

func TestDraftRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	d := draft.Blank(ratecfg.Defaults())
	d.ProjectName = "官網改版"
	d.ClientName = "ACME"

	id, err := s.CreateDraft(ctx, d)
	if err != nil {
		t.Fatalf("create draft: %v", err)
	}

	d.ClientName = "ACME Inc."
	if err := s.SaveDraft(ctx, id, d); err != nil {
		t.Fatalf("update draft: %v", err)
	}

	got, err := s.GetDraft(ctx, id)
	if err != nil {
		t.Fatalf("get draft: %v", err)
	}
	if got.ClientName != "ACME Inc." || got.ProjectName != "官網改版" {
		t.Fatalf("unexpected draft: %+v", got)
	}
	if len(got.Extras) != 3 || got.Extras[0].Label != pricing.ExtraHosting {
		t.Fatalf("expected extras order preserved, got %+v", got.Extras)
	}
}

func TestGetDraftNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetDraft(context.Background(), "missing")
	if !apperrors.IsType(err, apperrors.TypeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func sampleQuote(project, client string) pricing.Quote {
	engine := pricing.NewEngine(func() time.Time {
		return time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	})
	return engine.PriceQuote(project, client,
		[]pricing.TaskInput{{Type: "前端", Hours: 2, Complexity: "中等", Risk: "中風險"}},
		pricing.Extras(pricing.ExtraHosting, 100),
		ratecfg.Defaults(),
	)
}

func TestSaveAndGetQuote(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	q := sampleQuote("官網", "ACME")
	id, err := s.SaveQuote(ctx, q)
	if err != nil {
		t.Fatalf("save quote: %v", err)
	}

	rec, err := s.GetQuote(ctx, id)
	if err != nil {
		t.Fatalf("get quote: %v", err)
	}
	if rec.Quote.GrandTotal != q.GrandTotal || rec.Quote.Date != "2024-03-15" {
		t.Fatalf("unexpected snapshot: %+v", rec.Quote)
	}
	if len(rec.Quote.Items) != 1 || rec.Quote.Items[0].AdjustedRate != 1872 {
		t.Fatalf("unexpected items: %+v", rec.Quote.Items)
	}

	// Editing rates afterwards must not change the stored snapshot.
	cfg, _ := ratecfg.Defaults().WithBaseHourlyRate(5000)
	if err := s.SaveRateConfig(ctx, cfg); err != nil {
		t.Fatalf("save rate config: %v", err)
	}
	again, err := s.GetQuote(ctx, id)
	if err != nil {
		t.Fatalf("get quote again: %v", err)
	}
	if again.Quote.GrandTotal != q.GrandTotal {
		t.Fatalf("expected snapshot unchanged, got %d want %d", again.Quote.GrandTotal, q.GrandTotal)
	}
}

func TestGetQuoteNotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetQuote(context.Background(), 42)
	if !apperrors.IsType(err, apperrors.TypeNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestListQuotesSearchAndOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	first, err := s.SaveQuote(ctx, sampleQuote("官網", "ACME"))
	if err != nil {
		t.Fatalf("save first quote: %v", err)
	}
	second, err := s.SaveQuote(ctx, sampleQuote("App", "Globex"))
	if err != nil {
		t.Fatalf("save second quote: %v", err)
	}

	all, err := s.ListQuotes(ctx, "")
	if err != nil {
		t.Fatalf("list quotes: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 quotes, got %d", len(all))
	}
	if all[0].ID != second || all[1].ID != first {
		t.Fatalf("expected newest first, got %d then %d", all[0].ID, all[1].ID)
	}
	if all[0].GrandTotal == 0 {
		t.Fatalf("expected grand total from totals json")
	}

	filtered, err := s.ListQuotes(ctx, "Glob")
	if err != nil {
		t.Fatalf("search quotes: %v", err)
	}
	if len(filtered) != 1 || filtered[0].ClientName != "Globex" {
		t.Fatalf("unexpected search result: %+v", filtered)
	}

	none, err := s.ListQuotes(ctx, "nothing")
	if err != nil {
		t.Fatalf("search quotes: %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", none)
	}
}

func TestListQuotesTreatsWildcardsLiterally(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, project := range []string{"官網", "100% done", "a_b"} {
		if _, err := s.SaveQuote(ctx, sampleQuote(project, "ACME")); err != nil {
			t.Fatalf("save quote %q: %v", project, err)
		}
	}

	tests := []struct {
		query string
		want  int
	}{
		{query: "%", want: 1},
		{query: "_", want: 1},
		{query: "a_b", want: 1},
		{query: "a%b", want: 0},
		{query: `\`, want: 0},
	}

	for _, tc := range tests {
		got, err := s.ListQuotes(ctx, tc.query)
		if err != nil {
			t.Fatalf("search %q: %v", tc.query, err)
		}
		if len(got) != tc.want {
			t.Fatalf("search %q: expected %d quotes, got %d", tc.query, tc.want, len(got))
		}
	}
}

func TestExtractTotalFromJSON(t *testing.T) {
	tests := []struct {
		name string
		json string
		want int64
	}{
		{name: "grand total", json: `{"grand_total":19866}`, want: 19866},
		{name: "legacy total", json: `{"total":120}`, want: 120},
		{name: "missing", json: `{}`, want: 0},
		{name: "invalid", json: `nope`, want: 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := extractTotalFromJSON(tc.json); got != tc.want {
				t.Fatalf("expected %d, got %d", tc.want, got)
			}
		})
	}
}
