package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Simplici0/pricepilot/internal/pricing"
)

// QuoteListItem is one row of the saved quotes list.
type QuoteListItem struct {
	ID          int64  `json:"id"`
	CreatedAt   string `json:"created_at"`
	ProjectName string `json:"project_name"`
	ClientName  string `json:"client_name"`
	QuoteDate   string `json:"quote_date"`
	GrandTotal  int64  `json:"grand_total"`
}

// QuoteRecord is a saved quote snapshot.
type QuoteRecord struct {
	ID        int64         `json:"id"`
	CreatedAt string        `json:"created_at"`
	Quote     pricing.Quote `json:"quote"`
}

type quoteTotals struct {
	DevelopmentSubtotal int64 `json:"development_subtotal"`
	ExtrasSubtotal      int64 `json:"extras_subtotal"`
	PreTax              int64 `json:"pre_tax"`
	Tax                 int64 `json:"tax"`
	GrandTotal          int64 `json:"grand_total"`
}

// SaveQuote stores an immutable snapshot of q and returns its id.
func (s *Store) SaveQuote(ctx context.Context, q pricing.Quote) (int64, error) {
	quoteJSON, err := json.Marshal(q)
	if err != nil {
		return 0, fmt.Errorf("encode quote: %w", err)
	}
	totalsJSON, err := json.Marshal(quoteTotals{
		DevelopmentSubtotal: q.DevelopmentSubtotal,
		ExtrasSubtotal:      q.ExtrasSubtotal,
		PreTax:              q.PreTax,
		Tax:                 q.Tax,
		GrandTotal:          q.GrandTotal,
	})
	if err != nil {
		return 0, fmt.Errorf("encode quote totals: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO quotes (project_name, client_name, quote_date, totals_json, quote_json)
		VALUES (?, ?, ?, ?, ?)
	`, q.ProjectName, q.ClientName, q.Date, string(totalsJSON), string(quoteJSON))
	if err != nil {
		return 0, storageErr("insert quote", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, storageErr("read quote id", err)
	}
	return id, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ListQuotes returns saved quotes newest first, optionally filtered by a
// substring of the project or client name.
func (s *Store) ListQuotes(ctx context.Context, query string) ([]QuoteListItem, error) {
	search := "%" + likeEscaper.Replace(query) + "%"
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, project_name, client_name, quote_date, totals_json
		FROM quotes
		WHERE (? = '' OR project_name LIKE ? ESCAPE '\' OR client_name LIKE ? ESCAPE '\')
		ORDER BY datetime(created_at) DESC, id DESC
	`, query, search, search)
	if err != nil {
		return nil, storageErr("query quotes", err)
	}
	defer rows.Close()

	quotes := make([]QuoteListItem, 0)
	for rows.Next() {
		var item QuoteListItem
		var totalsJSON string
		if err := rows.Scan(&item.ID, &item.CreatedAt, &item.ProjectName, &item.ClientName, &item.QuoteDate, &totalsJSON); err != nil {
			return nil, storageErr("scan quote", err)
		}
		item.GrandTotal = extractTotalFromJSON(totalsJSON)
		quotes = append(quotes, item)
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate quotes", err)
	}

	return quotes, nil
}

// GetQuote reads a saved snapshot as stored, without recalculating it.
func (s *Store) GetQuote(ctx context.Context, id int64) (QuoteRecord, error) {
	rec := QuoteRecord{ID: id}
	var quoteJSON string
	err := s.db.QueryRowContext(ctx, `
		SELECT created_at, quote_json FROM quotes WHERE id = ?
	`, id).Scan(&rec.CreatedAt, &quoteJSON)
	if err != nil {
		return QuoteRecord{}, storageErr(fmt.Sprintf("load quote %d", id), err)
	}
	if err := json.Unmarshal([]byte(quoteJSON), &rec.Quote); err != nil {
		return QuoteRecord{}, storageErr(fmt.Sprintf("decode quote %d", id), err)
	}
	return rec, nil
}

func extractTotalFromJSON(totalsJSON string) int64 {
	var values map[string]float64
	if err := json.Unmarshal([]byte(totalsJSON), &values); err != nil {
		return 0
	}

	for _, key := range []string{"grand_total", "total"} {
		if total, ok := values[key]; ok {
			return int64(total)
		}
	}

	return 0
}
