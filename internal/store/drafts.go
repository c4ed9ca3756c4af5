package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/Simplici0/pricepilot/internal/draft"
)

// CreateDraft stores d under a new random id.
func (s *Store) CreateDraft(ctx context.Context, d draft.Draft) (string, error) {
	id := uuid.NewString()
	if err := s.SaveDraft(ctx, id, d); err != nil {
		return "", err
	}
	return id, nil
}

// SaveDraft inserts or replaces the draft stored under id.
func (s *Store) SaveDraft(ctx context.Context, id string, d draft.Draft) error {
	payload, err := d.Encode()
	if err != nil {
		return fmt.Errorf("encode draft: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO drafts (id, payload)
		VALUES (?, ?)
		ON CONFLICT(id) DO UPDATE SET
			payload = excluded.payload,
			updated_at = CURRENT_TIMESTAMP
	`, id, string(payload))
	if err != nil {
		return storageErr("save draft", err)
	}
	return nil
}

// GetDraft loads the draft stored under id.
func (s *Store) GetDraft(ctx context.Context, id string) (draft.Draft, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM drafts WHERE id = ?`, id).Scan(&payload)
	if err != nil {
		return draft.Draft{}, storageErr(fmt.Sprintf("load draft %s", id), err)
	}
	return draft.Decode([]byte(payload))
}
