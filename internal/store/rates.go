package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/Simplici0/pricepilot/internal/ratecfg"
)

// Setting keys of the rate configuration.
const (
	KeyComplexity     = "complexity"
	KeyRisk           = "risk"
	KeyBaseHourlyRate = "base_hourly_rate"
	KeyTaxRate        = "tax_rate"
	KeyDefaultType    = "default_type"
)

// LoadRateConfig rebuilds the rate configuration from settings. Each key that
// is missing or unparsable falls back to its built-in default; the keys that
// fell back are returned so callers can report them.
func (s *Store) LoadRateConfig(ctx context.Context) (*ratecfg.Config, []string, error) {
	values, err := s.settings(ctx)
	if err != nil {
		return nil, nil, err
	}

	cfg := ratecfg.Defaults()
	var fallbacks []string

	loadTable := func(key string, dst *ratecfg.Table) {
		raw, ok := values[key]
		if !ok {
			fallbacks = append(fallbacks, key)
			return
		}
		var t ratecfg.Table
		if err := json.Unmarshal([]byte(raw), &t); err != nil || t.Validate() != nil {
			fallbacks = append(fallbacks, key)
			return
		}
		*dst = t
	}
	loadRate := func(key string, dst *float64) {
		raw, ok := values[key]
		if !ok {
			fallbacks = append(fallbacks, key)
			return
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			fallbacks = append(fallbacks, key)
			return
		}
		*dst = f
	}

	loadTable(KeyComplexity, &cfg.Complexity)
	loadTable(KeyRisk, &cfg.Risk)
	loadRate(KeyBaseHourlyRate, &cfg.BaseHourlyRate)
	loadRate(KeyTaxRate, &cfg.TaxRate)
	if v, ok := values[KeyDefaultType]; ok && v != "" {
		cfg.DefaultType = v
	} else {
		fallbacks = append(fallbacks, KeyDefaultType)
	}

	return cfg, fallbacks, nil
}

// SaveRateConfig writes every key of cfg in one transaction. cfg must be valid.
func (s *Store) SaveRateConfig(ctx context.Context, cfg *ratecfg.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	values, err := EncodeRateConfig(cfg)
	if err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("begin rate config transaction", err)
	}
	for key, value := range values {
		if err := putSetting(ctx, tx, key, value); err != nil {
			_ = tx.Rollback()
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return storageErr("commit rate config", err)
	}
	return nil
}

// EncodeRateConfig renders cfg as settings rows keyed by setting name.
func EncodeRateConfig(cfg *ratecfg.Config) (map[string]string, error) {
	complexity, err := json.Marshal(cfg.Complexity)
	if err != nil {
		return nil, fmt.Errorf("encode complexity table: %w", err)
	}
	risk, err := json.Marshal(cfg.Risk)
	if err != nil {
		return nil, fmt.Errorf("encode risk table: %w", err)
	}

	return map[string]string{
		KeyComplexity:     string(complexity),
		KeyRisk:           string(risk),
		KeyBaseHourlyRate: strconv.FormatFloat(cfg.BaseHourlyRate, 'f', -1, 64),
		KeyTaxRate:        strconv.FormatFloat(cfg.TaxRate, 'f', -1, 64),
		KeyDefaultType:    cfg.DefaultType,
	}, nil
}

func (s *Store) settings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, storageErr("query settings", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, storageErr("scan setting", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, storageErr("iterate settings", err)
	}
	return values, nil
}

// PutSetting stores a single raw setting value.
func (s *Store) PutSetting(ctx context.Context, key, value string) error {
	return putSetting(ctx, s.db, key, value)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func putSetting(ctx context.Context, db execer, key, value string) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO settings (key, value)
		VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = CURRENT_TIMESTAMP
	`, key, value)
	if err != nil {
		return storageErr(fmt.Sprintf("upsert setting %s", key), err)
	}
	return nil
}
