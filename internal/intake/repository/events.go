// Package repository persists honeypot telemetry to PostgreSQL. All tables
// are append-only: rows are inserted, never updated or deleted.
package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-guardian/guardian/internal/classify"
	"github.com/project-guardian/guardian/internal/intake/model"
)

// EventRepository writes attacker interaction events.
type EventRepository struct {
	db *pgxpool.Pool
}

// NewEventRepository creates an EventRepository.
func NewEventRepository(db *pgxpool.Pool) *EventRepository {
	return &EventRepository{db: db}
}

// Insert stores one interaction record with its verdict merged in as extra
// columns on the same row.
func (r *EventRepository) Insert(ctx context.Context, rec *model.InteractionRecord, verdict classify.Verdict) error {
	data, err := json.Marshal(rec.InteractionData)
	if err != nil {
		return fmt.Errorf("marshal interaction_data: %w", err)
	}

	var geoBag []byte
	if rec.GeoLocation != nil {
		geoBag, err = json.Marshal(rec.GeoLocation)
		if err != nil {
			return fmt.Errorf("marshal geo_location: %w", err)
		}
	}

	indicators, err := json.Marshal(verdict.Indicators)
	if err != nil {
		return fmt.Errorf("marshal indicators: %w", err)
	}

	query := `
		INSERT INTO attacker_events (
			id, source_ip, honeypot_kind, honeypot_id, status,
			interaction_data, occurred_at, geo_location,
			country_code, country_name, region_code, region_name, city,
			latitude, longitude, timezone, isp, organization,
			indicators, scanner_type, tool_confidence, threat_level,
			scan_pattern, is_real_browser, created_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18,
			$19, $20, $21, $22,
			$23, $24, $25
		)`

	_, err = r.db.Exec(ctx, query,
		uuid.New(), rec.SourceIP.String(), rec.HoneypotKind, nullIfEmpty(rec.HoneypotID), rec.Status,
		data, rec.OccurredAt, geoBag,
		nullIfEmpty(rec.CountryCode), nullIfEmpty(rec.CountryName),
		nullIfEmpty(rec.RegionCode), nullIfEmpty(rec.RegionName), nullIfEmpty(rec.City),
		rec.Latitude, rec.Longitude, nullIfEmpty(rec.Timezone),
		nullIfEmpty(rec.ISP), nullIfEmpty(rec.Organization),
		indicators, verdict.ScannerType, verdict.ToolConfidence, string(verdict.ThreatLevel),
		verdict.ScanPattern, verdict.IsRealBrowser, time.Now().UTC(),
	)
	return err
}

// nullIfEmpty maps "" to SQL NULL.
func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
