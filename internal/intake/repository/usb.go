package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-guardian/guardian/internal/intake/model"
)

// USBRepository writes USB-drop beacon callbacks.
type USBRepository struct {
	db *pgxpool.Pool
}

// NewUSBRepository creates a USBRepository.
func NewUSBRepository(db *pgxpool.Pool) *USBRepository {
	return &USBRepository{db: db}
}

// Insert stores one beacon. The internal IP lands in the source_ip column;
// everything without a top-level column goes into the details bag.
func (r *USBRepository) Insert(ctx context.Context, beacon *model.USBBeacon) error {
	details, err := json.Marshal(beacon.Details())
	if err != nil {
		return fmt.Errorf("marshal beacon details: %w", err)
	}

	query := `
		INSERT INTO usb_drop_events (
			id, usb_stick_id, source_ip, hostname, username,
			payload_name, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err = r.db.Exec(ctx, query,
		uuid.New(), beacon.USBStickID, beacon.InternalIP, beacon.Hostname,
		beacon.Username, beacon.PayloadName, details, time.Now().UTC(),
	)
	return err
}
