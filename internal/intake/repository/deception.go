package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/project-guardian/guardian/internal/deception"
)

// DeceptionRepository writes generated deception artifacts.
type DeceptionRepository struct {
	db *pgxpool.Pool
}

// NewDeceptionRepository creates a DeceptionRepository.
func NewDeceptionRepository(db *pgxpool.Pool) *DeceptionRepository {
	return &DeceptionRepository{db: db}
}

// Insert stores one deception artifact.
func (r *DeceptionRepository) Insert(ctx context.Context, art *deception.Artifact) error {
	targetCtx, err := json.Marshal(art.TargetContext)
	if err != nil {
		return fmt.Errorf("marshal target_context: %w", err)
	}

	query := `
		INSERT INTO deception_content (
			id, content, content_type, target_context,
			generated_by_ai, ai_model, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err = r.db.Exec(ctx, query,
		uuid.New(), art.Content, art.ContentType, targetCtx,
		true, art.AIModel, art.GeneratedAt,
	)
	return err
}
