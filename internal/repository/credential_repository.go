package repository

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/maheshrc27/viralflow/internal/models"
)

type CredentialRepository interface {
	// Upsert stores the credential blob for its platform and marks it active.
	Upsert(ctx context.Context, cred *models.PlatformCredential) error
	GetActive(ctx context.Context, platform string) (*models.PlatformCredential, error)
	ListActive(ctx context.Context) ([]*models.PlatformCredential, error)
	Deactivate(ctx context.Context, platform string) error
}

type credentialRepository struct {
	db *sql.DB
}

func NewCredentialRepository(db *sql.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

func (r *credentialRepository) Upsert(ctx context.Context, cred *models.PlatformCredential) error {
	query := `
		INSERT INTO platform_credentials (id, platform, credentials, active, created_at, updated_at)
		VALUES ($1, $2, $3, TRUE, $4, $4)
		ON CONFLICT (platform) DO UPDATE SET
			credentials = EXCLUDED.credentials,
			active = TRUE,
			updated_at = EXCLUDED.updated_at
		RETURNING id, created_at
	`
	now := time.Now().UTC()
	err := r.db.QueryRowContext(ctx, query, cred.ID, cred.Platform, cred.Credentials, now).
		Scan(&cred.ID, &cred.CreatedAt)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	cred.Active = true
	cred.UpdatedAt = now
	return nil
}

func (r *credentialRepository) GetActive(ctx context.Context, platform string) (*models.PlatformCredential, error) {
	query := `
		SELECT id, platform, credentials, active, created_at, updated_at
		FROM platform_credentials
		WHERE platform = $1 AND active = TRUE
	`
	var cred models.PlatformCredential
	err := r.db.QueryRowContext(ctx, query, platform).Scan(
		&cred.ID, &cred.Platform, &cred.Credentials, &cred.Active, &cred.CreatedAt, &cred.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Info(err.Error())
		return nil, err
	}
	return &cred, nil
}

func (r *credentialRepository) ListActive(ctx context.Context) ([]*models.PlatformCredential, error) {
	query := `
		SELECT id, platform, credentials, active, created_at, updated_at
		FROM platform_credentials
		WHERE active = TRUE
		ORDER BY platform
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	defer rows.Close()

	var creds []*models.PlatformCredential
	for rows.Next() {
		var cred models.PlatformCredential
		err := rows.Scan(&cred.ID, &cred.Platform, &cred.Credentials, &cred.Active, &cred.CreatedAt, &cred.UpdatedAt)
		if err != nil {
			slog.Info(err.Error())
			return nil, err
		}
		creds = append(creds, &cred)
	}
	return creds, rows.Err()
}

func (r *credentialRepository) Deactivate(ctx context.Context, platform string) error {
	query := `UPDATE platform_credentials SET active = FALSE, updated_at = $1 WHERE platform = $2 AND active = TRUE`
	res, err := r.db.ExecContext(ctx, query, time.Now().UTC(), platform)
	if err != nil {
		slog.Info(err.Error())
		return err
	}
	return requireRow(res)
}
