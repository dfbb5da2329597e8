package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/classweek/classweek-api/internal/models"
)

// AdminRepository persists the admin allow-list.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an admin repository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// Exists reports whether a flag row is present for the user id.
func (r *AdminRepository) Exists(ctx context.Context, userID string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM admin_flags WHERE user_id = $1)`
	if err := r.db.GetContext(ctx, &exists, query, userID); err != nil {
		return false, fmt.Errorf("check admin flag: %w", err)
	}
	return exists, nil
}

// Create grants admin capability. Granting twice is a no-op.
func (r *AdminRepository) Create(ctx context.Context, flag *models.AdminFlag) error {
	if flag.CreatedAt.IsZero() {
		flag.CreatedAt = time.Now().UTC()
	}
	query := `INSERT INTO admin_flags (user_id, added_by, created_at)
VALUES (:user_id, :added_by, :created_at)
ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.NamedExecContext(ctx, query, flag); err != nil {
		return fmt.Errorf("create admin flag: %w", err)
	}
	return nil
}

// Delete revokes admin capability.
func (r *AdminRepository) Delete(ctx context.Context, userID string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM admin_flags WHERE user_id = $1", userID); err != nil {
		return fmt.Errorf("delete admin flag: %w", err)
	}
	return nil
}

// List returns every flag, newest first.
func (r *AdminRepository) List(ctx context.Context) ([]models.AdminFlag, error) {
	var flags []models.AdminFlag
	query := `SELECT user_id, added_by, created_at FROM admin_flags ORDER BY created_at DESC`
	if err := r.db.SelectContext(ctx, &flags, query); err != nil {
		return nil, fmt.Errorf("list admin flags: %w", err)
	}
	return flags, nil
}
