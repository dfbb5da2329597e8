package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/classweek/classweek-api/internal/models"
	appErrors "github.com/classweek/classweek-api/pkg/errors"
)

type adminFlagRepository interface {
	Exists(ctx context.Context, userID string) (bool, error)
	Create(ctx context.Context, flag *models.AdminFlag) error
	Delete(ctx context.Context, userID string) error
	List(ctx context.Context) ([]models.AdminFlag, error)
}

// AdminService answers the capability question "may this user write?" by
// checking the allow-list, and manages the list itself.
type AdminService struct {
	repo   adminFlagRepository
	logger *zap.Logger
}

// NewAdminService constructs the service.
func NewAdminService(repo adminFlagRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{repo: repo, logger: logger}
}

// IsAdmin is true iff a flag row exists for the user id. An empty user id
// (no authenticated user) is false, never an error. A failed lookup is an
// error so callers refuse the write instead of defaulting either way.
func (s *AdminService) IsAdmin(ctx context.Context, userID string) (bool, error) {
	if strings.TrimSpace(userID) == "" {
		return false, nil
	}
	exists, err := s.repo.Exists(ctx, userID)
	if err != nil {
		s.logger.Error("admin flag lookup failed", zap.String("user_id", userID), zap.Error(err))
		return false, appErrors.Wrap(err, appErrors.ErrAdminCheck.Code, appErrors.ErrAdminCheck.Status, appErrors.ErrAdminCheck.Message)
	}
	return exists, nil
}

// Grant adds a user to the allow-list. Idempotent.
func (s *AdminService) Grant(ctx context.Context, userID, addedBy string) (*models.AdminFlag, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, appErrors.Validation("user_id", "user_id is required")
	}
	flag := &models.AdminFlag{UserID: userID, AddedBy: addedBy}
	if err := s.repo.Create(ctx, flag); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to grant admin")
	}
	s.logger.Info("admin granted", zap.String("user_id", userID), zap.String("added_by", addedBy))
	return flag, nil
}

// Revoke removes a user from the allow-list.
func (s *AdminService) Revoke(ctx context.Context, userID string) error {
	if err := s.repo.Delete(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to revoke admin")
	}
	s.logger.Info("admin revoked", zap.String("user_id", userID))
	return nil
}

// List returns the current allow-list.
func (s *AdminService) List(ctx context.Context) ([]models.AdminFlag, error) {
	flags, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStore.Code, appErrors.ErrStore.Status, "failed to list admins")
	}
	return flags, nil
}
