package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/AuroraCommerceLab/boutique/backend/internal/auth"
	"gorm.io/gorm"
)

// ErrInvalidClaims indicates the claims did not contain a subject identifier.
var ErrInvalidClaims = errors.New("users: invalid claims")

// ErrUserNotFound indicates no user row exists for the requested id.
var ErrUserNotFound = errors.New("users: user not found")

// ServiceConfig describes the dependencies required for identity reconciliation.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
}

// Service reconciles provider claims into local user records and resolves
// session user ids back to users.
type Service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService constructs the user service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, fmt.Errorf("users: database connection required")
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		db:  cfg.Database,
		now: clock,
	}, nil
}

// Reconcile upserts the user row for the claimed subject. Display attributes
// are overwritten wholesale on every call, nils included; last write wins.
// The operation is idempotent apart from the timestamp columns.
func (s *Service) Reconcile(ctx context.Context, claims auth.Claims) (User, error) {
	subject := strings.TrimSpace(claims.Subject)
	if subject == "" {
		return User{}, ErrInvalidClaims
	}

	now := s.now().UTC()

	var user User
	err := s.db.WithContext(ctx).Where("id = ?", subject).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = User{
			ID:              subject,
			Email:           claims.Email,
			FirstName:       claims.FirstName,
			LastName:        claims.LastName,
			ProfileImageURL: claims.ProfileImageURL,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
			return User{}, err
		}
		return user, nil
	}
	if err != nil {
		return User{}, err
	}

	user.Email = claims.Email
	user.FirstName = claims.FirstName
	user.LastName = claims.LastName
	user.ProfileImageURL = claims.ProfileImageURL
	user.UpdatedAt = now
	if err := s.db.WithContext(ctx).Save(&user).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

// FindByID resolves a user id to its record.
func (s *Service) FindByID(ctx context.Context, id string) (User, error) {
	var user User
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUserNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
