package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/cakehub/api/internal/domain"
	pfirestore "github.com/cakehub/api/internal/platform/firestore"
	"github.com/cakehub/api/internal/repositories"
)

const usersCollection = "users"

type userDocument struct {
	DisplayName string    `firestore:"displayName,omitempty"`
	Email       string    `firestore:"email,omitempty"`
	DeviceToken string    `firestore:"deviceToken,omitempty"`
	CreatedAt   time.Time `firestore:"createdAt"`
	UpdatedAt   time.Time `firestore:"updatedAt"`
}

// UserRepository implements repositories.UserRepository backed by Firestore.
type UserRepository struct {
	base *pfirestore.BaseRepository[userDocument]
}

// NewUserRepository constructs a Firestore-backed user repository.
func NewUserRepository(provider *pfirestore.Provider) (*UserRepository, error) {
	if provider == nil {
		return nil, errors.New("user repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[userDocument](provider, usersCollection, nil, nil)
	return &UserRepository{base: base}, nil
}

// FindByID loads a user profile from the directory.
func (r *UserRepository) FindByID(ctx context.Context, userID string) (domain.UserProfile, error) {
	if r == nil || r.base == nil {
		return domain.UserProfile{}, errors.New("user repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(userID))
	if err != nil {
		return domain.UserProfile{}, err
	}
	return domain.UserProfile{
		ID:          doc.ID,
		DisplayName: doc.Data.DisplayName,
		Email:       doc.Data.Email,
		DeviceToken: doc.Data.DeviceToken,
		CreatedAt:   doc.Data.CreatedAt,
		UpdatedAt:   doc.Data.UpdatedAt,
	}, nil
}

// Ensure interface compliance.
var _ repositories.UserRepository = (*UserRepository)(nil)
