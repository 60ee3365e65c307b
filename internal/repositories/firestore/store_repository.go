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

const storesCollection = "stores"

type storeDocument struct {
	OwnerID string                             `firestore:"ownerId"`
	Name    string                             `firestore:"name"`
	Status  string                             `firestore:"status"`
	Hours   map[string]operatingWindowDocument `firestore:"hours,omitempty"`
}

type operatingWindowDocument struct {
	Open  string `firestore:"open"`
	Close string `firestore:"close"`
}

var weekdayKeys = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// StoreRepository implements repositories.StoreRepository backed by Firestore.
type StoreRepository struct {
	base *pfirestore.BaseRepository[storeDocument]
}

// NewStoreRepository constructs a Firestore-backed store repository.
func NewStoreRepository(provider *pfirestore.Provider) (*StoreRepository, error) {
	if provider == nil {
		return nil, errors.New("store repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[storeDocument](provider, storesCollection, nil, nil)
	return &StoreRepository{base: base}, nil
}

// FindByID loads a store with its operating hours.
func (r *StoreRepository) FindByID(ctx context.Context, storeID string) (domain.Store, error) {
	if r == nil || r.base == nil {
		return domain.Store{}, errors.New("store repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(storeID))
	if err != nil {
		return domain.Store{}, err
	}

	hours := make(map[time.Weekday]domain.OperatingWindow, len(doc.Data.Hours))
	for key, window := range doc.Data.Hours {
		weekday, ok := weekdayKeys[strings.ToLower(strings.TrimSpace(key))]
		if !ok {
			continue
		}
		hours[weekday] = domain.OperatingWindow{
			Open:  strings.TrimSpace(window.Open),
			Close: strings.TrimSpace(window.Close),
		}
	}

	return domain.Store{
		ID:      doc.ID,
		OwnerID: doc.Data.OwnerID,
		Name:    doc.Data.Name,
		Status:  domain.StoreStatus(doc.Data.Status),
		Hours:   hours,
	}, nil
}

// Ensure interface compliance.
var _ repositories.StoreRepository = (*StoreRepository)(nil)
