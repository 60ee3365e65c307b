package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"cloud.google.com/go/firestore"

	domain "github.com/cakehub/api/internal/domain"
	pfirestore "github.com/cakehub/api/internal/platform/firestore"
	"github.com/cakehub/api/internal/repositories"
)

const cakesCollection = "cakes"

type cakeDocument struct {
	StoreID  string                `firestore:"storeId"`
	Name     string                `firestore:"name"`
	Variants []cakeVariantDocument `firestore:"variants"`
	KnownFor string                `firestore:"knownFor,omitempty"`
}

type cakeVariantDocument struct {
	ID    string `firestore:"id"`
	Name  string `firestore:"name"`
	Price int64  `firestore:"price"`
}

// CakeRepository implements repositories.CakeRepository backed by Firestore.
type CakeRepository struct {
	base *pfirestore.BaseRepository[cakeDocument]
}

// NewCakeRepository constructs a Firestore-backed cake repository.
func NewCakeRepository(provider *pfirestore.Provider) (*CakeRepository, error) {
	if provider == nil {
		return nil, errors.New("cake repository requires firestore provider")
	}
	base := pfirestore.NewBaseRepository[cakeDocument](provider, cakesCollection, nil, nil)
	return &CakeRepository{base: base}, nil
}

// FindByID loads the catalog entry for a cake.
func (r *CakeRepository) FindByID(ctx context.Context, cakeID string) (domain.Cake, error) {
	if r == nil || r.base == nil {
		return domain.Cake{}, errors.New("cake repository not initialised")
	}
	doc, err := r.base.Get(ctx, strings.TrimSpace(cakeID))
	if err != nil {
		return domain.Cake{}, err
	}

	variants := make([]domain.CakeVariant, 0, len(doc.Data.Variants))
	for _, v := range doc.Data.Variants {
		variants = append(variants, domain.CakeVariant{
			ID:    v.ID,
			Name:  v.Name,
			Price: v.Price,
		})
	}
	return domain.Cake{
		ID:       doc.ID,
		StoreID:  doc.Data.StoreID,
		Name:     doc.Data.Name,
		Variants: variants,
		KnownFor: doc.Data.KnownFor,
	}, nil
}

// SetKnownFor records the tag the cake is most often ordered for.
func (r *CakeRepository) SetKnownFor(ctx context.Context, cakeID string, tag string) error {
	if r == nil || r.base == nil {
		return errors.New("cake repository not initialised")
	}
	updates := []firestore.Update{
		{Path: "knownFor", Value: strings.TrimSpace(tag)},
		{Path: "updatedAt", Value: time.Now().UTC()},
	}
	if _, err := r.base.Update(ctx, strings.TrimSpace(cakeID), updates); err != nil {
		return err
	}
	return nil
}

// Ensure interface compliance.
var _ repositories.CakeRepository = (*CakeRepository)(nil)
