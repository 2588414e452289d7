package service

import (
	"context"
	"errors"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/repository"
)

type ReviewService struct {
	reviews ReviewStore
}

func NewReviewService(reviews ReviewStore) *ReviewService {
	return &ReviewService{reviews: reviews}
}

type ReviewInput struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"required,min=3,max=500"`
}

type ReviewPatch struct {
	Rating  *int    `json:"rating" validate:"omitempty,min=1,max=5"`
	Comment *string `json:"comment" validate:"omitempty,min=3,max=500"`
}

func orEmpty(rs []model.Review) []model.Review {
	if rs == nil {
		return []model.Review{}
	}
	return rs
}

func (s *ReviewService) ListByProduct(ctx context.Context, productID uint64) ([]model.Review, error) {
	rs, err := s.reviews.ListByProduct(ctx, productID)
	return orEmpty(rs), err
}

func (s *ReviewService) ListMine(ctx context.Context, p Principal) ([]model.Review, error) {
	rs, err := s.reviews.ListByUser(ctx, p.UserID)
	return orEmpty(rs), err
}

func (s *ReviewService) load(ctx context.Context, id uint64) (model.Review, error) {
	rv, err := s.reviews.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Review{}, notFoundf("review not found")
	}
	return rv, err
}

// Create stores the first and only review of p on a product. The product
// rating is recomputed with the write.
func (s *ReviewService) Create(ctx context.Context, p Principal, productID uint64, in ReviewInput) (model.Review, error) {
	ctx, span := tracer.Start(ctx, "review.create")
	defer span.End()
	span.SetAttributes(attribute.Int64("product.id", int64(productID)))

	in.Comment = strings.TrimSpace(in.Comment)
	if err := check(in); err != nil {
		return model.Review{}, err
	}
	rv := model.Review{UserID: p.UserID, ProductID: productID, Rating: in.Rating, Comment: in.Comment}
	if err := s.reviews.Create(ctx, &rv); err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return model.Review{}, notFoundf("product not found")
		case errors.Is(err, repository.ErrConflict):
			return model.Review{}, conflictf("you have already reviewed this product")
		}
		return model.Review{}, err
	}
	return s.load(ctx, rv.ID)
}

// Update lets the author change rating and comment.
func (s *ReviewService) Update(ctx context.Context, p Principal, id uint64, patch ReviewPatch) (model.Review, error) {
	ctx, span := tracer.Start(ctx, "review.update")
	defer span.End()

	trimPtr(patch.Comment)
	if err := check(patch); err != nil {
		return model.Review{}, err
	}
	rv, err := s.load(ctx, id)
	if err != nil {
		return model.Review{}, err
	}
	if rv.UserID != p.UserID {
		return model.Review{}, forbiddenf("you can only edit your own reviews")
	}
	if patch.Rating != nil {
		rv.Rating = *patch.Rating
	}
	if patch.Comment != nil {
		rv.Comment = *patch.Comment
	}
	if err := s.reviews.Update(ctx, &rv); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Review{}, notFoundf("review not found")
		}
		return model.Review{}, err
	}
	return rv, nil
}

// Delete removes a review on behalf of its author or an admin.
func (s *ReviewService) Delete(ctx context.Context, p Principal, id uint64) error {
	ctx, span := tracer.Start(ctx, "review.delete")
	defer span.End()

	rv, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if rv.UserID != p.UserID && !p.IsAdmin() {
		return forbiddenf("you can only delete your own reviews")
	}
	if err := s.reviews.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("review not found")
		}
		return err
	}
	return nil
}
