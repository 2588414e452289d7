package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/techpulse/marketplace/internal/logger"
	"github.com/techpulse/marketplace/internal/media"
	"github.com/techpulse/marketplace/internal/metrics"
	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/queue"
	"github.com/techpulse/marketplace/internal/repository"
	"github.com/techpulse/marketplace/internal/utils"
)

var tracer = otel.Tracer("github.com/techpulse/marketplace/internal/service")

// slugAttempts bounds the retries on a listing slug collision.
const slugAttempts = 3

type ListingConfig struct {
	MaxImages     int
	UploadTimeout time.Duration
}

// ListingService owns the listing lifecycle: creation with a mandatory
// video, seller edits, admin moderation and deletion with media release.
type ListingService struct {
	listings ListingStore
	media    MediaStore
	events   EventPublisher
	cfg      ListingConfig
}

func NewListingService(listings ListingStore, store MediaStore, events EventPublisher, cfg ListingConfig) *ListingService {
	if cfg.MaxImages <= 0 {
		cfg.MaxImages = 5
	}
	if cfg.UploadTimeout <= 0 {
		cfg.UploadTimeout = 2 * time.Minute
	}
	if events == nil {
		events = queue.Nop{}
	}
	return &ListingService{listings: listings, media: store, events: events, cfg: cfg}
}

// ListingFilter selects listings. Status is ignored for public listings.
type ListingFilter struct {
	Status    string
	Category  string
	Condition string
	MinPrice  *float64
	MaxPrice  *float64
	Search    string
	Sort      string
	Page      int
	Limit     int
}

type ListingInput struct {
	Title       string   `json:"title" validate:"required,max=100"`
	Description string   `json:"description" validate:"required,min=10,max=1000"`
	Price       *float64 `json:"price" validate:"required,gte=1,lte=99999999.99"`
	Category    string   `json:"category" validate:"required,category"`
	Condition   string   `json:"condition" validate:"required,condition"`
	Location    string   `json:"location" validate:"max=120"`
}

type ListingPatch struct {
	Title       *string  `json:"title" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description" validate:"omitempty,min=10,max=1000"`
	Price       *float64 `json:"price" validate:"omitempty,gte=1,lte=99999999.99"`
	Category    *string  `json:"category" validate:"omitempty,category"`
	Condition   *string  `json:"condition" validate:"omitempty,condition"`
	Location    *string  `json:"location" validate:"omitempty,max=120"`
}

func publicView(ls []model.Listing) []model.Listing {
	for i := range ls {
		if ls[i].Seller != nil {
			s := *ls[i].Seller
			s.Email = ""
			ls[i].Seller = &s
		}
	}
	return ls
}

func (s *ListingService) query(ctx context.Context, f ListingFilter) (Page[model.Listing], error) {
	page, limit := normalizePage(f.Page, f.Limit)
	items, total, err := s.listings.List(ctx, repository.ListingQuery{
		Status:    f.Status,
		Category:  f.Category,
		Condition: f.Condition,
		MinPrice:  f.MinPrice,
		MaxPrice:  f.MaxPrice,
		Search:    strings.TrimSpace(f.Search),
		Sort:      f.Sort,
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		return Page[model.Listing]{}, err
	}
	return newPage(items, page, limit, total), nil
}

// List returns active listings only.
func (s *ListingService) List(ctx context.Context, f ListingFilter) (Page[model.Listing], error) {
	f.Status = model.StatusActive
	p, err := s.query(ctx, f)
	p.Items = publicView(p.Items)
	return p, err
}

// ListForAdmin returns listings of any status, or of f.Status when set.
func (s *ListingService) ListForAdmin(ctx context.Context, f ListingFilter) (Page[model.Listing], error) {
	if f.Status != "" && !model.Contains(model.Statuses, f.Status) {
		return Page[model.Listing]{}, validationf("status must be one of: %s", strings.Join(model.Statuses, ", "))
	}
	return s.query(ctx, f)
}

// Get returns a listing by slug whatever its status, so sellers can
// preview pending ones.
func (s *ListingService) Get(ctx context.Context, slug string) (model.Listing, error) {
	l, err := s.listings.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Listing{}, notFoundf("listing not found")
	}
	if err != nil {
		return model.Listing{}, err
	}
	return publicView([]model.Listing{l})[0], nil
}

// Mine returns the listings of p, newest first.
func (s *ListingService) Mine(ctx context.Context, p Principal) ([]model.Listing, error) {
	ls, err := s.listings.ListBySeller(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	if ls == nil {
		ls = []model.Listing{}
	}
	return publicView(ls), nil
}

func mediaError(err error) error {
	switch {
	case errors.Is(err, media.ErrUnsupportedType):
		return validationf("unsupported file type")
	case errors.Is(err, media.ErrTooLarge):
		return validationf("file is too large")
	case errors.Is(err, context.DeadlineExceeded):
		return newError(ErrDependency, "media upload timed out")
	}
	return newError(ErrDependency, "media upload failed")
}

// upload stores the video (when given) and then every image under one
// deadline. On failure the objects already stored are released.
func (s *ListingService) upload(ctx context.Context, video *media.Upload, images []media.Upload) (model.Video, []model.Media, error) {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.UploadTimeout)
	defer cancel()

	var (
		vid    model.Video
		imgs   []model.Media
		stored []string
	)
	fail := func(err error) (model.Video, []model.Media, error) {
		s.release(context.WithoutCancel(ctx), 0, stored, "upload aborted")
		logger.Warn(ctx).Err(err).Msg("listing: media upload failed")
		return model.Video{}, nil, mediaError(err)
	}

	if video != nil {
		obj, err := s.media.Save(ctx, media.KindVideo, *video)
		if err != nil {
			return fail(err)
		}
		stored = append(stored, obj.PublicID)
		vid = model.Video{URL: obj.URL, PublicID: obj.PublicID, Duration: obj.Duration}
	}
	for _, up := range images {
		obj, err := s.media.Save(ctx, media.KindImage, up)
		if err != nil {
			return fail(err)
		}
		stored = append(stored, obj.PublicID)
		imgs = append(imgs, model.Media{URL: obj.URL, PublicID: obj.PublicID})
	}
	return vid, imgs, nil
}

// release deletes every id, continuing past failures. Ids that could not
// be deleted are handed to the cleanup queue. It returns the joined
// deletion errors.
func (s *ListingService) release(ctx context.Context, listingID uint64, ids []string, reason string) error {
	var (
		failed []string
		errs   []error
	)
	for _, id := range ids {
		if err := s.media.Delete(ctx, id); err != nil {
			failed = append(failed, id)
			errs = append(errs, fmt.Errorf("delete %s: %w", id, err))
		}
	}
	if len(failed) == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	metrics.MediaCleanupFailures.Add(float64(len(failed)))
	logger.Warn(ctx).Err(joined).Uint64("listing_id", listingID).Strs("public_ids", failed).Msg("listing: media release incomplete")
	if err := s.events.PublishMediaCleanup(ctx, queue.MediaCleanupEvent{
		ListingID:   listingID,
		PublicIDs:   failed,
		Attempt:     0,
		Reason:      reason,
		RequestedAt: time.Now().UTC().Format(time.RFC3339),
	}); err != nil {
		logger.Error(ctx).Err(err).Uint64("listing_id", listingID).Msg("listing: could not enqueue media cleanup")
	}
	return joined
}

// Create validates the listing, uploads its media and stores it as
// pending. Nothing is stored when the video is missing.
func (s *ListingService) Create(ctx context.Context, seller Principal, in ListingInput, video *media.Upload, images []media.Upload) (model.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.create")
	defer span.End()

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if video == nil {
		return model.Listing{}, validationf("a verification video is required")
	}
	if err := check(in); err != nil {
		return model.Listing{}, err
	}
	if len(images) > s.cfg.MaxImages {
		return model.Listing{}, validationf("at most %d images are allowed", s.cfg.MaxImages)
	}

	vid, imgs, err := s.upload(ctx, video, images)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return model.Listing{}, err
	}
	if imgs == nil {
		imgs = []model.Media{}
	}

	l := model.Listing{
		Title:       in.Title,
		Description: in.Description,
		Price:       *in.Price,
		Category:    in.Category,
		Condition:   in.Condition,
		Location:    in.Location,
		Images:      imgs,
		Video:       vid,
		SellerID:    seller.UserID,
		Status:      model.StatusPending,
	}
	err = s.withSlug(&l, func() error { return s.listings.Create(ctx, &l) })
	if err != nil {
		s.release(context.WithoutCancel(ctx), 0, l.MediaIDs(), "listing not stored")
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, repository.ErrNotFound) {
			return model.Listing{}, notFoundf("seller not found")
		}
		return model.Listing{}, err
	}
	span.SetAttributes(attribute.Int64("listing.id", int64(l.ID)))
	return l, nil
}

// withSlug derives a fresh slug for l and runs write, retrying with a new
// suffix while the slug collides.
func (s *ListingService) withSlug(l *model.Listing, write func() error) error {
	for i := 0; i < slugAttempts; i++ {
		l.Slug = utils.ListingSlug(l.Title)
		err := write()
		if !errors.Is(err, repository.ErrConflict) {
			return err
		}
	}
	return conflictf("could not allocate a unique slug, please retry")
}

func (s *ListingService) load(ctx context.Context, id uint64) (model.Listing, error) {
	l, err := s.listings.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Listing{}, notFoundf("listing not found")
	}
	return l, err
}

// Update applies a seller's edit. New images are appended; the video and
// the status cannot be changed here.
func (s *ListingService) Update(ctx context.Context, p Principal, id uint64, patch ListingPatch, images []media.Upload) (model.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.update")
	defer span.End()

	trimPtr(patch.Title)
	trimPtr(patch.Description)
	trimPtr(patch.Location)
	if err := check(patch); err != nil {
		return model.Listing{}, err
	}
	if len(images) > s.cfg.MaxImages {
		return model.Listing{}, validationf("at most %d images are allowed", s.cfg.MaxImages)
	}
	l, err := s.load(ctx, id)
	if err != nil {
		return model.Listing{}, err
	}
	if l.SellerID != p.UserID {
		return model.Listing{}, forbiddenf("you can only edit your own listings")
	}

	retitled := patch.Title != nil && *patch.Title != l.Title
	if patch.Title != nil {
		l.Title = *patch.Title
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Price != nil {
		l.Price = *patch.Price
	}
	if patch.Category != nil {
		l.Category = *patch.Category
	}
	if patch.Condition != nil {
		l.Condition = *patch.Condition
	}
	if patch.Location != nil {
		l.Location = *patch.Location
	}

	_, added, err := s.upload(ctx, nil, images)
	if err != nil {
		return model.Listing{}, err
	}
	write := func() error { return s.listings.Update(ctx, &l, added) }
	if retitled {
		err = s.withSlug(&l, write)
	} else {
		err = write()
	}
	if err != nil {
		ids := make([]string, 0, len(added))
		for _, m := range added {
			ids = append(ids, m.PublicID)
		}
		s.release(context.WithoutCancel(ctx), l.ID, ids, "listing update failed")
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, repository.ErrNotFound) {
			return model.Listing{}, notFoundf("listing not found")
		}
		return model.Listing{}, err
	}
	return publicView([]model.Listing{l})[0], nil
}

// Verify records an admin moderation decision. Status and videoVerified
// change together; rejected listings can be reactivated later.
func (s *ListingService) Verify(ctx context.Context, admin Principal, id uint64, status string) (model.Listing, error) {
	ctx, span := tracer.Start(ctx, "listing.verify")
	defer span.End()

	if err := RequireAdmin(admin); err != nil {
		return model.Listing{}, err
	}
	if status != model.StatusActive && status != model.StatusRejected {
		return model.Listing{}, validationf("status must be active or rejected")
	}
	l, err := s.load(ctx, id)
	if err != nil {
		return model.Listing{}, err
	}
	if l.Status == model.StatusSold {
		return model.Listing{}, conflictf("a sold listing cannot be moderated")
	}
	if err := s.listings.SetStatus(ctx, id, status); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Listing{}, notFoundf("listing not found")
		}
		return model.Listing{}, err
	}
	l.Status = status
	l.VideoVerified = status == model.StatusActive
	l.UpdatedAt = time.Now().UTC()
	metrics.ListingsModerated.WithLabelValues(status).Inc()
	span.SetAttributes(attribute.String("listing.status", status))

	// The decision is already stored; a lost event only affects the audit log.
	_ = s.events.PublishModeration(ctx, queue.ModerationEvent{
		ListingID:     l.ID,
		Slug:          l.Slug,
		Title:         l.Title,
		SellerID:      l.SellerID,
		AdminID:       admin.UserID,
		Decision:      status,
		VideoVerified: l.VideoVerified,
		DecidedAt:     l.UpdatedAt.Format(time.RFC3339),
	})
	return l, nil
}

// Delete removes a listing on behalf of its seller or an admin.
func (s *ListingService) Delete(ctx context.Context, p Principal, id uint64) error {
	l, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if l.SellerID != p.UserID && !p.IsAdmin() {
		return forbiddenf("you can only delete your own listings")
	}
	return s.remove(ctx, l)
}

// DeleteBySeller removes every listing of a seller through the regular
// delete path.
func (s *ListingService) DeleteBySeller(ctx context.Context, sellerID uint64) error {
	ls, err := s.listings.ListBySeller(ctx, sellerID)
	if err != nil {
		return err
	}
	for _, l := range ls {
		if err := s.remove(ctx, l); err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
	}
	return nil
}

// remove releases the media of l before deleting its record. Media release
// is best effort: failures are queued for retry and never block the delete.
func (s *ListingService) remove(ctx context.Context, l model.Listing) error {
	ctx, span := tracer.Start(ctx, "listing.delete")
	defer span.End()
	span.SetAttributes(attribute.Int64("listing.id", int64(l.ID)))

	if err := s.release(ctx, l.ID, l.MediaIDs(), "listing deleted"); err != nil {
		span.RecordError(err)
	}
	if err := s.listings.Delete(ctx, l.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return notFoundf("listing not found")
		}
		return err
	}
	return nil
}
