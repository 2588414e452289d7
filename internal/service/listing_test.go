package service_test

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/techpulse/marketplace/internal/media"
	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/queue"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/service/mocks"
	"github.com/techpulse/marketplace/internal/service/servicetest"
)

type listingFixture struct {
	db     *servicetest.DB
	media  *mocks.MockMediaStore
	events *mocks.MockEventPublisher
	svc    *service.ListingService
	seller service.Principal
	other  service.Principal
	admin  service.Principal
}

func newListingFixture(t *testing.T) listingFixture {
	ctrl := gomock.NewController(t)
	db := servicetest.New()
	f := listingFixture{
		db:     db,
		media:  mocks.NewMockMediaStore(ctrl),
		events: mocks.NewMockEventPublisher(ctrl),
		seller: addUser(t, db, "seller@x.com", model.RoleUser),
		other:  addUser(t, db, "other@x.com", model.RoleUser),
		admin:  addUser(t, db, "admin@x.com", model.RoleAdmin),
	}
	f.svc = service.NewListingService(db.Listings(), f.media, f.events, service.ListingConfig{
		MaxImages:     5,
		UploadTimeout: time.Second,
	})
	return f
}

func validListing() service.ListingInput {
	return service.ListingInput{
		Title:       "iPhone 13 Pro",
		Description: "Très bon état, batterie à 91%",
		Price:       ptr(500.0),
		Category:    "Smartphone",
		Condition:   "Bon état",
		Location:    "Lyon",
	}
}

func upload(name string) media.Upload {
	return media.Upload{Name: name, Size: 4, Body: strings.NewReader("data")}
}

func (f listingFixture) expectVideo(id string) {
	f.media.EXPECT().Save(gomock.Any(), media.KindVideo, gomock.Any()).
		Return(media.Object{URL: "/uploads/" + id, PublicID: id, ContentType: "video/mp4", Duration: 12.5}, nil)
}

func (f listingFixture) expectImage(id string) *gomock.Call {
	return f.media.EXPECT().Save(gomock.Any(), media.KindImage, gomock.Any()).
		Return(media.Object{URL: "/uploads/" + id, PublicID: id, ContentType: "image/png"}, nil)
}

func (f listingFixture) count(t *testing.T) int64 {
	n, err := f.db.Stats().Count(context.Background(), "listings")
	if err != nil {
		t.Fatal(err)
	}
	return n
}

func TestCreateWithoutVideoStoresNothing(t *testing.T) {
	f := newListingFixture(t)
	_, err := f.svc.Create(context.Background(), f.seller, validListing(), nil, nil)
	wantKind(t, err, service.ErrValidation)
	if !strings.Contains(err.Error(), "video") {
		t.Errorf("message = %q", err)
	}
	if n := f.count(t); n != 0 {
		t.Errorf("stored %d listings", n)
	}
}

func TestCreateWithoutVideoReportsVideoFirst(t *testing.T) {
	f := newListingFixture(t)
	in := service.ListingInput{Price: ptr(500.0), Category: "Smartphone", Condition: "Bon état"}
	_, err := f.svc.Create(context.Background(), f.seller, in, nil, nil)
	wantKind(t, err, service.ErrValidation)
	var se *service.Error
	if !errors.As(err, &se) || se.Msg != "a verification video is required" {
		t.Errorf("err = %v", err)
	}
	if n := f.count(t); n != 0 {
		t.Errorf("stored %d listings", n)
	}
}

func TestCreateValidation(t *testing.T) {
	cases := map[string]func(*service.ListingInput){
		"price below one":   func(in *service.ListingInput) { in.Price = ptr(0.5) },
		"missing price":     func(in *service.ListingInput) { in.Price = nil },
		"unknown category":  func(in *service.ListingInput) { in.Category = "Tablet" },
		"unknown condition": func(in *service.ListingInput) { in.Condition = "Neuf" },
		"short description": func(in *service.ListingInput) { in.Description = "court" },
		"blank title":       func(in *service.ListingInput) { in.Title = "   " },
		"long location":     func(in *service.ListingInput) { in.Location = strings.Repeat("a", 121) },
		"price too large":   func(in *service.ListingInput) { in.Price = ptr(1e12) },
		"infinite price":    func(in *service.ListingInput) { in.Price = ptr(math.Inf(1)) },
		"NaN price":         func(in *service.ListingInput) { in.Price = ptr(math.NaN()) },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			f := newListingFixture(t)
			in := validListing()
			mutate(&in)
			v := upload("v.mp4")
			_, err := f.svc.Create(context.Background(), f.seller, in, &v, nil)
			wantKind(t, err, service.ErrValidation)
		})
	}
}

func TestCreateStoresPendingListing(t *testing.T) {
	f := newListingFixture(t)
	f.expectVideo("listings/videos/v.mp4")
	gomock.InOrder(
		f.expectImage("listings/images/a.png"),
		f.expectImage("listings/images/b.png"),
	)

	v := upload("v.mp4")
	l, err := f.svc.Create(context.Background(), f.seller, validListing(), &v, []media.Upload{upload("a.png"), upload("b.png")})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if l.Status != model.StatusPending || l.VideoVerified {
		t.Errorf("status = %s verified = %t", l.Status, l.VideoVerified)
	}
	if !strings.HasPrefix(l.Slug, "iphone-13-pro-") || len(l.Slug) != len("iphone-13-pro-")+5 {
		t.Errorf("slug = %q", l.Slug)
	}
	if l.Video.PublicID != "listings/videos/v.mp4" || l.Video.Duration != 12.5 {
		t.Errorf("video = %+v", l.Video)
	}
	if len(l.Images) != 2 || l.Images[0].PublicID != "listings/images/a.png" {
		t.Errorf("images = %+v", l.Images)
	}
	if l.SellerID != f.seller.UserID {
		t.Errorf("seller = %d", l.SellerID)
	}
}

func TestCreateTooManyImages(t *testing.T) {
	f := newListingFixture(t)
	v := upload("v.mp4")
	imgs := make([]media.Upload, 6)
	for i := range imgs {
		imgs[i] = upload("i.png")
	}
	_, err := f.svc.Create(context.Background(), f.seller, validListing(), &v, imgs)
	wantKind(t, err, service.ErrValidation)
}

func TestCreateRejectsNonVideo(t *testing.T) {
	f := newListingFixture(t)
	f.media.EXPECT().Save(gomock.Any(), media.KindVideo, gomock.Any()).
		Return(media.Object{}, media.ErrUnsupportedType)

	v := upload("notes.txt")
	_, err := f.svc.Create(context.Background(), f.seller, validListing(), &v, nil)
	wantKind(t, err, service.ErrValidation)
}

func TestCreateReleasesUploadsWhenAnImageFails(t *testing.T) {
	f := newListingFixture(t)
	f.expectVideo("listings/videos/v.mp4")
	f.media.EXPECT().Save(gomock.Any(), media.KindImage, gomock.Any()).
		Return(media.Object{}, errors.New("disk full"))
	f.media.EXPECT().Delete(gomock.Any(), "listings/videos/v.mp4").Return(nil)

	v := upload("v.mp4")
	_, err := f.svc.Create(context.Background(), f.seller, validListing(), &v, []media.Upload{upload("a.png")})
	wantKind(t, err, service.ErrDependency)
	if n := f.count(t); n != 0 {
		t.Errorf("stored %d listings", n)
	}
}

func TestCreateRetriesSlugCollisions(t *testing.T) {
	f := newListingFixture(t)
	f.expectVideo("listings/videos/v.mp4")
	f.db.SlugCollisions = 2

	v := upload("v.mp4")
	if _, err := f.svc.Create(context.Background(), f.seller, validListing(), &v, nil); err != nil {
		t.Fatalf("Create after two collisions: %v", err)
	}
}

func TestCreateGivesUpAfterThreeCollisions(t *testing.T) {
	f := newListingFixture(t)
	f.expectVideo("listings/videos/v.mp4")
	f.media.EXPECT().Delete(gomock.Any(), "listings/videos/v.mp4").Return(nil)
	f.db.SlugCollisions = 3

	v := upload("v.mp4")
	_, err := f.svc.Create(context.Background(), f.seller, validListing(), &v, nil)
	wantKind(t, err, service.ErrConflict)
}

func TestVerifyKeepsVideoVerifiedInStep(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "macbook", 900, model.StatusPending)

	var decisions []string
	f.events.EXPECT().PublishModeration(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev queue.ModerationEvent) error {
			decisions = append(decisions, ev.Decision)
			if ev.VideoVerified != (ev.Decision == model.StatusActive) || ev.AdminID != f.admin.UserID {
				t.Errorf("event = %+v", ev)
			}
			return nil
		}).Times(3)

	for _, status := range []string{model.StatusActive, model.StatusRejected, model.StatusActive} {
		got, err := f.svc.Verify(ctx, f.admin, l.ID, status)
		if err != nil {
			t.Fatalf("Verify(%s): %v", status, err)
		}
		stored, _ := f.db.Listings().GetByID(ctx, l.ID)
		for _, view := range []model.Listing{got, stored} {
			if view.Status != status || view.VideoVerified != (status == model.StatusActive) {
				t.Errorf("after %s: status=%s verified=%t", status, view.Status, view.VideoVerified)
			}
		}
	}
	if strings.Join(decisions, ",") != "active,rejected,active" {
		t.Errorf("decisions = %v", decisions)
	}
}

func TestVerifyRejections(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "watch", 120, model.StatusPending)
	sold := addListing(t, f.db, f.seller.UserID, "sold", 80, model.StatusSold)

	_, err := f.svc.Verify(ctx, f.seller, l.ID, model.StatusActive)
	wantKind(t, err, service.ErrAuthorization)

	_, err = f.svc.Verify(ctx, f.admin, l.ID, model.StatusSold)
	wantKind(t, err, service.ErrValidation)

	_, err = f.svc.Verify(ctx, f.admin, 9999, model.StatusActive)
	wantKind(t, err, service.ErrNotFound)

	_, err = f.svc.Verify(ctx, f.admin, sold.ID, model.StatusActive)
	wantKind(t, err, service.ErrConflict)
}

func TestDeleteReleasesMediaBestEffort(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "console", 250, model.StatusActive)

	f.media.EXPECT().Delete(gomock.Any(), l.Video.PublicID).Return(nil)
	f.media.EXPECT().Delete(gomock.Any(), l.Images[0].PublicID).Return(errors.New("storage unavailable"))
	f.events.EXPECT().PublishMediaCleanup(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev queue.MediaCleanupEvent) error {
			if ev.ListingID != l.ID || ev.Attempt != 0 || len(ev.PublicIDs) != 1 || ev.PublicIDs[0] != l.Images[0].PublicID {
				t.Errorf("cleanup event = %+v", ev)
			}
			return nil
		})

	if err := f.svc.Delete(ctx, f.seller, l.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.db.Listings().GetByID(ctx, l.ID); err == nil {
		t.Error("listing survived its deletion")
	}
}

func TestDeletePermissions(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "tablet", 300, model.StatusActive)

	wantKind(t, f.svc.Delete(ctx, f.other, l.ID), service.ErrAuthorization)
	wantKind(t, f.svc.Delete(ctx, f.admin, 4242), service.ErrNotFound)

	f.media.EXPECT().Delete(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	if err := f.svc.Delete(ctx, f.admin, l.ID); err != nil {
		t.Fatalf("admin Delete: %v", err)
	}
}

func TestUpdateAppendsImagesAndReslugs(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "old-title", 300, model.StatusActive)
	f.expectImage("listings/images/new.png")

	got, err := f.svc.Update(ctx, f.seller, l.ID, service.ListingPatch{
		Title: ptr("Galaxy S22 Ultra"),
		Price: ptr(650.0),
	}, []media.Upload{upload("new.png")})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !strings.HasPrefix(got.Slug, "galaxy-s22-ultra-") {
		t.Errorf("slug = %q", got.Slug)
	}
	if got.Price != 650 || len(got.Images) != 2 || got.Images[1].PublicID != "listings/images/new.png" {
		t.Errorf("listing = %+v", got)
	}
	if got.Status != model.StatusActive || got.Video.PublicID != l.Video.PublicID {
		t.Errorf("status or video changed: %+v", got)
	}
}

func TestUpdateOnlyBySeller(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "camera", 400, model.StatusPending)

	_, err := f.svc.Update(ctx, f.other, l.ID, service.ListingPatch{Price: ptr(10.0)}, nil)
	wantKind(t, err, service.ErrAuthorization)
	_, err = f.svc.Update(ctx, f.admin, l.ID, service.ListingPatch{Price: ptr(10.0)}, nil)
	wantKind(t, err, service.ErrAuthorization)
	_, err = f.svc.Update(ctx, f.seller, l.ID, service.ListingPatch{Condition: ptr("Neuf")}, nil)
	wantKind(t, err, service.ErrValidation)
}

func TestPublicListShowsActiveOnlyWithoutEmail(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	addListing(t, f.db, f.seller.UserID, "a", 100, model.StatusActive)
	addListing(t, f.db, f.seller.UserID, "b", 200, model.StatusPending)
	addListing(t, f.db, f.seller.UserID, "c", 300, model.StatusActive)
	addListing(t, f.db, f.seller.UserID, "d", 400, model.StatusRejected)

	page, err := f.svc.List(ctx, service.ListingFilter{Status: model.StatusPending, Sort: "price_desc"})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 2 || page.TotalPages != 1 || page.Page != 1 {
		t.Fatalf("page = %+v", page)
	}
	if page.Items[0].Title != "c" || page.Items[1].Title != "a" {
		t.Errorf("order = %s, %s", page.Items[0].Title, page.Items[1].Title)
	}
	for _, l := range page.Items {
		if l.Seller == nil || l.Seller.Email != "" || l.Seller.FirstName == "" {
			t.Errorf("seller = %+v", l.Seller)
		}
	}

	all, err := f.svc.ListForAdmin(ctx, service.ListingFilter{Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 4 || all.TotalPages != 2 || len(all.Items) != 3 || all.Items[0].Seller.Email == "" {
		t.Errorf("admin page = %+v", all)
	}

	_, err = f.svc.ListForAdmin(ctx, service.ListingFilter{Status: "archived"})
	wantKind(t, err, service.ErrValidation)
}

func TestGetReturnsAnyStatus(t *testing.T) {
	ctx := context.Background()
	f := newListingFixture(t)
	l := addListing(t, f.db, f.seller.UserID, "pending-one", 100, model.StatusPending)

	got, err := f.svc.Get(ctx, l.Slug)
	if err != nil || got.ID != l.ID {
		t.Fatalf("Get = %+v, %v", got, err)
	}
	_, err = f.svc.Get(ctx, "missing")
	wantKind(t, err, service.ErrNotFound)

	mine, err := f.svc.Mine(ctx, f.seller)
	if err != nil || len(mine) != 1 {
		t.Errorf("Mine = %v, %v", mine, err)
	}
}
