package handler

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/techpulse/marketplace/internal/media"
	"github.com/techpulse/marketplace/internal/service"
)

// ListingHandler serves the marketplace listings.
type ListingHandler struct {
	Listings *service.ListingService
}

func NewListingHandler(listings *service.ListingService) *ListingHandler {
	return &ListingHandler{Listings: listings}
}

func listingFilter(c echo.Context) (service.ListingFilter, error) {
	f := service.ListingFilter{
		Status:    c.QueryParam("status"),
		Category:  c.QueryParam("category"),
		Condition: c.QueryParam("condition"),
		Search:    c.QueryParam("search"),
		Sort:      c.QueryParam("sort"),
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
	}
	var err error
	if f.MinPrice, err = queryFloat(c, "minPrice"); err != nil {
		return f, errors.New("minPrice must be a number")
	}
	if f.MaxPrice, err = queryFloat(c, "maxPrice"); err != nil {
		return f, errors.New("maxPrice must be a number")
	}
	return f, nil
}

// List returns active listings only.
func (h *ListingHandler) List(c echo.Context) error {
	f, err := listingFilter(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	page, err := h.Listings.List(ctx, f)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, pageBody("listings", page))
}

func (h *ListingHandler) Get(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Listings.Get(ctx, c.Param("slug"))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) Mine(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()

	ls, err := h.Listings.Mine(ctx, principal(c))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, ls)
}

// multipartFiles opens every file under field. The returned closer closes
// all of them and must be called even when err is non-nil.
func multipartFiles(form *multipart.Form, field string) ([]media.Upload, func(), error) {
	var (
		ups     []media.Upload
		closers []io.Closer
	)
	closeAll := func() {
		for _, c := range closers {
			_ = c.Close()
		}
	}
	if form == nil {
		return nil, closeAll, nil
	}
	for _, fh := range form.File[field] {
		f, err := fh.Open()
		if err != nil {
			return nil, closeAll, err
		}
		closers = append(closers, f)
		ups = append(ups, media.Upload{Name: fh.Filename, Size: fh.Size, Body: f})
	}
	return ups, closeAll, nil
}

// formValue returns the trimmed field value and whether it was sent.
func formValue(form *multipart.Form, field string) (string, bool) {
	if form == nil {
		return "", false
	}
	vals, ok := form.Value[field]
	if !ok || len(vals) == 0 {
		return "", false
	}
	return strings.TrimSpace(vals[0]), true
}

func isMultipart(c echo.Context) bool {
	return strings.HasPrefix(c.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm)
}

// Create accepts a multipart form with one video and up to five images.
func (h *ListingHandler) Create(c echo.Context) error {
	if !isMultipart(c) {
		return badRequest(c, "expected multipart/form-data with a video")
	}
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "invalid multipart form")
	}

	var in service.ListingInput
	in.Title, _ = formValue(form, "title")
	in.Description, _ = formValue(form, "description")
	in.Category, _ = formValue(form, "category")
	in.Condition, _ = formValue(form, "condition")
	in.Location, _ = formValue(form, "location")
	if raw, ok := formValue(form, "price"); ok && raw != "" {
		price, err := parseFloat(raw)
		if err != nil {
			return badRequest(c, "price must be a number")
		}
		in.Price = &price
	}

	videos, closeVideos, err := multipartFiles(form, "video")
	defer closeVideos()
	if err != nil {
		return badRequest(c, "could not read video")
	}
	if len(videos) > 1 {
		return badRequest(c, "only one video is allowed")
	}
	images, closeImages, err := multipartFiles(form, "images")
	defer closeImages()
	if err != nil {
		return badRequest(c, "could not read images")
	}

	var video *media.Upload
	if len(videos) == 1 {
		video = &videos[0]
	}
	l, err := h.Listings.Create(c.Request().Context(), principal(c), in, video, images)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusCreated, l)
}

// Update accepts either a multipart form (fields plus new images) or a
// JSON body with the fields only.
func (h *ListingHandler) Update(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}

	var (
		patch  service.ListingPatch
		images []media.Upload
	)
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "invalid multipart form")
		}
		for field, dst := range map[string]**string{
			"title":       &patch.Title,
			"description": &patch.Description,
			"category":    &patch.Category,
			"condition":   &patch.Condition,
			"location":    &patch.Location,
		} {
			if v, ok := formValue(form, field); ok {
				*dst = &v
			}
		}
		if raw, ok := formValue(form, "price"); ok {
			price, err := parseFloat(raw)
			if err != nil {
				return badRequest(c, "price must be a number")
			}
			patch.Price = &price
		}
		var closeImages func()
		images, closeImages, err = multipartFiles(form, "images")
		defer closeImages()
		if err != nil {
			return badRequest(c, "could not read images")
		}
	} else if err := c.Bind(&patch); err != nil {
		return badRequest(c, "invalid body")
	}

	l, err := h.Listings.Update(c.Request().Context(), principal(c), id, patch, images)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

type verifyReq struct {
	Status string `json:"status"`
}

// Verify records an admin decision on a listing.
func (h *ListingHandler) Verify(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}
	var req verifyReq
	if err := c.Bind(&req); err != nil {
		return badRequest(c, "invalid body")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	l, err := h.Listings.Verify(ctx, principal(c), id, strings.TrimSpace(req.Status))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) Delete(c echo.Context) error {
	id, ok := paramID(c, "id")
	if !ok {
		return badRequest(c, "invalid listing id")
	}

	ctx, cancel := withTimeout(c)
	defer cancel()

	if err := h.Listings.Delete(ctx, principal(c), id); err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "listing deleted"})
}
