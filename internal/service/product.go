package service

import (
	"context"
	"errors"
	"strings"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/repository"
	"github.com/techpulse/marketplace/internal/utils"
)

type ProductService struct {
	products ProductStore
}

func NewProductService(products ProductStore) *ProductService {
	return &ProductService{products: products}
}

// ProductFilter selects and orders catalogue products.
type ProductFilter struct {
	Category string
	Brand    string
	InStock  *bool
	MinPrice *float64
	MaxPrice *float64
	Search   string
	Sort     string
	Page     int
	Limit    int
}

type ProductInput struct {
	Name        string            `json:"name" validate:"required,max=100"`
	Brand       string            `json:"brand" validate:"required,brand"`
	Category    string            `json:"category" validate:"required,category"`
	Price       *float64          `json:"price" validate:"required,gte=0,lte=99999999.99"`
	Description string            `json:"description" validate:"required,min=10"`
	Specs       map[string]string `json:"specs"`
	Image       string            `json:"image" validate:"omitempty,max=500"`
	InStock     *bool             `json:"inStock"`
}

type ProductPatch struct {
	Name        *string           `json:"name" validate:"omitempty,min=1,max=100"`
	Brand       *string           `json:"brand" validate:"omitempty,brand"`
	Category    *string           `json:"category" validate:"omitempty,category"`
	Price       *float64          `json:"price" validate:"omitempty,gte=0,lte=99999999.99"`
	Description *string           `json:"description" validate:"omitempty,min=10"`
	Specs       map[string]string `json:"specs"`
	Image       *string           `json:"image" validate:"omitempty,max=500"`
	InStock     *bool             `json:"inStock"`
}

func (s *ProductService) List(ctx context.Context, f ProductFilter) (Page[model.Product], error) {
	page, limit := normalizePage(f.Page, f.Limit)
	items, total, err := s.products.List(ctx, repository.ProductQuery{
		Category: f.Category,
		Brand:    f.Brand,
		InStock:  f.InStock,
		MinPrice: f.MinPrice,
		MaxPrice: f.MaxPrice,
		Search:   strings.TrimSpace(f.Search),
		Sort:     f.Sort,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return Page[model.Product]{}, err
	}
	return newPage(items, page, limit, total), nil
}

func (s *ProductService) Brands(ctx context.Context) ([]model.NameCount, error) {
	return s.products.Brands(ctx)
}

func (s *ProductService) Get(ctx context.Context, slug string) (model.Product, error) {
	p, err := s.products.GetBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Product{}, notFoundf("product not found")
	}
	return p, err
}

func productSlug(name string) (string, error) {
	slug := utils.Slugify(name)
	if slug == "" {
		return "", validationf("name must contain letters or digits")
	}
	return slug, nil
}

func (s *ProductService) Create(ctx context.Context, in ProductInput) (model.Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := check(in); err != nil {
		return model.Product{}, err
	}
	slug, err := productSlug(in.Name)
	if err != nil {
		return model.Product{}, err
	}
	p := model.Product{
		Name:        in.Name,
		Slug:        slug,
		Brand:       in.Brand,
		Category:    in.Category,
		Price:       *in.Price,
		Description: in.Description,
		Specs:       in.Specs,
		Image:       in.Image,
		InStock:     in.InStock == nil || *in.InStock,
	}
	if p.Specs == nil {
		p.Specs = map[string]string{}
	}
	if err := s.products.Create(ctx, &p); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return model.Product{}, conflictf("a product with this name already exists")
		}
		return model.Product{}, err
	}
	return p, nil
}

// Update applies patch to product id. A new name derives a new slug.
func (s *ProductService) Update(ctx context.Context, id uint64, patch ProductPatch) (model.Product, error) {
	trimPtr(patch.Name)
	trimPtr(patch.Description)
	if err := check(patch); err != nil {
		return model.Product{}, err
	}
	p, err := s.products.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Product{}, notFoundf("product not found")
	}
	if err != nil {
		return model.Product{}, err
	}
	if patch.Name != nil && *patch.Name != p.Name {
		slug, err := productSlug(*patch.Name)
		if err != nil {
			return model.Product{}, err
		}
		p.Name, p.Slug = *patch.Name, slug
	}
	if patch.Brand != nil {
		p.Brand = *patch.Brand
	}
	if patch.Category != nil {
		p.Category = *patch.Category
	}
	if patch.Price != nil {
		p.Price = *patch.Price
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Specs != nil {
		p.Specs = patch.Specs
	}
	if patch.Image != nil {
		p.Image = *patch.Image
	}
	if patch.InStock != nil {
		p.InStock = *patch.InStock
	}
	if err := s.products.Update(ctx, &p); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return model.Product{}, conflictf("a product with this name already exists")
		case errors.Is(err, repository.ErrNotFound):
			return model.Product{}, notFoundf("product not found")
		}
		return model.Product{}, err
	}
	return p, nil
}

// Delete removes a product; its reviews and favorite entries go with it.
func (s *ProductService) Delete(ctx context.Context, id uint64) error {
	err := s.products.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return notFoundf("product not found")
	}
	return err
}
