package seed_test

import (
	"context"
	"testing"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/seed"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/service/servicetest"
)

func TestCatalogueIsValid(t *testing.T) {
	items, err := seed.Products()
	if err != nil {
		t.Fatal(err)
	}
	if len(items) != 24 {
		t.Fatalf("catalogue has %d products", len(items))
	}
	outOfStock := 0
	for _, in := range items {
		if in.Price == nil || *in.Price <= 0 || len(in.Specs) == 0 {
			t.Errorf("incomplete product %+v", in)
		}
		if in.InStock != nil && !*in.InStock {
			outOfStock++
		}
	}
	if outOfStock != 3 {
		t.Errorf("out of stock = %d, want 3", outOfStock)
	}
}

func TestRunSeedsOnceThroughService(t *testing.T) {
	ctx := context.Background()
	svc := service.NewProductService(servicetest.New().Products())

	res, err := seed.Run(ctx, svc)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Created != 24 || res.Skipped != 0 {
		t.Errorf("first run = %+v", res)
	}
	want := map[string]int{"Smartphone": 6, "Laptop": 6, "Wearable": 5, "Accessoire": 7}
	for _, c := range model.Categories {
		if res.ByCategory[c] != want[c] {
			t.Errorf("%s = %d, want %d", c, res.ByCategory[c], want[c])
		}
	}

	p, err := svc.Get(ctx, "samsung-galaxy-s24-ultra")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Price != 1469 || p.Specs["chip"] != "Snapdragon 8 Gen 3" || !p.InStock {
		t.Errorf("product = %+v", p)
	}
	p, err = svc.Get(ctx, "sony-xperia-1-vi")
	if err != nil || p.InStock {
		t.Errorf("Xperia = %+v, %v", p, err)
	}

	res, err = seed.Run(ctx, svc)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if res.Created != 0 || res.Skipped != 24 {
		t.Errorf("second run = %+v", res)
	}
}
