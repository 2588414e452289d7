package service_test

import (
	"context"
	"reflect"
	"testing"

	"github.com/techpulse/marketplace/internal/model"
	"github.com/techpulse/marketplace/internal/service"
	"github.com/techpulse/marketplace/internal/service/servicetest"
)

func TestFavorites(t *testing.T) {
	ctx := context.Background()
	db := servicetest.New()
	svc := service.NewFavoriteService(db.Favorites())
	u := addUser(t, db, "fan@x.com", model.RoleUser)
	a := addProduct(t, db, "airpods", 199)
	b := addProduct(t, db, "galaxy-watch", 249)

	ids, err := svc.Add(ctx, u, a.ID)
	if err != nil || !reflect.DeepEqual(ids, []uint64{a.ID}) {
		t.Fatalf("Add = %v, %v", ids, err)
	}
	_, err = svc.Add(ctx, u, a.ID)
	wantKind(t, err, service.ErrConflict)
	_, err = svc.Add(ctx, u, 9999)
	wantKind(t, err, service.ErrNotFound)

	favorited, ids, err := svc.Toggle(ctx, u, b.ID)
	if err != nil || !favorited || len(ids) != 2 {
		t.Fatalf("Toggle on = %t %v %v", favorited, ids, err)
	}
	favorited, ids, err = svc.Toggle(ctx, u, a.ID)
	if err != nil || favorited || !reflect.DeepEqual(ids, []uint64{b.ID}) {
		t.Fatalf("Toggle off = %t %v %v", favorited, ids, err)
	}

	list, err := svc.List(ctx, u)
	if err != nil || len(list) != 1 || list[0].Name != "galaxy-watch" {
		t.Errorf("List = %+v, %v", list, err)
	}

	for i := 0; i < 2; i++ {
		ids, err = svc.Remove(ctx, u, b.ID)
		if err != nil || len(ids) != 0 || ids == nil {
			t.Errorf("Remove #%d = %v, %v", i, ids, err)
		}
	}
}
