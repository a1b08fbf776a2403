package vehicle

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/CarLinkRent/CarLinkRent/internal/actor"
	"github.com/CarLinkRent/CarLinkRent/internal/auditlog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Vehicle{}, &auditlog.Entry{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewService(NewRepo(db), auditlog.NewRecorder(db, nil))
}

var admin = actor.Actor{Kind: actor.KindAdmin, ID: "a-1", Username: "root"}

func addVehicle(t *testing.T, svc *Service, brand string, price float64) *Vehicle {
	t.Helper()
	v, err := svc.Add(context.Background(), admin, Spec{Brand: brand, Model: "M", PricePerDay: price})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	return v
}

func TestAddValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	if _, err := svc.Add(ctx, admin, Spec{Brand: "Fiat", Model: "Uno", PricePerDay: 0}); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for non-positive price, got %v", err)
	}
	if _, err := svc.Add(ctx, admin, Spec{Brand: "", Model: "Uno", PricePerDay: 100}); !errors.Is(err, ErrInvalidSpec) {
		t.Fatalf("expected ErrInvalidSpec for empty brand, got %v", err)
	}
	if _, err := svc.Add(ctx, actor.Anonymous(), Spec{Brand: "Fiat", Model: "Uno", PricePerDay: 100}); !errors.Is(err, actor.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for anonymous, got %v", err)
	}

	v, err := svc.Add(ctx, admin, Spec{Brand: "Fiat", Model: "Uno", PricePerDay: 100})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v.Status != StatusAvailable {
		t.Fatalf("new vehicle must start available, got %s", v.Status)
	}
}

func TestAddOwnerForcedForPlainUser(t *testing.T) {
	svc := newTestService(t)
	u := actor.Actor{Kind: actor.KindUser, ID: "u-1", Username: "alice"}

	other := "someone-else"
	v, err := svc.Add(context.Background(), u, Spec{Brand: "VW", Model: "Gol", PricePerDay: 80, OwnerID: &other})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if v.OwnerID != "u-1" {
		t.Fatalf("plain user vehicle must be owned by the user, got %q", v.OwnerID)
	}
}

func TestEditAndRemoveOwnership(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := actor.Actor{Kind: actor.KindUser, ID: "u-1", Username: "alice"}
	stranger := actor.Actor{Kind: actor.KindUser, ID: "u-2", Username: "bob"}

	v, err := svc.Add(ctx, owner, Spec{Brand: "VW", Model: "Gol", PricePerDay: 80})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	if _, err := svc.Edit(ctx, stranger, v.ID, Spec{Brand: "VW", Model: "Polo", PricePerDay: 90}); !errors.Is(err, actor.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for stranger edit, got %v", err)
	}
	got, err := svc.Edit(ctx, owner, v.ID, Spec{Brand: "VW", Model: "Polo", PricePerDay: 90})
	if err != nil {
		t.Fatalf("owner edit: %v", err)
	}
	if got.Model != "Polo" || got.PricePerDay != 90 {
		t.Fatalf("edit not applied: %#v", got)
	}

	if err := svc.Remove(ctx, stranger, v.ID); !errors.Is(err, actor.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for stranger remove, got %v", err)
	}
	if err := svc.Remove(ctx, admin, v.ID); err != nil {
		t.Fatalf("admin remove: %v", err)
	}
	if _, err := svc.Get(ctx, v.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
}

// 管理员整单编辑时漏传 owner_id 不得改动归属；只有显式给值才改。
func TestEditOwnerOnlyWhenExplicit(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	owner := actor.Actor{Kind: actor.KindUser, ID: "u-1", Username: "alice"}

	v, err := svc.Add(ctx, owner, Spec{Brand: "VW", Model: "Gol", PricePerDay: 80})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	// 管理员编辑但未指定归属：保持原归属人
	got, err := svc.Edit(ctx, admin, v.ID, Spec{Brand: "VW", Model: "Polo", PricePerDay: 90})
	if err != nil {
		t.Fatalf("admin edit: %v", err)
	}
	if got.OwnerID != "u-1" {
		t.Fatalf("owner must survive an edit without owner_id, got %q", got.OwnerID)
	}

	// 归属人自己改不了归属：字段被忽略
	other := "u-9"
	got, err = svc.Edit(ctx, owner, v.ID, Spec{Brand: "VW", Model: "Polo", PricePerDay: 90, OwnerID: &other})
	if err != nil {
		t.Fatalf("owner edit: %v", err)
	}
	if got.OwnerID != "u-1" {
		t.Fatalf("plain user must not reassign ownership, got %q", got.OwnerID)
	}

	// 管理员显式置空：转为平台自营
	empty := ""
	got, err = svc.Edit(ctx, admin, v.ID, Spec{Brand: "VW", Model: "Polo", PricePerDay: 90, OwnerID: &empty})
	if err != nil {
		t.Fatalf("admin edit with explicit empty owner: %v", err)
	}
	if got.OwnerID != "" {
		t.Fatalf("explicit empty owner must mean platform-owned, got %q", got.OwnerID)
	}
}

func TestSetStatus(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	v := addVehicle(t, svc, "Fiat", 100)

	if _, err := svc.SetStatus(ctx, admin, v.ID, Status("broken")); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus, got %v", err)
	}
	u := actor.Actor{Kind: actor.KindUser, ID: "u-1", Username: "alice"}
	if _, err := svc.SetStatus(ctx, u, v.ID, StatusMaintenance); !errors.Is(err, actor.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for plain user, got %v", err)
	}
	got, err := svc.SetStatus(ctx, admin, v.ID, StatusMaintenance)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if got.Status != StatusMaintenance {
		t.Fatalf("status not applied: %s", got.Status)
	}
	if _, err := svc.SetStatus(ctx, admin, "missing", StatusAvailable); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListFilterAndSort(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	addVehicle(t, svc, "Fiat", 100)
	addVehicle(t, svc, "Fiat", 50)
	v := addVehicle(t, svc, "VW", 200)
	if _, err := svc.SetStatus(ctx, admin, v.ID, StatusMaintenance); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}

	// 品牌过滤 + 升序
	got, err := svc.List(ctx, Filter{Brand: "Fiat", Sort: SortPriceAsc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].PricePerDay != 50 || got[1].PricePerDay != 100 {
		t.Fatalf("unexpected brand/sort result: %#v", got)
	}

	// 价格上限为含边界
	got, err = svc.List(ctx, Filter{MaxPrice: 100, Sort: SortPriceDesc})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].PricePerDay != 100 {
		t.Fatalf("unexpected max-price result: %#v", got)
	}

	// 状态排除
	got, err = svc.List(ctx, Filter{ExcludeStatus: StatusMaintenance})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected maintenance vehicle excluded, got %d", len(got))
	}

	if _, err := svc.List(ctx, Filter{ExcludeStatus: Status("bogus")}); !errors.Is(err, ErrInvalidStatus) {
		t.Fatalf("expected ErrInvalidStatus for bogus filter, got %v", err)
	}

	brands, err := svc.Brands(ctx)
	if err != nil {
		t.Fatalf("Brands: %v", err)
	}
	if len(brands) != 2 || brands[0] != "Fiat" || brands[1] != "VW" {
		t.Fatalf("unexpected brands: %#v", brands)
	}
}
