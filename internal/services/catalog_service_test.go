package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/flexible-healthcare/training-service/internal/models"
	"github.com/flexible-healthcare/training-service/internal/validator"
)

func TestCatalogService_Feed(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()

	// ids sort in insertion order, which is the catalog order ListAll returns
	mods := []*models.TrainingModule{
		repo.addModule(moduleWith("m-01", "", false)),
		repo.addModule(moduleWith("m-02", models.PriorityHigh, false)),
		repo.addModule(moduleWith("m-03", "", false)),
		repo.addModule(moduleWith("m-04", "", true)),
		repo.addModule(moduleWith("m-05", "", false)),
		repo.addModule(moduleWith("m-06", "", false)),
		repo.addModule(moduleWith("m-07", "", false)),
	}
	repo.addProgress(&models.UserProgress{UserID: "user-1", ModuleID: mods[0].ID, Status: models.ProgressCompleted, ProgressPercentage: 100})
	repo.addProgress(&models.UserProgress{UserID: "user-1", ModuleID: mods[4].ID, Status: models.ProgressInProgress, ProgressPercentage: 50})
	// another user's progress must not leak into the feed
	repo.addProgress(&models.UserProgress{UserID: "user-2", ModuleID: mods[2].ID, Status: models.ProgressInProgress, ProgressPercentage: 25})

	svc := NewCatalogService(repo, testLogger(), validator.New())
	feed, err := svc.Feed(ctx, "user-1", 0)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	if feed.PendingCount != 6 {
		t.Errorf("PendingCount = %d, want 6", feed.PendingCount)
	}
	if len(feed.Items) != len(mods) {
		t.Fatalf("len(Items) = %d, want %d", len(feed.Items), len(mods))
	}

	want := []struct {
		id      string
		variant models.FeedVariant
	}{
		{"m-05", models.VariantProgress},
		{"m-02", models.VariantUrgent},
		{"m-03", models.VariantNew},
		{"m-04", models.VariantUrgent},
		{"m-06", models.VariantNew},
		{"m-07", models.VariantNew},
		{"m-01", models.VariantCompleted},
	}
	for i, w := range want {
		item := feed.Items[i]
		if item.Module.ID != w.id || item.Variant != w.variant {
			t.Errorf("item %d = %s/%s, want %s/%s", i, item.Module.ID, item.Variant, w.id, w.variant)
		}
	}

	top, err := svc.Feed(ctx, "user-1", 3)
	if err != nil {
		t.Fatalf("Feed(limit 3) error = %v", err)
	}
	if len(top.Items) != 3 || top.PendingCount != 6 {
		t.Fatalf("limited feed = %d items, pending %d; want 3 items, pending 6", len(top.Items), top.PendingCount)
	}
	for i := range top.Items {
		if top.Items[i].Module.ID != want[i].id {
			t.Errorf("limited item %d = %s, want %s", i, top.Items[i].Module.ID, want[i].id)
		}
	}
}

func TestCatalogService_Feed_NewUserSeesEveryModule(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	for i := 1; i <= 8; i++ {
		priority := models.ModulePriority("")
		if i%3 == 0 {
			priority = models.PriorityHigh
		}
		repo.addModule(moduleWith(fmt.Sprintf("m-%02d", i), priority, i == 4))
	}

	svc := NewCatalogService(repo, testLogger(), validator.New())
	feed, err := svc.Feed(ctx, "new-user", 0)
	if err != nil {
		t.Fatalf("Feed() error = %v", err)
	}

	if len(feed.Items) != 8 || feed.PendingCount != 8 {
		t.Fatalf("feed = %d items, pending %d; want 8 and 8", len(feed.Items), feed.PendingCount)
	}
	allowed := map[string]bool{"Not Started": true, "Mandatory": true, "High Priority": true}
	for _, item := range feed.Items {
		if !allowed[item.Tag] {
			t.Errorf("module %s tag = %q", item.Module.ID, item.Tag)
		}
	}
}

func TestCatalogService_GetModuleDetail(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	module := repo.addModule(moduleWith("m-01", models.PriorityHigh, false))
	expiry := time.Now().AddDate(0, 0, 10)
	repo.addCompliance(&models.ComplianceRecord{UserID: "user-1", ModuleID: module.ID, IsValid: true, ExpiryDate: &expiry})
	_ = repo.Favorite().Add(ctx, nil, &models.UserFavorite{UserID: "user-1", ModuleID: module.ID})

	svc := NewCatalogService(repo, testLogger(), validator.New())

	detail, err := svc.GetModuleDetail(ctx, "user-1", module.ID)
	if err != nil {
		t.Fatalf("GetModuleDetail() error = %v", err)
	}
	if detail.Variant != models.VariantUrgent || !detail.IsFavorite {
		t.Errorf("detail = %s favorite %v", detail.Variant, detail.IsFavorite)
	}
	if detail.ComplianceStatus == nil || *detail.ComplianceStatus != models.ComplianceExpiringSoon {
		t.Errorf("compliance status = %v, want expiring_soon", detail.ComplianceStatus)
	}

	other, err := svc.GetModuleDetail(ctx, "user-2", module.ID)
	if err != nil {
		t.Fatalf("GetModuleDetail() error = %v", err)
	}
	if other.Compliance != nil || other.IsFavorite || other.Progress != nil {
		t.Errorf("user-2 sees user-1 state: %+v", other)
	}

	if _, err := svc.GetModuleDetail(ctx, "user-1", "missing"); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("GetModuleDetail(missing) error = %v, want ErrModuleNotFound", err)
	}
}

func TestCatalogService_CreateAndUpdateModule(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	svc := NewCatalogService(repo, testLogger(), validator.New())

	tests := []struct {
		name    string
		req     *models.ModuleUpsertRequest
		wantErr bool
	}{
		{"valid", &models.ModuleUpsertRequest{Title: " CPR Basics ", Category: "Clinical", Priority: ptr(models.PriorityHigh)}, false},
		{"missing title", &models.ModuleUpsertRequest{Category: "Clinical"}, true},
		{"bad priority", &models.ModuleUpsertRequest{Title: "x", Category: "y", Priority: ptr(models.ModulePriority("urgent"))}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			module, err := svc.CreateModule(ctx, tt.req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("CreateModule() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && module.Title != "CPR Basics" {
				t.Errorf("title = %q, want trimmed", module.Title)
			}
		})
	}

	all, _ := repo.TrainingModule().ListAll(ctx, nil)
	if len(all) != 1 {
		t.Fatalf("catalog has %d modules, want 1", len(all))
	}

	updated, err := svc.UpdateModule(ctx, all[0].ID, &models.ModuleUpsertRequest{Title: "CPR Advanced", Category: "Clinical"})
	if err != nil {
		t.Fatalf("UpdateModule() error = %v", err)
	}
	if updated.Title != "CPR Advanced" || updated.Priority != nil {
		t.Errorf("UpdateModule() = %+v", updated)
	}

	if _, err := svc.UpdateModule(ctx, "missing", &models.ModuleUpsertRequest{Title: "x", Category: "y"}); !errors.Is(err, ErrModuleNotFound) {
		t.Errorf("UpdateModule(missing) error = %v, want ErrModuleNotFound", err)
	}
}

func TestCatalogService_ListModules(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	for _, title := range []string{"Fire Safety", "Fire Drills", "Hand Hygiene"} {
		repo.addModule(&models.TrainingModule{Title: title, Category: "Safety"})
	}
	svc := NewCatalogService(repo, testLogger(), validator.New())

	page, err := svc.ListModules(ctx, &models.ListModulesParams{Search: "fire"})
	if err != nil {
		t.Fatalf("ListModules() error = %v", err)
	}
	if page.TotalElements != 2 || page.Page != 1 || page.Size != 20 {
		t.Errorf("ListModules() = total %d page %d size %d", page.TotalElements, page.Page, page.Size)
	}
}
