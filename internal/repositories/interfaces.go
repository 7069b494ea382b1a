package repositories

import (
	"time"

	"github.com/flexible-healthcare/training-service/internal/models"
)

// ===== SHARED FILTER STRUCTS =====

type ModuleFilters struct {
	Search    string `json:"search"`
	Category  string `json:"category"`
	Limit     int    `json:"limit"`
	Offset    int    `json:"offset"`
	SortBy    string `json:"sort_by"`    // "title", "priority", "created_at"
	SortOrder string `json:"sort_order"` // "asc", "desc"
}

type ProgressFilters struct {
	Status   *models.ProgressStatus `json:"status"`
	ModuleID *string                `json:"module_id"`
	DateFrom *time.Time             `json:"date_from"`
	DateTo   *time.Time             `json:"date_to"`
	Limit    int                    `json:"limit"`
	Offset   int                    `json:"offset"`
}

// ===== SHARED STATISTICS STRUCTS =====

// ProgressStatusCounts counts modules by the status of their latest progress row
type ProgressStatusCounts struct {
	Completed  int64 `json:"completed"`
	InProgress int64 `json:"in_progress"`
}

type CertificateCounts struct {
	Valid    int64 `json:"valid"`
	Expiring int64 `json:"expiring"`
	Expired  int64 `json:"expired"`
}

type CompletionTotals struct {
	Modules int64 `json:"modules"`
	Minutes int64 `json:"minutes"`
}
