package postgres

import (
	"strings"

	"gorm.io/gorm"

	"github.com/flexible-healthcare/training-service/internal/repositories"
)

// priorityOrder sorts high before medium before low, unset last
const priorityOrder = "CASE priority WHEN 'high' THEN 0 WHEN 'medium' THEN 1 WHEN 'low' THEN 2 ELSE 3 END"

// SharedHelpers contains common query building
type SharedHelpers struct {
	db *gorm.DB
}

func NewSharedHelpers(db *gorm.DB) *SharedHelpers {
	return &SharedHelpers{db: db}
}

// ApplyModuleFilters applies search and category to a training_modules query
func (h *SharedHelpers) ApplyModuleFilters(query *gorm.DB, filters repositories.ModuleFilters) *gorm.DB {
	if search := strings.TrimSpace(filters.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?", like, like)
	}
	if filters.Category != "" {
		query = query.Where("category = ?", filters.Category)
	}
	return query
}

// ApplyProgressFilters applies status, module and date filters to a user_progress query
func (h *SharedHelpers) ApplyProgressFilters(query *gorm.DB, filters repositories.ProgressFilters) *gorm.DB {
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.ModuleID != nil {
		query = query.Where("module_id = ?", *filters.ModuleID)
	}
	if filters.DateFrom != nil {
		query = query.Where("started_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("started_at <= ?", *filters.DateTo)
	}
	return query
}

// ApplyPaginationAndSort applies pagination and sorting with SQL injection protection
func (h *SharedHelpers) ApplyPaginationAndSort(query *gorm.DB, sortBy, sortOrder string, limit, offset int) *gorm.DB {
	allowedSortColumns := map[string]string{
		"created_at": "created_at",
		"updated_at": "updated_at",
		"title":      "title",
		"category":   "category",
		"priority":   priorityOrder,
		"started_at": "started_at",
	}

	column, ok := allowedSortColumns[sortBy]
	if !ok {
		column = "created_at"
	}

	if strings.EqualFold(sortOrder, "asc") {
		sortOrder = "ASC"
	} else {
		sortOrder = "DESC"
	}

	query = query.Order(column + " " + sortOrder)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	return query
}
