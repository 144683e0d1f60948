package database

import (
	"gorm.io/gorm"

	"github.com/yukikurage/coaching-plans-api/internal/utils"
)

// Paginate applies pagination to a GORM query
func Paginate(params utils.PaginationParams) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(params.Offset).Limit(params.Limit)
	}
}

// OwnedBy restricts a plans query to one owner. A nil owner matches plans
// created without an authenticated user.
func OwnedBy(userID *uint64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if userID == nil {
			return db.Where("plans.user_id IS NULL")
		}
		return db.Where("plans.user_id = ?", *userID)
	}
}

// StepsInOrder orders preloaded plan steps by position.
func StepsInOrder(db *gorm.DB) *gorm.DB {
	return db.Order("plan_steps.order_number ASC").Order("plan_steps.id ASC")
}
