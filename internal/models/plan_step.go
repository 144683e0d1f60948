package models

import "time"

type PlanStep struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	PlanID      string    `gorm:"type:varchar(36);not null;index" json:"plan_id"`
	Title       string    `gorm:"type:varchar(255);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	OrderNumber int       `gorm:"not null;default:1;check:chk_plan_steps_order_positive,order_number > 0" json:"order_number"`
	IsCompleted bool      `gorm:"not null;default:false" json:"is_completed"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
