package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Plan is a titled, ordered list of steps. UserID is nil for plans created
// without an authenticated user.
type Plan struct {
	ID            string    `gorm:"type:varchar(36);primaryKey" json:"id"`
	Title         string    `gorm:"type:varchar(255);not null" json:"title"`
	Description   string    `gorm:"type:text" json:"description"`
	Category      string    `gorm:"type:varchar(100)" json:"category"`
	IsAIGenerated bool      `gorm:"not null;default:false" json:"is_ai_generated"`
	UserID        *uint64   `gorm:"index" json:"user_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	// Relations
	Steps []PlanStep `gorm:"foreignKey:PlanID;constraint:OnDelete:CASCADE" json:"plan_steps"`
}

// BeforeCreate assigns a random UUID when none is set.
func (p *Plan) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Progress returns the number of completed steps and the total.
func (p *Plan) Progress() (completed, total int) {
	for _, step := range p.Steps {
		if step.IsCompleted {
			completed++
		}
	}
	return completed, len(p.Steps)
}
