package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TemplateBlock is a value copy of one allocation's shape, independent of any date.
type TemplateBlock struct {
	Label     string   `json:"label"`
	Category  Category `json:"category"`
	StartTime string   `json:"start_time"`
	EndTime   string   `json:"end_time"`
	ProjectID *string  `json:"project_id,omitempty"`
}

// TimeTemplate is a named, reusable snapshot of a day's blocks.
type TimeTemplate struct {
	ID        string `gorm:"primaryKey;size:36"`
	UserID    uint   `gorm:"not null;index"`
	Name      string `gorm:"not null"`
	Blocks    datatypes.JSONSlice[TemplateBlock]
	CreatedAt time.Time `gorm:"index"`
}

func (t *TimeTemplate) BeforeCreate(tx *gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// TotalMinutes sums the durations of all blocks.
func (t TimeTemplate) TotalMinutes() int {
	total := 0
	for _, b := range t.Blocks {
		total += durationOf(b.StartTime, b.EndTime)
	}
	return total
}
