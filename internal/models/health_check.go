package models

import "time"

// HealthCheck результат однієї перевірки доступності upstream.
// Write-only observability: записується і не оновлюється.
type HealthCheck struct {
	ID     uint   `gorm:"primary_key" json:"-"`
	Source string `gorm:"index;size:50;not null" json:"source"`
	URL    string `gorm:"size:500" json:"url"`
	Status *int   `json:"status,omitempty"`
	OK     bool   `json:"ok"`
	Note   string `gorm:"size:300" json:"note,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (HealthCheck) TableName() string {
	return "source_health"
}
