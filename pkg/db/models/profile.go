package models

import (
	"time"

	"github.com/google/uuid"
)

// Profile carries per-user shipping defaults used when a checkout request
// omits them.
type Profile struct {
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;primaryKey"`
	Address   string    `gorm:"column:address"`
	City      string    `gorm:"column:city"`
	Country   string    `gorm:"column:country"`
	Phone     string    `gorm:"column:phone"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
