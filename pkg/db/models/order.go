package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/primestore/primestore-backend/pkg/enums"
)

// Order is an immutable purchase snapshot. The total and the item prices are
// computed once at checkout and never recomputed; payment confirmation is the
// only transition this service applies (pending -> paid).
type Order struct {
	ID              uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID          uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Reference       string            `gorm:"column:reference;not null;uniqueIndex"`
	TotalAmount     decimal.Decimal   `gorm:"column:total_amount;type:numeric(12,2);not null"`
	Status          enums.OrderStatus `gorm:"column:status;not null;default:'pending'"`
	ShippingAddress string            `gorm:"column:shipping_address"`
	ShippingCity    string            `gorm:"column:shipping_city"`
	ShippingCountry string            `gorm:"column:shipping_country"`
	Phone           string            `gorm:"column:phone"`
	Items           []OrderItem       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
