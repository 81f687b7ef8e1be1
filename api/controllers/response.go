package controllers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/primestore/primestore-backend/pkg/db/models"
)

// OrderItemView is the public rendering of a frozen order line.
type OrderItemView struct {
	ProductID uuid.UUID       `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// OrderView is the public rendering of an order.
type OrderView struct {
	ID              uuid.UUID       `json:"id"`
	Reference       string          `json:"reference"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          string          `json:"status"`
	ShippingAddress string          `json:"shipping_address"`
	ShippingCity    string          `json:"shipping_city"`
	ShippingCountry string          `json:"shipping_country"`
	Phone           string          `json:"phone"`
	Items           []OrderItemView `json:"items"`
	CreatedAt       time.Time       `json:"created_at"`
}

func newOrderView(order *models.Order) OrderView {
	items := make([]OrderItemView, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, OrderItemView{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
			LineTotal: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return OrderView{
		ID:              order.ID,
		Reference:       order.Reference,
		TotalAmount:     order.TotalAmount,
		Status:          order.Status.String(),
		ShippingAddress: order.ShippingAddress,
		ShippingCity:    order.ShippingCity,
		ShippingCountry: order.ShippingCountry,
		Phone:           order.Phone,
		Items:           items,
		CreatedAt:       order.CreatedAt,
	}
}
