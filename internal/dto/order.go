package dto

import (
	"time"

	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/pkg/money"
)

type PurchaseRequestDTO struct {
	SKU string `json:"sku" example:"DISNEY_1M"`
}

// ReceiptResponseDTO is the only response that ever carries a delivered code.
type ReceiptResponseDTO struct {
	OrderID      string    `json:"order_id" example:"48213377120498716553"`
	SKU          string    `json:"sku" example:"DISNEY_1M"`
	ProductName  string    `json:"product_name" example:"Disney+ 1 month"`
	Code         string    `json:"code" example:"XXXX-YYYY-ZZZZ"`
	Price        int64     `json:"price" example:"30000"`
	BalanceAfter int64     `json:"balance_after" example:"20000"`
	Display      string    `json:"display" example:"$200.00 MXN"`
	DeliveredAt  time.Time `json:"delivered_at" example:"2024-05-01T12:00:00Z"`
}

type OrderResponseDTO struct {
	OrderID     string    `json:"order_id" example:"48213377120498716553"`
	SKU         string    `json:"sku" example:"DISNEY_1M"`
	Price       int64     `json:"price" example:"30000"`
	Display     string    `json:"display" example:"$300.00 MXN"`
	Status      string    `json:"status" example:"fulfilled"`
	DeliveredAt time.Time `json:"delivered_at" example:"2024-05-01T12:00:00Z"`
}

func NewReceipt(r *domain.Receipt, currency string) ReceiptResponseDTO {
	return ReceiptResponseDTO{
		OrderID:      r.Order.ID,
		SKU:          r.Order.SKU,
		ProductName:  r.ProductName,
		Code:         r.Code,
		Price:        r.Order.Price,
		BalanceAfter: r.BalanceAfter,
		Display:      money.Format(r.BalanceAfter, currency),
		DeliveredAt:  r.Order.DeliveredAt,
	}
}

func NewOrders(orders []domain.Order, currency string) []OrderResponseDTO {
	out := make([]OrderResponseDTO, len(orders))
	for i, o := range orders {
		out[i] = OrderResponseDTO{
			OrderID:     o.ID,
			SKU:         o.SKU,
			Price:       o.Price,
			Display:     money.Format(o.Price, currency),
			Status:      string(o.Status),
			DeliveredAt: o.DeliveredAt,
		}
	}
	return out
}
