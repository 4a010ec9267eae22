package dto

import (
	"github.com/GlebRadaev/codeshop/internal/domain"
	"github.com/GlebRadaev/codeshop/pkg/money"
)

type ProductResponseDTO struct {
	SKU     string `json:"sku" example:"DISNEY_1M"`
	Name    string `json:"name" example:"Disney+ 1 month"`
	Price   int64  `json:"price" example:"30000"`
	Display string `json:"display" example:"$300.00 MXN"`
	Active  bool   `json:"active" example:"true"`
}

type CreateProductRequestDTO struct {
	SKU    string `json:"sku" example:"DISNEY_1M"`
	Name   string `json:"name" example:"Disney+ 1 month"`
	Price  string `json:"price" example:"300"`
	Active bool   `json:"active" example:"false"`
}

type SetPriceRequestDTO struct {
	Price string `json:"price" example:"349.90"`
}

type SetNameRequestDTO struct {
	Name string `json:"name" example:"Disney+ 1 month"`
}

type SetActiveRequestDTO struct {
	Active bool `json:"active" example:"true"`
}

type StockResponseDTO struct {
	SKU       string `json:"sku" example:"DISNEY_1M"`
	Available int64  `json:"available" example:"42"`
}

type LoadResultResponseDTO struct {
	SKU              string `json:"sku" example:"DISNEY_1M"`
	Loaded           int64  `json:"loaded" example:"40"`
	SkippedBlank     int    `json:"skipped_blank" example:"1"`
	SkippedDuplicate int    `json:"skipped_duplicate" example:"2"`
	CreatedProduct   bool   `json:"created_product" example:"false"`
}

func NewProducts(entries []domain.CatalogEntry, currency string) []ProductResponseDTO {
	out := make([]ProductResponseDTO, len(entries))
	for i, e := range entries {
		out[i] = NewProduct(&e, currency)
	}
	return out
}

func NewProduct(e *domain.CatalogEntry, currency string) ProductResponseDTO {
	return ProductResponseDTO{
		SKU:     e.SKU,
		Name:    e.Name,
		Price:   e.Price,
		Display: money.Format(e.Price, currency),
		Active:  e.Active,
	}
}

func NewStock(stock []domain.Stock) []StockResponseDTO {
	out := make([]StockResponseDTO, len(stock))
	for i, s := range stock {
		out[i] = StockResponseDTO{SKU: s.SKU, Available: s.Available}
	}
	return out
}

func NewLoadResult(r *domain.LoadResult) LoadResultResponseDTO {
	return LoadResultResponseDTO{
		SKU:              r.SKU,
		Loaded:           r.Loaded,
		SkippedBlank:     r.SkippedBlank,
		SkippedDuplicate: r.SkippedDuplicate,
		CreatedProduct:   r.CreatedProduct,
	}
}
