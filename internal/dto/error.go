package dto

// ErrorResponseDTO extends utils.Response with the details a rejected purchase needs.
type ErrorResponseDTO struct {
	Message   string `json:"message" example:"insufficient balance: short by 10000"`
	Shortfall int64  `json:"shortfall,omitempty" example:"10000"`
	Display   string `json:"display,omitempty" example:"$100.00 MXN"`
	OrderID   string `json:"order_id,omitempty" example:"48213377120498716553"`
}
