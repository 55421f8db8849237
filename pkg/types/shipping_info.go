package types

// ShippingInfo is the delivery destination snapshot stored on an order.
// Persisted as jsonb via the gorm json serializer.
type ShippingInfo struct {
	Name    string `json:"name" validate:"required"`
	Address string `json:"address" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,len=6,numeric"`
	Phone   string `json:"phone" validate:"required,min=10,max=15"`
}
