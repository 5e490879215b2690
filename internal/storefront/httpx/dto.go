package httpx

import (
	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/checkout"
	"github.com/jcmexdev/storefront-cart/internal/order"
	"github.com/jcmexdev/storefront-cart/internal/view"
)

type SelectCategoryRequest struct {
	Category string `json:"category"`
}

type AddItemRequest struct {
	ProductID catalog.ProductID `json:"product_id"`
}

type SetQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type ProductResponse struct {
	ID            catalog.ProductID `json:"id"`
	Name          string            `json:"name"`
	Description   string            `json:"description,omitempty"`
	Image         string            `json:"image,omitempty"`
	Price         string            `json:"price"`
	PriceLabel    string            `json:"price_label"`
	Category      string            `json:"category"`
	Visible       bool              `json:"visible"`
	RecentlyAdded bool              `json:"recently_added"`
}

type CatalogResponse struct {
	Category string            `json:"category"`
	Buttons  []catalog.Button  `json:"buttons"`
	Products []ProductResponse `json:"products"`
}

type FormResponse struct {
	Form     order.Form     `json:"form"`
	Validity order.Validity `json:"validity"`
	View     view.View      `json:"view"`
}

type CheckoutResponse struct {
	OrderID    string         `json:"order_id"`
	State      checkout.State `json:"state"`
	HandoffURL string         `json:"handoff_url"`
	Message    string         `json:"message"`
	Notice     *view.Notice   `json:"notice,omitempty"`
}

type OrderLogResponse struct {
	OrderID   string   `json:"order_id"`
	Status    string   `json:"status"`
	Step      string   `json:"step"`
	Payload   string   `json:"payload,omitempty"`
	Errors    []string `json:"errors"`
	TraceID   string   `json:"trace_id,omitempty"`
	SpanID    string   `json:"span_id,omitempty"`
	UpdatedAt string   `json:"updated_at"`
}

type NoticesResponse struct {
	Confirmation  *view.Notice        `json:"confirmation,omitempty"`
	RecentlyAdded []catalog.ProductID `json:"recently_added"`
}

type ErrorResponse struct {
	Error   string       `json:"error"`
	Message string       `json:"message,omitempty"`
	Reason  order.Reason `json:"reason,omitempty"`
}
