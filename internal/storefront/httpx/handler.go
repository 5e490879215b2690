package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/jcmexdev/storefront-cart/internal/cart"
	"github.com/jcmexdev/storefront-cart/internal/catalog"
	"github.com/jcmexdev/storefront-cart/internal/checkout"
	"github.com/jcmexdev/storefront-cart/internal/checkout/orderlog"
	"github.com/jcmexdev/storefront-cart/internal/order"
	"github.com/jcmexdev/storefront-cart/internal/pkg/money"
	"github.com/jcmexdev/storefront-cart/internal/storefront/templates"
	"github.com/jcmexdev/storefront-cart/internal/view"
)

// Handler exposes the storefront page and the JSON API the page script binds to.
type Handler struct {
	storeName string
	catalog   *catalog.Catalog
	filter    *catalog.Filter
	cart      *cart.Manager
	checkout  *checkout.Orchestrator
	presenter *view.Presenter
	notices   *view.Notices
	orders    orderlog.Repository // nil-safe: order lookups return 404 if nil
}

func NewHandler(
	storeName string,
	c *catalog.Catalog,
	f *catalog.Filter,
	m *cart.Manager,
	o *checkout.Orchestrator,
	p *view.Presenter,
	n *view.Notices,
	orders orderlog.Repository,
) *Handler {
	return &Handler{
		storeName: storeName,
		catalog:   c,
		filter:    f,
		cart:      m,
		checkout:  o,
		presenter: p,
		notices:   n,
		orders:    orders,
	}
}

// Index renders the storefront page.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	page := templates.Page{
		StoreName: h.storeName,
		Buttons:   h.filter.Buttons(),
		View:      h.presenter.View(),
	}
	for _, v := range h.filter.Apply(h.catalog.Products()) {
		card, err := templates.NewCard(v.Product, v.Visible)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "render_error", err.Error())
			return
		}
		page.Products = append(page.Products, card)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := templates.Render(w, page); err != nil {
		slog.ErrorContext(r.Context(), "failed to render storefront", "error", err)
	}
}

// GetCatalog lists every product with its visibility under the active category.
func (h *Handler) GetCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.catalogResponse())
}

// SelectCategory makes the requested category the only active filter button.
func (h *Handler) SelectCategory(w http.ResponseWriter, r *http.Request) {
	var req SelectCategoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if err := h.filter.Select(req.Category); err != nil {
		writeError(w, http.StatusBadRequest, "unknown_category", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.catalogResponse())
}

func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presenter.View())
}

func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	var req AddItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.ProductID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	p, err := h.catalog.Lookup(req.ProductID)
	if err != nil {
		writeError(w, http.StatusNotFound, "product_not_found", err.Error())
		return
	}
	if err := h.cart.AddItem(r.Context(), p); err != nil {
		h.storeFailed(w, r, err)
		return
	}
	h.notices.Added(p.ID)

	slog.InfoContext(r.Context(), "product added to cart", "product_id", p.ID, "items", h.cart.ItemCount())
	writeJSON(w, http.StatusOK, h.presenter.View())
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (h *Handler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	id := catalog.ProductID(chi.URLParam(r, "id"))

	var req SetQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	if req.Quantity == nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "quantity is required")
		return
	}

	if err := h.cart.SetQuantity(r.Context(), id, *req.Quantity); err != nil {
		h.storeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.presenter.View())
}

func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	id := catalog.ProductID(chi.URLParam(r, "id"))
	if err := h.cart.RemoveItem(r.Context(), id); err != nil {
		h.storeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.presenter.View())
}

func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	if err := h.cart.Clear(r.Context()); err != nil {
		h.storeFailed(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h.presenter.View())
}

// UpdateForm replaces the draft delivery form and reports its validity.
func (h *Handler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	var f order.Form
	if err := json.NewDecoder(r.Body).Decode(&f); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	validity := h.checkout.UpdateForm(f)
	writeJSON(w, http.StatusOK, FormResponse{
		Form:     h.checkout.Form(),
		Validity: validity,
		View:     h.presenter.View(),
	})
}

func (h *Handler) GetForm(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, FormResponse{
		Form:     h.checkout.Form(),
		Validity: h.checkout.Validity(),
		View:     h.presenter.View(),
	})
}

// Checkout submits the order. The page opens handoff_url in a new tab.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	res, err := h.checkout.Checkout(r.Context())
	switch {
	case errors.Is(err, checkout.ErrRejected):
		writeJSON(w, http.StatusUnprocessableEntity, ErrorResponse{
			Error:   "order_rejected",
			Message: checkout.RejectedMessage,
			Reason:  res.Validity.Reason,
		})
		return
	case errors.Is(err, checkout.ErrHandoff):
		writeError(w, http.StatusBadGateway, "handoff_failed", err.Error())
		return
	case err != nil:
		writeError(w, http.StatusInternalServerError, "checkout_failed", err.Error())
		return
	}

	resp := CheckoutResponse{
		OrderID:    res.OrderID,
		State:      res.State,
		HandoffURL: res.HandoffURL,
		Message:    res.Message,
	}
	if n, ok := h.notices.Confirmation(); ok {
		resp.Notice = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetOrder returns the latest order log entry for an order id.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")
	if h.orders == nil {
		writeError(w, http.StatusNotFound, "order_not_found", "order log is disabled")
		return
	}

	entry, err := h.orders.GetLatest(r.Context(), orderID)
	if errors.Is(err, orderlog.ErrNotFound) {
		writeError(w, http.StatusNotFound, "order_not_found", err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, "order_log_error", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, mapEntryToResponse(entry))
}

func (h *Handler) ToggleView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presenter.Toggle())
}

// CloseView handles the overlay click and the Escape key.
func (h *Handler) CloseView(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.presenter.Close())
}

// ResizeView schedules a redraw; bursts of resize events collapse into one.
func (h *Handler) ResizeView(w http.ResponseWriter, r *http.Request) {
	h.presenter.Refresh()
	w.WriteHeader(http.StatusAccepted)
}

// ViewEvents streams every rendered view as server-sent events until the
// client goes away or CloseStreams is called.
func (h *Handler) ViewEvents(w http.ResponseWriter, r *http.Request) {
	rc := http.NewResponseController(w)

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	views, cancel := h.presenter.Subscribe()
	defer cancel()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case v, ok := <-views:
			if !ok {
				return
			}
			b, err := json.Marshal(v)
			if err != nil {
				slog.ErrorContext(ctx, "failed to encode view", "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: view\ndata: %s\n\n", b); err != nil {
				return
			}
			if err := rc.Flush(); err != nil {
				slog.WarnContext(ctx, "view stream cannot flush", "error", err)
				return
			}
		}
	}
}

// CloseStreams ends every open view stream. Register it with
// http.Server.RegisterOnShutdown so Shutdown does not wait on them.
func (h *Handler) CloseStreams() {
	h.presenter.CloseSubscribers()
}

func (h *Handler) GetNotices(w http.ResponseWriter, r *http.Request) {
	resp := NoticesResponse{RecentlyAdded: h.notices.RecentlyAdded()}
	if n, ok := h.notices.Confirmation(); ok {
		resp.Confirmation = &n
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) catalogResponse() CatalogResponse {
	added := make(map[catalog.ProductID]bool)
	for _, id := range h.notices.RecentlyAdded() {
		added[id] = true
	}

	resp := CatalogResponse{
		Category: h.filter.Active(),
		Buttons:  h.filter.Buttons(),
	}
	for _, v := range h.filter.Apply(h.catalog.Products()) {
		resp.Products = append(resp.Products, ProductResponse{
			ID:            v.Product.ID,
			Name:          v.Product.Name,
			Description:   v.Product.Description,
			Image:         v.Product.Image,
			Price:         v.Product.Price.StringFixed(2),
			PriceLabel:    money.BRL(v.Product.Price),
			Category:      v.Product.Category,
			Visible:       v.Visible,
			RecentlyAdded: added[v.Product.ID],
		})
	}
	return resp
}

// storeFailed reports a cart change the key-value store refused. The
// in-memory cart already reflects the change.
func (h *Handler) storeFailed(w http.ResponseWriter, r *http.Request, err error) {
	slog.ErrorContext(r.Context(), "cart store failed", "error", err)
	writeError(w, http.StatusInternalServerError, "cart_store_error", err.Error())
}

func mapEntryToResponse(e *orderlog.Entry) OrderLogResponse {
	errs := []string{}
	if e.ErrorMessages != "" {
		_ = json.Unmarshal([]byte(e.ErrorMessages), &errs)
	}
	return OrderLogResponse{
		OrderID:   e.OrderID,
		Status:    string(e.Status),
		Step:      e.Step,
		Payload:   e.Payload,
		Errors:    errs,
		TraceID:   e.TraceID,
		SpanID:    e.SpanID,
		UpdatedAt: e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
