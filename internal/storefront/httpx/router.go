package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/jcmexdev/storefront-cart/internal/storefront/httpx/middlewares"
)

// NewRouter mounts the storefront routes. staticDir, when not empty, is
// served under /static/.
func NewRouter(handler *Handler, staticDir string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/", handler.Index)
	if staticDir != "" {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/catalog", handler.GetCatalog)
		r.Put("/catalog/category", handler.SelectCategory)

		r.Get("/cart", handler.GetCart)
		r.Delete("/cart", handler.ClearCart)
		r.Post("/cart/items", handler.AddItem)
		r.Put("/cart/items/{id}", handler.SetQuantity)
		r.Delete("/cart/items/{id}", handler.RemoveItem)

		r.Get("/form", handler.GetForm)
		r.Put("/form", handler.UpdateForm)
		r.Post("/checkout", handler.Checkout)
		r.Get("/orders/{id}", handler.GetOrder)

		r.Post("/view/toggle", handler.ToggleView)
		r.Post("/view/close", handler.CloseView)
		r.Post("/view/resize", handler.ResizeView)
		r.Get("/view/events", handler.ViewEvents)

		r.Get("/notices", handler.GetNotices)
	})

	return otelhttp.NewHandler(r, "storefront",
		otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
			return r.Method + " " + r.URL.Path
		}),
	)
}
