package api

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter mounts the JSON API, the order form endpoints, the rendered
// pages and /metrics served from gatherer.
func NewRouter(h *Handler, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
		r.Get("/orderbook/{symbol}", h.GetOrderBook)
		r.Get("/trades/{symbol}", h.GetTrades)
		r.Get("/symbols", h.GetSymbols)
		r.Delete("/orders/{id}", h.CancelOrder)
	})

	r.Post("/place_order", h.PlaceOrder)
	r.Post("/view_orderbook", h.ViewOrderBook)
	r.Post("/reset_orderbook", h.ResetOrderBook)

	r.Get("/", h.Index)
	r.Get("/orderbook/{symbol}", h.OrderBookPage)
	r.Get("/trades/{symbol}", h.TradesPage)
	r.Get("/results", h.ResultsPage)
	r.Get("/view", h.View)
	r.Post("/view", h.View)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return r
}
