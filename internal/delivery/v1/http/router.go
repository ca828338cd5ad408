package http

import (
	"github.com/go-chi/chi/v5"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catalogUC usecase.CatalogUC, priceUC usecase.PriceUC, refreshUC usecase.RefreshUC) {
	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(catalogUC, r.logger)
		registerProductRoutes(v1, prHandler)

		priceHandler := NewPriceHandler(priceUC, r.logger)
		registerPriceRoutes(v1, priceHandler)

		refreshHandler := NewRefreshHandler(refreshUC, r.logger)
		registerRefreshRoutes(v1, refreshHandler)
	})
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Post("/", prHandler.registerProduct)
		pr.Get("/", prHandler.listProducts)
	})
}

func registerPriceRoutes(router chi.Router, priceHandler *PriceHandler) {
	router.Route("/prices", func(pr chi.Router) {
		pr.Post("/bulk-update", priceHandler.bulkUpdatePrices)
		pr.Get("/export", priceHandler.exportPriceList)
		pr.Post("/import", priceHandler.importPriceList)
		pr.Get("/runs/{id}", priceHandler.runProgress)
	})
}

func registerRefreshRoutes(router chi.Router, refreshHandler *RefreshHandler) {
	router.Route("/refresh", func(rf chi.Router) {
		rf.Post("/", refreshHandler.refreshAll)
		rf.Get("/status", refreshHandler.gateStatus)
	})
}
