package http

import (
	"net/http"

	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/e"
	"github.com/krolist-app/go-backend/pkg/logger"
)

type ProductHandler struct {
	catalogUsecase usecase.CatalogUC
	logger         logger.Logger
}

func NewProductHandler(catalogUsecase usecase.CatalogUC, logger logger.Logger) *ProductHandler {
	return &ProductHandler{catalogUsecase: catalogUsecase, logger: logger}
}

// registerProduct добавляет товар в одну или несколько коллекций.
// Принимает multipart/form-data: текстовые поля плюс необязательное
// изображение в поле image.
func (p *ProductHandler) registerProduct(w http.ResponseWriter, r *http.Request) {
	const (
		maxTotalRequestSize = 20 << 20
		maxMemory           = 16 << 20
	)

	r.Body = http.MaxBytesReader(w, r.Body, maxTotalRequestSize)

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	prMeta, err := parseProductForm(r)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	req := &usecase.RegisterProductReq{
		Title:       prMeta.Title,
		Store:       prMeta.Store,
		Collections: prMeta.Collections,
		Price:       prMeta.Price,
		Currency:    prMeta.Currency,
		ProductURL:  prMeta.ProductURL,
	}

	if files := r.MultipartForm.File["image"]; len(files) > 0 {
		image, err := parseImage(files[0])
		if err != nil {
			p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
			WriteError(w, err)
			return
		}
		req.Image = image
	}

	res, err := p.catalogUsecase.RegisterProduct(r.Context(), req)
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"products":  res.Products,
		"image_url": res.ImageURL,
	})
}

// listProducts возвращает все строки каталога.
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.catalogUsecase.ListProducts(r.Context())
	if err != nil {
		p.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"products": products,
		"count":    len(products),
	})
}
