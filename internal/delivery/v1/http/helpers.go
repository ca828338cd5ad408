package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/jimlawless/whereami"
	"github.com/krolist-app/go-backend/internal/usecase"
	"github.com/krolist-app/go-backend/pkg/e"
)

type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// ProductMetadata — разобранные поля multipart-формы добавления товара.
type ProductMetadata struct {
	Title       string
	Store       string
	Collections []string
	Price       int64
	Currency    string
	ProductURL  string
}

func NewErrorResponse(code int, message string) *ErrorResponse {
	return &ErrorResponse{
		Code:    code,
		Message: message,
	}
}

func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, e.ErrStatusBadRequest.Error()
	case errors.Is(err, e.ErrExpectedMultipart):
		return http.StatusBadRequest, e.ErrExpectedMultipart.Error()
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrPriceMustBePositive):
		return http.StatusBadRequest, e.ErrPriceMustBePositive.Error()
	case errors.Is(err, e.ErrProductTitleRequired):
		return http.StatusBadRequest, e.ErrProductTitleRequired.Error()
	case errors.Is(err, e.ErrCollectionRequired):
		return http.StatusBadRequest, e.ErrCollectionRequired.Error()
	case errors.Is(err, e.ErrUnknownStatus):
		return http.StatusBadRequest, e.ErrUnknownStatus.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrFileTooLarge):
		return http.StatusBadRequest, e.ErrFileTooLarge.Error()
	case errors.Is(err, e.ErrRunNotFound):
		return http.StatusNotFound, e.ErrRunNotFound.Error()
	case errors.Is(err, e.ErrRunInFlight):
		return http.StatusConflict, e.ErrRunInFlight.Error()
	case errors.Is(err, e.ErrRefreshLimitReached):
		return http.StatusTooManyRequests, e.ErrRefreshLimitReached.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(NewErrorResponse(code, msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func ensureMultipartForm(r *http.Request, maxMemory int64) error {
	if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		return e.Wrap(whereami.WhereAmI(), e.ErrExpectedMultipart)
	}
	return r.ParseMultipartForm(maxMemory)
}

func parseProductForm(r *http.Request) (*ProductMetadata, error) {
	title := r.FormValue("title")
	store := r.FormValue("store")
	collectionsStr := r.FormValue("collections")
	priceStr := r.FormValue("price")
	currency := r.FormValue("currency")

	if title == "" || collectionsStr == "" || priceStr == "" || currency == "" {
		return nil, e.Wrap(fmt.Sprintf("title: %s, collections: %s, price: %s, currency: %s", title, collectionsStr, priceStr, currency), e.ErrMissingFields)
	}

	priceCents, err := usecase.ParsePriceCents(priceStr)
	if err != nil {
		return nil, err
	}

	collections := make([]string, 0)
	for _, collection := range strings.Split(collectionsStr, ",") {
		if collection = strings.TrimSpace(collection); collection != "" {
			collections = append(collections, collection)
		}
	}

	return &ProductMetadata{
		Title:       title,
		Store:       store,
		Collections: collections,
		Price:       priceCents,
		Currency:    currency,
		ProductURL:  r.FormValue("product_url"),
	}, nil
}

func parseImage(fh *multipart.FileHeader) (*usecase.ProductImage, error) {
	const maxFileSize = 15 << 20

	data, mimeType, err := readFile(fh, maxFileSize)
	if err != nil {
		return nil, err
	}

	return usecase.NewProductImage(data, mimeType, int64(len(data)), fh.Filename), nil
}

func readFile(fh *multipart.FileHeader, maxSize int64) ([]byte, string, error) {
	src, err := fh.Open()
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return nil, "", e.ErrInternalServerError
	}
	if int64(len(data)) > maxSize {
		return nil, "", e.Wrap(fh.Filename, e.ErrFileTooLarge)
	}

	mimeType := http.DetectContentType(data[:min(len(data), 512)])
	return data, mimeType, nil
}
