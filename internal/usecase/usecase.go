package usecase

import (
	"context"
	"io"
	"time"
)

type PriceUC interface {
	BulkUpdatePrices(ctx context.Context, req *BulkUpdateReq) (*BulkUpdateRes, error)
	ExportPriceList(ctx context.Context) ([]byte, error)
	ImportPriceList(ctx context.Context, r io.Reader) (*ImportRes, error)
	RunProgress(ctx context.Context, runID string) (*RunProgress, error)
}

type RefreshUC interface {
	RefreshAll(ctx context.Context) (*RefreshRes, error)
	GateStatus(ctx context.Context, now time.Time) (*GateStatusRes, error)
}

type CatalogUC interface {
	RegisterProduct(ctx context.Context, req *RegisterProductReq) (*RegisterProductRes, error)
	ListProducts(ctx context.Context) ([]ProductInfo, error)
}
