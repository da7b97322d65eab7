package port

import (
	"context"

	"github.com/google/uuid"
	"github.com/nikolayk812/checkout/internal/domain"
)

// ArticleSource supplies current price and availability per product id,
// sourced fresh from whichever context owns that data. The aggregate never
// calls this itself; the orchestrator fetches and hands the result in.
type ArticleSource interface {
	FetchArticleData(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]domain.ArticleData, error)
}
