package domain

import "github.com/google/uuid"

// ArticleData is the current, authoritative price and availability of one
// product, fetched fresh at confirmation time.
type ArticleData struct {
	ProductID      uuid.UUID `json:"product_id"`
	UnitPrice      Money     `json:"unit_price"`
	AvailableStock int64     `json:"available_stock"`
	Available      bool      `json:"available"`
}

type ProblemKind string

const (
	ProblemUnavailable       ProblemKind = "unavailable"
	ProblemInsufficientStock ProblemKind = "insufficient_stock"
	ProblemUnknownArticle    ProblemKind = "unknown_article"
	ProblemPriceChanged      ProblemKind = "price_changed"
)

type ItemProblem struct {
	Kind      ProblemKind `json:"kind"`
	ProductID uuid.UUID   `json:"product_id"`
	Requested int64       `json:"requested,omitempty"`
	Available int64       `json:"available,omitempty"`
}

// PriceChange records captured vs current unit price for one product. Any
// drift is surfaced, none is silently accepted.
type PriceChange struct {
	ProductID uuid.UUID `json:"product_id"`
	Captured  Money     `json:"captured"`
	Current   Money     `json:"current"`
}

// Verdict is the full list of per-item findings from comparing captured line
// items against resolver data, not a single boolean.
type Verdict struct {
	Problems     []ItemProblem `json:"problems,omitempty"`
	PriceChanges []PriceChange `json:"price_changes,omitempty"`
}

func (v Verdict) Blocking() bool {
	return len(v.Problems) > 0
}

// ReconcilePolicy controls whether a pure price change blocks confirmation.
// Default is report-only; stock and availability problems always block.
type ReconcilePolicy struct {
	BlockOnPriceChange bool
}

// Reconcile compares every line item against the supplied article data.
// A product missing from the lookup is treated as unavailable.
func Reconcile(items []LineItem, articles map[uuid.UUID]ArticleData, policy ReconcilePolicy) Verdict {
	var v Verdict

	for _, item := range items {
		article, ok := articles[item.ProductID]
		if !ok {
			v.Problems = append(v.Problems, ItemProblem{
				Kind:      ProblemUnknownArticle,
				ProductID: item.ProductID,
				Requested: item.Quantity,
			})
			continue
		}

		if !article.Available {
			v.Problems = append(v.Problems, ItemProblem{
				Kind:      ProblemUnavailable,
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: article.AvailableStock,
			})
			continue
		}

		if item.Quantity > article.AvailableStock {
			v.Problems = append(v.Problems, ItemProblem{
				Kind:      ProblemInsufficientStock,
				ProductID: item.ProductID,
				Requested: item.Quantity,
				Available: article.AvailableStock,
			})
		}

		if !item.UnitPrice.Equal(article.UnitPrice) {
			v.PriceChanges = append(v.PriceChanges, PriceChange{
				ProductID: item.ProductID,
				Captured:  item.UnitPrice,
				Current:   article.UnitPrice,
			})

			if policy.BlockOnPriceChange {
				v.Problems = append(v.Problems, ItemProblem{
					Kind:      ProblemPriceChanged,
					ProductID: item.ProductID,
				})
			}
		}
	}

	return v
}
