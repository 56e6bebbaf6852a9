package usecase

import (
	"context"
	"net/http"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const maxQuoteLines = 100

// QuoteUsecase はカートを作らずに、商品×数量の一覧をまとめて検証・計算する。
type QuoteUsecase struct {
	productRepo repo.ProductRepository
	log         *zap.Logger
}

func NewQuoteUsecase(productRepo repo.ProductRepository, log *zap.Logger) *QuoteUsecase {
	return &QuoteUsecase{productRepo: productRepo, log: log}
}

type QuoteLineInput struct {
	ProductID int64
	Quantity  int64
}

type QuoteInput struct {
	Currency string
	StoreID  model.StoreID
	Lines    []QuoteLineInput
}

type QuoteLine struct {
	ProductID int64         `json:"product_id"`
	Quantity  int64         `json:"quantity"`
	Totals    *model.Totals `json:"totals,omitempty"`
	Error     string        `json:"error,omitempty"`
}

type QuoteOutput struct {
	Currency string          `json:"currency"`
	StoreID  *int64          `json:"store_id"`
	Valid    bool            `json:"valid"`
	Lines    []QuoteLine     `json:"lines"`
	Subtotal decimal.Decimal `json:"subtotal"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Quote は在庫→価格の順に各行を検証する。
// 同じ商品が複数行にある場合、在庫は合計数量で見る。
func (u *QuoteUsecase) Quote(ctx context.Context, in QuoteInput) (QuoteOutput, error) {
	currency := model.NormalizeCurrency(in.Currency)
	if !model.IsValidCurrency(currency) {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid currency")
	}
	if len(in.Lines) == 0 {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "lines required")
	}
	if len(in.Lines) > maxQuoteLines {
		return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "too many lines")
	}

	ids := make([]int64, 0, len(in.Lines))
	requested := make(map[int64]int64, len(in.Lines))
	for _, l := range in.Lines {
		if l.ProductID <= 0 {
			return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
		}
		if l.Quantity < 1 {
			return QuoteOutput{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
		}
		if _, seen := requested[l.ProductID]; !seen {
			ids = append(ids, l.ProductID)
		}
		requested[l.ProductID] += l.Quantity
	}

	products, err := u.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return QuoteOutput{}, dbError(u.log, "product.find_by_ids", err)
	}

	out := QuoteOutput{
		Currency: currency,
		StoreID:  in.StoreID.Ptr(),
		Valid:    true,
		Lines:    make([]QuoteLine, 0, len(in.Lines)),
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, l := range in.Lines {
		line := QuoteLine{ProductID: l.ProductID, Quantity: l.Quantity}

		t, err := quoteLine(products, l, requested[l.ProductID], currency, in.StoreID)
		if err != nil {
			out.Valid = false
			line.Error = issueCode(err)
			out.Lines = append(out.Lines, line)
			continue
		}

		line.Totals = &t
		out.Lines = append(out.Lines, line)
		out.Subtotal = out.Subtotal.Add(t.Subtotal)
		out.Discount = out.Discount.Add(t.Discount)
		out.Total = out.Total.Add(t.Total)
	}

	return out, nil
}

func quoteLine(products map[int64]model.Product, l QuoteLineInput, totalQty int64, currency string, store model.StoreID) (model.Totals, error) {
	p, ok := products[l.ProductID]
	if !ok || !p.IsActive {
		return model.Totals{}, model.ErrInvalidProduct
	}

	if err := model.ValidateStock(p, totalQty, store); err != nil {
		return model.Totals{}, err
	}
	if err := model.ValidatePricing(p, currency, store); err != nil {
		return model.Totals{}, err
	}

	price, _ := model.FindPrice(p, currency, store)
	return price.CalculateTotals(l.Quantity, p.Deals), nil
}
