package usecase

import (
	"context"
	"errors"
	"net/http"

	"cartline/internal/domain/model"
	repo "cartline/internal/repository"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CartUsecase は /cart の業務ロジックです。
// 価格・在庫の判定はmodel側（CartItem / ValidateStock / ValidatePricing）に任せる。
type CartUsecase struct {
	cartRepo        repo.CartRepository
	cartItemRepo    repo.CartItemRepository
	productRepo     repo.ProductRepository
	txm             repo.TransactionManager
	defaultCurrency string
	log             *zap.Logger
}

func NewCartUsecase(
	cartRepo repo.CartRepository,
	cartItemRepo repo.CartItemRepository,
	productRepo repo.ProductRepository,
	txm repo.TransactionManager,
	defaultCurrency string,
	log *zap.Logger,
) *CartUsecase {
	return &CartUsecase{
		cartRepo:        cartRepo,
		cartItemRepo:    cartItemRepo,
		productRepo:     productRepo,
		txm:             txm,
		defaultCurrency: model.NormalizeCurrency(defaultCurrency),
		log:             log,
	}
}

// CartItemResponse は明細1行。価格が出せない行はErrorに理由が入る。
type CartItemResponse struct {
	ID        int64                  `json:"id"`
	ProductID int64                  `json:"product_id"`
	Name      string                 `json:"name"`
	Quantity  int64                  `json:"quantity"`
	Meta      map[string]interface{} `json:"meta,omitempty"`
	Totals    *model.Totals          `json:"totals,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

type CartResponse struct {
	ID       int64              `json:"id"`
	Currency string             `json:"currency"`
	StoreID  *int64             `json:"store_id"`
	Items    []CartItemResponse `json:"items"`
	Subtotal decimal.Decimal    `json:"subtotal"`
	Discount decimal.Decimal    `json:"discount"`
	Total    decimal.Decimal    `json:"total"`
}

type AddCartInput struct {
	ProductID int64
	Quantity  int64
	Meta      map[string]interface{}
}

type UpdateCartItemInput struct {
	Quantity int64
}

type CartContextInput struct {
	Currency string
	StoreID  model.StoreID
}

type ValidationIssue struct {
	CartItemID int64  `json:"cart_item_id"`
	ProductID  int64  `json:"product_id"`
	Code       string `json:"code"`
}

type CartValidationResult struct {
	Valid  bool              `json:"valid"`
	Issues []ValidationIssue `json:"issues"`
}

type CheckoutResult struct {
	CartID   int64              `json:"cart_id"`
	Status   model.CartStatus   `json:"status"`
	Currency string             `json:"currency"`
	StoreID  *int64             `json:"store_id"`
	Items    []CartItemResponse `json:"items"`
	Total    decimal.Decimal    `json:"total"`
}

// GetCart はカート取得（無ければACTIVEを作って空を返す）。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID, u.defaultCurrency, model.NoStore())
	if err != nil {
		return CartResponse{}, dbError(u.log, "cart.get_or_create", err)
	}

	return u.buildCartResponse(ctx, cart)
}

// AddToCart はカートに追加（同一商品は数量加算）。
// 追加後の数量で在庫を見て、カートの通貨・店舗に価格があることも確認する。
func (u *CartUsecase) AddToCart(ctx context.Context, userID int64, in AddCartInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if in.ProductID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid product_id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID, u.defaultCurrency, model.NoStore())
	if err != nil {
		return CartResponse{}, dbError(u.log, "cart.get_or_create", err)
	}

	p, err := loadProduct(ctx, u.productRepo, in.ProductID)
	if err != nil {
		return CartResponse{}, dbError(u.log, "product.get", err)
	}
	if p == nil {
		return CartResponse{}, mapDomainError(model.ErrInvalidProduct)
	}

	items, err := u.cartItemRepo.ListByCartID(ctx, cart.ID)
	if err != nil {
		return CartResponse{}, dbError(u.log, "cart_items.list", err)
	}

	var existingQty int64
	for _, it := range items {
		if it.ProductID == in.ProductID {
			existingQty = it.Quantity
			break
		}
	}

	if err := model.ValidateStock(*p, existingQty+in.Quantity, cart.StoreID); err != nil {
		return CartResponse{}, mapDomainError(err)
	}
	if err := model.ValidatePricing(*p, cart.Currency, cart.StoreID); err != nil {
		return CartResponse{}, mapDomainError(err)
	}

	if err := u.cartItemRepo.UpsertByCartAndProduct(ctx, cart.ID, in.ProductID, in.Quantity, in.Meta); err != nil {
		return CartResponse{}, dbError(u.log, "cart_items.upsert", err)
	}

	return u.buildCartResponse(ctx, cart)
}

// 数量変更（所有チェック＋在庫チェック）。
func (u *CartUsecase) UpdateCartItem(ctx context.Context, userID int64, cartItemID int64, in UpdateCartItemInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if in.Quantity < 1 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid quantity")
	}

	item, err := u.findOwnedItem(ctx, userID, cartItemID)
	if err != nil {
		return CartResponse{}, err
	}

	p, err := loadProduct(ctx, u.productRepo, item.ProductID)
	if err != nil {
		return CartResponse{}, dbError(u.log, "product.get", err)
	}
	item.Product = p
	item.Quantity = in.Quantity

	store := model.NoStore()
	if item.Cart != nil {
		store = item.Cart.StoreID
	}
	if item.Product == nil {
		return CartResponse{}, mapDomainError(model.ErrInvalidProduct)
	}
	if err := model.ValidateStock(*item.Product, item.Quantity, store); err != nil {
		return CartResponse{}, mapDomainError(err)
	}

	if err := u.cartItemRepo.UpdateQuantity(ctx, cartItemID, in.Quantity); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, dbError(u.log, "cart_items.update_quantity", err)
	}

	return u.activeCartResponse(ctx, userID)
}

// 明細削除
func (u *CartUsecase) DeleteCartItem(ctx context.Context, userID int64, cartItemID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if cartItemID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	if _, err := u.findOwnedItem(ctx, userID, cartItemID); err != nil {
		return CartResponse{}, err
	}

	if err := u.cartItemRepo.DeleteByID(ctx, cartItemID); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return CartResponse{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return CartResponse{}, dbError(u.log, "cart_items.delete", err)
	}

	return u.activeCartResponse(ctx, userID)
}

// ClearCart はACTIVEカートの明細を全部消す
func (u *CartUsecase) ClearCart(ctx context.Context, userID int64) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, dbError(u.log, "cart.find_active", err)
	}

	if err := u.cartRepo.Clear(ctx, cart.ID); err != nil {
		return CartResponse{}, dbError(u.log, "cart.clear", err)
	}

	return u.buildCartResponse(ctx, cart)
}

// 通貨・店舗の切り替え。価格は次の取得時に新しい条件で計算される。
func (u *CartUsecase) SetCartContext(ctx context.Context, userID int64, in CartContextInput) (CartResponse, error) {
	if userID <= 0 {
		return CartResponse{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	currency := model.NormalizeCurrency(in.Currency)
	if !model.IsValidCurrency(currency) {
		return CartResponse{}, NewHTTPError(http.StatusBadRequest, "invalid currency")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID, currency, in.StoreID)
	if err != nil {
		return CartResponse{}, dbError(u.log, "cart.get_or_create", err)
	}

	if cart.Currency != currency || !cart.StoreID.Equal(in.StoreID) {
		if err := u.cartRepo.UpdateContext(ctx, cart.ID, currency, in.StoreID); err != nil {
			return CartResponse{}, dbError(u.log, "cart.update_context", err)
		}
		cart.Currency = currency
		cart.StoreID = in.StoreID
	}

	return u.buildCartResponse(ctx, cart)
}

// ValidateCart は全明細をチェックして問題の一覧を返す（カートは変更しない）。
func (u *CartUsecase) ValidateCart(ctx context.Context, userID int64) (CartValidationResult, error) {
	if userID <= 0 {
		return CartValidationResult{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	cart, err := u.cartRepo.GetOrCreateActiveByUserID(ctx, userID, u.defaultCurrency, model.NoStore())
	if err != nil {
		return CartValidationResult{}, dbError(u.log, "cart.get_or_create", err)
	}

	items, err := u.loadItems(ctx, u.cartItemRepo, u.productRepo, cart)
	if err != nil {
		return CartValidationResult{}, err
	}

	res := CartValidationResult{Valid: true, Issues: []ValidationIssue{}}
	for _, it := range items {
		if _, err := it.ValidateContents(cart.Currency, cart.StoreID); err != nil {
			res.Valid = false
			res.Issues = append(res.Issues, ValidationIssue{
				CartItemID: it.ID,
				ProductID:  it.ProductID,
				Code:       issueCode(err),
			})
		}
	}
	return res, nil
}

// Checkout はトランザクション内で全明細を検証し、全部OKの時だけCHECKED_OUTにする。
// 1つでもNGなら最初のエラーを返す。
func (u *CartUsecase) Checkout(ctx context.Context, userID int64) (CheckoutResult, error) {
	if userID <= 0 {
		return CheckoutResult{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}

	var out CheckoutResult
	err := u.txm.WithinTx(ctx, func(r repo.TxRepos) error {
		cart, err := r.Carts().FindActiveByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return NewHTTPError(http.StatusNotFound, "cart not found")
		}
		if err != nil {
			return dbError(u.log, "cart.find_active", err)
		}

		items, err := u.loadItems(ctx, r.CartItems(), r.Products(), cart)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return NewHTTPError(http.StatusBadRequest, "cart is empty")
		}

		lines := make([]CartItemResponse, 0, len(items))
		total := decimal.Zero
		for _, it := range items {
			if _, err := it.ValidateContents(cart.Currency, cart.StoreID); err != nil {
				u.log.Info("checkout rejected",
					zap.Int64("cart_id", cart.ID),
					zap.Int64("cart_item_id", it.ID),
					zap.String("code", issueCode(err)))
				return mapDomainError(err)
			}

			t, err := it.CalculateTotals(cart.Currency, cart.StoreID)
			if err != nil {
				return mapDomainError(err)
			}
			lines = append(lines, CartItemResponse{
				ID:        it.ID,
				ProductID: it.ProductID,
				Name:      it.Product.Name,
				Quantity:  it.Quantity,
				Meta:      it.Meta,
				Totals:    &t,
			})
			total = total.Add(t.Total)
		}

		if err := r.Carts().UpdateStatus(ctx, cart.ID, model.CartStatusCheckedOut); err != nil {
			return dbError(u.log, "cart.update_status", err)
		}

		out = CheckoutResult{
			CartID:   cart.ID,
			Status:   model.CartStatusCheckedOut,
			Currency: cart.Currency,
			StoreID:  cart.StoreID.Ptr(),
			Items:    lines,
			Total:    total,
		}
		return nil
	})
	if err != nil {
		if _, ok := AsHTTPError(err); ok {
			return CheckoutResult{}, err
		}
		return CheckoutResult{}, dbError(u.log, "checkout.tx", err)
	}
	return out, nil
}

func (u *CartUsecase) findOwnedItem(ctx context.Context, userID int64, cartItemID int64) (model.CartItem, error) {
	owned, err := u.cartItemRepo.IsOwnedByUser(ctx, cartItemID, userID)
	if err != nil {
		return model.CartItem{}, dbError(u.log, "cart_items.is_owned", err)
	}
	if !owned {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}

	item, err := u.cartItemRepo.FindByID(ctx, cartItemID)
	if errors.Is(err, repo.ErrNotFound) {
		return model.CartItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.CartItem{}, dbError(u.log, "cart_items.find", err)
	}

	// 確定済み・放置のカートの明細は変えない
	if item.Cart == nil || item.Cart.Status != model.CartStatusActive {
		return model.CartItem{}, NewHTTPError(http.StatusConflict, "cart is not active")
	}
	return item, nil
}

// ACTIVEカートを取得して返却
func (u *CartUsecase) activeCartResponse(ctx context.Context, userID int64) (CartResponse, error) {
	cart, err := u.cartRepo.FindActiveByUserID(ctx, userID)
	if errors.Is(err, repo.ErrNotFound) {
		return CartResponse{}, NewHTTPError(http.StatusNotFound, "cart not found")
	}
	if err != nil {
		return CartResponse{}, dbError(u.log, "cart.find_active", err)
	}
	return u.buildCartResponse(ctx, cart)
}

// 明細にCartとProductを付ける。商品が無い・非公開の明細はProduct=nil。
// 商品はまとめて1回で読む。
func (u *CartUsecase) loadItems(ctx context.Context, items repo.CartItemRepository, products repo.ProductRepository, cart model.Cart) ([]model.CartItem, error) {
	list, err := items.ListByCartID(ctx, cart.ID)
	if err != nil {
		return nil, dbError(u.log, "cart_items.list", err)
	}
	if len(list) == 0 {
		return list, nil
	}

	ids := make([]int64, 0, len(list))
	seen := make(map[int64]bool, len(list))
	for _, it := range list {
		if !seen[it.ProductID] {
			seen[it.ProductID] = true
			ids = append(ids, it.ProductID)
		}
	}

	byID, err := products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, dbError(u.log, "product.find_by_ids", err)
	}

	for i := range list {
		// 通貨・店舗は常に渡されたcartを正とする
		c := cart
		list[i].Cart = &c

		list[i].Product = nil
		if p, ok := byID[list[i].ProductID]; ok && p.IsActive {
			p := p
			list[i].Product = &p
		}
	}
	return list, nil
}

// cartの明細をまとめてCartResponseを作る。
// 価格が出せない明細も一覧には出し、合計には含めない。
func (u *CartUsecase) buildCartResponse(ctx context.Context, cart model.Cart) (CartResponse, error) {
	items, err := u.loadItems(ctx, u.cartItemRepo, u.productRepo, cart)
	if err != nil {
		return CartResponse{}, err
	}

	resp := CartResponse{
		ID:       cart.ID,
		Currency: cart.Currency,
		StoreID:  cart.StoreID.Ptr(),
		Items:    make([]CartItemResponse, 0, len(items)),
		Subtotal: decimal.Zero,
		Discount: decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, it := range items {
		line := CartItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Meta:      it.Meta,
		}
		if it.Product != nil {
			line.Name = it.Product.Name
		}

		t, err := it.Totals()
		if err != nil {
			line.Error = issueCode(err)
			resp.Items = append(resp.Items, line)
			continue
		}

		line.Totals = &t
		resp.Items = append(resp.Items, line)
		resp.Subtotal = resp.Subtotal.Add(t.Subtotal)
		resp.Discount = resp.Discount.Add(t.Discount)
		resp.Total = resp.Total.Add(t.Total)
	}

	return resp, nil
}

// 非公開・削除済みの商品はnil
func loadProduct(ctx context.Context, products repo.ProductRepository, productID int64) (*model.Product, error) {
	p, err := products.GetWithPricesAndStock(ctx, productID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return nil, nil
	}
	return &p, nil
}
