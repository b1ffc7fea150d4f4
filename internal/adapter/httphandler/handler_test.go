package httphandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/service"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) Product(
	ctx context.Context, productID string,
) (domain.Product, domain.PriceRange, error) {
	args := m.Called(ctx, productID)
	return args.Get(0).(domain.Product), args.Get(1).(domain.PriceRange), args.Error(2)
}

func (m *MockCatalog) ResolveVariant(
	ctx context.Context, productID string, selection []int,
) (domain.VariantResolution, error) {
	args := m.Called(ctx, productID, selection)
	return args.Get(0).(domain.VariantResolution), args.Error(1)
}

type MockCarts struct {
	mock.Mock
}

func (m *MockCarts) view(args mock.Arguments) (domain.CartView, error) {
	return args.Get(0).(domain.CartView), args.Error(1)
}

func (m *MockCarts) Cart(ctx context.Context, sessionID string) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockCarts) AddItem(
	ctx context.Context, sessionID string, req domain.AddItemRequest,
) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID, req))
}

func (m *MockCarts) UpdateQuantity(
	ctx context.Context, sessionID, itemID string, quantity int,
) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID, itemID, quantity))
}

func (m *MockCarts) RemoveItem(
	ctx context.Context, sessionID, itemID string,
) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID, itemID))
}

func (m *MockCarts) ToggleSelect(
	ctx context.Context, sessionID, itemID string,
) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID, itemID))
}

func (m *MockCarts) SelectAll(ctx context.Context, sessionID string) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockCarts) UnselectAll(ctx context.Context, sessionID string) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockCarts) Clear(ctx context.Context, sessionID string) (domain.CartView, error) {
	return m.view(m.Called(ctx, sessionID))
}

func (m *MockCarts) Refresh(ctx context.Context, sessionID string) (domain.RefreshResult, error) {
	args := m.Called(ctx, sessionID)
	return args.Get(0).(domain.RefreshResult), args.Error(1)
}

type MockCheckout struct {
	mock.Mock
}

func (m *MockCheckout) Checkout(
	ctx context.Context, sessionID, discountCode string,
) (domain.CheckoutIntent, error) {
	args := m.Called(ctx, sessionID, discountCode)
	return args.Get(0).(domain.CheckoutIntent), args.Error(1)
}

type testServer struct {
	catalog  *MockCatalog
	carts    *MockCarts
	checkout *MockCheckout
	handler  http.Handler
}

func newTestServer() testServer {
	ts := testServer{
		catalog:  &MockCatalog{},
		carts:    &MockCarts{},
		checkout: &MockCheckout{},
	}
	mux := http.NewServeMux()
	RegisterCatalog(mux, ts.catalog)
	RegisterCart(mux, ts.carts, ts.checkout)
	ts.handler = AllowJSON(mux)
	return ts
}

func (ts testServer) do(method, target, session, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	if session != "" {
		r.Header.Set(SessionHeader, session)
	}
	w := httptest.NewRecorder()
	ts.handler.ServeHTTP(w, r)
	return w
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

var shirtLine = domain.CartItem{
	ItemID:    "i1",
	ProductID: "shirt",
	ModelID:   "m-red-m",
	Product:   domain.ProductSnapshot{ProductID: "shirt", Name: "Shirt"},
	Variant:   &domain.VariantInfo{Description: "Red, M"},
	Quantity:  2,
	Price:     domain.FlatPrice(dec("150000"), "VND"),
	Selected:  true,
}

func shirtCart() domain.CartView {
	return domain.CartView{
		SessionID:     "s1",
		Items:         []domain.CartItem{shirtLine},
		SelectedItems: []domain.CartItem{shirtLine},
		TotalAmount:   dec("300000"),
		CheckoutTotal: dec("300000"),
	}
}

func TestCatalogHandler(t *testing.T) {
	t.Run("GetProduct", func(t *testing.T) {
		ts := newTestServer()
		p := domain.Product{
			ProductID: "shirt",
			Name:      "Shirt",
			Category:  domain.CategoryReference("apparel"),
			Price:     domain.FlatPrice(dec("150000"), "VND"),
			Tiers:     []domain.TierVariation{{Name: "Color", Options: []string{"Red"}}},
			Models: []domain.Model{
				{ModelID: "m-red", TierIndex: []int{0}, Price: dec("150000")},
			},
		}
		pr := domain.PriceRange{Min: dec("150000"), Max: dec("150000"), Currency: "VND"}
		ts.catalog.On("Product", mock.Anything, "shirt").Return(p, pr, nil)

		w := ts.do(http.MethodGet, "/v1/products/shirt", "", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got Product
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "shirt", got.ProductID)
		assert.Equal(t, "apparel", got.Category.CategoryID)
		assert.True(t, dec("150000").Equal(got.PriceRange.Min))
		require.Len(t, got.Models, 1)
		assert.Equal(t, []int{0}, got.Models[0].TierIndex)
		assert.Nil(t, got.Price.Discount)
	})

	t.Run("ProductNotFound", func(t *testing.T) {
		ts := newTestServer()
		ts.catalog.On("Product", mock.Anything, "nope").Return(
			domain.Product{}, domain.PriceRange{},
			fmt.Errorf("Service.Product: %w", service.ErrProductNotFound),
		)

		w := ts.do(http.MethodGet, "/v1/products/nope", "", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("GetVariant", func(t *testing.T) {
		ts := newTestServer()
		model := domain.Model{ModelID: "m-red-m", TierIndex: []int{0, 1}, Price: dec("150000")}
		ts.catalog.On("ResolveVariant", mock.Anything, "shirt", []int{0, 1}).Return(
			domain.VariantResolution{
				ProductID:   "shirt",
				Selection:   []int{0, 1},
				Model:       &model,
				Price:       domain.FlatPrice(dec("150000"), "VND"),
				Description: "Red, M",
				Image:       "red.png",
			}, nil,
		)

		w := ts.do(http.MethodGet, "/v1/products/shirt/variant?selection=0,1", "", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got Variant
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		require.NotNil(t, got.Model)
		assert.Equal(t, "m-red-m", got.Model.ModelID)
		assert.Equal(t, "Red, M", got.Description)
		assert.Equal(t, "red.png", got.Image)
	})

	t.Run("InvalidSelection", func(t *testing.T) {
		ts := newTestServer()
		w := ts.do(http.MethodGet, "/v1/products/shirt/variant?selection=0,x", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
		ts.catalog.AssertNotCalled(t, "ResolveVariant")
	})
}

func TestParseSelection(t *testing.T) {
	got, err := parseSelection(" 1, 0 ")
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0}, got)

	got, err = parseSelection("")
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = parseSelection("-1")
	require.NoError(t, err)
	assert.Equal(t, []int{-1}, got)

	_, err = parseSelection("a")
	require.Error(t, err)
}

func TestCartHandler(t *testing.T) {
	t.Run("GetCart", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("Cart", mock.Anything, "s1").Return(shirtCart(), nil)

		w := ts.do(http.MethodGet, "/v1/cart", "s1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got Cart
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, []string{"i1"}, got.SelectedItemIDs)
		require.Len(t, got.Items, 1)
		assert.True(t, dec("300000").Equal(got.Items[0].LineTotal))
		assert.True(t, dec("300000").Equal(got.CheckoutTotal))
		require.NotNil(t, got.Items[0].Variant)
		assert.Equal(t, "Red, M", got.Items[0].Variant.Description)
	})

	t.Run("MissingSession", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("Cart", mock.Anything, "").Return(
			domain.CartView{}, fmt.Errorf("Service.Cart: %w", service.ErrNoSession),
		)

		w := ts.do(http.MethodGet, "/v1/cart", "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("AddItem", func(t *testing.T) {
		ts := newTestServer()
		want := domain.AddItemRequest{
			ProductID: "shirt", Selection: []int{0, 1}, Quantity: 2,
		}
		ts.carts.On("AddItem", mock.Anything, "s1", want).Return(shirtCart(), nil)

		w := ts.do(http.MethodPost, "/v1/cart/items", "s1",
			`{"product_id":"shirt","selection":[0,1],"quantity":2}`)
		assert.Equal(t, http.StatusCreated, w.Code)
		ts.carts.AssertExpectations(t)
	})

	t.Run("AddItemUnresolved", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("AddItem", mock.Anything, "s1", mock.Anything).Return(
			domain.CartView{}, fmt.Errorf("Service.AddItem: %w", service.ErrVariantNotResolved),
		)

		w := ts.do(http.MethodPost, "/v1/cart/items", "s1",
			`{"product_id":"shirt","selection":[0],"quantity":1}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})

	t.Run("AddItemInvalidJSON", func(t *testing.T) {
		ts := newTestServer()
		w := ts.do(http.MethodPost, "/v1/cart/items", "s1", `{"product_id":`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		ts.carts.AssertNotCalled(t, "AddItem")
	})

	t.Run("RejectsNonJSON", func(t *testing.T) {
		ts := newTestServer()
		r := httptest.NewRequest(http.MethodPost, "/v1/cart/items", strings.NewReader("x=1"))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := httptest.NewRecorder()
		ts.handler.ServeHTTP(w, r)
		assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	})

	t.Run("UpdateQuantity", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("UpdateQuantity", mock.Anything, "s1", "i1", 5).Return(shirtCart(), nil)

		r := httptest.NewRequest(http.MethodPatch, "/v1/cart/items/i1",
			strings.NewReader(`{"quantity":5}`))
		r.Header.Set("Content-Type", "application/json; charset=utf-8")
		r.Header.Set(SessionHeader, "s1")
		w := httptest.NewRecorder()
		ts.handler.ServeHTTP(w, r)

		assert.Equal(t, http.StatusOK, w.Code)
		ts.carts.AssertExpectations(t)
	})

	t.Run("RemoveAndToggle", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("RemoveItem", mock.Anything, "s1", "i1").Return(domain.CartView{}, nil)
		ts.carts.On("ToggleSelect", mock.Anything, "s1", "i2").Return(domain.CartView{}, nil)

		assert.Equal(t, http.StatusOK, ts.do(http.MethodDelete, "/v1/cart/items/i1", "s1", "").Code)
		assert.Equal(t, http.StatusOK, ts.do(http.MethodPost, "/v1/cart/items/i2/toggle", "s1", "").Code)
		ts.carts.AssertExpectations(t)
	})

	t.Run("Refresh", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("Refresh", mock.Anything, "s1").Return(domain.RefreshResult{
			Applied:         true,
			Dropped:         []string{"i9"},
			DroppedSelected: []string{"i9"},
			Cart:            shirtCart(),
		}, nil)

		w := ts.do(http.MethodPost, "/v1/cart/refresh", "s1", "")
		require.Equal(t, http.StatusOK, w.Code)

		var got Refresh
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.True(t, got.Applied)
		assert.Equal(t, []string{"i9"}, got.DroppedSelected)
		assert.Equal(t, []string{}, got.Added)
	})

	t.Run("Checkout", func(t *testing.T) {
		ts := newTestServer()
		intent := domain.CheckoutIntent{
			IntentID:          "intent-1",
			SessionID:         "s1",
			Items:             []domain.CartItem{shirtLine},
			Subtotal:          dec("300000"),
			DiscountCode:      "OLD",
			DiscountAmount:    decimal.Zero,
			FinalTotal:        dec("300000"),
			DiscountRejection: domain.RejectCodeExpired,
			CreatedAt:         time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		}
		ts.checkout.On("Checkout", mock.Anything, "s1", "OLD").Return(intent, nil)

		w := ts.do(http.MethodPost, "/v1/cart/checkout", "s1", `{"discount_code":"OLD"}`)
		require.Equal(t, http.StatusCreated, w.Code)

		var got CheckoutIntent
		require.NoError(t, json.NewDecoder(w.Body).Decode(&got))
		assert.Equal(t, "code expired", got.DiscountRejection)
		assert.True(t, dec("300000").Equal(got.FinalTotal))
	})

	t.Run("CheckoutNothingSelected", func(t *testing.T) {
		ts := newTestServer()
		ts.checkout.On("Checkout", mock.Anything, "s1", "").Return(
			domain.CheckoutIntent{},
			fmt.Errorf("Service.Checkout: %w", service.ErrNothingSelected),
		)

		w := ts.do(http.MethodPost, "/v1/cart/checkout", "s1", "")
		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("CollaboratorFailure", func(t *testing.T) {
		ts := newTestServer()
		ts.carts.On("Clear", mock.Anything, "s1").Return(
			domain.CartView{}, fmt.Errorf("storage down"),
		)

		w := ts.do(http.MethodDelete, "/v1/cart", "s1", "")
		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}
