package port

import (
	"context"
	"sync"

	"github.com/niksmo/storefront/internal/core/domain"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound ports, implemented by the core service.

type CatalogViewer interface {
	Product(ctx context.Context, productID string) (domain.Product, domain.PriceRange, error)
	ResolveVariant(ctx context.Context, productID string, selection []int) (domain.VariantResolution, error)
}

type CartKeeper interface {
	Cart(ctx context.Context, sessionID string) (domain.CartView, error)
	AddItem(ctx context.Context, sessionID string, req domain.AddItemRequest) (domain.CartView, error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) (domain.CartView, error)
	RemoveItem(ctx context.Context, sessionID, itemID string) (domain.CartView, error)
	ToggleSelect(ctx context.Context, sessionID, itemID string) (domain.CartView, error)
	SelectAll(ctx context.Context, sessionID string) (domain.CartView, error)
	UnselectAll(ctx context.Context, sessionID string) (domain.CartView, error)
	Clear(ctx context.Context, sessionID string) (domain.CartView, error)
	Refresh(ctx context.Context, sessionID string) (domain.RefreshResult, error)
}

type CheckoutPlacer interface {
	Checkout(ctx context.Context, sessionID, discountCode string) (domain.CheckoutIntent, error)
}

// Outbound ports, implemented by adapters.

// A CatalogReader is the catalog collaborator.
type CatalogReader interface {
	ReadProduct(ctx context.Context, productID string) (domain.Product, error)
}

// A CartStorage is the persistence collaborator.
type CartStorage interface {
	FetchCart(ctx context.Context, sessionID string) ([]domain.ItemRecord, error)
	AddItem(ctx context.Context, sessionID string, rec domain.ItemRecord) (itemID string, err error)
	UpdateQuantity(ctx context.Context, sessionID, itemID string, quantity int) error
	RemoveItem(ctx context.Context, sessionID, itemID string) error
	ClearCart(ctx context.Context, sessionID string) error
}

// A DiscountApplier is the discount collaborator.
//
// Rejections are reported as [*domain.DiscountRejectedError].
type DiscountApplier interface {
	ApplyDiscount(ctx context.Context, req domain.DiscountRequest) (domain.DiscountResult, error)
}

// A CheckoutIntentProducer hands intents to order placement.
type CheckoutIntentProducer interface {
	ProduceCheckoutIntent(ctx context.Context, intent domain.CheckoutIntent) error
}

type DiscountRulesProcessor interface {
	runnerContextWg
	closer
}
