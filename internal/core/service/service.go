package service

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/niksmo/storefront/internal/core/port"
	"github.com/niksmo/storefront/internal/core/variant"
)

var _ port.CatalogViewer = (*Service)(nil)
var _ port.CartKeeper = (*Service)(nil)
var _ port.CheckoutPlacer = (*Service)(nil)

var (
	ErrProductNotFound    = errors.New("product not found")
	ErrVariantNotResolved = errors.New("selection does not resolve to a model")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrNothingSelected    = errors.New("no items selected for checkout")
	ErrNoSession          = errors.New("session id is required")
	ErrNilCollaborator    = errors.New("collaborator is nil")
)

const (
	defaultCatalogCacheSize = 1024
	defaultCatalogCacheTTL  = 5 * time.Minute
	defaultSessionCacheSize = 10000
)

type Opt func(*serviceOpts) error

type serviceOpts struct {
	catalogSize int
	catalogTTL  time.Duration
	sessions    int
	now         func() time.Time
	newID       func() string
}

// CatalogCacheOpt sets size and ttl of the variant matrix cache.
func CatalogCacheOpt(size int, ttl time.Duration) Opt {
	return func(so *serviceOpts) error {
		if size < 0 || ttl < 0 {
			return errors.New("negative catalog cache settings")
		}
		if size > 0 {
			so.catalogSize = size
		}
		if ttl > 0 {
			so.catalogTTL = ttl
		}
		return nil
	}
}

// SessionCacheOpt sets how many session carts are kept in memory.
func SessionCacheOpt(size int) Opt {
	return func(so *serviceOpts) error {
		if size < 0 {
			return errors.New("negative session cache size")
		}
		if size > 0 {
			so.sessions = size
		}
		return nil
	}
}

func ClockOpt(now func() time.Time) Opt {
	return func(so *serviceOpts) error {
		if now == nil {
			return errors.New("clock is nil")
		}
		so.now = now
		return nil
	}
}

func IDGeneratorOpt(newID func() string) Opt {
	return func(so *serviceOpts) error {
		if newID == nil {
			return errors.New("id generator is nil")
		}
		so.newID = newID
		return nil
	}
}

// A Service hosts the cart core for many shopper sessions.
//
// Each session owns its own cart state; mutations of one session are
// serialized, different sessions proceed in parallel.
type Service struct {
	catalog   port.CatalogReader
	carts     port.CartStorage
	discounts port.DiscountApplier
	orders    port.CheckoutIntentProducer

	matrices *expirable.LRU[string, variant.Matrix]
	sessions *lru.Cache[string, *session]

	now   func() time.Time
	newID func() string
}

func New(
	catalog port.CatalogReader,
	carts port.CartStorage,
	discounts port.DiscountApplier,
	orders port.CheckoutIntentProducer,
	opts ...Opt,
) (Service, error) {
	const op = "service.New"

	collaborators := []struct {
		name string
		v    any
	}{
		{"catalog", catalog},
		{"carts", carts},
		{"discounts", discounts},
		{"orders", orders},
	}
	for _, c := range collaborators {
		if isNil(c.v) {
			return Service{}, fmt.Errorf("%s: %s: %w", op, c.name, ErrNilCollaborator)
		}
	}

	options := serviceOpts{
		catalogSize: defaultCatalogCacheSize,
		catalogTTL:  defaultCatalogCacheTTL,
		sessions:    defaultSessionCacheSize,
		now:         time.Now,
		newID:       uuid.NewString,
	}
	for _, o := range opts {
		if err := o(&options); err != nil {
			return Service{}, fmt.Errorf("%s: %w", op, err)
		}
	}

	sessions, err := lru.New[string, *session](options.sessions)
	if err != nil {
		return Service{}, fmt.Errorf("%s: %w", op, err)
	}

	return Service{
		catalog:   catalog,
		carts:     carts,
		discounts: discounts,
		orders:    orders,
		matrices: expirable.NewLRU[string, variant.Matrix](
			options.catalogSize, nil, options.catalogTTL,
		),
		sessions: sessions,
		now:      options.now,
		newID:    options.newID,
	}, nil
}

// isNil also reports nil pointers stored in a non-nil interface.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map,
		reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}

func (s Service) session(sessionID string) (*session, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, ErrNoSession
	}
	if sess, ok := s.sessions.Get(sessionID); ok {
		return sess, nil
	}
	sess := newSession(sessionID)
	if prev, ok, _ := s.sessions.PeekOrAdd(sessionID, sess); ok {
		return prev, nil
	}
	return sess, nil
}
