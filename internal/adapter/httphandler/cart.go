package httphandler

import (
	"log/slog"
	"net/http"

	"github.com/niksmo/storefront/internal/core/domain"
	"github.com/niksmo/storefront/internal/core/port"
)

// Header X-Session-ID is required by every cart route.
//
// GET v1/cart, DELETE v1/cart (200 OK)
// POST v1/cart/refresh, v1/cart/select-all, v1/cart/unselect-all (200 OK)
// POST v1/cart/checkout JSON {"discount_code"} (201 Created, 409 Conflict)
// POST v1/cart/items JSON {"product_id","model_id","selection","quantity"} (201 Created, 422)
// PATCH v1/cart/items/{id} JSON {"quantity"}, DELETE v1/cart/items/{id} (200 OK)
// POST v1/cart/items/{id}/toggle (200 OK)

type CartHandler struct {
	carts    port.CartKeeper
	checkout port.CheckoutPlacer
}

func RegisterCart(
	mux *http.ServeMux, carts port.CartKeeper, checkout port.CheckoutPlacer,
) {
	h := CartHandler{carts, checkout}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("DELETE /v1/cart", h.ClearCart)
	mux.HandleFunc("POST /v1/cart/refresh", h.Refresh)
	mux.HandleFunc("POST /v1/cart/select-all", h.SelectAll)
	mux.HandleFunc("POST /v1/cart/unselect-all", h.UnselectAll)
	mux.HandleFunc("POST /v1/cart/checkout", h.Checkout)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("PATCH /v1/cart/items/{id}", h.UpdateQuantity)
	mux.HandleFunc("DELETE /v1/cart/items/{id}", h.RemoveItem)
	mux.HandleFunc("POST /v1/cart/items/{id}/toggle", h.ToggleSelect)
}

func (h CartHandler) respondCart(
	w http.ResponseWriter, status int, c domain.CartView, err error, log *slog.Logger,
) {
	if err != nil {
		writeError(w, err, log)
		return
	}
	writeJSON(w, status, toCart(c), log)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	c, err := h.carts.Cart(r.Context(), sessionID(r))
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ClearCart"
	log := slog.With("op", op)

	c, err := h.carts.Clear(r.Context(), sessionID(r))
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) SelectAll(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.SelectAll"
	log := slog.With("op", op)

	c, err := h.carts.SelectAll(r.Context(), sessionID(r))
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) UnselectAll(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UnselectAll"
	log := slog.With("op", op)

	c, err := h.carts.UnselectAll(r.Context(), sessionID(r))
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req AddItemRequest
	if !decodeJSON(w, r, &req, log) {
		return
	}

	c, err := h.carts.AddItem(r.Context(), sessionID(r), req.toDomain())
	h.respondCart(w, http.StatusCreated, c, err, log)
}

func (h CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateQuantity"
	log := slog.With("op", op)

	var req UpdateQuantityRequest
	if !decodeJSON(w, r, &req, log) {
		return
	}

	c, err := h.carts.UpdateQuantity(
		r.Context(), sessionID(r), r.PathValue("id"), req.Quantity,
	)
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	c, err := h.carts.RemoveItem(r.Context(), sessionID(r), r.PathValue("id"))
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) ToggleSelect(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ToggleSelect"
	log := slog.With("op", op)

	c, err := h.carts.ToggleSelect(r.Context(), sessionID(r), r.PathValue("id"))
	h.respondCart(w, http.StatusOK, c, err, log)
}

func (h CartHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Refresh"
	log := slog.With("op", op)

	res, err := h.carts.Refresh(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, toRefresh(res), log)
}

func (h CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Checkout"
	log := slog.With("op", op)

	var req CheckoutRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req, log) {
		return
	}

	intent, err := h.checkout.Checkout(r.Context(), sessionID(r), req.DiscountCode)
	if err != nil {
		writeError(w, err, log)
		return
	}
	writeJSON(w, http.StatusCreated, toCheckoutIntent(intent), log)
	log.Info("checkout accepted", "intentID", intent.IntentID)
}
