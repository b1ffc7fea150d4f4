package httphandler

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/niksmo/storefront/internal/core/port"
)

// GET v1/products/{id} (200 OK, 404 Not found)
// GET v1/products/{id}/variant?selection=0,1 (200 OK, 400 Bad request, 404 Not found)

type CatalogHandler struct {
	catalog port.CatalogViewer
}

func RegisterCatalog(mux *http.ServeMux, catalog port.CatalogViewer) {
	h := CatalogHandler{catalog}
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
	mux.HandleFunc("GET /v1/products/{id}/variant", h.GetVariant)
}

func (h CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetProduct"
	log := slog.With("op", op)

	p, priceRange, err := h.catalog.Product(r.Context(), r.PathValue("id"))
	if err != nil {
		writeError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, toProduct(p, priceRange), log)
}

func (h CatalogHandler) GetVariant(w http.ResponseWriter, r *http.Request) {
	const op = "CatalogHandler.GetVariant"
	log := slog.With("op", op)

	selection, err := parseSelection(r.URL.Query().Get("selection"))
	if err != nil {
		http.Error(w, "invalid selection", http.StatusBadRequest)
		log.Warn("failed to parse selection", "err", err)
		return
	}

	res, err := h.catalog.ResolveVariant(r.Context(), r.PathValue("id"), selection)
	if err != nil {
		writeError(w, err, log)
		return
	}
	writeJSON(w, http.StatusOK, toVariant(res), log)
}

// parseSelection parses "0,1" into tier indices. Negative indices are
// kept and never resolve.
func parseSelection(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return []int{}, nil
	}

	parts := strings.Split(s, ",")
	selection := make([]int, len(parts))
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("selection[%d]: %w", i, err)
		}
		selection[i] = n
	}
	return selection, nil
}
