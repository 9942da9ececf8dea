package handler

import (
	"net/http"
	"time"

	"github.com/dafibh/domo/domo-client/internal/cache"
	"github.com/labstack/echo/v4"
)

// CacheHandler exposes raw query cache entries to views
type CacheHandler struct {
	store *cache.Store
}

// NewCacheHandler creates a new CacheHandler
func NewCacheHandler(store *cache.Store) *CacheHandler {
	return &CacheHandler{store: store}
}

// CacheEntryResponse is one cache entry with its bookkeeping
type CacheEntryResponse struct {
	Key       cache.Key  `json:"key"`
	Stale     bool       `json:"stale"`
	Version   uint64     `json:"version"`
	FetchedAt *time.Time `json:"fetchedAt,omitempty"`
	Value     any        `json:"value"`
}

func (h *CacheHandler) key(c echo.Context) (cache.Key, bool) {
	return cache.ParseKey(c.Param("key"))
}

// GetEntry handles GET /api/v1/cache/:key. A missing or stale entry is
// fetched before answering.
func (h *CacheHandler) GetEntry(c echo.Context) error {
	key, ok := h.key(c)
	if !ok {
		return NewNotFoundError(c, "Unknown cache key")
	}

	value, err := h.store.Read(c.Request().Context(), key)
	if err != nil {
		return respondError(c, err, "Failed to read cache entry")
	}

	info := h.store.Info(key)
	resp := CacheEntryResponse{
		Key:     key,
		Stale:   info.Stale,
		Version: info.Version,
		Value:   value,
	}
	if !info.FetchedAt.IsZero() {
		at := info.FetchedAt
		resp.FetchedAt = &at
	}
	return c.JSON(http.StatusOK, resp)
}

// Invalidate handles POST /api/v1/cache/:key/invalidate
func (h *CacheHandler) Invalidate(c echo.Context) error {
	key, ok := h.key(c)
	if !ok {
		return NewNotFoundError(c, "Unknown cache key")
	}
	h.store.Invalidate(key)
	return c.NoContent(http.StatusNoContent)
}
