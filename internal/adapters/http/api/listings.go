package api

import (
	"context"
	"net/http"

	"github.com/okian/rentscore/internal/adapters/airtable"
)

// ListingsDependencies defines the interface for the listing preview.
type ListingsDependencies interface {
	Listings(ctx context.Context) ([]airtable.Record, error)
}

// ListingsHandler handles listing preview requests.
type ListingsHandler struct {
	deps ListingsDependencies
}

// NewListingsHandler creates a new listings handler.
func NewListingsHandler(deps ListingsDependencies) *ListingsHandler {
	return &ListingsHandler{deps: deps}
}

type listingsResponse struct {
	Success  bool              `json:"success"`
	Count    int               `json:"count"`
	Listings []airtable.Record `json:"listings"`
}

// HandleGetListings handles GET /listings requests.
func (h *ListingsHandler) HandleGetListings(w http.ResponseWriter, r *http.Request) {
	records, err := h.deps.Listings(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if records == nil {
		records = []airtable.Record{}
	}
	writeJSON(w, http.StatusOK, listingsResponse{Success: true, Count: len(records), Listings: records})
}
