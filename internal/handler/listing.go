package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/qbay/internal/auth"
	"github.com/sakif/qbay/internal/model"
	"github.com/sakif/qbay/internal/service"
)

// ListingHandler serves the listing endpoints.
//
//   - HandleList   → GET  /api/listings?limit=20&offset=0  (OptionalAuth)
//   - HandleGet    → GET  /api/listings/{id}               (OptionalAuth)
//   - HandleCreate → POST /api/listings       (RequireAuth)
//   - HandleUpdate → PUT  /api/listings/{id}  (RequireAuth)
type ListingHandler struct {
	listings *service.ListingService
	logger   *slog.Logger
}

func NewListingHandler(listings *service.ListingService, logger *slog.Logger) *ListingHandler {
	return &ListingHandler{listings: listings, logger: logger}
}

// listingView is a listing as the caller sees it. Owned is true when the
// request is authenticated as the listing's owner, letting a client decide
// whether to offer editing.
type listingView struct {
	model.Listing
	Owned bool `json:"owned"`
}

func viewOf(r *http.Request, listing model.Listing) listingView {
	userID, _ := auth.UserIDFromContext(r.Context())
	return listingView{Listing: listing, Owned: userID != "" && userID == listing.OwnerID}
}

type createListingRequest struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Price       float64    `json:"price"`
	Date        model.Date `json:"date"`
}

// updateListingRequest has no date field: the date is set by the server,
// and decodeJSON rejects unknown fields.
type updateListingRequest struct {
	Title       *string  `json:"title"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
}

// HandleList returns a page of listings, newest first.
//
// HTTP: GET /api/listings?limit=N&offset=M
func (h *ListingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit")
	if !ok {
		return
	}
	offset, ok := queryInt(w, r, "offset")
	if !ok {
		return
	}

	listings, err := h.listings.List(r.Context(), limit, offset)
	if err != nil {
		writeError(w, err)
		return
	}

	views := make([]listingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, viewOf(r, l))
	}
	writeJSON(w, http.StatusOK, views)
}

// HandleGet returns one listing.
//
// HTTP: GET /api/listings/{id}
func (h *ListingHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(r, *listing))
}

// HandleCreate creates a listing owned by the authenticated user.
//
// HTTP: POST /api/listings
// REQUEST BODY: {"title": "...", "description": "...", "price": 30, "date": "2022-10-06"}
func (h *ListingHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req createListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid listing JSON", slog.String("error", err.Error()))
		writeBadRequest(w, `request body must be a JSON object with title, description, price and a "YYYY-MM-DD" date`)
		return
	}

	listing, err := h.listings.Create(r.Context(), req.Title, req.Description, req.Price, req.Date.Time, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, viewOf(r, *listing))
}

// HandleUpdate changes a listing the authenticated user owns.
//
// HTTP: PUT /api/listings/{id}
// REQUEST BODY: any subset of title, description, price.
func (h *ListingHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Message: "valid authentication required"})
		return
	}

	var req updateListingRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.logger.Warn("invalid listing update JSON", slog.String("error", err.Error()))
		writeBadRequest(w, "request body may only contain title, description and price")
		return
	}

	listing, err := h.listings.Update(r.Context(), userID, chi.URLParam(r, "id"), service.ListingUpdate{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(r, *listing))
}

// queryInt reads an optional integer query parameter. A missing parameter
// is 0, which the service turns into its default.
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		writeBadRequest(w, name+" must be an integer")
		return 0, false
	}
	return n, true
}
