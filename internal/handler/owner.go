package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/repository"
)

// recentRatingsLimit is how many ratings the analytics view lists.
const recentRatingsLimit = 10

// OwnerHandler serves /store-owner.  All queries are scoped to the caller's
// own stores.
type OwnerHandler struct {
	Stores  *repository.StoreRepo
	Ratings *repository.RatingRepo
	Stats   *repository.StatsRepo
}

func NewOwnerHandler(s *repository.StoreRepo, r *repository.RatingRepo, st *repository.StatsRepo) *OwnerHandler {
	return &OwnerHandler{Stores: s, Ratings: r, Stats: st}
}

// OwnerSummary totals the owner's stores.  OverallAverage is the mean of
// the unrounded per-store averages with unrated stores counted as 0,
// rounded once; it is not the mean of all ratings (see Analytics for that).
type OwnerSummary struct {
	TotalStores    int     `json:"total_stores"`
	TotalRatings   int64   `json:"total_ratings"`
	OverallAverage float64 `json:"overall_average"`
}

func summarize(stores []model.StoreSummary) OwnerSummary {
	s := OwnerSummary{TotalStores: len(stores)}
	if len(stores) == 0 {
		return s
	}
	var sum float64
	for _, st := range stores {
		s.TotalRatings += st.TotalRatings
		sum += st.ExactAverage
	}
	s.OverallAverage = repository.Round1(sum / float64(len(stores)))
	return s
}

// ListStores: GET /store-owner/stores.
func (h *OwnerHandler) ListStores(c echo.Context) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	stores, err := h.Stores.ListByOwner(ctx, ownerID)
	if err != nil {
		return err
	}
	ratings, err := h.Ratings.ListForOwner(ctx, ownerID, 0)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"stores":  stores,
		"ratings": ratings,
		"summary": summarize(stores),
	})
}

type analyticsResp struct {
	repository.OwnerTotals
	RecentRatings []model.ReceivedRating `json:"recent_ratings"`
}

// Analytics: GET /store-owner/analytics.  average_rating here is the plain
// mean of every rating received.
func (h *OwnerHandler) Analytics(c echo.Context) error {
	ownerID, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	totals, err := h.Stats.OwnerTotals(ctx, ownerID)
	if err != nil {
		return err
	}
	recent, err := h.Ratings.ListForOwner(ctx, ownerID, recentRatingsLimit)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, analyticsResp{OwnerTotals: totals, RecentRatings: recent})
}
