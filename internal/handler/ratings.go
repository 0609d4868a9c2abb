package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/store-rating/internal/metrics"
	"github.com/iliyamo/store-rating/internal/middleware"
	"github.com/iliyamo/store-rating/internal/queue"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/service"
	"github.com/iliyamo/store-rating/internal/validation"
)

const (
	msgStoreNotFound   = "Store not found"
	msgRatingSubmitted = "Rating submitted successfully"
	msgRatingUpdated   = "Rating updated successfully"
)

// RatingHandler serves /ratings.
type RatingHandler struct {
	Ratings *repository.RatingRepo
	Stores  *repository.StoreRepo
	Events  service.RatingEvents
	Log     *zap.Logger
}

func NewRatingHandler(r *repository.RatingRepo, s *repository.StoreRepo, ev service.RatingEvents, log *zap.Logger) *RatingHandler {
	if ev == nil {
		ev = service.NopEvents{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &RatingHandler{Ratings: r, Stores: s, Events: ev, Log: log}
}

// Submit: POST /ratings.  The first rating of a store is created (201);
// later ones overwrite it in place (200), even with an unchanged value.
func (h *RatingHandler) Submit(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	var req validation.SubmitRating
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	store, err := h.Stores.GetByID(ctx, *req.StoreID)
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgStoreNotFound)
		}
		return err
	}
	rating, created, err := h.Ratings.Upsert(ctx, userID, store.ID, req.Value())
	if err != nil {
		if errors.Is(err, repository.ErrStoreNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgStoreNotFound)
		}
		return err
	}
	metrics.RatingOutcome(created)

	ev := queue.RatingSubmittedEvent{
		RatingID:  rating.ID,
		UserID:    userID,
		StoreID:   store.ID,
		StoreName: store.Name,
		Rating:    rating.Value,
		Created:   created,
		At:        rating.UpdatedAt,
	}
	if cl := middleware.CurrentClaims(c); cl != nil {
		ev.UserEmail = cl.Email
	}
	h.publish(ev)

	status, msg := http.StatusOK, msgRatingUpdated
	if created {
		status, msg = http.StatusCreated, msgRatingSubmitted
	}
	return c.JSON(status, echo.Map{"message": msg, "rating": rating})
}

// publish announces ev without holding up the response.  A broken broker
// only costs an audit line.
func (h *RatingHandler) publish(ev queue.RatingSubmittedEvent) {
	if _, nop := h.Events.(service.NopEvents); nop {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Events.RatingSubmitted(ctx, ev); err != nil {
			h.Log.Warn("rating event dropped", zap.Uint64("rating_id", ev.RatingID), zap.Error(err))
		}
	}()
}

// List: GET /ratings.  The caller's own ratings, most recently updated first.
func (h *RatingHandler) List(c echo.Context) error {
	userID, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	ratings, err := h.Ratings.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"ratings": ratings})
}
