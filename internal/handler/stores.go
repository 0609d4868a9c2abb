package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/repository"
)

// StoreHandler serves the store directory seen by signed-in callers.
type StoreHandler struct {
	Stores *repository.StoreRepo
}

func NewStoreHandler(s *repository.StoreRepo) *StoreHandler { return &StoreHandler{Stores: s} }

// List: GET /stores?search=&field=&sortBy=&sortOrder=.  Each store carries
// the caller's own rating, or null.
func (h *StoreHandler) List(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	q := listQuery(c)
	q.Role = ""
	stores, err := h.Stores.ListForUser(ctx, id, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"stores": stores})
}
