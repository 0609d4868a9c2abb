package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/validation"
)

const (
	msgStoreEmailExists = "Store with this email already exists"
	msgOwnerNotFound    = "Store owner not found"
	msgOwnerWrongRole   = "User must have store_owner role to own a store"
	msgStoreCreated     = "Store created successfully"
)

// ListStores: GET /admin/stores?search=&field=&sortBy=&sortOrder=
func (h *AdminHandler) ListStores(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	stores, err := h.Stores.ListSummaries(ctx, listQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"stores": stores})
}

// CreateStore: POST /admin/stores.  ownerEmail, when given, must name a
// store_owner.
func (h *AdminHandler) CreateStore(c echo.Context) error {
	var req validation.CreateStore
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	exists, err := h.Stores.EmailExists(ctx, req.Email)
	if err != nil {
		return err
	}
	if exists {
		return echo.NewHTTPError(http.StatusBadRequest, msgStoreEmailExists)
	}

	s := &model.Store{Name: req.Name, Email: req.Email, Address: req.Address}
	if req.OwnerEmail != "" {
		owner, err := h.Users.GetByEmail(ctx, req.OwnerEmail)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				return echo.NewHTTPError(http.StatusBadRequest, msgOwnerNotFound)
			}
			return err
		}
		if owner.Role != model.RoleStoreOwner {
			return echo.NewHTTPError(http.StatusBadRequest, msgOwnerWrongRole)
		}
		s.OwnerID = &owner.ID
	}

	switch err := h.Stores.Create(ctx, s); {
	case errors.Is(err, repository.ErrStoreEmailExists):
		return echo.NewHTTPError(http.StatusBadRequest, msgStoreEmailExists)
	case errors.Is(err, repository.ErrUserNotFound):
		// the owner was deleted between lookup and insert
		return echo.NewHTTPError(http.StatusBadRequest, msgOwnerNotFound)
	case err != nil:
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msgStoreCreated, "store": s})
}
