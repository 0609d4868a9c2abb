package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/utils"
	"github.com/iliyamo/store-rating/internal/validation"
)

const (
	msgInvalidUserID = "Invalid user ID"
	msgSelfDelete    = "Cannot delete your own account"
	msgSelfRole      = "Cannot change your own role"
	msgUserHasStores = "Cannot delete user with associated stores. Please reassign or delete their stores first."
	msgOwnerDemote   = "Cannot change role of a user with associated stores. Please reassign or delete their stores first."
	msgUserCreated   = "User created successfully"
	msgUserUpdated   = "User updated successfully"
	msgUserDeleted   = "User deleted successfully"
)

// AdminHandler serves the /admin routes.  Every route is guarded for role
// admin by the router.
type AdminHandler struct {
	Users      *repository.UserRepo
	Stores     *repository.StoreRepo
	Stats      *repository.StatsRepo
	BcryptCost int
}

func NewAdminHandler(u *repository.UserRepo, s *repository.StoreRepo, st *repository.StatsRepo, bcryptCost int) *AdminHandler {
	return &AdminHandler{Users: u, Stores: s, Stats: st, BcryptCost: bcryptCost}
}

// listQuery reads the shared search/filter/sort query parameters.
func listQuery(c echo.Context) repository.ListQuery {
	return repository.ListQuery{
		Search:    c.QueryParam("search"),
		Field:     c.QueryParam("field"),
		Role:      c.QueryParam("role"),
		SortBy:    c.QueryParam("sortBy"),
		SortOrder: c.QueryParam("sortOrder"),
	}
}

// ListUsers: GET /admin/users?search=&field=&role=&sortBy=&sortOrder=
func (h *AdminHandler) ListUsers(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	users, err := h.Users.List(ctx, listQuery(c))
	if err != nil {
		return err
	}
	out := make([]model.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return c.JSON(http.StatusOK, echo.Map{"users": out})
}

type userDetail struct {
	model.PublicUser
	StoreAverageRating *float64 `json:"store_average_rating,omitempty"`
}

// GetUser: GET /admin/users/:id.  Store owners also carry the average of
// every rating their stores received.
func (h *AdminHandler) GetUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidUserID)
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgUserNotFound)
		}
		return err
	}
	out := userDetail{PublicUser: u.Public()}
	if u.Role == model.RoleStoreOwner {
		avg, err := h.Users.OwnerAverage(ctx, u.ID)
		if err != nil {
			return err
		}
		out.StoreAverageRating = &avg
	}
	return c.JSON(http.StatusOK, echo.Map{"user": out})
}

// CreateUser: POST /admin/users.  Unlike Register the role is taken from
// the body.
func (h *AdminHandler) CreateUser(c echo.Context) error {
	var req validation.CreateUser
	if err := bindValid(c, &req); err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	taken, err := h.Users.EmailTaken(ctx, req.Email, 0)
	if err != nil {
		return err
	}
	if taken {
		return echo.NewHTTPError(http.StatusBadRequest, msgEmailExists)
	}
	hash, err := utils.HashPassword(req.Password, h.BcryptCost)
	if err != nil {
		return err
	}
	u := &model.User{Name: req.Name, Email: req.Email, PasswordHash: hash, Address: req.Address, Role: req.ParsedRole()}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return echo.NewHTTPError(http.StatusBadRequest, msgEmailExists)
		}
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"message": msgUserCreated, "user": u.Public()})
}

// UpdateUser: PUT /admin/users/:id.  Only the supplied fields change.
func (h *AdminHandler) UpdateUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidUserID)
	}
	self, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	current, err := h.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgUserNotFound)
		}
		return err
	}

	var req validation.UpdateUser
	if err := bindValid(c, &req); err != nil {
		return err
	}

	patch := repository.UserPatch{Name: req.Name, Address: req.Address}
	if req.Email != nil && *req.Email != current.Email {
		taken, err := h.Users.EmailTaken(ctx, *req.Email, id)
		if err != nil {
			return err
		}
		if taken {
			return echo.NewHTTPError(http.StatusBadRequest, msgEmailExists)
		}
		patch.Email = req.Email
	}
	if req.Role != nil {
		role, err := model.ParseRole(*req.Role)
		if err != nil {
			return err
		}
		if id == self && role != current.Role {
			return echo.NewHTTPError(http.StatusBadRequest, msgSelfRole)
		}
		// Stores may only be owned by store owners.
		if current.Role == model.RoleStoreOwner && role != model.RoleStoreOwner {
			n, err := h.Users.CountStores(ctx, id)
			if err != nil {
				return err
			}
			if n > 0 {
				return echo.NewHTTPError(http.StatusBadRequest, msgOwnerDemote)
			}
		}
		patch.Role = &role
	}
	if req.Password != nil {
		hash, err := utils.HashPassword(*req.Password, h.BcryptCost)
		if err != nil {
			return err
		}
		patch.PasswordHash = &hash
	}

	if err := h.Users.Update(ctx, id, patch); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return echo.NewHTTPError(http.StatusBadRequest, msgEmailExists)
		}
		return err
	}
	updated, err := h.Users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msgUserUpdated, "user": updated.Public()})
}

// DeleteUser: DELETE /admin/users/:id.  Ratings by the user cascade; store
// ownership blocks the delete.
func (h *AdminHandler) DeleteUser(c echo.Context) error {
	id, ok := pathID(c, "id")
	if !ok {
		return echo.NewHTTPError(http.StatusBadRequest, msgInvalidUserID)
	}
	self, err := callerID(c)
	if err != nil {
		return err
	}
	ctx, cancel := dbCtx(c)
	defer cancel()

	if _, err := h.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgUserNotFound)
		}
		return err
	}
	if id == self {
		return echo.NewHTTPError(http.StatusBadRequest, msgSelfDelete)
	}
	n, err := h.Users.CountStores(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return echo.NewHTTPError(http.StatusBadRequest, msgUserHasStores)
	}
	switch err := h.Users.Delete(ctx, id); {
	case errors.Is(err, repository.ErrHasStores):
		return echo.NewHTTPError(http.StatusBadRequest, msgUserHasStores)
	case errors.Is(err, repository.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusNotFound, msgUserNotFound)
	case err != nil:
		return err
	}
	return c.JSON(http.StatusOK, message(msgUserDeleted))
}

// Dashboard: GET /admin/dashboard.
func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx, cancel := dbCtx(c)
	defer cancel()

	d, err := h.Stats.Dashboard(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}
