package handler

import (
	"errors"
	"net/http"
	"sync"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/store-rating/internal/model"
	"github.com/iliyamo/store-rating/internal/repository"
	"github.com/iliyamo/store-rating/internal/utils"
	"github.com/iliyamo/store-rating/internal/validation"
)

const (
	msgEmailExists     = "User with this email already exists"
	msgBadCredentials  = "Invalid credentials"
	msgWrongPassword   = "Current password is incorrect"
	msgUserNotFound    = "User not found"
	msgRegistered      = "User registered successfully"
	msgLoggedIn        = "Login successful"
	msgPasswordChanged = "Password updated successfully"
)

// AuthHandler bundles dependencies for auth endpoints.
type AuthHandler struct {
	Users      *repository.UserRepo
	Tokens     *utils.TokenIssuer
	BcryptCost int

	dummyOnce sync.Once
	dummy     string
}

func NewAuthHandler(u *repository.UserRepo, t *utils.TokenIssuer, bcryptCost int) *AuthHandler {
	return &AuthHandler{Users: u, Tokens: t, BcryptCost: bcryptCost}
}

type authResp struct {
	Message string           `json:"message"`
	User    model.PublicUser `json:"user"`
	Token   string           `json:"token"`
}

// Register creates a regular user and signs them in.  Any role in the body
// is ignored: self-registration always yields role user.
func (h *AuthHandler) Register(c echo.Context) error {
	var req validation.Register
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
	u := &model.User{Name: req.Name, Email: req.Email, PasswordHash: hash, Address: req.Address, Role: model.RoleUser}
	if err := h.Users.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return echo.NewHTTPError(http.StatusBadRequest, msgEmailExists)
		}
		return err
	}
	tok, err := h.Tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, authResp{Message: msgRegistered, User: u.Public(), Token: tok.Token})
}

// Login verifies credentials.  Unknown email and wrong password produce the
// same response.
func (h *AuthHandler) Login(c echo.Context) error {
	var req validation.Login
	if err := bindValid(c, &req); err != nil {
		return err
	}

	ctx, cancel := dbCtx(c)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			// Same bcrypt work as a wrong password.
			utils.VerifyPassword(h.dummyHash(), req.Password)
			return echo.NewHTTPError(http.StatusUnauthorized, msgBadCredentials)
		}
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, msgBadCredentials)
	}
	tok, err := h.Tokens.Issue(u.ID, u.Email, u.Role)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, authResp{Message: msgLoggedIn, User: u.Public(), Token: tok.Token})
}

// dummyHash is compared against when the login email is unknown.  It is
// hashed once, at the configured cost.
func (h *AuthHandler) dummyHash() string {
	h.dummyOnce.Do(func() {
		h.dummy, _ = utils.HashPassword("unknown-account-Pa$$", h.BcryptCost)
	})
	return h.dummy
}

// ChangePassword replaces the caller's password after checking the current one.
func (h *AuthHandler) ChangePassword(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
	}
	var req validation.ChangePassword
	if err := bindValid(c, &req); err != nil {
		return err
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
	if !utils.VerifyPassword(u.PasswordHash, req.CurrentPassword) {
		return echo.NewHTTPError(http.StatusBadRequest, msgWrongPassword)
	}
	hash, err := utils.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		return err
	}
	if err := h.Users.UpdatePassword(ctx, id, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, msgUserNotFound)
		}
		return err
	}
	return c.JSON(http.StatusOK, message(msgPasswordChanged))
}

// Me returns the caller's profile as stored now, not as it was when the
// token was issued.
func (h *AuthHandler) Me(c echo.Context) error {
	id, err := callerID(c)
	if err != nil {
		return err
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
	return c.JSON(http.StatusOK, echo.Map{"user": u.Public()})
}
