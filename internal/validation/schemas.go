package validation

import (
	"strings"

	"github.com/iliyamo/store-rating/internal/model"
)

// Register is the body of POST /auth/register.  A role field, if sent, is
// not part of the schema and is dropped by the decoder.
type Register struct {
	Name     string `json:"name" validate:"required,min=3,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=16,password"`
	Address  string `json:"address" validate:"required,max=400"`
}

func (r *Register) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = NormalizeEmail(r.Email)
	r.Address = strings.TrimSpace(r.Address)
}

type Login struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (l *Login) Normalize() { l.Email = NormalizeEmail(l.Email) }

type ChangePassword struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=16,password"`
}

func (p *ChangePassword) Normalize() {}

// CreateUser is the admin variant of Register: role is mandatory.
type CreateUser struct {
	Name     string `json:"name" validate:"required,min=3,max=60"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=16,password"`
	Address  string `json:"address" validate:"required,max=400"`
	Role     string `json:"role" validate:"required,oneof=admin user store_owner"`
}

func (u *CreateUser) Normalize() {
	u.Name = strings.TrimSpace(u.Name)
	u.Email = NormalizeEmail(u.Email)
	u.Address = strings.TrimSpace(u.Address)
	u.Role = strings.TrimSpace(u.Role)
}

// UpdateUser carries the optional fields of PUT /admin/users/:id.  Nil
// pointers are left untouched by the update.
type UpdateUser struct {
	Name     *string `json:"name" validate:"omitnil,min=3,max=60"`
	Email    *string `json:"email" validate:"omitnil,email"`
	Password *string `json:"password" validate:"omitnil,min=8,max=16,password"`
	Address  *string `json:"address" validate:"omitnil,min=1,max=400"`
	Role     *string `json:"role" validate:"omitnil,oneof=admin user store_owner"`
}

func (u *UpdateUser) Normalize() {
	trim := func(p *string) {
		if p != nil {
			*p = strings.TrimSpace(*p)
		}
	}
	trim(u.Name)
	trim(u.Address)
	trim(u.Role)
	if u.Email != nil {
		*u.Email = NormalizeEmail(*u.Email)
	}
}

func (u *UpdateUser) check() []FieldError {
	if u.Name == nil && u.Email == nil && u.Password == nil && u.Address == nil && u.Role == nil {
		return []FieldError{{Message: "At least one field must be provided", Code: CodeCustom}}
	}
	return nil
}

// CreateStore is the body of POST /admin/stores.  OwnerEmail is optional; an
// empty value creates a store without owner.
type CreateStore struct {
	Name       string `json:"name" validate:"required,min=3,max=60"`
	Email      string `json:"email" validate:"required,email"`
	Address    string `json:"address" validate:"required,max=400"`
	OwnerEmail string `json:"ownerEmail" validate:"omitempty,email"`
}

func (s *CreateStore) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = NormalizeEmail(s.Email)
	s.Address = strings.TrimSpace(s.Address)
	s.OwnerEmail = NormalizeEmail(s.OwnerEmail)
}

// SubmitRating is the body of POST /ratings.  Rating is decoded as a float so
// that 4.5 yields a field error rather than a decoding failure.
type SubmitRating struct {
	StoreID *uint64  `json:"storeId" validate:"required,gt=0"`
	Rating  *float64 `json:"rating" validate:"required,integer,min=1,max=5"`
}

func (r *SubmitRating) Normalize() {}

// Value returns the validated star value.
func (r *SubmitRating) Value() int {
	if r.Rating == nil {
		return 0
	}
	return int(*r.Rating)
}

// ParsedRole returns the role of a validated CreateUser.
func (u *CreateUser) ParsedRole() model.Role {
	role, _ := model.ParseRole(u.Role)
	return role
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
