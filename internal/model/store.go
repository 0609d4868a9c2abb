package model

import "time"

// Store represents a rated venue.  A store may exist without an owner, in
// which case OwnerID is nil.  When set, OwnerID must reference a user whose
// role is store_owner.
type Store struct {
	ID        uint64    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Address   string    `json:"address"`
	OwnerID   *uint64   `json:"owner_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StoreSummary is a store joined with its rating aggregates.  AverageRating
// is rounded to one decimal and is 0 when the store has no ratings;
// ExactAverage keeps the unrounded value for further aggregation.
type StoreSummary struct {
	Store
	OwnerName     *string `json:"owner_name,omitempty"`
	OwnerEmail    *string `json:"owner_email,omitempty"`
	AverageRating float64 `json:"average_rating"`
	ExactAverage  float64 `json:"-"`
	TotalRatings  int64   `json:"total_ratings"`
}

// UserStore is what a browsing user sees: the aggregates plus the caller's
// own rating (nil when the caller has not rated the store yet).
type UserStore struct {
	StoreSummary
	UserRating *int `json:"user_rating"`
}
