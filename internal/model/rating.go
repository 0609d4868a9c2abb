package model

import "time"

// Rating models a row in `ratings`; Value is 1 to 5.  There is at most one
// row per (UserID, StoreID); a second submission updates Value and UpdatedAt
// in place.
type Rating struct {
	ID        uint64    `json:"id"`
	UserID    uint64    `json:"user_id"`
	StoreID   uint64    `json:"store_id"`
	Value     int       `json:"rating"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// UserRating is a caller's rating joined with the rated store.
type UserRating struct {
	Rating
	StoreName    string `json:"store_name"`
	StoreAddress string `json:"store_address"`
}

// ReceivedRating is a rating as seen by the owner of the rated store.
type ReceivedRating struct {
	Rating
	StoreName string `json:"store_name"`
	UserName  string `json:"user_name"`
	UserEmail string `json:"user_email"`
}
