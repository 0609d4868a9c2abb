// Package queue defines message payloads exchanged over the message broker
// and the consumer that turns them into the rating audit log.
package queue

import "time"

// RatingSubmittedEvent is published after a rating has been stored.  It
// carries enough information for the audit consumer to write a line without
// querying the primary database.
type RatingSubmittedEvent struct {
	RatingID  uint64    `json:"rating_id"`
	UserID    uint64    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	StoreID   uint64    `json:"store_id"`
	StoreName string    `json:"store_name"`
	Rating    int       `json:"rating"`
	Created   bool      `json:"created"`
	At        time.Time `json:"at"`
}

// Action names the transition the event records.
func (e RatingSubmittedEvent) Action() string {
	if e.Created {
		return "submitted"
	}
	return "updated"
}
