package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/store-rating/internal/model"
)

// StatsRepo runs the aggregation queries behind the admin dashboard and the
// store owner analytics.
type StatsRepo struct {
	db  *sql.DB
	now func() time.Time
}

func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db, now: time.Now} }

// Dashboard is the platform-wide summary shown to admins.
type Dashboard struct {
	TotalUsers       int64                `json:"total_users"`
	TotalStores      int64                `json:"total_stores"`
	TotalRatings     int64                `json:"total_ratings"`
	UsersByRole      map[model.Role]int64 `json:"users_by_role"`
	AverageRating    float64              `json:"average_rating"`
	NewUsers30Days   int64                `json:"new_users_last_30_days"`
	NewRatings30Days int64                `json:"new_ratings_last_30_days"`
}

// Dashboard computes the admin summary.  The 30 day window ends now.
func (r *StatsRepo) Dashboard(ctx context.Context) (Dashboard, error) {
	since := r.now().UTC().AddDate(0, 0, -30)
	d := Dashboard{UsersByRole: make(map[model.Role]int64, len(model.Roles))}
	for _, role := range model.Roles {
		d.UsersByRole[role] = 0
	}

	const totals = `SELECT
	    (SELECT COUNT(*) FROM users),
	    (SELECT COUNT(*) FROM stores),
	    (SELECT COUNT(*) FROM ratings),
	    (SELECT COALESCE(AVG(rating), 0) FROM ratings),
	    (SELECT COUNT(*) FROM users WHERE created_at >= ?),
	    (SELECT COUNT(*) FROM ratings WHERE created_at >= ?)`
	if err := r.db.QueryRowContext(ctx, totals, since, since).Scan(
		&d.TotalUsers, &d.TotalStores, &d.TotalRatings, &d.AverageRating,
		&d.NewUsers30Days, &d.NewRatings30Days); err != nil {
		return Dashboard{}, err
	}
	d.AverageRating = Round1(d.AverageRating)

	rows, err := r.db.QueryContext(ctx, "SELECT role, COUNT(*) FROM users GROUP BY role")
	if err != nil {
		return Dashboard{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var role string
		var n int64
		if err := rows.Scan(&role, &n); err != nil {
			return Dashboard{}, err
		}
		d.UsersByRole[model.Role(role)] = n
	}
	return d, rows.Err()
}

// OwnerTotals are the counters of the store owner analytics view.
// AverageRating is the plain mean of every individual rating received.
type OwnerTotals struct {
	TotalStores      int64   `json:"total_stores"`
	TotalRatings     int64   `json:"total_ratings"`
	AverageRating    float64 `json:"average_rating"`
	RatingsThisMonth int64   `json:"ratings_this_month"`
}

// OwnerTotals aggregates over the stores owned by ownerID.  "This month"
// is the current calendar month in UTC.
func (r *StatsRepo) OwnerTotals(ctx context.Context, ownerID uint64) (OwnerTotals, error) {
	now := r.now().UTC()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)

	const q = `SELECT
	    (SELECT COUNT(*) FROM stores WHERE owner_id = ?),
	    COUNT(r.id),
	    COALESCE(AVG(r.rating), 0),
	    COALESCE(SUM(CASE WHEN r.created_at >= ? THEN 1 ELSE 0 END), 0)
	  FROM ratings r
	  JOIN stores s ON s.id = r.store_id
	 WHERE s.owner_id = ?`
	var t OwnerTotals
	if err := r.db.QueryRowContext(ctx, q, ownerID, monthStart, ownerID).Scan(
		&t.TotalStores, &t.TotalRatings, &t.AverageRating, &t.RatingsThisMonth); err != nil {
		return OwnerTotals{}, err
	}
	t.AverageRating = Round1(t.AverageRating)
	return t, nil
}
