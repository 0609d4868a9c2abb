package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEvent(created bool) RatingSubmittedEvent {
	return RatingSubmittedEvent{
		RatingID:  10,
		UserID:    1,
		UserEmail: "jane@x.com",
		StoreID:   5,
		StoreName: "Corner Store",
		Rating:    4,
		Created:   created,
		At:        time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
}

func TestFormatLine(t *testing.T) {
	line := FormatLine(sampleEvent(true))
	assert.Equal(t, "[2024-05-01T10:00:00Z] Rating submitted | rating_id=10 | user_id=1 | user=\"jane@x.com\" | store_id=5 | store=\"Corner Store\" | rating=4\n", line)
	assert.Contains(t, FormatLine(sampleEvent(false)), "Rating updated")
}

func TestAuditLogAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "ratings.log")
	audit := NewAuditLog(path)

	for _, created := range []bool{true, false} {
		body, err := json.Marshal(sampleEvent(created))
		require.NoError(t, err)
		require.NoError(t, audit.Handle(body))
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Rating submitted")
	assert.Contains(t, lines[1], "Rating updated")
}

func TestAuditLogRejectsGarbage(t *testing.T) {
	audit := NewAuditLog(filepath.Join(t.TempDir(), "ratings.log"))
	assert.Error(t, audit.Handle([]byte("{not json")))
}
