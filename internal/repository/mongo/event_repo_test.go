package mongo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/njoroofficial/dev-events/internal/domain"
)

func TestListFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter domain.EventFilter
		want   bson.M
	}{
		{
			name:   "empty filter matches everything",
			filter: domain.EventFilter{},
			want:   bson.M{},
		},
		{
			name:   "tag filter",
			filter: domain.EventFilter{Tag: "golang"},
			want:   bson.M{"tags": "golang"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, listFilter(tt.filter))
		})
	}
}

func TestUpdateDoc_LeavesImmutableFieldsAlone(t *testing.T) {
	now := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	e := &domain.Event{
		ID:        "ev-1",
		Title:     "GopherCon",
		Slug:      "gophercon",
		Mode:      domain.ModeInPerson,
		OwnerID:   "user-1",
		Tags:      []string{"go", "conference"},
		UpdatedAt: now,
	}

	set, ok := updateDoc(e)["$set"].(bson.M)
	require.True(t, ok)

	assert.Equal(t, "GopherCon", set["title"])
	assert.Equal(t, domain.ModeInPerson, set["mode"])
	assert.Equal(t, []string{"go", "conference"}, set["tags"])
	assert.Equal(t, now, set["updated_at"])

	assert.NotContains(t, set, "_id")
	assert.NotContains(t, set, "slug")
	assert.NotContains(t, set, "owner_id")
	assert.NotContains(t, set, "created_at")
}
