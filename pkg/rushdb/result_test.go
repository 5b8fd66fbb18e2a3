package rushdb_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haivivi/rushdb-go/pkg/rushdb"
)

func findPage(t *testing.T, total int, skip *int, n int) *rushdb.SearchResult[*rushdb.Record] {
	t.Helper()
	data := make([]map[string]any, n)
	for i := range data {
		data[i] = map[string]any{"__id": "r", "i": i}
	}
	body := map[string]any{"success": true, "data": data}
	if total > 0 {
		body["total"] = total
	}
	client, _ := newTestClient(t, func(req *rushdb.Request) (*rushdb.Response, error) {
		return jsonResponse(http.StatusOK, body), nil
	})

	q := rushdb.SearchQuery{Skip: skip}
	res, err := client.Records.Find(context.Background(), q)
	require.NoError(t, err)
	return res
}

func TestSearchResult_HasMore(t *testing.T) {
	skip := func(n int) *int { return &n }

	tests := []struct {
		name  string
		total int
		skip  *int
		n     int
		want  bool
	}{
		{"more pages after skip", 50, skip(10), 5, true},
		{"last page", 3, skip(0), 3, false},
		{"no skip sent", 3, nil, 2, true},
		{"tail page", 15, skip(10), 5, false},
		{"total omitted", 0, nil, 4, false},
		{"empty", 0, nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := findPage(t, tt.total, tt.skip, tt.n)
			assert.Equal(t, tt.want, res.HasMore())
		})
	}
}

func TestSearchResult_MayHaveMore(t *testing.T) {
	tests := []struct {
		name  string
		total int
		limit int
		n     int
		want  bool
	}{
		{"total reported, more", 10, 3, 3, true},
		{"total reported, last page", 3, 3, 3, false},
		{"total omitted, full page", 0, 3, 3, true},
		{"total omitted, short page", 0, 3, 2, false},
		{"total omitted, no limit", 0, 0, 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := make([]map[string]any, tt.n)
			for i := range data {
				data[i] = map[string]any{"__id": fmt.Sprintf("r-%d", i)}
			}
			body := map[string]any{"success": true, "data": data}
			if tt.total > 0 {
				body["total"] = tt.total
			}
			client, _ := newTestClient(t, func(req *rushdb.Request) (*rushdb.Response, error) {
				return jsonResponse(http.StatusOK, body), nil
			})
			q := rushdb.SearchQuery{}.WithSkip(0)
			if tt.limit > 0 {
				q = q.WithLimit(tt.limit)
			}
			res, err := client.Records.Find(context.Background(), q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.MayHaveMore())
		})
	}
}

func TestSearchResult_TotalDefaultsToPageLength(t *testing.T) {
	res := findPage(t, 0, nil, 4)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 4, res.Len())
	assert.False(t, res.Empty())
}

func TestSearchResult_PageInfo(t *testing.T) {
	skip := 10
	res := findPage(t, 50, &skip, 5)

	_, hasLimit := res.Limit()
	assert.False(t, hasLimit)
	assert.Equal(t, rushdb.PageInfo{Total: 50, Loaded: 5, HasMore: true, Skip: 10}, res.PageInfo())
	assert.Equal(t, "SearchResult(count=5, total=50)", res.String())

	info, err := json.Marshal(res.PageInfo())
	require.NoError(t, err)
	assert.JSONEq(t, `{"total":50,"loaded":5,"hasMore":true,"skip":10}`, string(info))
}

func TestSearchResult_All(t *testing.T) {
	res := findPage(t, 0, nil, 3)
	var seen []int
	for i, r := range res.All() {
		assert.Equal(t, "r", r.ID())
		seen = append(seen, i)
		if i == 1 {
			break
		}
	}
	assert.Equal(t, []int{0, 1}, seen)
}
