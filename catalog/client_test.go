package catalog

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Search(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		wantCount int
		want      []FoodCandidate
	}{
		{
			name:   "normalizes primary and secondary calorie fields",
			status: http.StatusOK,
			body: `{"products": [
				{"product_name": "Whole Milk", "nutriments": {"energy-kcal_100g": 61}},
				{"product_name": "Skim Milk", "nutriments": {"energy-kcal": 34.5}},
				{"product_name": "Milk Drink", "nutriments": {"energy-kcal_100g": "47.0"}}
			]}`,
			wantCount: 3,
			want: []FoodCandidate{
				{Name: "Whole Milk", CaloriesPer100g: 61},
				{Name: "Skim Milk", CaloriesPer100g: 34.5},
				{Name: "Milk Drink", CaloriesPer100g: 47},
			},
		},
		{
			name:   "skips malformed records",
			status: http.StatusOK,
			body: `{"products": [
				{"product_name": "", "nutriments": {"energy-kcal_100g": 61}},
				{"product_name": "   ", "nutriments": {"energy-kcal_100g": 61}},
				{"product_name": "No Calories", "nutriments": {}},
				{"product_name": "Junk Value", "nutriments": {"energy-kcal_100g": "n/a"}},
				{"product_name": "Zero", "nutriments": {"energy-kcal_100g": 0}},
				{"product_name": "Good", "nutriments": {"energy-kcal": 99}}
			]}`,
			wantCount: 1,
			want:      []FoodCandidate{{Name: "Good", CaloriesPer100g: 99}},
		},
		{
			name:   "null per-100g field falls back to the secondary field",
			status: http.StatusOK,
			body: `{"products": [
				{"product_name": "milk", "nutriments": {"energy-kcal_100g": null, "energy-kcal": 64}},
				{"product_name": "void", "nutriments": {"energy-kcal_100g": null, "energy-kcal": null}}
			]}`,
			wantCount: 1,
			want:      []FoodCandidate{{Name: "milk", CaloriesPer100g: 64}},
		},
		{
			name:      "prefers the per-100g field when both exist",
			status:    http.StatusOK,
			body:      `{"products": [{"product_name": "Both", "nutriments": {"energy-kcal_100g": 10, "energy-kcal": 20}}]}`,
			wantCount: 1,
			want:      []FoodCandidate{{Name: "Both", CaloriesPer100g: 10}},
		},
		{
			name:      "empty product list",
			status:    http.StatusOK,
			body:      `{"products": []}`,
			wantCount: 0,
		},
		{
			name:      "non-success status yields empty result",
			status:    http.StatusInternalServerError,
			body:      `oops`,
			wantCount: 0,
		},
		{
			name:      "unparsable payload yields empty result",
			status:    http.StatusOK,
			body:      `not json`,
			wantCount: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotQuery = r.URL.Query().Get("search_terms")
				assert.Equal(t, "/cgi/search.pl", r.URL.Path)
				assert.Equal(t, "1", r.URL.Query().Get("search_simple"))
				assert.Equal(t, "1", r.URL.Query().Get("json"))
				assert.Equal(t, "20", r.URL.Query().Get("page_size"))
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body)) // nolint: errcheck
			}))
			defer server.Close()

			client := NewClient(server.URL, 5*time.Second)
			got := client.Search(context.Background(), "milk")

			assert.Equal(t, "milk", gotQuery)
			require.Len(t, got, tt.wantCount)
			if tt.want != nil {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestClient_SearchTransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // connection refused from here on

	client := NewClient(server.URL, time.Second)
	got := client.Search(context.Background(), "milk")
	assert.Empty(t, got, "transport errors must surface as an empty result, not an error")
}
