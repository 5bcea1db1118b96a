package helpers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/njoroofficial/dev-events/internal/domain"
)

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  domain.PaginationParams
	}{
		{name: "defaults", query: "", want: domain.PaginationParams{Page: 1, PageSize: 20}},
		{name: "explicit values", query: "page=3&page_size=10", want: domain.PaginationParams{Page: 3, PageSize: 10}},
		{name: "page_size clamped to max", query: "page_size=500", want: domain.PaginationParams{Page: 1, PageSize: 100}},
		{name: "zero page falls back", query: "page=0", want: domain.PaginationParams{Page: 1, PageSize: 20}},
		{name: "negative values fall back", query: "page=-2&page_size=-5", want: domain.PaginationParams{Page: 1, PageSize: 20}},
		{name: "garbage falls back", query: "page=abc&page_size=xyz", want: domain.PaginationParams{Page: 1, PageSize: 20}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/events?"+tt.query, nil)
			got := ParsePagination(req)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewPaginationMeta(t *testing.T) {
	tests := []struct {
		name           string
		page, pageSize int
		total          int
		wantTotalPages int
	}{
		{name: "exact fit", page: 1, pageSize: 10, total: 30, wantTotalPages: 3},
		{name: "partial last page", page: 2, pageSize: 10, total: 31, wantTotalPages: 4},
		{name: "empty", page: 1, pageSize: 20, total: 0, wantTotalPages: 0},
		{name: "zero page size", page: 1, pageSize: 0, total: 10, wantTotalPages: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta := NewPaginationMeta(tt.page, tt.pageSize, tt.total)
			assert.Equal(t, tt.page, meta.Page)
			assert.Equal(t, tt.pageSize, meta.PageSize)
			assert.Equal(t, tt.total, meta.Total)
			assert.Equal(t, tt.wantTotalPages, meta.TotalPages)
		})
	}
}
