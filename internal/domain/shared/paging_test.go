package shared

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestPage_TotalPages(t *testing.T) {
	tests := []struct {
		name     string
		page     Page
		expected int
	}{
		{"45 records at 20 per page", Page{Page: 1, PageSize: 20, Total: 45}, 3},
		{"exact multiple", Page{Page: 1, PageSize: 20, Total: 40}, 2},
		{"single record", Page{Page: 1, PageSize: 20, Total: 1}, 1},
		{"empty", Page{Page: 1, PageSize: 20, Total: 0}, 0},
		{"zero page size", Page{Page: 1, PageSize: 0, Total: 10}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.page.TotalPages())
		})
	}
}

func TestPage_Navigation(t *testing.T) {
	p := Page{Page: 1, PageSize: 20, Total: 45}
	assert.True(t, p.HasNext())
	assert.False(t, p.HasPrev())

	p.Page = 3
	assert.False(t, p.HasNext())
	assert.True(t, p.HasPrev())
}

func TestPaginated(t *testing.T) {
	result := NewPaginated([]string{"a", "b"}, 45, 1, 20)
	assert.True(t, result.IsPartial())
	assert.Equal(t, 3, result.PageState().TotalPages())

	empty := NewPaginated[string](nil, 0, 1, 20)
	assert.NotNil(t, empty.Items)
	assert.False(t, empty.IsPartial())
}

func TestFilter_ResetRestoresDefaults(t *testing.T) {
	f := NewFilter("name")
	f.Search = "widget"
	f.Category = "hardware"
	f.SortBy = "value"
	f.SortDir = SortDesc
	f.Page.Page = 4

	f.Reset()

	assert.Equal(t, NewFilter("name"), f)
}

func TestFilter_Matches(t *testing.T) {
	f := NewFilter("name")
	assert.True(t, f.Matches("anything"))

	f.Search = "  WiDg "
	assert.True(t, f.Matches("SKU-1", "Blue widget"))
	assert.False(t, f.Matches("SKU-1", "Bolt"))
}

func TestFilter_InDateRange(t *testing.T) {
	from := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	f := NewFilter("date")
	f.DateFrom = &from
	f.DateTo = &to

	assert.True(t, f.InDateRange(time.Date(2026, 1, 31, 23, 59, 0, 0, time.UTC)))
	assert.True(t, f.InDateRange(from))
	assert.False(t, f.InDateRange(time.Date(2025, 12, 31, 23, 0, 0, 0, time.UTC)))
	assert.False(t, f.InDateRange(time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)))
}

func TestDomainError_Is(t *testing.T) {
	err := fmt.Errorf("deleting vendor: %w", NewDomainError("NOT_FOUND", "vendor 7 not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrValidation))

	verr := NewValidationError("name", "is required")
	assert.True(t, errors.Is(verr, ErrValidation))
	assert.Contains(t, verr.Error(), "name is required")
}
