package helpers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextWithQuery(query string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/students?"+query, nil)
	return c
}

func TestParsePaginationParams(t *testing.T) {
	_, _, ok := ParsePaginationParams(contextWithQuery(""))
	assert.False(t, ok)

	page, size, ok := ParsePaginationParams(contextWithQuery("page=3&size=20"))
	assert.True(t, ok)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, size)

	page, size, ok = ParsePaginationParams(contextWithQuery("page=zero&size=100000"))
	assert.True(t, ok)
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)
}

func TestCalculateSliceIndices(t *testing.T) {
	tests := []struct {
		page, size, total int
		start, end        int
	}{
		{1, 10, 25, 0, 10},
		{3, 10, 25, 20, 25},
		{4, 10, 25, 25, 25},
		{0, 0, 5, 0, 5},
	}
	for _, tt := range tests {
		start, end := CalculateSliceIndices(tt.page, tt.size, tt.total)
		assert.Equal(t, tt.start, start)
		assert.Equal(t, tt.end, end)
	}
}

func TestNewPaginationInfo(t *testing.T) {
	info := NewPaginationInfo(25, 9, 10)
	assert.Equal(t, 3, info.TotalPages)
	assert.Equal(t, 3, info.CurrentPage)
	assert.EqualValues(t, 25, info.TotalItems)

	empty := NewPaginationInfo(0, 1, 10)
	assert.Equal(t, 1, empty.TotalPages)
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 90*time.Second, ParseDuration("90s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}
