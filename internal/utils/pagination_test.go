package utils

import (
	"math"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/coaching-plans-api/internal/constants"
)

func paginationContext(query string) *gin.Context {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/plans"+query, nil)
	return c
}

func TestGetPaginationParams_Absent(t *testing.T) {
	assert.Nil(t, GetPaginationParams(paginationContext("")))
}

func TestGetPaginationParams(t *testing.T) {
	params := GetPaginationParams(paginationContext("?page=3&limit=10"))
	require.NotNil(t, params)
	assert.Equal(t, 3, params.Page)
	assert.Equal(t, 10, params.Limit)
	assert.Equal(t, 20, params.Offset)
}

func TestGetPaginationParams_ClampsInvalidValues(t *testing.T) {
	params := GetPaginationParams(paginationContext("?page=-2&limit=5000"))
	require.NotNil(t, params)
	assert.Equal(t, 1, params.Page)
	assert.Equal(t, constants.DefaultPageSize, params.Limit)
	assert.Equal(t, 0, params.Offset)
}

func TestGetPaginationParams_HugePageDoesNotOverflow(t *testing.T) {
	params := GetPaginationParams(paginationContext("?page=9223372036854775807&limit=20"))
	require.NotNil(t, params)
	assert.Equal(t, math.MaxInt/20, params.Page)
	assert.Equal(t, 20, params.Limit)
	assert.Greater(t, params.Offset, 0)
}

func TestGenerateOAuthState(t *testing.T) {
	first, err := GenerateOAuthState()
	require.NoError(t, err)
	second, err := GenerateOAuthState()
	require.NoError(t, err)

	assert.Len(t, first, 32)
	assert.NotEqual(t, first, second)
}
