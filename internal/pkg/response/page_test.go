package response

import (
	"encoding/json"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/service-booking-backend/internal/pkg/request"
)

func TestNewPage(t *testing.T) {
	p := request.ListParams{Page: 2, PageSize: 5}

	t.Run("Converts rows", func(t *testing.T) {
		page := NewPage([]int{7, 8}, strconv.Itoa, p, 12)
		assert.Equal(t, []string{"7", "8"}, page.Items)
		assert.Equal(t, 2, page.Page)
		assert.Equal(t, 5, page.PageSize)
		assert.Equal(t, 12, page.Total)
	})

	t.Run("Empty page encodes as array", func(t *testing.T) {
		b, err := json.Marshal(NewPage[int](nil, strconv.Itoa, p, 0))
		require.NoError(t, err)
		assert.JSONEq(t, `{"items":[],"page":2,"page_size":5,"total":0}`, string(b))
	})
}
