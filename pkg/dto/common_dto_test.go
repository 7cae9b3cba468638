package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageQuery(t *testing.T) {
	q := PageQuery{}.Normalize()
	assert.Equal(t, 1, q.Page)
	assert.Equal(t, 20, q.Limit)
	assert.Equal(t, 0, q.Offset())

	q = PageQuery{Page: 3, Limit: 10}.Normalize()
	assert.Equal(t, 20, q.Offset())

	meta := q.Meta(21)
	assert.Equal(t, 3, meta.TotalPages)
	assert.Equal(t, int64(21), meta.TotalItems)
}
