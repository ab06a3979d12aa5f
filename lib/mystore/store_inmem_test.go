package mystore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type pendingRecord struct {
	UID       string
	Reference string
	Amount    int64
}

var (
	record = pendingRecord{UID: "bk_123", Reference: "pidx_456", Amount: 100000}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[pendingRecord](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := ps.Get(c, record.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put", func(t *testing.T) {
		err = ps.Put(c, record.UID, record)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		p, found, err := ps.Get(c, record.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, pendingRecord{UID: "bk_123", Reference: "pidx_456", Amount: 100000}, p)
	})

	t.Run("List", func(t *testing.T) {
		all, err := ps.List(c)
		assert.NoError(t, err)
		assert.Equal(t, all, []pendingRecord{record})
	})

	t.Run("Delete", func(t *testing.T) {
		err := ps.Delete(c, record.UID)
		assert.NoError(t, err)

		_, found, err := ps.Get(c, record.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Delete is idempotent", func(t *testing.T) {
		err := ps.Delete(c, record.UID)
		assert.NoError(t, err)
	})

	t.Run("Transaction propagates the callback error", func(t *testing.T) {
		err := ps.RunInTransaction(c, func(c context.Context) error {
			innerErr := ps.Put(c, record.UID, record)
			assert.NoError(t, innerErr)
			return assert.AnError
		})
		assert.Error(t, err)
	})
}
