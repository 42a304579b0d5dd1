package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"packlist/internal/model"
)

func TestAsyncWriter_AppliesInOrderAndDrainsOnClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ctx := context.Background()
	s := newTestStore(t)
	a := mustCreate(t, s, "A", "Misc")
	b := mustCreate(t, s, "B", "Misc")

	var mu sync.Mutex
	var applied []error
	w := NewAsyncWriter(s, AsyncWriterOpts{OnApplied: func(_ model.Batch, err error) {
		mu.Lock()
		applied = append(applied, err)
		mu.Unlock()
	}})
	w.Submit(model.Batch{Items: []model.ItemPatch{{ID: a.ID, Category: "Misc", Order: 1}, {ID: b.ID, Category: "Misc", Order: 0}}})
	w.Submit(model.Batch{})
	w.Submit(model.Batch{Items: []model.ItemPatch{{ID: "item-gone", Category: "Misc", Order: 0}}})
	w.Submit(model.Batch{CategoryOrder: []string{"Misc", "Clothes"}})
	w.Close()
	w.Close()

	mu.Lock()
	require.Len(t, applied, 3, "empty batch skipped")
	assert.NoError(t, applied[0])
	assert.ErrorIs(t, applied[1], ErrNotFound)
	assert.NoError(t, applied[2])
	mu.Unlock()

	st, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Misc", "Clothes"}, st.Settings.Categories)
	for _, it := range st.Items {
		if it.ID == a.ID {
			assert.Equal(t, 1, it.Order)
		}
	}

	w.Submit(model.Batch{CategoryOrder: []string{"late"}})
	st, err = s.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Misc", "Clothes"}, st.Settings.Categories, "submit after close is dropped")
}
