package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/internal/infrastructure/memory"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/storetest"
)

func TestScanIndex_Search(t *testing.T) {
	store := memory.NewStore()
	storetest.Seed(t, store, []string{"dave", "carol", "alice"}, nil)
	idx := NewScanIndex(store)
	ctx := context.Background()

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"username substring", "ar", []string{"carol"}},
		{"name substring", "e name", []string{"alice", "dave"}},
		{"case sensitive", "AR", []string{}},
		{"empty query matches all", "", []string{"alice", "carol", "dave"}},
		{"no match", "zzz", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := idx.Search(ctx, tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanIndex_SeesStoreChanges(t *testing.T) {
	store := memory.NewStore()
	storetest.Seed(t, store, []string{"carol"}, nil)
	idx := NewScanIndex(store)
	ctx := context.Background()

	require.NoError(t, store.Delete(ctx, "carol"))
	got, err := idx.Search(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, got)
}
