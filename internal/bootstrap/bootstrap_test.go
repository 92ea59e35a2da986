package bootstrap

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-social-graph/config"
	"github.com/oksasatya/go-social-graph/internal/domain/entity"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/memory"
	"github.com/oksasatya/go-social-graph/internal/infrastructure/search"
	"github.com/oksasatya/go-social-graph/pkg/helpers"
)

func TestOpenStore_Memory(t *testing.T) {
	cfg := &config.Config{StoreBackend: StoreMemory}
	st, err := OpenStore(context.Background(), cfg, helpers.NewDiscardLogger())
	require.NoError(t, err)
	defer st.Close()
	assert.IsType(t, &memory.Store{}, st)
}

func TestOpenStore_Badger(t *testing.T) {
	cfg := &config.Config{StoreBackend: StoreBadger, BadgerPath: t.TempDir()}
	ctx := context.Background()

	st, err := OpenStore(ctx, cfg, helpers.NewDiscardLogger())
	require.NoError(t, err)
	require.NoError(t, st.Create(ctx, &entity.User{Username: "alice"}))
	require.NoError(t, st.Close())

	st, err = OpenStore(ctx, cfg, helpers.NewDiscardLogger())
	require.NoError(t, err)
	defer st.Close()
	u, err := st.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
}

func TestOpenStore_Unknown(t *testing.T) {
	_, err := OpenStore(context.Background(), &config.Config{StoreBackend: "mysql"}, helpers.NewDiscardLogger())
	assert.ErrorContains(t, err, `unknown STORE_BACKEND "mysql"`)
}

func TestOpenSearch(t *testing.T) {
	st := memory.NewStore()
	idx, err := OpenSearch(context.Background(), &config.Config{SearchBackend: SearchScan}, st, helpers.NewDiscardLogger())
	require.NoError(t, err)
	assert.IsType(t, &search.ScanIndex{}, idx)

	_, err = OpenSearch(context.Background(), &config.Config{SearchBackend: "solr"}, st, helpers.NewDiscardLogger())
	assert.Error(t, err)
}
