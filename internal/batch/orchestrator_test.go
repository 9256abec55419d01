package batch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "admitcli/internal/errors"
	"admitcli/internal/shared/testutil"
	"admitcli/pkg/contracts/domain"
)

func numberedTable(n int) *domain.Table {
	t := domain.NewTable("id")
	for i := 0; i < n; i++ {
		t.Append(domain.Row{"id": i})
	}
	return t
}

func tagChunk(_ context.Context, index int, chunk *domain.Table) (*domain.Table, error) {
	chunk.AddColumn("chunk")
	for _, r := range chunk.Rows {
		r["chunk"] = index
	}
	return chunk, nil
}

func TestChunks(t *testing.T) {
	tests := []struct {
		name string
		n    int
		size int
		want []Chunk
	}{
		{"empty", 0, 1000, nil},
		{"exact", 2000, 1000, []Chunk{{0, 0, 1000}, {1, 1000, 2000}}},
		{"remainder", 2500, 1000, []Chunk{{0, 0, 1000}, {1, 1000, 2000}, {2, 2000, 2500}}},
		{"default size", 3, 0, []Chunk{{0, 0, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Chunks(tt.n, tt.size))
		})
	}
}

func TestRun_PreservesOrder(t *testing.T) {
	logger, _ := testutil.NewTestLogger(t)
	o := New(1000, 4, logger)

	var progress [][2]int
	out, err := o.Run(context.Background(), numberedTable(2500), tagChunk, func(done, total int) {
		progress = append(progress, [2]int{done, total})
	})
	require.NoError(t, err)

	require.Equal(t, 2500, out.Len())
	assert.Equal(t, []string{"id", "chunk"}, out.Columns)
	for i, r := range out.Rows {
		assert.Equal(t, i, r["id"])
		assert.Equal(t, i/1000, r["chunk"])
	}
	assert.Equal(t, [][2]int{{1, 3}, {2, 3}, {3, 3}}, progress)
}

func TestRun_OrderIndependentOfCompletion(t *testing.T) {
	o := New(1000, 3, nil)

	// Chunk 0 waits for chunk 2 to finish, chunk 1 waits for chunk 0.
	lastDone := make(chan struct{})
	firstDone := make(chan struct{})
	var (
		mu    sync.Mutex
		order []int
	)

	fn := func(ctx context.Context, index int, chunk *domain.Table) (*domain.Table, error) {
		switch index {
		case 0:
			<-lastDone
			defer close(firstDone)
		case 1:
			<-firstDone
		case 2:
			defer close(lastDone)
		}
		mu.Lock()
		order = append(order, index)
		mu.Unlock()
		return tagChunk(ctx, index, chunk)
	}

	out, err := o.Run(context.Background(), numberedTable(2500), fn, nil)
	require.NoError(t, err)

	assert.Equal(t, []int{2, 0, 1}, order)
	for i, r := range out.Rows {
		require.Equal(t, i, r["id"])
	}
}

func TestRun_ChunkErrorFailsBatch(t *testing.T) {
	o := New(10, 2, nil)
	boom := errors.New("row 17 is corrupt")

	out, err := o.Run(context.Background(), numberedTable(30), func(ctx context.Context, index int, chunk *domain.Table) (*domain.Table, error) {
		if index == 1 {
			return nil, boom
		}
		return chunk, nil
	}, nil)

	assert.Nil(t, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTask))
	assert.Contains(t, err.Error(), "row 17 is corrupt")
}

func TestRun_PanicBecomesError(t *testing.T) {
	o := New(5, 2, nil)

	_, err := o.Run(context.Background(), numberedTable(10), func(ctx context.Context, index int, chunk *domain.Table) (*domain.Table, error) {
		panic(fmt.Sprintf("bad chunk %d", index))
	}, nil)

	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeTask))
	assert.Contains(t, err.Error(), "bad chunk")
}

func TestRun_ChunksArePrivateCopies(t *testing.T) {
	in := numberedTable(4)
	_, err := New(2, 2, nil).Run(context.Background(), in, tagChunk, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"id"}, in.Columns)
	assert.NotContains(t, in.Rows[0], "chunk")
}

func TestRun_EmptyInputKeepsSchema(t *testing.T) {
	out, err := New(0, 0, nil).Run(context.Background(), domain.NewTable("id"), tagChunk, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, out.Len())
	assert.Equal(t, []string{"id", "chunk"}, out.Columns)
}
