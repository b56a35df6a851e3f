package engine_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vanshika/routegraph/internal/engine"
)

func TestConcurrentMutationsAndQueries(t *testing.T) {
	ctx := context.Background()
	g := buildGraph(t, exampleEdges)

	const writers = 8
	const perWriter = 50

	var wg sync.WaitGroup
	errCh := make(chan error, writers*perWriter*2)

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				// Every writer reuses the shared hub names so find-or-create races on them.
				from := fmt.Sprintf("hub-%d", i%5)
				to := fmt.Sprintf("leaf-%d-%d", w, i)
				if _, err := g.AddEdge(ctx, from, to, float64(i%7)); err != nil {
					errCh <- err
				}
			}
		}(w)

		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				path, found, err := g.ShortestPath(ctx, "s", "e")
				if err != nil {
					errCh <- err
					continue
				}
				if !found || path.Weight != 11 {
					errCh <- fmt.Errorf("unexpected path %v weight %v", path.Names(), path.Weight)
				}
			}
		}()
	}

	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	st, err := g.Stats()
	require.NoError(t, err)
	require.Equal(t, len(exampleEdges)+writers*perWriter, st.Edges)
	require.Equal(t, 5+5+writers*perWriter, st.Nodes)

	for i := 0; i < 5; i++ {
		_, err := g.Find(fmt.Sprintf("hub-%d", i))
		require.NoError(t, err)
	}
}

func TestCloseWaitsForQueries(t *testing.T) {
	ctx := context.Background()
	g := buildGraph(t, exampleEdges)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := g.ShortestPath(ctx, "s", "e")
			if err != nil {
				assert.ErrorIs(t, err, engine.ErrClosed)
			}
		}()
	}
	require.NoError(t, g.Close())
	wg.Wait()
}
