package retrieval_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finagentlabs/finagent/pkg/ports"
	"github.com/finagentlabs/finagent/pkg/retrieval"
)

func TestIndex_EmptyResultIsValid(t *testing.T) {
	idx := retrieval.NewIndex()
	got, err := idx.Search(context.Background(), "gst liability", 5, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestIndex_RanksByOverlap(t *testing.T) {
	idx := retrieval.NewIndex()
	idx.Add(
		ports.Snippet{DocumentID: "a", Text: "GST liability for the third quarter was 45000"},
		ports.Snippet{DocumentID: "b", Text: "GST registration renewal reminder"},
		ports.Snippet{DocumentID: "c", Text: "office party planning notes"},
	)

	got, err := idx.Search(context.Background(), "gst liability quarter", 5, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].DocumentID)
	assert.Equal(t, "b", got[1].DocumentID)
	assert.Greater(t, got[0].Score, got[1].Score)
}

func TestIndex_TopN(t *testing.T) {
	idx := retrieval.NewIndex()
	for i := 0; i < 10; i++ {
		idx.Add(ports.Snippet{DocumentID: "d", Text: "invoice total payment"})
	}
	got, err := idx.Search(context.Background(), "invoice payment", 3, "")
	require.NoError(t, err)
	assert.Len(t, got, 3)
}

func TestIndex_DocTypeFilter(t *testing.T) {
	idx := retrieval.NewIndex()
	idx.Add(
		ports.Snippet{DocumentID: "a", DocType: "invoice", Text: "payment of 5000"},
		ports.Snippet{DocumentID: "b", DocType: "bank_statement", Text: "payment of 5000"},
	)

	got, err := idx.Search(context.Background(), "payment", 5, "bank_statement")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].DocumentID)
}

func TestIndex_DefaultN(t *testing.T) {
	idx := retrieval.NewIndex()
	for i := 0; i < 8; i++ {
		idx.Add(ports.Snippet{Text: "invoice payment due"})
	}
	got, err := idx.Search(context.Background(), "invoice", 0, "")
	require.NoError(t, err)
	assert.Len(t, got, 5)
}

func TestIndex_CancelledContext(t *testing.T) {
	idx := retrieval.NewIndex()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := idx.Search(ctx, "anything", 5, "")
	assert.ErrorIs(t, err, context.Canceled)
}
