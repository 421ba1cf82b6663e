package websearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-companion-be/pkg/errs"
	"ai-companion-be/pkg/retrieval"
)

func TestSearchWebParsesResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang generics", r.URL.Query().Get("q"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"url":"https://go.dev/blog/intro-generics","title":"An Introduction To Generics","content":"Generics add...","score":2.5},
			{"url":"https://example.com/other","title":"Other","content":"...","score":1.1}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	docs, err := c.SearchWeb(context.Background(), "golang generics", 10)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Equal(t, retrieval.SourceWeb, docs[0].Origin)
	assert.Equal(t, "https://go.dev/blog/intro-generics", docs[0].SourceID)
	assert.Equal(t, 2.5, docs[0].RawScore)
	assert.False(t, docs[0].RetrievedAt.IsZero())
}

func TestSearchWebHonorsLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[
			{"url":"a","title":"a","score":3},
			{"url":"b","title":"b","score":2},
			{"url":"c","title":"c","score":1}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	docs, err := c.SearchWeb(context.Background(), "q", 2)

	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestSearchWebServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.SearchWeb(context.Background(), "q", 5)

	require.Error(t, err)
	assert.True(t, errs.IsTransient(err))
}

func TestSearchWebMissingScoreFallsBackToRank(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"results":[{"url":"a","title":"first"},{"url":"b","title":"second"}]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	docs, err := c.SearchWeb(context.Background(), "q", 5)

	require.NoError(t, err)
	require.Len(t, docs, 2)
	assert.Greater(t, docs[0].RawScore, docs[1].RawScore)
}
