package websearch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const resultsPage = `<html><body>
<div class="results">
  <div class="result result--ad">
    <a class="result__a" href="https://ads.example/x">Sponsored</a>
  </div>
  <div class="result results_links">
    <h2><a class="result__a" href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fexample.com%2Fjane&amp;rut=abc">Jane   Smith - Profile</a></h2>
    <a class="result__snippet">Jane Smith is an
      actor known for things.</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://example.org/jane2">Jane Smith filmography</a>
  </div>
  <div class="result">
    <a class="result__a" href="https://example.net/3">Third hit</a>
    <div class="result__snippet">More</div>
  </div>
  <div class="result"><span>no link here</span></div>
</div>
</body></html>`

func TestParseResults(t *testing.T) {
	results, err := ParseResults([]byte(resultsPage), 10)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "Jane Smith - Profile", results[0].Title)
	assert.Equal(t, "https://example.com/jane", results[0].URL)
	assert.Equal(t, "Jane Smith is an actor known for things.", results[0].Snippet)

	assert.Equal(t, "https://example.org/jane2", results[1].URL)
	assert.Empty(t, results[1].Snippet)
}

func TestParseResults_Limit(t *testing.T) {
	results, err := ParseResults([]byte(resultsPage), 2)
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestParseResults_Empty(t *testing.T) {
	_, err := ParseResults(nil, 5)
	assert.Error(t, err)

	results, err := ParseResults([]byte("<html></html>"), 5)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestClient_Search(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/html/" {
			http.NotFound(w, r)
			return
		}
		gotQuery = r.URL.Query().Get("q")
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(resultsPage))
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL + "/", RequestsPerSecond: 100, MaxResults: 1})
	results, err := c.Search(context.Background(), "Jane Smith actor", 0)
	require.NoError(t, err)

	assert.Equal(t, "Jane Smith actor", gotQuery)
	assert.Contains(t, gotUA, "Mozilla/5.0")
	assert.Len(t, results, 1, "client default applies when limit is zero")
}

func TestClient_SearchHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c := New(Options{BaseURL: srv.URL, RequestsPerSecond: 100})
	_, err := c.Search(context.Background(), "x", 5)
	require.Error(t, err)

	var statusErr *HTTPStatusError
	require.True(t, errors.As(err, &statusErr))
	assert.Equal(t, http.StatusForbidden, statusErr.StatusCode)
}

func TestClient_SearchBlankQuery(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	results, err := c.Search(context.Background(), "   ", 5)
	assert.NoError(t, err)
	assert.Nil(t, results)
}

func TestClient_SearchCanceled(t *testing.T) {
	c := New(Options{BaseURL: "http://127.0.0.1:1"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := c.Search(ctx, "x", 5)
	assert.Error(t, err)
}

func TestUnwrapRedirect(t *testing.T) {
	assert.Equal(t, "https://a.example/b", unwrapRedirect("//duckduckgo.com/l/?uddg=https%3A%2F%2Fa.example%2Fb"))
	assert.Equal(t, "https://plain.example/", unwrapRedirect("https://plain.example/"))
}
