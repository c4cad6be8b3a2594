package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/astrocat/atelscan/pkg/atelscan"
	"github.com/astrocat/atelscan/pkg/atelscan/internalerr"
	"github.com/astrocat/atelscan/pkg/atelscan/store/memstore"
)

type fakeFetcher struct {
	pages map[int]string
}

func (f *fakeFetcher) Download(ctx context.Context, id int) (string, error) {
	page, ok := f.pages[id]
	if !ok {
		return "", fmt.Errorf("%w: report %d", internalerr.ErrReportNotFound, id)
	}
	return page, nil
}

func validPage(id int) string {
	return fmt.Sprintf(`<html><body><div id="telegram">`+
		`<h1 class="title">Optical transient number %d</h1>`+
		`<p><strong>A. Observer</strong> on <strong>11 Feb 2007; 09:48 UT</strong></p>`+
		`<p>A bright optical transient was found.</p>`+
		`</div></body></html>`, id)
}

func newTestServer(t *testing.T, pages map[int]string) *httptest.Server {
	t.Helper()
	engine := atelscan.New(atelscan.Options{
		Store:   memstore.New(),
		Fetcher: &fakeFetcher{pages: pages},
	})
	t.Cleanup(func() { engine.Close() })

	srv := httptest.NewServer(NewServer(engine, nil).Router())
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	return resp, payload
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestManualImport(t *testing.T) {
	srv := newTestServer(t, map[int]string{1000: validPage(1000)})

	resp, payload := postJSON(t, srv.URL+"/import", `{"mode":"manual","report":1000}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), payload["flag"])

	// Second import of the same number conflicts.
	resp, _ = postJSON(t, srv.URL+"/import", `{"mode":"manual","report":1000}`)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestManualImportUnknownNumber(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, _ := postJSON(t, srv.URL+"/import", `{"mode":"manual","report":99999}`)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestManualImportMalformedDocument(t *testing.T) {
	srv := newTestServer(t, map[int]string{7: `<html><body><p>nothing here</p></body></html>`})

	resp, _ := postJSON(t, srv.URL+"/import", `{"mode":"manual","report":7}`)
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestImportBadRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"mode":`},
		{name: "unknown mode", body: `{"mode":"sideways"}`},
		{name: "manual without report", body: `{"mode":"manual"}`},
		{name: "negative report", body: `{"mode":"manual","report":-3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postJSON(t, srv.URL+"/import", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAutoImport(t *testing.T) {
	srv := newTestServer(t, map[int]string{1: validPage(1), 2: validPage(2)})

	resp, payload := postJSON(t, srv.URL+"/import", `{"mode":"auto"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(2), payload["imported"])
	assert.NotEmpty(t, payload["batch"])
}

func TestSearch(t *testing.T) {
	srv := newTestServer(t, map[int]string{1000: validPage(1000)})
	resp, _ := postJSON(t, srv.URL+"/import", `{"mode":"manual","report":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload := postJSON(t, srv.URL+"/search", `{"term":"optical transient"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), payload["flag"])

	reports, ok := payload["reports"].([]any)
	require.True(t, ok)
	require.Len(t, reports, 1)
	first, ok := reports[0].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(1000), first["id"])
	assert.Equal(t, "Optical transient number 1000", first["title"])

	// The free-text term contains vocabulary keywords; they come back as
	// suggestions.
	assert.Equal(t, []any{"optical", "transient"}, payload["suggested_keywords"])
}

func TestSearchNoMatches(t *testing.T) {
	srv := newTestServer(t, nil)

	resp, payload := postJSON(t, srv.URL+"/search", `{"term":"nothing stored"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reports, ok := payload["reports"].([]any)
	require.True(t, ok)
	assert.Empty(t, reports)
}

func TestSearchBadRequests(t *testing.T) {
	srv := newTestServer(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{name: "no criteria", body: `{}`},
		{name: "unknown keyword", body: `{"keywords":["warp drive"]}`},
		{name: "bad keyword mode", body: `{"term":"x","keyword_mode":"sometimes"}`},
		{name: "bad start date", body: `{"term":"x","start_date":"soon"}`},
		{name: "reversed range", body: `{"term":"x","start_date":"2008-01-01","end_date":"2007-01-01"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, _ := postJSON(t, srv.URL+"/search", tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestSearchByKeywordAndDateRange(t *testing.T) {
	srv := newTestServer(t, map[int]string{1000: validPage(1000)})
	resp, _ := postJSON(t, srv.URL+"/import", `{"mode":"manual","report":1000}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, payload := postJSON(t, srv.URL+"/search",
		`{"keywords":["optical"],"start_date":"2007-02-11","end_date":"2007-02-11"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reports := payload["reports"].([]any)
	require.Len(t, reports, 1)

	// Outside the range nothing matches.
	resp, payload = postJSON(t, srv.URL+"/search",
		`{"keywords":["optical"],"end_date":"2007-02-10"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	reports = payload["reports"].([]any)
	assert.Empty(t, reports)
}

func TestMetadata(t *testing.T) {
	srv := newTestServer(t, map[int]string{1000: validPage(1000)})

	resp, err := http.Get(srv.URL + "/metadata")
	require.NoError(t, err)
	defer resp.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, float64(0), payload["report_count"])
	assert.NotContains(t, payload, "last_updated")

	respImport, _ := postJSON(t, srv.URL+"/import", `{"mode":"manual","report":1000}`)
	require.Equal(t, http.StatusOK, respImport.StatusCode)

	resp, err = http.Get(srv.URL + "/metadata")
	require.NoError(t, err)
	defer resp.Body.Close()
	payload = map[string]any{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&payload))
	assert.Equal(t, float64(1), payload["report_count"])
	assert.Contains(t, payload, "last_updated")
}
