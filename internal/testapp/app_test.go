package testapp

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newServer(t *testing.T, opts Options) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(New(opts, zaptest.NewLogger(t)).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func TestIndex(t *testing.T) {
	srv := newServer(t, Options{})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, "OpenCraftShop", doc.Find("h1").Text())
	assert.Equal(t, 4, doc.Find("#furniture-type option").Length())
	for _, sel := range []string{"#length", "#width", "#height", "#generate-btn", "#results", "#view-toggle",
		"#exploded-toggle", "#toggle-label", ".cut-diagram", ".left-pane", ".middle-pane", ".right-pane",
		"#stl-download", "#cut-list-download", "#shopping-list-download"} {
		assert.Equal(t, 1, doc.Find(sel).Length(), sel)
	}
	assert.Equal(t, "Generate Design", doc.Find("#generate-btn").Text())
}

func TestIndex_Omissions(t *testing.T) {
	srv := newServer(t, Options{OmitTitle: true, OmitCutDiagram: true, OmitDownloads: true})

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	assert.Zero(t, doc.Find("h1").Length())
	assert.Zero(t, doc.Find(".cut-diagram").Length())
	assert.Zero(t, doc.Find("#stl-download").Length())
}

func TestGenerateAndDownload(t *testing.T) {
	srv := newServer(t, Options{})

	body := `{"type":"workbench","length":72,"width":24,"height":34}`
	resp, err := http.Post(srv.URL+"/api/generate", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out GenerateResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.True(t, out.Success)
	assert.Len(t, out.Files, 4)
	assert.Contains(t, out.CutListContent, "┌")
	assert.Contains(t, out.Files["stl_assembled"], "workbench")

	for _, name := range out.Files {
		dl, err := http.Get(srv.URL + "/api/download/" + name)
		require.NoError(t, err)
		data, _ := io.ReadAll(dl.Body)
		dl.Body.Close()
		assert.Equal(t, http.StatusOK, dl.StatusCode, name)
		assert.NotEmpty(t, data)
	}
}

func TestGenerate_Errors(t *testing.T) {
	t.Run("UnknownType", func(t *testing.T) {
		srv := newServer(t, Options{})
		resp, err := http.Post(srv.URL+"/api/generate", "application/json", bytes.NewBufferString(`{"type":"couch"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Malformed", func(t *testing.T) {
		srv := newServer(t, Options{})
		resp, err := http.Post(srv.URL+"/api/generate", "application/json", bytes.NewBufferString(`{`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("Forced", func(t *testing.T) {
		srv := newServer(t, Options{FailGenerate: true})
		resp, err := http.Post(srv.URL+"/api/generate", "application/json", bytes.NewBufferString(`{"type":"workbench"}`))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	})

	t.Run("MissingDownload", func(t *testing.T) {
		srv := newServer(t, Options{})
		resp, err := http.Get(srv.URL + "/api/download/nothing.stl")
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestCutList(t *testing.T) {
	out := CutList(GenerateRequest{Type: "bookshelf", Length: 36, Width: 12, Height: 72})
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	require.Len(t, lines, 8)
	assert.True(t, strings.HasPrefix(lines[0], "┌"))
	assert.Contains(t, lines[1], "bookshelf")
	assert.True(t, strings.HasPrefix(lines[7], "└"))
}
