package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cartelera/internal/fixture"
)

func writeListing(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.html")
	require.NoError(t, os.WriteFile(path, []byte(fixture.Listing), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--now", "2024-06-10 10:00"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestPruneToFile(t *testing.T) {
	page := writeListing(t)
	dst := filepath.Join(t.TempDir(), "pruned.html")

	out, err := run(t, "prune", page, "-o", dst)
	require.NoError(t, err)

	var rep struct {
		RemovedEvents []string
		Reordered     bool
		Remaining     int
	}
	require.NoError(t, json.Unmarshal([]byte(out), &rep))
	assert.ElementsMatch(t, []string{"e1", "e6"}, rep.RemovedEvents)
	assert.Equal(t, 4, rep.Remaining)

	body, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.NotContains(t, string(body), `id="e1"`)
	assert.NotContains(t, string(body), `id="e6"`)
	assert.Contains(t, string(body), `id="e5"`)
}

func TestPruneToStdout(t *testing.T) {
	out, err := run(t, "prune", writeListing(t))
	require.NoError(t, err)
	assert.Contains(t, out, "<html")
	assert.NotContains(t, out, "Old film")
	assert.Contains(t, out, "Festival")
}

func TestQuery(t *testing.T) {
	page := writeListing(t)

	out, err := run(t, "query", page, "?musica&2024-07-01")
	require.NoError(t, err)
	var res queryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.Equal(t, "?musica&2024-07-01", res.Canonical)
	assert.False(t, res.Redirect)
	require.Len(t, res.Events, 1)
	assert.Equal(t, "e5", res.Events[0].ID)
	assert.Equal(t, "Festival", res.Events[0].Title)
	assert.ElementsMatch(t, []string{"e2", "e3", "e4"}, res.Hidden)
}

func TestQueryReportsRedirect(t *testing.T) {
	out, err := run(t, "query", writeListing(t), "2024-07-01&musica")
	require.NoError(t, err)
	var res queryResult
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	assert.True(t, res.Redirect)
	assert.Equal(t, "?musica&2024-07-01", res.Canonical)
}

func TestICS(t *testing.T) {
	out, err := run(t, "ics", writeListing(t), "teatro")
	require.NoError(t, err)
	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Contains(t, out, "SUMMARY:Hamlet")
	assert.Contains(t, out, "20240615")
	assert.NotContains(t, out, "Festival")
	assert.NotContains(t, out, "Concierto")
}

func TestBadNow(t *testing.T) {
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--now", "mañana", "prune", writeListing(t)})
	assert.Error(t, cmd.Execute())
}

func TestMissingPage(t *testing.T) {
	_, err := run(t, "query", filepath.Join(t.TempDir(), "nope.html"))
	assert.Error(t, err)
}

func TestPageHref(t *testing.T) {
	assert.Equal(t, "http://localhost/", pageHref(""))
	assert.Equal(t, "http://localhost/?cine", pageHref("cine"))
	assert.Equal(t, "http://localhost/?cine", pageHref(" ?cine "))
}
