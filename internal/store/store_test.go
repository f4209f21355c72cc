package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/batpad/ll-html/internal/artifact"
	"github.com/batpad/ll-html/internal/config"
	"github.com/batpad/ll-html/internal/repair"
	"github.com/batpad/ll-html/internal/research"
	"github.com/batpad/ll-html/internal/templates"
	"github.com/batpad/ll-html/internal/validation"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	require.NoError(t, s.Put(ctx, "s1", "/b.json", []byte("{}")))
	require.NoError(t, s.Put(ctx, "s1", "a.html", []byte("<html>")))
	require.NoError(t, s.Put(ctx, "s2", "a.html", []byte("other")))

	got, err := s.Get(ctx, "s1", "a.html")
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(got))

	got[0] = 'X'
	again, _ := s.Get(ctx, "s1", "a.html")
	assert.Equal(t, "<html>", string(again), "returned slices are copies")

	paths, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a.html", "b.json"}, paths)

	_, err = s.Get(ctx, "s1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Put(ctx, " ", "a", nil))
	assert.Error(t, s.Put(ctx, "s1", "", nil))
}

func TestOpen(t *testing.T) {
	s, closeFn, err := Open(context.Background(), config.StoreConfig{Kind: "memory"})
	require.NoError(t, err)
	defer closeFn()
	assert.IsType(t, &MemoryStore{}, s)

	s, _, err = Open(context.Background(), config.StoreConfig{Kind: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, _, err = Open(context.Background(), config.StoreConfig{Kind: "s3"})
	assert.Error(t, err, "s3 needs an endpoint")
	_, _, err = Open(context.Background(), config.StoreConfig{Kind: "postgres"})
	assert.Error(t, err, "postgres needs a database url")
	_, _, err = Open(context.Background(), config.StoreConfig{Kind: "ftp"})
	assert.Error(t, err)
}

func TestNewS3StoreBuildsClient(t *testing.T) {
	s, err := NewS3Store(S3Config{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "llhtml"})
	require.NoError(t, err)
	assert.Equal(t, "us-east-1", s.region)
	assert.Equal(t, "s1/versions/v2.html", objectKey("s1", VersionPath(2)))
	assert.Equal(t, "text/html; charset=utf-8", contentType("artifact.html"))
	assert.Equal(t, "application/json", contentType(PathReport))
}

func TestSaveOutcome(t *testing.T) {
	tpl, _ := templates.Default().Get(templates.KindMap)
	v1, err := artifact.New(tpl, templates.Parts{Title: "Quakes", CustomJS: "d3.select('x');"}, artifact.Usage{}, time.Now())
	require.NoError(t, err)
	v2, err := v1.Revise(tpl, templates.Parts{Title: "Quakes", CustomJS: "hideLoading();"}, artifact.Usage{}, time.Now())
	require.NoError(t, err)
	versions := []repair.Version{
		{Artifact: v1, Report: validation.Report{Issues: []validation.Issue{{Category: validation.Scripting, Severity: validation.Major}}, Score: 3}},
		{Artifact: v2, Report: validation.Report{Issues: []validation.Issue{}}},
	}
	s := NewMemoryStore()
	rec := Record{
		SessionID: "sess",
		Request:   "earthquake map",
		Status:    "completed",
		Research:  &research.Context{Request: "earthquake map", Successful: 2},
		Final:     &versions[1],
		Versions:  versions,
	}
	require.NoError(t, SaveOutcome(context.Background(), s, rec))

	paths, _ := s.List(context.Background(), "sess")
	assert.Equal(t, []string{"artifact.html", "report.json", "research.json", "versions/v1.html", "versions/v2.html"}, paths)

	html, _ := s.Get(context.Background(), "sess", PathArtifact)
	assert.Equal(t, v2.Text, string(html))

	raw, _ := s.Get(context.Background(), "sess", PathReport)
	var report map[string]any
	require.NoError(t, json.Unmarshal(raw, &report))
	assert.Equal(t, "completed", report["status"])
	assert.EqualValues(t, 2, report["version"])
	assert.Len(t, report["versions"], 2)

	raw, _ = s.Get(context.Background(), "sess", PathResearch)
	var rc research.Context
	require.NoError(t, json.Unmarshal(raw, &rc))
	assert.Equal(t, 2, rc.Successful)
}

func TestSaveOutcomeWithoutArtifact(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, SaveOutcome(context.Background(), s, Record{SessionID: "blocked", Status: "blocked"}))
	paths, _ := s.List(context.Background(), "blocked")
	assert.Equal(t, []string{"report.json"}, paths)
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "s1", PathArtifact, []byte("<html>")))
	require.NoError(t, s.Put(ctx, "s1", VersionPath(1), []byte("v1")))
	got, err := s.Get(ctx, "s1", PathArtifact)
	require.NoError(t, err)
	assert.Equal(t, "<html>", string(got))

	paths, err := s.List(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, []string{PathArtifact, "versions/v1.html"}, paths)

	empty, err := s.List(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, empty)

	_, err = s.Get(ctx, "s1", "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Error(t, s.Put(ctx, "s1", "../s2/artifact.html", nil))
	assert.Error(t, s.Put(ctx, "../etc", "x", nil))
}
