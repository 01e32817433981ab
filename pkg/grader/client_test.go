package grader

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewRequiresBaseURL(t *testing.T) {
	_, err := New(Config{}, zerolog.New(io.Discard))
	require.Error(t, err)
}

func TestClientPostsNotebookReference(t *testing.T) {
	var gotPath string
	var gotBody NotebookRef

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL + "/"}, zerolog.New(io.Discard))
	require.NoError(t, err)

	ref := NotebookRef{Filename: "sorting.ipynb", Path: "labs/sorting.ipynb"}

	require.NoError(t, client.PrepareWorkspace(context.Background(), "user_42", "sorting-lab", ref))
	require.Equal(t, "/prepare-notebook/user_42/sorting-lab", gotPath)
	require.Equal(t, ref, gotBody)

	require.NoError(t, client.TriggerGrading(context.Background(), "user_42", "sorting-lab", ref))
	require.Equal(t, "/submit/user_42/sorting-lab", gotPath)
}

func TestClientRejectsNon2xxResponses(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL}, zerolog.New(io.Discard))
	require.NoError(t, err)

	err = client.TriggerGrading(context.Background(), "user_42", "sorting-lab", NotebookRef{Filename: "a.ipynb"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "502")
}

func TestClientHonorsContextCancellation(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client, err := New(Config{BaseURL: server.URL}, zerolog.New(io.Discard))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err = client.PrepareWorkspace(ctx, "user_42", "sorting-lab", NotebookRef{Filename: "a.ipynb"})
	require.Error(t, err)
}
