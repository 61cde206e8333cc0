package kobo

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fieldops/kobo-dolibarr-bridge/internal/config"
)

func TestListSubmissionsWalksPages(t *testing.T) {
	var starts []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Token secret", r.Header.Get("Authorization"))
		assert.Equal(t, "/api/v2/assets/aU7S/data/", r.URL.Path)

		start := r.URL.Query().Get("start")
		starts = append(starts, start)
		switch start {
		case "0":
			fmt.Fprint(w, `{"count":3,"results":[{"ticket_ref":"T-1"},{"ticket_ref":"T-2"}]}`)
		default:
			fmt.Fprint(w, `{"count":3,"results":[{"ticket_ref":"T-3"}]}`)
		}
	}))
	defer server.Close()

	client := New(config.KoboConfig{
		BaseURL:  server.URL,
		Token:    "secret",
		AssetUID: "aU7S",
		PageSize: 2,
	})

	submissions, err := client.ListSubmissions(context.Background())
	require.NoError(t, err)
	require.Len(t, submissions, 3)
	assert.Equal(t, []string{"0", "2"}, starts)

	ref, ok := submissions[2].First("ticket_ref")
	require.True(t, ok)
	assert.Equal(t, "T-3", ref)
}

func TestListSubmissionsRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"Invalid token."}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := New(config.KoboConfig{BaseURL: server.URL, Token: "bad", AssetUID: "aU7S", PageSize: 2})
	_, err := client.ListSubmissions(context.Background())
	assert.Error(t, err)
}
