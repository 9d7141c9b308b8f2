package github_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ghAdapter "github.com/ericfisherdev/prwatch/internal/adapter/driven/github"
	"github.com/ericfisherdev/prwatch/internal/domain/model"
)

// newTestClient creates a Client backed by the given httptest handler.
func newTestClient(t *testing.T, handler http.Handler) *ghAdapter.Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := ghAdapter.NewClientWithHTTPClient(server.Client(), server.URL+"/", "test-token")
	require.NoError(t, err)

	return client
}

func testIdentity() model.PRIdentity {
	return model.PRIdentity{Owner: "owner", Repo: "repo", Number: "42"}
}

// prJSON is a helper struct for building GitHub API pull request responses.
type prJSON struct {
	Number         int      `json:"number"`
	Title          string   `json:"title"`
	State          string   `json:"state"`
	Merged         bool     `json:"merged"`
	Draft          bool     `json:"draft"`
	HTMLURL        string   `json:"html_url"`
	User           userJSON `json:"user"`
	Head           refJSON  `json:"head"`
	Mergeable      *bool    `json:"mergeable,omitempty"`
	MergeableState string   `json:"mergeable_state,omitempty"`
	Created        string   `json:"created_at,omitempty"`
	Updated        string   `json:"updated_at,omitempty"`
}

type userJSON struct {
	Login string `json:"login"`
}

type refJSON struct {
	SHA string `json:"sha,omitempty"`
}

type statusJSON struct {
	State string `json:"state"`
}

type reviewJSON struct {
	User  userJSON `json:"user"`
	State string   `json:"state"`
}

type repoJSON struct {
	Name string `json:"name"`
}

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func TestFetchStatus_FullSnapshot(t *testing.T) {
	mergeable := true
	pr := prJSON{
		Number:         42,
		Title:          "Add feature X",
		State:          "open",
		Draft:          true,
		HTMLURL:        "https://github.com/owner/repo/pull/42",
		User:           userJSON{Login: "alice"},
		Head:           refJSON{SHA: "abc123"},
		Mergeable:      &mergeable,
		MergeableState: "clean",
		Created:        "2026-01-01T00:00:00Z",
		Updated:        "2026-01-02T12:00:00Z",
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, pr)
	})
	mux.HandleFunc("/repos/owner/repo/commits/abc123/status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, statusJSON{State: "success"})
	})
	mux.HandleFunc("/repos/owner/repo/pulls/42/reviews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []reviewJSON{
			{User: userJSON{Login: "bob"}, State: "APPROVED"},
		})
	})

	client := newTestClient(t, mux)
	status, err := client.FetchStatus(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Equal(t, "Add feature X", status.Title)
	assert.Equal(t, model.PRStateOpen, status.State)
	assert.False(t, status.Merged)
	assert.Equal(t, "alice", status.Author)
	assert.True(t, status.Draft)
	assert.Equal(t, "https://github.com/owner/repo/pull/42", status.HTMLURL)
	require.NotNil(t, status.Mergeable)
	assert.True(t, *status.Mergeable)
	assert.Equal(t, "clean", status.MergeableState)
	assert.Equal(t, model.CISuccess, status.CIStatus)
	assert.Equal(t, model.ReviewApproved, status.ReviewStatus)
	assert.Equal(t, "2026-01-01T00:00:00Z", status.CreatedAt.Format("2006-01-02T15:04:05Z"))
}

func TestFetchStatus_NotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})

	client := newTestClient(t, mux)
	_, err := client.FetchStatus(context.Background(), testIdentity())

	require.Error(t, err)
	kind, ok := model.FetchErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.FetchErrorNotFound, kind)
	assert.Equal(t, "pull request not found or repository inaccessible", err.Error())
}

func TestFetchStatus_Forbidden(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"rate limited"}`, http.StatusForbidden)
	})

	client := newTestClient(t, mux)
	_, err := client.FetchStatus(context.Background(), testIdentity())

	require.Error(t, err)
	kind, ok := model.FetchErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.FetchErrorRateLimited, kind)
}

func TestFetchStatus_UnexpectedStatus(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusBadGateway)
	})

	client := newTestClient(t, mux)
	_, err := client.FetchStatus(context.Background(), testIdentity())

	require.Error(t, err)
	kind, ok := model.FetchErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.FetchErrorUnexpectedStatus, kind)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchStatus_NonNumericNumber(t *testing.T) {
	client := newTestClient(t, http.NewServeMux())

	_, err := client.FetchStatus(context.Background(), model.PRIdentity{Owner: "o", Repo: "r", Number: "abc"})

	require.Error(t, err)
	kind, ok := model.FetchErrorKindOf(err)
	require.True(t, ok)
	assert.Equal(t, model.FetchErrorNotFound, kind)
}

// TestFetchStatus_SubCallFailuresDegrade verifies that CI and review endpoint
// failures degrade their fields to unknown without failing the whole snapshot.
func TestFetchStatus_SubCallFailuresDegrade(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, prJSON{
			Number: 42,
			Title:  "still ok",
			State:  "open",
			User:   userJSON{Login: "alice"},
			Head:   refJSON{SHA: "abc123"},
		})
	})
	mux.HandleFunc("/repos/owner/repo/commits/abc123/status", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusInternalServerError)
	})
	mux.HandleFunc("/repos/owner/repo/pulls/42/reviews", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"nope"}`, http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	status, err := client.FetchStatus(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Equal(t, "still ok", status.Title)
	assert.Equal(t, model.CIUnknown, status.CIStatus)
	assert.Equal(t, model.ReviewUnknown, status.ReviewStatus)
}

// TestFetchStatus_NoHeadSHA covers a metadata response without a head commit:
// the combined status endpoint is never called.
func TestFetchStatus_NoHeadSHA(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, prJSON{Number: 42, Title: "no head", State: "open"})
	})
	mux.HandleFunc("/repos/owner/repo/pulls/42/reviews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []reviewJSON{})
	})

	client := newTestClient(t, mux)
	status, err := client.FetchStatus(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Equal(t, model.CIUnknown, status.CIStatus)
	assert.Equal(t, model.ReviewPending, status.ReviewStatus)
}

func TestFetchStatus_MergedClosedPR(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/repos/owner/repo/pulls/42", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, prJSON{Number: 42, Title: "shipped", State: "closed", Merged: true})
	})
	mux.HandleFunc("/repos/owner/repo/pulls/42/reviews", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []reviewJSON{})
	})

	client := newTestClient(t, mux)
	status, err := client.FetchStatus(context.Background(), testIdentity())

	require.NoError(t, err)
	assert.Equal(t, model.PRStateClosed, status.State)
	assert.True(t, status.Merged)
}

func TestListRepositories_Organization(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/acme/repos", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "updated", r.URL.Query().Get("sort"))
		writeJSON(t, w, []repoJSON{{Name: "widgets"}, {Name: "gadgets"}})
	})

	client := newTestClient(t, mux)
	names := client.ListRepositories(context.Background(), "acme")

	assert.Equal(t, []string{"widgets", "gadgets"}, names)
}

func TestListRepositories_UserFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/orgs/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
	})
	mux.HandleFunc("/users/alice/repos", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, []repoJSON{{Name: "dotfiles"}})
	})

	client := newTestClient(t, mux)
	names := client.ListRepositories(context.Background(), "alice")

	assert.Equal(t, []string{"dotfiles"}, names)
}

func TestListRepositories_TotalFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"boom"}`, http.StatusInternalServerError)
	})

	client := newTestClient(t, mux)
	names := client.ListRepositories(context.Background(), "anyone")

	assert.NotNil(t, names)
	assert.Empty(t, names)
}
