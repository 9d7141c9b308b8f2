// Package github implements the StatusClient port using the go-github library.
package github

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/gofri/go-github-ratelimit/v2/github_ratelimit"
	gh "github.com/google/go-github/v82/github"
	"github.com/gregjones/httpcache"

	"github.com/ericfisherdev/prwatch/internal/domain/model"
	"github.com/ericfisherdev/prwatch/internal/domain/port/driven"
)

// subCallTimeout bounds each individual API call within a status fetch.
const subCallTimeout = 10 * time.Second

// Compile-time interface satisfaction check.
var _ driven.StatusClient = (*Client)(nil)

// Client implements the driven.StatusClient port using the go-github library.
type Client struct {
	gh      *gh.Client
	timeout time.Duration
}

// NewClient creates a GitHub API client with the following transport stack:
//  1. httpcache (ETag-based conditional request caching)
//  2. go-github-ratelimit (secondary rate limit middleware, sleeps on 429)
//  3. go-github (GitHub REST API client)
//
// token may be empty, in which case requests are unauthenticated and subject
// to the anonymous rate limit.
func NewClient(token string) *Client {
	cacheTransport := httpcache.NewMemoryCacheTransport()
	rateLimitClient := github_ratelimit.NewClient(cacheTransport)

	client := gh.NewClient(rateLimitClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	return &Client{
		gh:      client,
		timeout: subCallTimeout,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and base URL.
// This constructor is intended for testing, allowing injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, token string) (*Client, error) {
	client := gh.NewClient(httpClient)
	if token != "" {
		client = client.WithAuthToken(token)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base URL: %w", err)
	}
	client.BaseURL = u

	return &Client{
		gh:      client,
		timeout: subCallTimeout,
	}, nil
}

// FetchStatus retrieves the composite status snapshot for one pull request.
// Three dependent calls run in sequence: PR metadata, then the combined commit
// status for the head SHA, then the review list. Only a metadata failure is
// fatal; the other two degrade their fields to unknown.
func (c *Client) FetchStatus(ctx context.Context, id model.PRIdentity) (model.PRStatus, error) {
	number, err := id.NumberInt()
	if err != nil {
		return model.PRStatus{}, &model.FetchError{Kind: model.FetchErrorNotFound, Err: err}
	}

	subCtx, cancel := context.WithTimeout(ctx, c.timeout)
	pr, resp, err := c.gh.PullRequests.Get(subCtx, id.Owner, id.Repo, number)
	cancel()
	if err != nil {
		return model.PRStatus{}, classifyFetchError(err)
	}

	logRateLimit(resp, id.String())

	status := mapPRStatus(pr)

	if sha := pr.GetHead().GetSHA(); sha != "" {
		status.CIStatus = c.fetchCIState(ctx, id, sha)
	}
	status.ReviewStatus = c.fetchReviewState(ctx, id, number)

	return status, nil
}

// fetchCIState returns the combined commit status for the head SHA. Any
// failure degrades to CIUnknown rather than failing the whole snapshot.
func (c *Client) fetchCIState(ctx context.Context, id model.PRIdentity, sha string) model.CIState {
	subCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cs, resp, err := c.gh.Repositories.GetCombinedStatus(subCtx, id.Owner, id.Repo, sha, nil)
	if err != nil {
		slog.Debug("combined status fetch failed", "pr", id.String(), "error", err)
		return model.CIUnknown
	}

	logRateLimit(resp, id.String()+"/status")

	return mapCIState(cs.GetState())
}

// fetchReviewState returns the aggregate review state for the PR. Only the
// first page of reviews is consulted; that is enough for the aggregate
// signal. Any failure degrades to ReviewUnknown.
func (c *Client) fetchReviewState(ctx context.Context, id model.PRIdentity, number int) model.ReviewState {
	subCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	reviews, resp, err := c.gh.PullRequests.ListReviews(subCtx, id.Owner, id.Repo, number, &gh.ListOptions{PerPage: 100})
	if err != nil {
		slog.Debug("review list fetch failed", "pr", id.String(), "error", err)
		return model.ReviewUnknown
	}

	logRateLimit(resp, id.String()+"/reviews")

	collected := make([]model.Review, 0, len(reviews))
	for _, r := range reviews {
		collected = append(collected, model.Review{
			Author: r.GetUser().GetLogin(),
			State:  r.GetState(),
		})
	}

	return model.ReduceReviewStates(collected)
}

// ListRepositories returns repository names for the given owner, sorted by
// last update. The organization listing is tried first; a not-found outcome
// falls back to the user listing. Any other failure yields an empty slice --
// this call assists input completion and never raises.
func (c *Client) ListRepositories(ctx context.Context, owner string) []string {
	subCtx, cancel := context.WithTimeout(ctx, c.timeout)
	orgRepos, resp, err := c.gh.Repositories.ListByOrg(subCtx, owner, &gh.RepositoryListByOrgOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	cancel()
	if err == nil {
		logRateLimit(resp, owner+"/org-repos")
		return repoNames(orgRepos)
	}
	if !isNotFound(err) {
		slog.Debug("org repository listing failed", "owner", owner, "error", err)
		return []string{}
	}

	subCtx, cancel = context.WithTimeout(ctx, c.timeout)
	defer cancel()
	userRepos, resp, err := c.gh.Repositories.ListByUser(subCtx, owner, &gh.RepositoryListByUserOptions{
		Sort:        "updated",
		ListOptions: gh.ListOptions{PerPage: 100},
	})
	if err != nil {
		slog.Debug("user repository listing failed", "owner", owner, "error", err)
		return []string{}
	}

	logRateLimit(resp, owner+"/user-repos")
	return repoNames(userRepos)
}

// repoNames projects a repository list to its names.
func repoNames(repos []*gh.Repository) []string {
	names := make([]string, 0, len(repos))
	for _, r := range repos {
		names = append(names, r.GetName())
	}
	return names
}

// classifyFetchError maps a go-github error to the FetchError taxonomy.
func classifyFetchError(err error) *model.FetchError {
	// Deadline first: a timed-out request often also carries a url.Error wrapper.
	if errors.Is(err, context.DeadlineExceeded) {
		return &model.FetchError{Kind: model.FetchErrorTimeout, Err: err}
	}

	var rateErr *gh.RateLimitError
	var abuseErr *gh.AbuseRateLimitError
	if errors.As(err, &rateErr) || errors.As(err, &abuseErr) {
		return &model.FetchError{Kind: model.FetchErrorRateLimited, Err: err}
	}

	var errResp *gh.ErrorResponse
	if errors.As(err, &errResp) && errResp.Response != nil {
		switch code := errResp.Response.StatusCode; code {
		case http.StatusNotFound:
			return &model.FetchError{Kind: model.FetchErrorNotFound, Err: err}
		case http.StatusForbidden, http.StatusTooManyRequests:
			return &model.FetchError{Kind: model.FetchErrorRateLimited, Err: err}
		default:
			return &model.FetchError{Kind: model.FetchErrorUnexpectedStatus, StatusCode: code, Err: err}
		}
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return &model.FetchError{Kind: model.FetchErrorTimeout, Err: err}
	}

	return &model.FetchError{Kind: model.FetchErrorNetwork, Err: err}
}

// isNotFound reports whether err is a GitHub 404 response.
func isNotFound(err error) bool {
	var errResp *gh.ErrorResponse
	return errors.As(err, &errResp) &&
		errResp.Response != nil &&
		errResp.Response.StatusCode == http.StatusNotFound
}

// mapPRStatus converts a go-github PullRequest to a domain status snapshot.
// It uses GetXxx() helper methods exclusively to avoid nil pointer panics.
// CI and review fields start unknown; the caller fills them in.
func mapPRStatus(pr *gh.PullRequest) model.PRStatus {
	return model.PRStatus{
		Title:          pr.GetTitle(),
		State:          mapPRState(pr.GetState()),
		Merged:         pr.GetMerged(),
		Author:         pr.GetUser().GetLogin(),
		CreatedAt:      pr.GetCreatedAt().Time,
		UpdatedAt:      pr.GetUpdatedAt().Time,
		Mergeable:      pr.Mergeable,
		MergeableState: pr.GetMergeableState(),
		Draft:          pr.GetDraft(),
		HTMLURL:        pr.GetHTMLURL(),
		CIStatus:       model.CIUnknown,
		ReviewStatus:   model.ReviewUnknown,
	}
}

// mapPRState converts the API state string to a PRState.
func mapPRState(s string) model.PRState {
	switch s {
	case "open":
		return model.PRStateOpen
	case "closed":
		return model.PRStateClosed
	default:
		return model.PRState(s)
	}
}

// mapCIState converts a combined-status state string to a CIState.
func mapCIState(s string) model.CIState {
	switch s {
	case "success":
		return model.CISuccess
	case "pending":
		return model.CIPending
	case "failure":
		return model.CIFailure
	case "error":
		return model.CIError
	default:
		return model.CIUnknown
	}
}

// logRateLimit logs the GitHub API rate limit status after each call.
func logRateLimit(resp *gh.Response, endpoint string) {
	if resp == nil {
		return
	}

	slog.Debug("github api call",
		"endpoint", endpoint,
		"rate_remaining", resp.Rate.Remaining,
		"rate_limit", resp.Rate.Limit,
	)

	if resp.Rate.Limit > 0 && resp.Rate.Remaining < 10 {
		slog.Warn("github rate limit low",
			"remaining", resp.Rate.Remaining,
			"reset_in", time.Until(resp.Rate.Reset.Time).Round(time.Second),
		)
	}
}
