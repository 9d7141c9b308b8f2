package model

// WatchedPR is one entry in the watch list. URL is always derived from the
// identity, so the two cannot drift apart. Status is nil until the first
// fetch for the entry completes.
type WatchedPR struct {
	Identity PRIdentity
	URL      string
	Status   *PRStatus
}

// NewWatchedPR constructs a WatchedPR for the given identity. The URL is
// computed here rather than accepted from the caller, which is what keeps the
// identity/URL consistency invariant.
func NewWatchedPR(id PRIdentity, status *PRStatus) WatchedPR {
	return WatchedPR{
		Identity: id,
		URL:      id.URL(),
		Status:   status,
	}
}
