package model

import "encoding/json"

// PersistedState is the durable snapshot of the monitor, written as a whole
// on every mutating action and after each fetch cycle.
type PersistedState struct {
	Credential      string       `json:"credential"`
	WatchList       []WatchEntry `json:"watch_list"`
	IntervalSeconds int          `json:"interval_seconds"`
	OwnerHistory    []string     `json:"owner_history"`
	LastRefreshTime string       `json:"last_refresh_time,omitempty"`
}

// WatchEntry is one persisted watch-list entry. Current versions write the
// structured object; early versions wrote a bare URL string. Both shapes are
// accepted on load, and entries matching neither are dropped silently so an
// old or hand-edited file never fails the whole load.
type WatchEntry struct {
	Owner        string    `json:"owner"`
	Repo         string    `json:"repo"`
	Number       string    `json:"number"`
	URL          string    `json:"url"`
	CachedStatus *PRStatus `json:"cached_status,omitempty"`
}

// Identity returns the PRIdentity encoded in the entry.
func (e WatchEntry) Identity() PRIdentity {
	return PRIdentity{Owner: e.Owner, Repo: e.Repo, Number: e.Number}
}

// NewWatchEntry converts an in-memory watch-list entry to its persisted form.
func NewWatchEntry(pr WatchedPR) WatchEntry {
	return WatchEntry{
		Owner:        pr.Identity.Owner,
		Repo:         pr.Identity.Repo,
		Number:       pr.Identity.Number,
		URL:          pr.URL,
		CachedStatus: pr.Status,
	}
}

// UnmarshalJSON decodes the persisted state, discriminating watch-list entry
// shapes per element instead of failing the array as a whole.
func (s *PersistedState) UnmarshalJSON(data []byte) error {
	var raw struct {
		Credential      string            `json:"credential"`
		WatchList       []json.RawMessage `json:"watch_list"`
		IntervalSeconds int               `json:"interval_seconds"`
		OwnerHistory    []string          `json:"owner_history"`
		LastRefreshTime string            `json:"last_refresh_time"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	entries := make([]WatchEntry, 0, len(raw.WatchList))
	for _, rm := range raw.WatchList {
		if entry, ok := decodeWatchEntry(rm); ok {
			entries = append(entries, entry)
		}
	}

	*s = PersistedState{
		Credential:      raw.Credential,
		WatchList:       entries,
		IntervalSeconds: raw.IntervalSeconds,
		OwnerHistory:    raw.OwnerHistory,
		LastRefreshTime: raw.LastRefreshTime,
	}
	return nil
}

// decodeWatchEntry tries the structured shape first, then the legacy bare-URL
// string. ok is false for anything unrecognized.
func decodeWatchEntry(data []byte) (WatchEntry, bool) {
	type structured WatchEntry // Shed methods to avoid recursive decoding.
	var obj structured
	if err := json.Unmarshal(data, &obj); err == nil {
		entry := WatchEntry(obj)
		if entry.Owner != "" && entry.Repo != "" && entry.Number != "" {
			if entry.URL == "" {
				entry.URL = entry.Identity().URL()
			}
			return entry, true
		}
		// Structured object without an identity: salvage it from the URL.
		if id, perr := ParsePRURL(entry.URL); perr == nil {
			entry.Owner, entry.Repo, entry.Number = id.Owner, id.Repo, id.Number
			return entry, true
		}
		return WatchEntry{}, false
	}

	var legacy string
	if err := json.Unmarshal(data, &legacy); err == nil {
		if id, perr := ParsePRURL(legacy); perr == nil {
			return WatchEntry{Owner: id.Owner, Repo: id.Repo, Number: id.Number, URL: id.URL()}, true
		}
	}

	return WatchEntry{}, false
}
