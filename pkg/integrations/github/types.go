package github

import "time"

// commitResponse is the subset of GET /repos/{owner}/{repo}/commits/{ref} dtsm reads.
type commitResponse struct {
	SHA string `json:"sha"`
}

// treeResponse is the body of GET /repos/{owner}/{repo}/git/trees/{ref}?recursive=1.
type treeResponse struct {
	SHA       string      `json:"sha"`
	Tree      []treeEntry `json:"tree"`
	Truncated bool        `json:"truncated"`
}

type treeEntry struct {
	Path string `json:"path"`
	Type string `json:"type"` // "blob", "tree" or "commit"
	SHA  string `json:"sha"`
	Size int    `json:"size"`
}

// Snapshot is the cached listing of a repository at one commit: every blob
// path mapped to its blob SHA. File contents are read at Commit, so they
// always match the listed SHAs.
type Snapshot struct {
	Commit    string            `json:"commit"`
	Tree      string            `json:"tree"`
	Ref       string            `json:"ref"`
	Blobs     map[string]string `json:"blobs"`
	Truncated bool              `json:"truncated,omitempty"`
	FetchedAt time.Time         `json:"fetched_at"`
}
