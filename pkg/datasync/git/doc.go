// Package git syncs gateway configuration from a snapshot file kept in a git
// repository.
//
// The repository is cloned with go-git using token, SSH key or anonymous
// auth, then polled. A commit that changes the snapshot file is loaded with
// the same parser as the file transport and delivered as a full refresh of
// every kind. A commit whose snapshot does not parse is logged and skipped;
// the gateway keeps serving the previous state.
package git
