// Package scm integrates with the source/change-request host. The pipeline
// core uses it for exactly two things: resolving the open change request for a
// commit, and posting status comments. Posting is fire-and-forget from the
// pipeline's point of view; a missing change request is not an error.
package scm

import "context"

// ChangeRequest is the review unit pipeline status is reported against.
type ChangeRequest struct {
	// Number is the host-assigned change request number.
	Number int

	// Title is the change request title.
	Title string

	// URL is the change request's web URL.
	URL string

	// HeadSHA is the current head commit of the change request.
	HeadSHA string
}

// Host is the change-request host collaborator interface.
type Host interface {
	// FindOpenChangeRequest resolves the open change request whose head is the
	// given commit. The boolean is false when no open change request matches;
	// that is a normal outcome, not an error.
	FindOpenChangeRequest(ctx context.Context, commitSHA string) (*ChangeRequest, bool, error)

	// PostComment posts a comment on the given change request.
	PostComment(ctx context.Context, number int, body string) error
}
