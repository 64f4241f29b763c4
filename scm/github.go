// Package scm integrates with the source/change-request host.
// This file contains the GitHub implementation.
package scm

import (
	"context"
	"net/http"

	"github.com/google/go-github/v29/github"
	"golang.org/x/oauth2"

	ferrors "github.com/input-output-hk/catalyst-forge-pipeline/errors"
)

// GitHubHost implements Host against the GitHub API.
type GitHubHost struct {
	client *github.Client
	owner  string
	repo   string
}

// NewGitHubHost creates a Host for the given repository. An empty token yields
// an unauthenticated client, which is enough for public repositories in tests.
func NewGitHubHost(ctx context.Context, owner, repo, token string) *GitHubHost {
	var httpClient *http.Client
	if token != "" {
		httpClient = oauth2.NewClient(ctx, oauth2.StaticTokenSource(
			&oauth2.Token{AccessToken: token},
		))
	}
	return &GitHubHost{
		client: github.NewClient(httpClient),
		owner:  owner,
		repo:   repo,
	}
}

// newGitHubHostWithClient wires an explicit API client; tests inject servers here.
func newGitHubHostWithClient(client *github.Client, owner, repo string) *GitHubHost {
	return &GitHubHost{client: client, owner: owner, repo: repo}
}

// FindOpenChangeRequest implements Host. It lists the pull requests associated
// with the commit and returns the first open one whose head matches.
func (h *GitHubHost) FindOpenChangeRequest(
	ctx context.Context,
	commitSHA string,
) (*ChangeRequest, bool, error) {
	const op = "scm.find-change-request"

	prs, _, err := h.client.PullRequests.ListPullRequestsWithCommit(
		ctx, h.owner, h.repo, commitSHA, &github.PullRequestListOptions{State: "open"})
	if err != nil {
		return nil, false, ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}

	for _, pr := range prs {
		if pr.GetState() != "open" {
			continue
		}
		if head := pr.GetHead(); head != nil && head.GetSHA() != commitSHA {
			continue
		}
		return &ChangeRequest{
			Number:  pr.GetNumber(),
			Title:   pr.GetTitle(),
			URL:     pr.GetHTMLURL(),
			HeadSHA: commitSHA,
		}, true, nil
	}

	return nil, false, nil
}

// PostComment implements Host.
func (h *GitHubHost) PostComment(ctx context.Context, number int, body string) error {
	const op = "scm.post-comment"

	_, _, err := h.client.Issues.CreateComment(ctx, h.owner, h.repo, number,
		&github.IssueComment{Body: github.String(body)})
	if err != nil {
		return ferrors.Wrap(op, ferrors.CodeNetwork, err)
	}
	return nil
}
