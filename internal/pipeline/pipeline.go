// Package pipeline sequences one summarize request: parse the URL, fetch
// metadata, materialize a shallow checkout, build the context digest, ask
// the model. Stages run strictly in order and any failure short-circuits
// the rest.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/repolens/repolens/internal/config"
	"github.com/repolens/repolens/internal/digest"
	"github.com/repolens/repolens/internal/github"
	"github.com/repolens/repolens/internal/gitrepo"
	"github.com/repolens/repolens/internal/llm"
	"github.com/repolens/repolens/internal/models"
)

type metadataClient interface {
	GetRepo(ctx context.Context, ref models.RepoRef) (*models.RepoMetadata, error)
	GetReadme(ctx context.Context, ref models.RepoRef) (string, error)
}

type summarizer interface {
	Summarize(ctx context.Context, meta models.RepoMetadata, repoContext string) (*models.Summary, error)
}

// cloneFunc returns the checkout dir and a cleanup func that removes it.
type cloneFunc func(ctx context.Context, url string) (string, func() error, error)

type digestFunc func(ctx context.Context, root string, opts digest.Options) (string, error)

type Options struct {
	// ReadmeOnly skips the checkout and uses the README excerpt from the
	// raw-content API as the only context.
	ReadmeOnly bool
}

type Pipeline struct {
	cfg    *config.Config
	github metadataClient
	llm    summarizer

	clone       cloneFunc
	buildDigest digestFunc
}

func New(cfg *config.Config) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		github: github.NewClient(cfg.GitHubAPIURL, cfg.GitHubToken),
		llm:    llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel),
		clone: func(ctx context.Context, url string) (string, func() error, error) {
			co, err := gitrepo.Clone(ctx, url)
			if err != nil {
				return "", nil, err
			}
			return co.Dir, co.Close, nil
		},
		buildDigest: digest.Build,
	}
}

// Run executes the full pipeline for one repository URL. Every returned
// error is a *Error with a caller-safe message.
func (p *Pipeline) Run(ctx context.Context, rawURL string, opts Options) (*models.SummaryResponse, error) {
	ref, err := github.ParseRepoURL(rawURL)
	if err != nil {
		return nil, stageErr(KindInvalidURL,
			"Invalid GitHub URL format. Expected: https://github.com/owner/repo", err)
	}

	meta, err := p.fetchMetadata(ctx, ref)
	if err != nil {
		return nil, err
	}

	repoContext, err := p.buildContext(ctx, rawURL, ref, opts)
	if err != nil {
		return nil, err
	}

	summary, err := p.summarize(ctx, meta, repoContext)
	if err != nil {
		return nil, err
	}

	return &models.SummaryResponse{
		Repository:   ref.FullName(),
		Summary:      summary.Summary,
		Technologies: summary.Technologies,
		Structure:    summary.Structure,
	}, nil
}

func (p *Pipeline) fetchMetadata(ctx context.Context, ref models.RepoRef) (*models.RepoMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.GitHubTimeout)
	defer cancel()

	meta, err := p.github.GetRepo(ctx, ref)
	switch {
	case err == nil:
		return meta, nil
	case errors.Is(err, github.ErrNotFound):
		return nil, stageErr(KindNotFound,
			fmt.Sprintf("Repository '%s' was not found on GitHub.", ref.FullName()), err)
	case errors.Is(err, github.ErrUpstream):
		return nil, stageErr(KindUpstream,
			"Failed to fetch repository data from GitHub. Try again later.", err)
	default:
		return nil, stageErr(KindUnexpected,
			"An unexpected error occurred on the server.", err)
	}
}

// buildContext materializes the checkout and runs the context selector.
// The checkout is removed before returning, on every path.
func (p *Pipeline) buildContext(ctx context.Context, rawURL string, ref models.RepoRef, opts Options) (string, error) {
	if opts.ReadmeOnly {
		rctx, cancel := context.WithTimeout(ctx, p.cfg.GitHubTimeout)
		defer cancel()
		readme, err := p.github.GetReadme(rctx, ref)
		if err != nil {
			return "", stageErr(KindUpstream,
				"Failed to fetch repository data from GitHub. Try again later.", err)
		}
		return readme, nil
	}

	cctx, cancel := context.WithTimeout(ctx, p.cfg.CloneTimeout)
	defer cancel()

	dir, cleanup, err := p.clone(cctx, rawURL)
	if err != nil {
		return "", stageErr(KindCloneFailed,
			"Could not clone the repository. Make sure it's public and the URL is correct.", err)
	}
	defer func() { _ = cleanup() }()

	repoContext, err := p.buildDigest(cctx, dir, digest.DefaultOptions())
	if err != nil {
		return "", stageErr(KindUnexpected,
			"An unexpected error occurred on the server.", err)
	}
	return repoContext, nil
}

func (p *Pipeline) summarize(ctx context.Context, meta *models.RepoMetadata, repoContext string) (*models.Summary, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.LLMTimeout)
	defer cancel()

	summary, err := p.llm.Summarize(ctx, *meta, repoContext)
	switch {
	case err == nil:
		return summary, nil
	case errors.Is(err, llm.ErrUnparseable):
		return nil, stageErr(KindUnparseable,
			"The AI returned an unexpected response. Please try again.", err)
	default:
		return nil, stageErr(KindUnexpected,
			"An unexpected error occurred on the server.", err)
	}
}
