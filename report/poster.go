package report

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/scm"
)

// Poster delivers rendered run reports to the change request associated with
// the run's commit. Posting is best effort throughout: a commit with no open
// change request is normal (direct pushes), and a failed post must never fail
// the pipeline that produced the run.
type Poster struct {
	host scm.Host
	log  zerolog.Logger
}

// NewPoster creates a Poster for the given SCM host.
func NewPoster(host scm.Host, log zerolog.Logger) *Poster {
	return &Poster{host: host, log: log}
}

// Post renders the run and comments it on the open change request for the
// run's commit, if one exists.
func (p *Poster) Post(ctx context.Context, run *domain.PipelineRun) {
	log := p.log.With().
		Str("pipeline", run.Pipeline).
		Str("run_id", run.ID).
		Str("commit", run.CommitSHA).
		Logger()

	cr, found, err := p.host.FindOpenChangeRequest(ctx, run.CommitSHA)
	if err != nil {
		log.Warn().Err(err).Msg("change request lookup failed, report not posted")
		return
	}
	if !found {
		log.Debug().Msg("no open change request for commit, report not posted")
		return
	}

	if err := p.host.PostComment(ctx, cr.Number, RenderRun(run)); err != nil {
		log.Warn().Err(err).Int("change_request", cr.Number).Msg("posting report failed")
		return
	}
	log.Info().Int("change_request", cr.Number).Msg("report posted")
}
