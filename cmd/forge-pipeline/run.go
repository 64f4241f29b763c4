package main

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/input-output-hk/catalyst-forge-pipeline/config"
	"github.com/input-output-hk/catalyst-forge-pipeline/domain"
	"github.com/input-output-hk/catalyst-forge-pipeline/events"
	"github.com/input-output-hk/catalyst-forge-pipeline/executor"
	"github.com/input-output-hk/catalyst-forge-pipeline/gitrev"
	"github.com/input-output-hk/catalyst-forge-pipeline/pipeline"
	"github.com/input-output-hk/catalyst-forge-pipeline/registry"
	"github.com/input-output-hk/catalyst-forge-pipeline/report"
	"github.com/input-output-hk/catalyst-forge-pipeline/runner"
	"github.com/input-output-hk/catalyst-forge-pipeline/sandbox"
	"github.com/input-output-hk/catalyst-forge-pipeline/scan"
	"github.com/input-output-hk/catalyst-forge-pipeline/scm"
	"github.com/input-output-hk/catalyst-forge-pipeline/trigger"
	"github.com/input-output-hk/catalyst-forge-pipeline/verify"
)

var (
	runRef       string
	runCommit    string
	runRepoPath  string
	runBaseURL   string
	runPlainHTTP bool
	runNoReport  bool
)

var runCmd = &cobra.Command{
	Use:   "run [pipeline]",
	Short: "execute a pipeline for the current commit",
	Long: `Execute the named pipeline (default "ci") against the repository in the
working directory. When the CI pipeline succeeds and the definition contains a
"cd" pipeline, the CD pipeline runs next with the same ref and commit.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runPipeline,
}

func init() {
	runCmd.Flags().StringVar(&runRef, "ref", "", "git ref to run for (default: checked-out HEAD)")
	runCmd.Flags().StringVar(&runCommit, "commit", "", "commit hash to run for (default: resolved from ref)")
	runCmd.Flags().StringVar(&runRepoPath, "repo", ".", "path to the source repository")
	runCmd.Flags().StringVar(&runBaseURL, "base-url", "", "base URL for run link-backs in reports")
	runCmd.Flags().BoolVar(&runPlainHTTP, "plain-http", false, "use plain HTTP for the artifact registry")
	runCmd.Flags().BoolVar(&runNoReport, "no-report", false, "skip posting reports to the change request")

	rootCmd.AddCommand(runCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	log := newLogger()

	name := "ci"
	if len(args) == 1 {
		name = args[0]
	}

	file, err := loadDefinition()
	if err != nil {
		return err
	}
	graphs, err := file.Graphs()
	if err != nil {
		return err
	}
	graph, ok := graphs[name]
	if !ok {
		return fmt.Errorf("definition has no pipeline named %q", name)
	}

	tc, err := resolveTrigger(name)
	if err != nil {
		return err
	}

	wiring, err := buildWiring(ctx, file, log)
	if err != nil {
		return err
	}
	defer wiring.close()

	exec := pipeline.NewExecutor(wiring.runners,
		pipeline.WithLogger(log),
		pipeline.WithBaseURL(runBaseURL),
	)

	var runs []*domain.PipelineRun
	finish := func(ctx context.Context, run *domain.PipelineRun) {
		runs = append(runs, run)
		if wiring.poster != nil {
			wiring.poster.Post(ctx, run)
		}
		if err := wiring.bus.Publish(ctx, events.NewCompletionEvent(run)); err != nil {
			log.Warn().Err(err).Msg("publishing completion event failed")
		}
	}

	// A successful CI run triggers CD on the in-process bus, so a single
	// binary runs the whole chain synchronously. Over NATS the CD run
	// belongs to whichever process subscribes to the subject; binding it
	// here would race the run against process exit.
	if cdGraph, hasCD := graphs["cd"]; hasCD && name == "ci" && chainsLocally(wiring.bus) {
		trig := trigger.New("ci", "cd", func(ctx context.Context, tc domain.TriggerContext) {
			finish(ctx, exec.Execute(ctx, cdGraph, tc))
		}, log)
		if err := trig.Bind(wiring.bus); err != nil {
			return err
		}
	}

	finish(ctx, exec.Execute(ctx, graph, tc))

	failed := false
	for _, run := range runs {
		fmt.Fprintln(cmd.OutOrStdout(), report.RenderRun(run))
		if run.Status != domain.PipelineStatusSuccess {
			failed = true
		}
	}
	if failed {
		return fmt.Errorf("pipeline run failed")
	}
	return nil
}

// chainsLocally reports whether completion events are delivered inside this
// process, which is what makes chaining CD after CI safe: in-process delivery
// is synchronous, so the CD run finishes before Publish returns.
func chainsLocally(bus events.Bus) bool {
	_, ok := bus.(*events.InProcessBus)
	return ok
}

// resolveTrigger pins the (ref, commit) pair the run is bound to. Explicit
// flags win; otherwise the local repository is consulted.
func resolveTrigger(pipelineName string) (domain.TriggerContext, error) {
	if runCommit != "" {
		return domain.TriggerContext{
			Pipeline:  pipelineName,
			RefName:   runRef,
			CommitSHA: runCommit,
		}, nil
	}

	resolver, err := gitrev.Open(runRepoPath)
	if err != nil {
		return domain.TriggerContext{}, err
	}
	return resolver.TriggerContext(pipelineName, runRef)
}

// wiring bundles the collaborator clients a run needs.
type wiring struct {
	runners *runner.Set
	bus     events.Bus
	poster  *report.Poster
	conn    *nats.Conn
}

func (w *wiring) close() {
	_ = w.bus.Close()
	if w.conn != nil {
		w.conn.Close()
	}
}

// buildWiring constructs every collaborator from the definition file, the
// environment, and the run flags.
func buildWiring(ctx context.Context, file *config.File, log zerolog.Logger) (*wiring, error) {
	exec := executor.New()

	var regOpts []registry.ClientOption
	if user := viper.GetString("registry.username"); user != "" {
		regOpts = append(regOpts, registry.WithStaticAuth(
			file.Image.Registry, user, viper.GetString("registry.password")))
	}
	if runPlainHTTP {
		regOpts = append(regOpts, registry.WithPlainHTTP(true))
	}
	reg := registry.New(regOpts...)

	scannerCommand := viper.GetStringSlice("scanner.command")
	if len(scannerCommand) == 0 {
		scannerCommand = []string{"trivy", "image", "--format", "json", "--quiet"}
	}
	scanner := scan.NewCommandScanner(exec, scannerCommand)

	sb, err := sandbox.NewDockerSandbox(sandbox.Config{
		Host:   viper.GetString("docker.host"),
		Logger: &log,
	})
	if err != nil {
		return nil, err
	}
	verifier := verify.New(sb, file.Image.Registry, file.Image.Namespace, file.Image.Repository)

	runners := runner.NewSet(
		runner.NewTestRunner(exec),
		runner.NewCoverageRunner(exec),
		runner.NewBuildPublishRunner(exec, reg, runner.ImageCoords{
			Registry:   file.Image.Registry,
			Namespace:  file.Image.Namespace,
			Repository: file.Image.Repository,
		}, file.SourceRepo),
		runner.NewScanRunner(scanner),
		runner.NewDeployVerifyRunner(verifier),
	)

	w := &wiring{runners: runners}

	if url := viper.GetString("nats.url"); url != "" {
		conn, err := nats.Connect(url)
		if err != nil {
			return nil, fmt.Errorf("connecting to nats at %s: %w", url, err)
		}
		w.conn = conn
		w.bus = events.NewNATSBus(conn, events.WithNATSLogger(log))
	} else {
		w.bus = events.NewInProcessBus()
	}

	owner := viper.GetString("github.owner")
	repoName := viper.GetString("github.repo")
	if owner != "" && repoName != "" && !runNoReport {
		host := scm.NewGitHubHost(ctx, owner, repoName, viper.GetString("github.token"))
		w.poster = report.NewPoster(host, log)
	} else {
		log.Debug().Msg("change request reporting disabled")
	}

	return w, nil
}
