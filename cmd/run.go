package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/cucumber/godog"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xkilldash9x/uibdd/features"
	"github.com/xkilldash9x/uibdd/internal/config"
	"github.com/xkilldash9x/uibdd/internal/diagnostics"
	"github.com/xkilldash9x/uibdd/internal/observability"
	"github.com/xkilldash9x/uibdd/internal/page"
	"github.com/xkilldash9x/uibdd/internal/provision"
	"github.com/xkilldash9x/uibdd/internal/steps"
)

// Replaced in tests.
var newProvider = provision.NewProvider

func newRunCmd() *cobra.Command {
	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Run the feature suite once per selected driver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := getConfigFromContext(cmd.Context())
			if err != nil {
				return err
			}
			rc, err := runConfigFromFlags(cmd, cfg)
			if err != nil {
				return err
			}
			cfg.SetRunConfig(rc)
			return runSuites(cmd.Context(), cfg, cmd.OutOrStdout(), observability.GetLogger())
		},
	}

	flags := runCmd.Flags()
	flags.StringSliceP("driver", "d", nil, "drivers to run on (default: every configured driver)")
	flags.StringP("tags", "t", "", "tag expression selecting scenarios, e.g. \"@smoke && ~@wip\"")
	flags.StringP("format", "f", "", "godog output format: pretty, progress, cucumber, junit")
	flags.IntP("parallel", "p", 0, "number of drivers run at the same time")
	flags.StringSlice("features", nil, "feature files or directories (default: the built-in features)")
	flags.Bool("strict", true, "fail on undefined or pending steps")
	flags.Bool("stop-on-failure", false, "stop at the first failing scenario")
	return runCmd
}

// runConfigFromFlags overlays the flags the user set on the configured run section.
func runConfigFromFlags(cmd *cobra.Command, cfg config.Interface) (config.RunConfig, error) {
	rc := cfg.Run()
	flags := cmd.Flags()
	var err error
	if flags.Changed("driver") {
		if rc.Drivers, err = flags.GetStringSlice("driver"); err != nil {
			return rc, err
		}
		for _, name := range rc.Drivers {
			if _, ok := cfg.Driver(name); !ok {
				return rc, fmt.Errorf("unknown driver %q", name)
			}
		}
	}
	if flags.Changed("tags") {
		rc.Tags, _ = flags.GetString("tags")
	}
	if flags.Changed("format") {
		rc.Format, _ = flags.GetString("format")
	}
	if flags.Changed("parallel") {
		rc.Parallelism, _ = flags.GetInt("parallel")
		if rc.Parallelism <= 0 {
			return rc, fmt.Errorf("--parallel must be a positive integer")
		}
	}
	if flags.Changed("features") {
		rc.Features, _ = flags.GetStringSlice("features")
	}
	if flags.Changed("strict") {
		rc.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("stop-on-failure") {
		rc.StopOnFail, _ = flags.GetBool("stop-on-failure")
	}
	return rc, nil
}

// runSuites runs the suite on every selected driver, at most
// run.parallelism at a time, and fails when any of them failed.
func runSuites(ctx context.Context, cfg config.Interface, out io.Writer, logger *zap.Logger) error {
	rc := cfg.Run()
	provider, err := newProvider(cfg, logger)
	if err != nil {
		return err
	}

	var recorder *diagnostics.Recorder
	if cfg.Diagnostics().Enabled {
		if recorder, err = diagnostics.NewRecorder(cfg.Diagnostics(), logger); err != nil {
			return err
		}
	}

	drivers := rc.Drivers
	if len(drivers) == 0 {
		drivers = provider.Names()
	}

	timeouts := cfg.Timeouts()
	siteURL := cfg.Site().URL()
	buffered := rc.Parallelism > 1 && len(drivers) > 1

	var (
		mu     sync.Mutex
		failed []string
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rc.Parallelism)
	for _, name := range drivers {
		name := name
		g.Go(func() error {
			suite := &steps.Suite{
				Sessions:     provider,
				Driver:       name,
				SiteURL:      siteURL,
				PollInterval: timeouts.PollInterval,
				Pages: page.Options{
					IdentityTimeout: timeouts.PageIdentity,
					ClickTimeout:    timeouts.Click,
				},
				Recorder: recorder,
				Logger:   logger,
			}

			var buf bytes.Buffer
			opts := godogOptions(rc)
			opts.Output = out
			if buffered {
				opts.Output = &buf
			}

			logger.Info("Running features.", zap.String("driver", name), zap.String("site", siteURL))
			status := suite.Run(gctx, opts)

			mu.Lock()
			defer mu.Unlock()
			if buffered {
				fmt.Fprintf(out, "=== driver %s ===\n", name)
				_, _ = buf.WriteTo(out)
			}
			if status == 0 {
				return nil
			}
			failed = append(failed, name)
			if rc.StopOnFail {
				return fmt.Errorf("features failed on driver %q", name)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(failed) > 0 {
		return fmt.Errorf("features failed on drivers %q", failed)
	}
	return nil
}

func godogOptions(rc config.RunConfig) godog.Options {
	opts := godog.Options{
		Format:        rc.Format,
		Tags:          rc.Tags,
		Strict:        rc.Strict,
		StopOnFailure: rc.StopOnFail,
		Concurrency:   1,
		Paths:         rc.Features,
	}
	if len(opts.Paths) == 0 {
		opts.FS = features.FS
		opts.Paths = []string{"."}
	}
	if opts.Format == "" {
		opts.Format = "pretty"
	}
	return opts
}
