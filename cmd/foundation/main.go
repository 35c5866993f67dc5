// Package main implements the foundation CLI for inspecting preference
// suites and resource bundles.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pnewell/skip-foundation/pkg/activity"
	"github.com/pnewell/skip-foundation/prefs"
	"github.com/pnewell/skip-foundation/prefs/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootOptions struct {
	verbose bool
	audit   bool
	actor   string
	tenant  string
	engine  string
	suite   string
	dir     string

	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "foundation",
		Short:         "Inspect preference suites and resource bundles",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(opts.verbose)
			if err != nil {
				return err
			}
			opts.logger = logger
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.logger != nil {
				_ = opts.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().BoolVar(&opts.audit, "audit", false, "Log preference activity events")
	root.PersistentFlags().StringVar(&opts.actor, "actor", "", "Actor UUID recorded on activity events")
	root.PersistentFlags().StringVar(&opts.tenant, "tenant", "", "Tenant UUID recorded on activity events")
	root.PersistentFlags().StringVar(&opts.engine, "engine", "", "Preference engine: memory, file, sqlite or redis (default from FOUNDATION_DEFAULTS_ENGINE)")
	root.PersistentFlags().StringVar(&opts.suite, "suite", "", "Preference suite (default from FOUNDATION_DEFAULTS_SUITE)")
	root.PersistentFlags().StringVar(&opts.dir, "dir", "", "Directory for file and sqlite engines")

	root.AddCommand(newPrefsCmd(opts), newBundleCmd(opts))
	return root
}

func newLogger(verbose bool) (*zap.Logger, error) {
	if !verbose {
		return zap.NewNop(), nil
	}
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// openStore applies flag overrides to the environment config and opens the
// suite.
func (o *rootOptions) openStore(ctx context.Context) (*prefs.Store, func() error, error) {
	cfg, err := config.Parse()
	if err != nil {
		return nil, nil, err
	}
	if o.engine != "" {
		cfg.Engine = o.engine
	}
	if o.suite != "" {
		cfg.Suite = o.suite
	}
	if o.dir != "" {
		cfg.Dir = o.dir
	}
	storeOpts := []prefs.Option{
		prefs.WithLogger(o.logger),
		prefs.WithActor(activity.Actor{ActorID: o.actor, UserID: o.actor, TenantID: o.tenant}),
	}
	if o.audit {
		storeOpts = append(storeOpts, prefs.WithActivity(activity.NewEmitter(
			activity.Hooks{auditHook(o.logger)},
			activity.Config{Enabled: true},
		)))
	}
	return config.Open(ctx, cfg, storeOpts...)
}

func auditHook(logger *zap.Logger) activity.HookFunc {
	return func(_ context.Context, event activity.Event) error {
		logger.Info("preference activity",
			zap.String("verb", event.Verb),
			zap.String("actor_id", event.ActorID),
			zap.String("tenant_id", event.TenantID),
			zap.String("object_type", event.ObjectType),
			zap.String("object_id", event.ObjectID),
			zap.String("channel", event.Channel),
			zap.Any("metadata", event.Metadata),
		)
		return nil
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}
