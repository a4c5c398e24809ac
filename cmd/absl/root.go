package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/deppfellow/go-absl/internal/app"
	"github.com/deppfellow/go-absl/internal/config"
	"github.com/deppfellow/go-absl/internal/lib/utils"
	"github.com/deppfellow/go-absl/internal/logger"
	"github.com/deppfellow/go-absl/internal/repository"
	"github.com/deppfellow/go-absl/internal/service"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// runtime is built on first use and released by rootOptions.close.
type runtime struct {
	app      *app.App
	services *service.Services
}

type rootOptions struct {
	tables []string
	rt     *runtime
}

func newRootCommand(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:          "absl",
		Short:        "Run table accessor operations against the configured database",
		SilenceUsage: true,
	}

	root.PersistentFlags().StringArrayVar(&opts.tables, "table", nil,
		`register an extra table as name=primary_key:col1,col2 (repeatable)`)

	root.AddCommand(
		newMigrateCommand(opts),
		newTablesCommand(opts),
		newListCommand(opts),
		newFetchCommand(opts),
		newSearchCommand(opts),
		newPageCommand(opts),
		newUserCommand(opts),
	)
	return root
}

// runtime loads the configuration, opens the database and registers
// every table.
func (o *rootOptions) runtime(ctx context.Context) (*runtime, error) {
	if o.rt != nil {
		return o.rt, nil
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}

	loggerService, err := logger.NewLoggerService(&cfg.Observability)
	if err != nil {
		return nil, err
	}
	log := logger.New(&cfg.Observability, loggerService)

	a, err := app.New(ctx, cfg, &log, loggerService)
	if err != nil {
		loggerService.Shutdown()
		return nil, err
	}

	repos, err := repository.NewRepositories(a)
	if err != nil {
		_ = a.Shutdown()
		return nil, err
	}

	for _, spec := range o.tables {
		name, pk, columns, err := parseTableFlag(spec)
		if err == nil {
			err = a.Accessor.DefineTable(name, pk, columns...)
		}
		if err != nil {
			_ = a.Shutdown()
			return nil, errors.Wrapf(err, "--table %q", spec)
		}
	}

	o.rt = &runtime{
		app:      a,
		services: service.NewServices(a, repos),
	}
	return o.rt, nil
}

// close releases what runtime opened, if anything.
func (o *rootOptions) close() error {
	if o.rt == nil {
		return nil
	}
	err := o.rt.app.Shutdown()
	o.rt = nil
	return err
}

// parseTableFlag parses "name=primary_key:col1,col2".
func parseTableFlag(spec string) (name, pk string, columns []string, err error) {
	name, rest, ok := strings.Cut(spec, "=")
	if !ok {
		return "", "", nil, fmt.Errorf("expected name=primary_key:columns")
	}
	pk, cols, ok := strings.Cut(rest, ":")
	if !ok {
		return "", "", nil, fmt.Errorf("expected name=primary_key:columns")
	}
	return strings.TrimSpace(name), strings.TrimSpace(pk), utils.SplitList(cols), nil
}
