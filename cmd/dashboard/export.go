package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/dashboard"
	"github.com/yourorg/market-dashboard/internal/export"
	"github.com/yourorg/market-dashboard/internal/model"
)

// discardPresenter drops renders; export only needs the session's projection
type discardPresenter struct{}

func (discardPresenter) Render(dashboard.State)                   {}
func (discardPresenter) SetSortIndicator(string, model.Direction) {}

func newExportCmd(a *app) *cobra.Command {
	opts := &viewOptions{}
	var (
		format string
		out    string
	)

	cmd := &cobra.Command{
		Use:       "export daily|monthly",
		Short:     "Write the sorted table to csv, json or parquet",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{string(model.DatasetDaily), string(model.DatasetMonthly)},
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := export.ParseFormat(format)
			if err != nil {
				return err
			}
			view, err := dashboard.ViewByName(args[0], opts.limit)
			if err != nil {
				return err
			}
			session, err := a.newSession(view, discardPresenter{}, opts)
			if err != nil {
				return err
			}

			ctx, cancel := a.requestContext(cmd.Context())
			defer cancel()
			if err := session.OnLoad(ctx); err != nil {
				return err
			}

			bars := session.Projection()
			if out == "" || out == "-" {
				err = export.Write(cmd.OutOrStdout(), f, view, bars)
			} else {
				err = writeFile(out, f, view, bars)
			}
			if err != nil {
				return fmt.Errorf("write %s export: %w", f, err)
			}
			a.logger.Info("Export written",
				zap.String("view", view.Name),
				zap.String("format", string(f)),
				zap.Int("records", len(bars)))
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&format, "format", string(export.FormatCSV), "output format (csv, json or parquet)")
	flags.StringVarP(&out, "out", "o", "-", "output file, - for stdout")
	flags.StringVar(&opts.sort, "sort", model.DefaultSortColumn, "column to sort by")
	flags.StringVar(&opts.dir, "dir", string(model.Descending), "sort direction (asc or desc)")
	flags.IntVar(&opts.limit, "limit", 0, "number of records to request")
	flags.StringVar(&opts.cache, "cache", "none", "fallback cache backend for monthly (file, redis or none)")
	flags.StringVar(&opts.cachePath, "cache-path", "", "cache file location")
	flags.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for --cache redis")

	return cmd
}

// writeFile exports into path and reports a failed close as an error
func writeFile(path string, format export.Format, view dashboard.View, bars []model.Bar) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := export.Write(file, format, view, bars); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}
