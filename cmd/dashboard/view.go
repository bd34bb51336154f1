package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/yourorg/market-dashboard/internal/cache"
	"github.com/yourorg/market-dashboard/internal/client"
	"github.com/yourorg/market-dashboard/internal/dashboard"
	"github.com/yourorg/market-dashboard/internal/model"
	"github.com/yourorg/market-dashboard/internal/terminal"
)

type viewOptions struct {
	sort        string
	dir         string
	limit       int
	interactive bool
	cache       string
	cachePath   string
	redisAddr   string
}

func newViewCmd(a *app, name string) *cobra.Command {
	opts := &viewOptions{}

	cmd := &cobra.Command{
		Use:   name,
		Short: fmt.Sprintf("Show the %s bars table", name),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			view, err := dashboard.ViewByName(name, opts.limit)
			if err != nil {
				return err
			}
			presenter := terminal.NewPresenter(cmd.OutOrStdout(), view)
			session, err := a.newSession(view, presenter, opts)
			if err != nil {
				return err
			}

			if err := a.load(cmd.Context(), session); err != nil {
				return err
			}
			if !opts.interactive {
				return nil
			}
			return a.interact(cmd.Context(), session, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.sort, "sort", model.DefaultSortColumn, "column to sort by")
	flags.StringVar(&opts.dir, "dir", string(model.Descending), "sort direction (asc or desc)")
	flags.IntVar(&opts.limit, "limit", 0, "number of records to request (daily defaults to 60, monthly to all)")
	flags.BoolVarP(&opts.interactive, "interactive", "i", false, "read sort/refresh/quit commands from stdin")
	if name == string(model.DatasetMonthly) {
		flags.StringVar(&opts.cache, "cache", "file", "fallback cache backend (file, redis or none)")
		flags.StringVar(&opts.cachePath, "cache-path", "", "cache file location")
		flags.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "redis address for --cache redis")
	}

	return cmd
}

// newSession wires a session for view with the sort state and cache from opts
func (a *app) newSession(view dashboard.View, presenter dashboard.Presenter, opts *viewOptions) (*dashboard.Session, error) {
	if !view.HasColumn(opts.sort) {
		return nil, fmt.Errorf("unknown column %q for the %s view", opts.sort, view.Name)
	}
	state := model.SortState{Column: opts.sort, Direction: model.ParseDirection(opts.dir)}
	presenter.SetSortIndicator(state.Column, state.Direction)

	sessionOpts := []dashboard.Option{dashboard.WithSortState(state)}
	if view.UseCache {
		barCache, err := a.barCache(view, opts)
		if err != nil {
			return nil, err
		}
		if barCache != nil {
			sessionOpts = append(sessionOpts, dashboard.WithCache(barCache))
		}
	}

	source := client.NewSource(a.apiClient(), view)
	return dashboard.NewSession(view, source, presenter, a.logger, sessionOpts...), nil
}

func (a *app) barCache(view dashboard.View, opts *viewOptions) (dashboard.BarCache, error) {
	switch opts.cache {
	case "", "none":
		return nil, nil
	case "file":
		path := opts.cachePath
		if path == "" {
			dir, err := os.UserCacheDir()
			if err != nil {
				dir = os.TempDir()
			}
			path = filepath.Join(dir, "market-dashboard", view.Name+".json")
		}
		return cache.NewFileCache(path, a.logger), nil
	case "redis":
		redisClient := redis.NewClient(&redis.Options{Addr: opts.redisAddr})
		return cache.NewRedisCache(redisClient, "market-dashboard:"+view.Name, 7*24*time.Hour, a.logger), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file, redis or none)", opts.cache)
	}
}

// load runs one OnLoad. An empty dataset has already been rendered and is
// not a command failure.
func (a *app) load(ctx context.Context, session *dashboard.Session) error {
	ctx, cancel := a.requestContext(ctx)
	defer cancel()

	err := session.OnLoad(ctx)
	if errors.Is(err, dashboard.ErrEmptyDataset) {
		return nil
	}
	return err
}

func (a *app) interact(ctx context.Context, session *dashboard.Session, in io.Reader, out io.Writer) error {
	view := session.View()
	scanner := bufio.NewScanner(in)

	fmt.Fprintln(out, "commands: sort <column>, refresh, quit")
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "quit", "exit", "q":
			return nil
		case "refresh", "r":
			if err := a.load(ctx, session); err != nil {
				a.logger.Warn("Refresh failed", zap.Error(err))
			}
		case "sort", "s":
			if len(fields) != 2 || !view.HasColumn(fields[1]) {
				fmt.Fprintf(out, "usage: sort <column>, columns: %s\n", strings.Join(columnKeys(view), ", "))
				continue
			}
			session.OnSortColumnSelected(fields[1])
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
	return scanner.Err()
}

func columnKeys(view dashboard.View) []string {
	keys := make([]string, len(view.Columns))
	for i, c := range view.Columns {
		keys[i] = c.Key
	}
	return keys
}
