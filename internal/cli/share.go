package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"packlist/internal/model"
	"packlist/internal/publish"
	"packlist/internal/share"
	"packlist/internal/store"
	"packlist/internal/web"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultShareAddr = "127.0.0.1:8787"

func newShareCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "share",
		Short: "Read-only sharing of the list",
	}

	cmd.AddCommand(newShareEnableCmd(app))
	cmd.AddCommand(newShareDisableCmd(app))
	cmd.AddCommand(newShareShowCmd(app))
	cmd.AddCommand(newShareServeCmd(app))

	return cmd
}

func shareAddr(app *App, flag string) string {
	if a := strings.TrimSpace(flag); a != "" {
		return a
	}
	if app.cfg != nil && strings.TrimSpace(app.cfg.Share.Addr) != "" {
		return strings.TrimSpace(app.cfg.Share.Addr)
	}
	return defaultShareAddr
}

func shareURL(addr, token string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/s/" + token
}

func openRegistry(app *App, s store.Store) (share.Registry, error) {
	reg, err := share.Open(s, strings.TrimSpace(app.RedisURL))
	if err != nil {
		return nil, fmt.Errorf("open share registry: %w", err)
	}
	return reg, nil
}

func newShareEnableCmd(app *App) *cobra.Command {
	var ttl time.Duration

	cmd := &cobra.Command{
		Use:   "enable",
		Short: "Create (or reuse) the share link",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			reg, err := openRegistry(app, s)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer reg.Close()

			if !cmd.Flags().Changed("ttl") && app.cfg != nil {
				ttl = app.cfg.Share.TTL
			}
			sh, err := share.Enable(cmd.Context(), s, reg, ttl, time.Now())
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{
				"data": sh,
				"meta": map[string]any{"url": shareURL(shareAddr(app, ""), sh.Token)},
				"_hints": []string{
					"packlist share serve",
					"packlist share disable",
				},
			})
		},
	}

	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Link lifetime (e.g. 72h); zero never expires")
	return cmd
}

func newShareDisableCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "disable",
		Short: "Revoke the share link",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			reg, err := openRegistry(app, s)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer reg.Close()

			revoked, err := share.Disable(cmd.Context(), s, reg)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"revoked": revoked}})
		},
	}
}

var errNotShared = errors.New("list is not shared; run `packlist share enable`")

func newShareShowCmd(app *App) *cobra.Command {
	var trip string
	var raw bool

	cmd := &cobra.Command{
		Use:   "show [token]",
		Short: "Print the list the way the share link shows it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, st, err := loadState(cmd.Context(), app)
			if err != nil {
				return writeErr(cmd, err)
			}
			token := st.ShareToken
			if len(args) == 1 {
				token = strings.TrimSpace(args[0])
			}
			if token == "" {
				return writeErr(cmd, errNotShared)
			}
			reg, err := openRegistry(app, s)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer reg.Close()

			if _, err := lookupShare(cmd.Context(), reg, s, st, token); err != nil {
				return writeErr(cmd, err)
			}
			md := publish.RenderListMarkdown(st.Items, st.Settings.Categories, publish.RenderOptions{
				Title:      "Shared packing list",
				Trip:       strings.TrimSpace(trip),
				SortByName: true,
			})
			return writeMarkdown(cmd.OutOrStdout(), md, raw)
		},
	}

	cmd.Flags().StringVar(&trip, "trip", "", "Only items packed for this trip type")
	cmd.Flags().BoolVar(&raw, "raw", false, "Print plain Markdown even on a terminal")
	return cmd
}

// lookupShare applies the same checks as the share server.
func lookupShare(ctx context.Context, reg share.Registry, s store.Store, st store.State, token string) (model.Share, error) {
	sh, err := reg.Get(ctx, token)
	if err != nil {
		return model.Share{}, err
	}
	if sh.Workspace != s.Dir || sh.Expired(time.Now()) || st.ShareToken != token {
		return model.Share{}, share.ErrNotFound
	}
	return sh, nil
}

func newShareServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only shared view with live updates",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadStore(app)
			if err != nil {
				return writeErr(cmd, err)
			}
			reg, err := openRegistry(app, s)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer reg.Close()

			log := logger(app)
			addr = shareAddr(app, addr)
			srv, err := web.NewServer(web.ServerConfig{
				Addr:     addr,
				Store:    s,
				Registry: reg,
				Logger:   log,
			})
			if err != nil {
				return writeErr(cmd, err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			fmt.Fprintf(cmd.ErrOrStderr(), "serving shared list on http://%s (ctrl+c to stop)\n", addr)

			g, gctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				err := s.Watch(gctx, log, 0, srv.Publish)
				if errors.Is(err, context.Canceled) {
					return nil
				}
				return err
			})
			g.Go(func() error {
				return srv.ListenAndServe(gctx)
			})
			if err := g.Wait(); err != nil {
				log.Error("share server stopped", zap.Error(err))
				return writeErr(cmd, err)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default: share.addr from config, else "+defaultShareAddr+")")
	return cmd
}
