package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"fieldmap/internal/bootstrap"
	sessiondto "fieldmap/internal/modules/session/dto"
	"fieldmap/internal/platform/config"
	apperrors "fieldmap/internal/platform/errors"
	"fieldmap/internal/platform/logging"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type globals struct {
	workspace string
	asJSON    bool
}

func newRootCmd() *cobra.Command {
	g := &globals{}

	root := &cobra.Command{
		Use:           "fieldmap",
		Short:         "Field ticket map for crews",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.workspace, "workspace", ".", "workspace directory holding the snapshot and reports")
	root.PersistentFlags().BoolVar(&g.asJSON, "json", false, "print results as JSON")

	root.AddCommand(newImportCmd(g))
	root.AddCommand(newTicketsCmd(g))
	root.AddCommand(newMarkersCmd(g))
	root.AddCommand(newPhotosCmd(g))
	root.AddCommand(newUploadCmd(g))
	root.AddCommand(newActivityCmd(g))
	root.AddCommand(newSessionCmd(g))
	root.AddCommand(newReportCmd(g))
	root.AddCommand(newResetCmd(g))
	root.AddCommand(newConfigCmd(g))
	root.AddCommand(newTUICmd(g))
	root.AddCommand(newServeCmd(g))
	return root
}

// loadApp reads fieldmap.yaml from the workspace. The caller closes the app.
func loadApp(g *globals, logOutput io.Writer) (*bootstrap.App, error) {
	cfg, err := config.Load(g.workspace)
	if err != nil {
		return nil, err
	}
	logger := logging.New(cfg.Log.Level, cfg.Log.Format, logOutput)
	return bootstrap.New(cfg, logger, logOutput)
}

func withApp(g *globals, cmd *cobra.Command, fn func(ctx context.Context, app *bootstrap.App) error) error {
	app, err := loadApp(g, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer app.Close()
	return fn(cmd.Context(), app)
}

// warn prints errors the operation survived and hides them from cobra.
func warn(cmd *cobra.Command, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperrors.ErrPersistence) || errors.Is(err, apperrors.ErrRemoteUpload) {
		_, _ = fmt.Fprintln(cmd.ErrOrStderr(), "warning:", err)
		return nil
	}
	return err
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newImportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Import a ticket table (csv, tsv, xlsx, xls) and replace the snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Import(ctx, args[0])
				if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
					return err
				}
				if g.asJSON {
					if perr := printJSON(cmd.OutOrStdout(), out.Summary); perr != nil {
						return perr
					}
					return warn(cmd, err)
				}
				s := out.Summary
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "imported %d of %d rows from %s (dropped: %d coordinates, %d blank id, %d duplicates)\n",
					s.Imported, s.Rows, filepath.Base(args[0]), s.DroppedCoordinates, s.DroppedBlankID, s.DroppedDuplicates)
				return warn(cmd, err)
			})
		},
	}
}

func newTicketsCmd(g *globals) *cobra.Command {
	tickets := &cobra.Command{Use: "tickets", Short: "Query and update tickets"}

	var status statusFlag
	list := &cobra.Command{
		Use:   "list",
		Short: "List tickets in store order",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				view, err := app.SessionCLI.View(ctx)
				if err != nil {
					return err
				}
				rows := make([]sessiondto.Ticket, 0, len(view.Tickets))
				for _, t := range view.Tickets {
					if status.Matches(t.Status) {
						rows = append(rows, t)
					}
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), rows)
				}
				if !view.Loaded {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no tickets loaded")
					return nil
				}
				for _, t := range rows {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.6f,%.6f\t%s\n", t.ID, t.Status, t.Lat, t.Lon, t.Notes)
				}
				return nil
			})
		},
	}
	addStatusFlag(list.Flags(), &status)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a ticket with its navigation link",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Select(ctx, args[0])
				if err != nil {
					return err
				}
				active := out.View.Active
				if active == nil {
					return fmt.Errorf("%w: ticket %q", apperrors.ErrNotFound, args[0])
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), active)
				}
				t := active.Ticket
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "ticket: %s\nstatus: %s\nlocation: %v, %v\nnotes: %s\nnavigate: %s\n",
					t.ID, t.Status, t.Lat, t.Lon, t.Notes, active.Navigation)
				return nil
			})
		},
	}

	tickets.AddCommand(list, show,
		newTransitionCmd(g, "complete", "Completed", "Mark a ticket completed"),
		newTransitionCmd(g, "block", "Inaccessible", "Mark a ticket inaccessible"),
		newTransitionCmd(g, "reopen", "Pending", "Return a ticket to pending (needs tickets.allow_reopen)"),
	)
	return tickets
}

func newTransitionCmd(g *globals, use, status, short string) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.SetStatus(ctx, args[0], status)
				if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
					return err
				}
				if g.asJSON {
					if perr := printJSON(cmd.OutOrStdout(), out); perr != nil {
						return perr
					}
					return warn(cmd, err)
				}
				if out.From == out.To {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s already %s\n", out.TicketID, out.To)
				} else {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s -> %s\n", out.TicketID, out.From, out.To)
				}
				return warn(cmd, err)
			})
		},
	}
}

func newMarkersCmd(g *globals) *cobra.Command {
	var selectID string
	cmd := &cobra.Command{
		Use:   "markers",
		Short: "Print the map markers and viewport",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				view, err := app.SessionCLI.View(ctx)
				if err != nil {
					return err
				}
				if selectID != "" {
					out, err := app.SessionCLI.Select(ctx, selectID)
					if err != nil {
						return err
					}
					view = out.View
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), view)
				}
				vp := view.Viewport
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "center %.6f,%.6f zoom %d\n", vp.CenterLat, vp.CenterLon, vp.Zoom)
				for _, mk := range view.Markers {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%.6f,%.6f\n", mk.Label, mk.Style, mk.Lat, mk.Lon)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&selectID, "select", "", "ticket id to render as the active marker")
	return cmd
}

func newPhotosCmd(g *globals) *cobra.Command {
	photos := &cobra.Command{Use: "photos", Short: "Attach, forward and export ticket photos"}

	var attach []string
	var outDir string
	export := &cobra.Command{
		Use:   "export --attach <id>=<path> [--attach ...] --out <dir>",
		Short: "Attach photos to tickets and write the zip archive",
		RunE: func(cmd *cobra.Command, _ []string) error {
			batches, order, err := parseAttachments(attach)
			if err != nil {
				return err
			}
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				var warnings []error
				for _, id := range order {
					out, err := app.SessionCLI.AttachPhotos(ctx, id, batches[id])
					if err != nil && !errors.Is(err, apperrors.ErrRemoteUpload) {
						return err
					}
					warnings = append(warnings, err)
					for _, f := range out.Forwarded {
						if f.Skipped {
							_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "not forwarded %s: filename repeats in batch\n", f.Filename)
						} else if f.Error != "" {
							_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "forward %s failed: %s\n", f.Name, f.Error)
						} else if !g.asJSON {
							_, _ = fmt.Fprintf(cmd.OutOrStdout(), "forwarded %s -> %s\n", f.Name, f.Location)
						}
					}
				}
				archive, err := app.SessionCLI.Export(ctx)
				if err != nil {
					return err
				}
				if err := os.MkdirAll(outDir, 0o755); err != nil {
					return fmt.Errorf("create output dir: %w", err)
				}
				path := filepath.Join(outDir, archive.Filename)
				if err := os.WriteFile(path, archive.Data, 0o644); err != nil {
					return fmt.Errorf("write archive: %w", err)
				}
				if g.asJSON {
					if err := printJSON(cmd.OutOrStdout(), map[string]any{"path": path, "entries": archive.Entries}); err != nil {
						return err
					}
				} else {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d photos)\n", path, archive.Entries)
				}
				return warn(cmd, errors.Join(warnings...))
			})
		},
	}
	export.Flags().StringArrayVar(&attach, "attach", nil, "ticket photo as <id>=<path>; repeat for more")
	export.Flags().StringVar(&outDir, "out", ".", "directory for the archive")

	inspect := &cobra.Command{
		Use:   "inspect <path>",
		Short: "Show how a photo would be named and whether it decodes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.PhotoCLI.Inspect(ctx, args[0])
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "file=%s ext=%s bytes=%d", out.Filename, out.Extension, out.Bytes)
				if out.Decodable {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " format=%s size=%dx%d", out.Format, out.Width, out.Height)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return nil
			})
		},
	}

	photos.AddCommand(export, inspect)
	return photos
}

// parseAttachments groups id=path pairs per ticket, keeping first-seen order.
func parseAttachments(values []string) (map[string][]string, []string, error) {
	batches := map[string][]string{}
	var order []string
	for _, v := range values {
		id, path, ok := strings.Cut(v, "=")
		id, path = strings.TrimSpace(id), strings.TrimSpace(path)
		if !ok || id == "" || path == "" {
			return nil, nil, fmt.Errorf("--attach expects <id>=<path>, got %q", v)
		}
		if _, seen := batches[id]; !seen {
			order = append(order, id)
		}
		batches[id] = append(batches[id], path)
	}
	return batches, order, nil
}

func newUploadCmd(g *globals) *cobra.Command {
	upload := &cobra.Command{Use: "upload", Short: "Remote photo forwarding"}
	upload.AddCommand(&cobra.Command{
		Use:   "doctor",
		Short: "Start the uploader plugin and report its identity",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				info, err := app.PhotoCLI.Uploader(ctx)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "uploader=%s version=%s folder=%q\n", info.Name, info.Version, app.Config.Upload.Folder)
				return nil
			})
		},
	})
	return upload
}

func newActivityCmd(g *globals) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "activity",
		Short: "Show recent imports and status changes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				entries, err := app.TicketCLI.Activity(ctx, limit)
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), entries)
				}
				if len(entries) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no activity")
					return nil
				}
				for _, a := range entries {
					line := fmt.Sprintf("%s\t%s", a.At.Local().Format(time.DateTime), a.Kind)
					if a.TicketID != "" {
						line += fmt.Sprintf("\t%s %s -> %s", a.TicketID, a.From, a.To)
					}
					if a.Detail != "" {
						line += "\t" + a.Detail
					}
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "number of entries")
	return cmd
}

func newSessionCmd(g *globals) *cobra.Command {
	session := &cobra.Command{Use: "session", Short: "Inspect the active session"}
	session.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show the session that owns the snapshot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				active, err := app.SessionCLI.GetActive(ctx)
				if errors.Is(err, apperrors.ErrNoActiveSession) {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no active session")
					return nil
				}
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), active)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session: %s\nstarted: %s\nsource: %s\nimported: %s (%d tickets)\n",
					active.SessionID, active.StartedAt.Format(time.RFC3339), active.Source, active.ImportedAt.Format(time.RFC3339), active.Import.Imported)
				return nil
			})
		},
	})
	return session
}

func newReportCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Write the field report markdown into the workspace",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Report(ctx)
				if err != nil {
					return err
				}
				if g.asJSON {
					return printJSON(cmd.OutOrStdout(), out)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "report=%s tickets=%d pending=%d completed=%d inaccessible=%d\n",
					out.Path, out.Tickets, out.Pending, out.Completed, out.Inaccessible)
				return nil
			})
		},
	}
}

func newResetCmd(g *globals) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "reset --yes",
		Short: "Delete the snapshot and activity, closing the session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return fmt.Errorf("reset deletes the snapshot; pass --yes to confirm")
			}
			return withApp(g, cmd, func(ctx context.Context, app *bootstrap.App) error {
				out, err := app.SessionCLI.Reset(ctx)
				if err != nil && !errors.Is(err, apperrors.ErrPersistence) {
					return err
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "session %s reset", out.SessionID)
				if out.NotePath != "" {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), " note=%s", out.NotePath)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout())
				return warn(cmd, err)
			})
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "confirm the reset")
	return cmd
}

func newConfigCmd(g *globals) *cobra.Command {
	cfg := &cobra.Command{Use: "config", Short: "Workspace configuration"}
	cfg.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Write a default " + config.FileName,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := config.WriteDefault(g.workspace)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	})
	return cfg
}

func newTUICmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Run the fieldmap terminal UI",
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Logs would tear the alternate screen; keep only the plugin's.
			app, err := loadApp(g, io.Discard)
			if err != nil {
				return err
			}
			defer app.Close()
			return bootstrap.RunTUI(app)
		},
	}
}

func newServeCmd(g *globals) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the map session over HTTP",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := loadApp(g, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer app.Close()
			if addr == "" {
				addr = app.Config.HTTP.Addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if _, err := app.SessionCLI.Start(ctx); err != nil && !errors.Is(err, apperrors.ErrPersistence) {
				return err
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           app.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}
			errCh := make(chan error, 1)
			go func() {
				app.Logger.Info("http server listening", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			app.Logger.Info("http server shutting down")
			return srv.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr)")
	return cmd
}
