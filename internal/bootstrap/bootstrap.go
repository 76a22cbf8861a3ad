package bootstrap

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"

	tea "github.com/charmbracelet/bubbletea"

	photoinadapter "fieldmap/internal/modules/photo/adapter/in"
	photooutadapter "fieldmap/internal/modules/photo/adapter/out"
	photoout "fieldmap/internal/modules/photo/port/out"
	photoservice "fieldmap/internal/modules/photo/service"
	photousecase "fieldmap/internal/modules/photo/usecase"
	sessioninadapter "fieldmap/internal/modules/session/adapter/in"
	sessionoutadapter "fieldmap/internal/modules/session/adapter/out"
	sessionservice "fieldmap/internal/modules/session/service"
	sessionusecase "fieldmap/internal/modules/session/usecase"
	ticketinadapter "fieldmap/internal/modules/ticket/adapter/in"
	ticketoutadapter "fieldmap/internal/modules/ticket/adapter/out"
	ticketservice "fieldmap/internal/modules/ticket/service"
	ticketusecase "fieldmap/internal/modules/ticket/usecase"
	"fieldmap/internal/platform/clock"
	"fieldmap/internal/platform/config"
	"fieldmap/internal/platform/id"
	"fieldmap/internal/platform/metrics"
	uiapp "fieldmap/internal/ui/app"
)

type App struct {
	Config     config.Config
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
	SessionCLI sessioninadapter.CLIHandler
	TicketCLI  ticketinadapter.CLIHandler
	PhotoCLI   photoinadapter.CLIHandler

	http    *sessioninadapter.HTTPHandler
	closers []func()
}

// New wires every module against the workspace in cfg. logOutput receives the
// uploader plugin's own log lines.
func New(cfg config.Config, logger *slog.Logger, logOutput io.Writer) (*App, error) {
	clk := clock.SystemClock{}
	ids := id.UUID{}
	m := metrics.New()

	activity, err := ticketoutadapter.NewSQLiteActivityLog(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("new activity log: %w", err)
	}
	ticketUC := ticketusecase.NewInteractor(ticketservice.NewTicketService(
		clk,
		ticketoutadapter.NewCSVSnapshotStore(cfg.SnapshotPath()),
		ticketoutadapter.NewSpreadsheetReader(),
		activity,
		ticketoutadapter.NewFileReportStore(cfg.Workspace),
		logger.With("module", "ticket"),
		ticketservice.Options{AllowReopen: cfg.Tickets.AllowReopen},
	))

	app := &App{Config: cfg, Logger: logger, Metrics: m}
	app.closers = append(app.closers, func() { _ = activity.Close() })

	var uploader photoout.Uploader
	if cfg.Upload.Enabled {
		pu := photooutadapter.NewPluginUploader(photooutadapter.PluginUploaderConfig{
			Binary:      cfg.Upload.Plugin,
			SHA256:      cfg.Upload.SHA256,
			CallTimeout: cfg.Upload.Timeout,
			LogOutput:   logOutput,
		})
		app.closers = append(app.closers, pu.Close)
		uploader = pu
	}
	photoUC := photousecase.NewInteractor(photoservice.NewPhotoService(
		clk,
		photooutadapter.NewZipArchiver(),
		uploader,
		logger.With("module", "photo"),
		photoservice.Options{Folder: cfg.Upload.Folder, Timestamped: cfg.Export.Timestamped},
	))

	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(
			clk,
			ids,
			sessionoutadapter.NewFileActiveSessionStore(cfg.StateDir),
			sessionoutadapter.NewMarkdownSummaryStore(cfg.Workspace),
		),
		ticketUC,
		photoUC,
		m,
		logger.With("module", "session"),
		sessionusecase.Options{Zoom: cfg.Map.Zoom},
	)

	app.SessionCLI = sessioninadapter.NewCLIHandler(sessionUC)
	app.TicketCLI = ticketinadapter.NewCLIHandler(ticketUC)
	app.PhotoCLI = photoinadapter.NewCLIHandler(photoUC)
	app.http = sessioninadapter.NewHTTPHandler(sessionUC, ticketUC, sessioninadapter.HTTPOptions{
		MaxUploadBytes: cfg.HTTP.MaxUploadMB << 20,
		Logger:         logger.With("module", "http"),
		Metrics:        m.Handler(),
		Instrument:     m.Middleware,
	})
	return app, nil
}

// Handler is the HTTP surface over the same session the CLI and TUI use.
func (a *App) Handler() http.Handler {
	return a.http.Router()
}

// Close stops the uploader plugin process, if one was started, and closes the
// activity database.
func (a *App) Close() {
	for _, c := range a.closers {
		c()
	}
}

func RunTUI(app *App) error {
	model := uiapp.NewModel(app.Config.Workspace, app.SessionCLI, app.TicketCLI)
	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion())
	_, err := program.Run()
	return err
}
