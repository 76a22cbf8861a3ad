package in

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	sessiondto "fieldmap/internal/modules/session/dto"
	sessionin "fieldmap/internal/modules/session/port/in"
	ticketin "fieldmap/internal/modules/ticket/port/in"
	apperrors "fieldmap/internal/platform/errors"
)

type HTTPOptions struct {
	MaxUploadBytes int64
	Logger         *slog.Logger
	// Metrics serves /metrics when set; Instrument wraps every route.
	Metrics    http.Handler
	Instrument func(http.Handler) http.Handler
}

type HTTPHandler struct {
	session  sessionin.Usecase
	activity ticketin.Usecase
	opts     HTTPOptions
}

func NewHTTPHandler(session sessionin.Usecase, activity ticketin.Usecase, opts HTTPOptions) *HTTPHandler {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 64 << 20
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &HTTPHandler{session: session, activity: activity, opts: opts}
}

func (h *HTTPHandler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)
	if h.opts.Instrument != nil {
		r.Use(h.opts.Instrument)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if h.opts.Metrics != nil {
		r.Handle("/metrics", h.opts.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/view", h.getView)
		r.Get("/session", h.getActive)
		r.Post("/import", h.postImport)
		r.Post("/events/click", h.postClick)
		r.Post("/events/pick", h.postPick)
		r.Post("/events/search", h.postSearch)
		r.Post("/tickets/{id}/complete", h.transition("Completed"))
		r.Post("/tickets/{id}/block", h.transition("Inaccessible"))
		r.Post("/tickets/{id}/reopen", h.transition("Pending"))
		r.Post("/photos", h.postPhotos)
		r.Get("/photos/export", h.getExport)
		r.Post("/report", h.postReport)
		r.Post("/reset", h.postReset)
		r.Get("/activity", h.getActivity)
	})
	return r
}

type envelope struct {
	Data    any    `json:"data,omitempty"`
	Warning string `json:"warning,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *HTTPHandler) getView(w http.ResponseWriter, r *http.Request) {
	view, err := h.session.View(r.Context())
	h.respond(w, view, err)
}

func (h *HTTPHandler) getActive(w http.ResponseWriter, r *http.Request) {
	active, err := h.session.GetActive(r.Context())
	h.respond(w, active, err)
}

func (h *HTTPHandler) postImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		h.respond(w, nil, fmt.Errorf("%w: multipart field \"file\": %v", apperrors.ErrImport, err))
		return
	}
	defer file.Close()
	out, err := h.session.Import(r.Context(), sessiondto.ImportInput{Name: header.Filename, Reader: file})
	h.respond(w, out, err)
}

func (h *HTTPHandler) postClick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label string `json:"label"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.session.ClickMarker(r.Context(), req.Label)
	h.respond(w, out, err)
}

func (h *HTTPHandler) postPick(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Choice string `json:"choice"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.session.Pick(r.Context(), req.Choice)
	h.respond(w, out, err)
}

func (h *HTTPHandler) postSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !h.decode(w, r, &req) {
		return
	}
	out, err := h.session.Search(r.Context(), req.Text)
	h.respond(w, out, err)
}

func (h *HTTPHandler) transition(status string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		out, err := h.session.Transition(r.Context(), sessiondto.TransitionInput{TicketID: id, Status: status})
		h.respond(w, out, err)
	}
}

func (h *HTTPHandler) postPhotos(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.opts.MaxUploadBytes); err != nil {
		h.respond(w, nil, fmt.Errorf("%w: multipart body: %v", apperrors.ErrInvalidInput, err))
		return
	}
	var photos []sessiondto.Photo
	for _, header := range r.MultipartForm.File["photos"] {
		data, err := readPart(header)
		if err != nil {
			h.respond(w, nil, fmt.Errorf("%w: %s: %v", apperrors.ErrInvalidInput, header.Filename, err))
			return
		}
		photos = append(photos, sessiondto.Photo{Filename: header.Filename, Data: data})
	}
	out, err := h.session.SubmitPhotos(r.Context(), sessiondto.SubmitPhotosInput{TicketID: r.FormValue("ticket_id"), Photos: photos})
	h.respond(w, out, err)
}

func (h *HTTPHandler) getExport(w http.ResponseWriter, r *http.Request) {
	out, err := h.session.ExportPhotos(r.Context())
	if err != nil {
		h.respond(w, nil, err)
		return
	}
	w.Header().Set("Content-Type", out.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", out.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(out.Data)))
	w.Header().Set("X-Photo-Count", strconv.Itoa(out.Entries))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out.Data)
}

func (h *HTTPHandler) postReport(w http.ResponseWriter, r *http.Request) {
	out, err := h.session.Report(r.Context())
	h.respond(w, out, err)
}

func (h *HTTPHandler) postReset(w http.ResponseWriter, r *http.Request) {
	out, err := h.session.Reset(r.Context())
	h.respond(w, out, err)
}

func (h *HTTPHandler) getActivity(w http.ResponseWriter, r *http.Request) {
	if h.activity == nil {
		h.respond(w, []any{}, nil)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out, err := h.activity.Activity(r.Context(), limit)
	h.respond(w, out, err)
}

func (h *HTTPHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		h.respond(w, nil, fmt.Errorf("%w: request body: %v", apperrors.ErrInvalidInput, err))
		return false
	}
	return true
}

// respond reports persistence and upload failures as warnings next to the
// result, since the session has already moved on.
func (h *HTTPHandler) respond(w http.ResponseWriter, data any, err error) {
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, envelope{Data: data})
	case errors.Is(err, apperrors.ErrPersistence), errors.Is(err, apperrors.ErrRemoteUpload):
		h.opts.Logger.Warn("request completed with warning", "error", err)
		writeJSON(w, http.StatusOK, envelope{Data: data, Warning: err.Error()})
	default:
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			h.opts.Logger.Error("request failed", "error", err)
		}
		writeJSON(w, status, envelope{Data: data, Error: err.Error()})
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNotFound), errors.Is(err, apperrors.ErrNoActiveSession):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrImport):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrNoSelection), errors.Is(err, apperrors.ErrNoDataset), errors.Is(err, apperrors.ErrTransitionNotAllowed):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readPart(header *multipart.FileHeader) ([]byte, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func (h *HTTPHandler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		h.opts.Logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}
