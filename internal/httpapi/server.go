package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"bananapics/internal/engine"
	"bananapics/pkg/types"
)

// Service defines the engine surface required by the HTTP API layer.
type Service interface {
	Feed() types.FeedResponse
	Submit(ctx context.Context) string
	Retry(ctx context.Context, id string) error
	DeleteRecord(id string) error
	ToggleLike(id string) error
	AddAttachment(name string, data []byte) (engine.Attachment, error)
	AddRemoteAttachment(url string) (engine.Attachment, error)
	RemoveAttachment(id string)
	ClearAttachments()
	DismissToast(id string)
	SetPrompt(p string)
	SetSettings(s engine.Settings)
	Toasts() []engine.Toast
	Balance() float64
	Ready() bool
}

// rejectedUpload reports one file that failed validation in a batch.
type rejectedUpload struct {
	Name  string `json:"name"`
	Error string `json:"error"`
}

type uploadResponse struct {
	Accepted []types.AttachmentView `json:"accepted"`
	Rejected []rejectedUpload       `json:"rejected,omitempty"`
}

func NewMux(svc Service) http.Handler {
	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	// Compression for JSON endpoints
	r.Use(middleware.Compress(5))
	r.Use(MetricsMiddleware)
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
		}))
	}

	r.Get("/feed", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.Feed())
	})

	r.Post("/generations", func(w http.ResponseWriter, r *http.Request) {
		var req types.SubmitRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		svc.SetPrompt(req.Prompt)
		start := time.Now()
		// The async half of the submission must outlive this request.
		id := svc.Submit(serverBaseCtx)
		if id == "" {
			writeJSONError(w, http.StatusUnprocessableEntity, "nothing to generate: prompt and attachments are both empty")
			return
		}
		logRequest(r, "submit", id, time.Since(start))
		writeJSON(w, http.StatusAccepted, types.SubmitResponse{ID: id})
	})

	r.Post("/generations/{id}/retry", func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if err := svc.Retry(serverBaseCtx, id); err != nil {
			writeEngineError(w, err)
			return
		}
		logRequest(r, "retry", id, 0)
		w.WriteHeader(http.StatusAccepted)
	})

	r.Delete("/generations/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.DeleteRecord(chi.URLParam(r, "id")); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/generations/{id}/like", func(w http.ResponseWriter, r *http.Request) {
		if err := svc.ToggleLike(chi.URLParam(r, "id")); err != nil {
			writeEngineError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	r.Post("/attachments", func(w http.ResponseWriter, r *http.Request) {
		ct := r.Header.Get("Content-Type")
		if !strings.HasPrefix(strings.ToLower(ct), "multipart/form-data") {
			writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be multipart/form-data")
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
		if err := r.ParseMultipartForm(32 << 20); err != nil {
			writeJSONError(w, http.StatusBadRequest, "invalid multipart body")
			return
		}
		files := multipartFiles(r.MultipartForm)
		if len(files) == 0 {
			writeJSONError(w, http.StatusBadRequest, "no files in request")
			return
		}
		var resp uploadResponse
		var firstErr error
		for _, fh := range files {
			att, err := addOne(svc, fh)
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				resp.Rejected = append(resp.Rejected, rejectedUpload{Name: fh.Filename, Error: err.Error()})
				continue
			}
			resp.Accepted = append(resp.Accepted, types.AttachmentView{
				ID: att.ID, URL: att.URL, Name: att.Name, Size: att.Size, Local: att.Local,
			})
		}
		// A batch with any accepted file succeeds; per-file failures are
		// itemized. An all-rejected batch reports the first failure's code.
		if len(resp.Accepted) == 0 {
			writeJSON(w, engineErrorStatus(firstErr), resp)
			return
		}
		writeJSON(w, http.StatusOK, resp)
	})

	r.Post("/attachments/url", func(w http.ResponseWriter, r *http.Request) {
		var req types.RemoteAttachmentRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		u := strings.TrimSpace(req.URL)
		if u == "" {
			writeJSONError(w, http.StatusBadRequest, "url is required")
			return
		}
		att, err := svc.AddRemoteAttachment(u)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, types.AttachmentView{
			ID: att.ID, URL: att.URL, Name: att.Name, Size: att.Size, Local: att.Local,
		})
	})

	r.Delete("/attachments/{id}", func(w http.ResponseWriter, r *http.Request) {
		svc.RemoveAttachment(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	r.Delete("/attachments", func(w http.ResponseWriter, r *http.Request) {
		svc.ClearAttachments()
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/toasts", func(w http.ResponseWriter, r *http.Request) {
		views := make([]types.ToastView, 0)
		for _, t := range svc.Toasts() {
			views = append(views, types.ToastView{
				ID:         t.ID,
				Message:    t.Message,
				Type:       string(t.Type),
				DurationMS: t.Duration.Milliseconds(),
			})
		}
		writeJSON(w, http.StatusOK, views)
	})

	r.Delete("/toasts/{id}", func(w http.ResponseWriter, r *http.Request) {
		svc.DismissToast(chi.URLParam(r, "id"))
		w.WriteHeader(http.StatusNoContent)
	})

	r.Put("/prompt", func(w http.ResponseWriter, r *http.Request) {
		var req types.SubmitRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		svc.SetPrompt(req.Prompt)
		w.WriteHeader(http.StatusNoContent)
	})

	r.Put("/settings", func(w http.ResponseWriter, r *http.Request) {
		var req types.SettingsRequest
		if !decodeJSONBody(w, r, &req) {
			return
		}
		svc.SetSettings(engine.Settings{Model: req.Model, Ratio: req.Ratio, Quality: req.Quality})
		w.WriteHeader(http.StatusNoContent)
	})

	r.Get("/balance", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, types.BalanceResponse{Balance: svc.Balance()})
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready() {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("loading"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	MountSwagger(r)

	return r
}

// multipartFiles collects file headers from the conventional field names.
func multipartFiles(form *multipart.Form) []*multipart.FileHeader {
	if form == nil {
		return nil
	}
	var out []*multipart.FileHeader
	for _, key := range []string{"images", "image", "files", "file"} {
		out = append(out, form.File[key]...)
	}
	return out
}

func addOne(svc Service, fh *multipart.FileHeader) (engine.Attachment, error) {
	f, err := fh.Open()
	if err != nil {
		return engine.Attachment{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return engine.Attachment{}, err
	}
	return svc.AddAttachment(fh.Filename, data)
}

// decodeJSONBody enforces the JSON content type and body budget; it writes
// the error response itself and reports whether decoding succeeded.
func decodeJSONBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// writeEngineError maps well-known engine errors to HTTP status codes.
func writeEngineError(w http.ResponseWriter, err error) {
	writeJSONError(w, engineErrorStatus(err), err.Error())
}

func engineErrorStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case engine.IsRecordNotFound(err):
		return http.StatusNotFound
	case engine.IsInvalidState(err):
		return http.StatusConflict
	case engine.IsAttachmentLimit(err):
		return http.StatusUnprocessableEntity
	case engine.IsFileTooLarge(err):
		return http.StatusRequestEntityTooLarge
	case engine.IsUnsupportedFormat(err):
		return http.StatusUnsupportedMediaType
	}
	if he, ok := err.(HTTPError); ok {
		return he.StatusCode()
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && zlog != nil {
		zlog.Error().Err(err).Msg("response encode failed")
	}
}

func logRequest(r *http.Request, op, id string, dur time.Duration) {
	if zlog == nil || requestLogLevel(r) < LevelInfo {
		return
	}
	z := zlog.Info().Str("op", op).Str("record", id)
	if dur > 0 {
		z = z.Dur("dur", dur)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		z = z.Str("request_id", rid)
	}
	z.Msg("engine op")
}
