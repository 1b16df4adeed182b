package kiosk

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/disintegration/imaging"
	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dj-oyu/face-attendance-kiosk/internal/camera"
	"github.com/dj-oyu/face-attendance-kiosk/internal/logger"
)

const snapshotQuality = 90

// Handler exposes the HTTP surface of the shell.
func (s *Shell) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chiMiddleware.Recoverer)

	r.Get("/", s.handleIndex)
	r.Handle("/assets/*", http.StripPrefix("/assets/", newAssetHandler(s.cfg.UI.AssetsDir)))
	r.Get("/stream", s.handleStream)
	r.Get("/overlay.png", s.handleOverlay)
	r.Get("/snapshot.jpg", s.handleSnapshot)
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", s.metrics.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/events", s.handleEvents)
		r.Post("/checking/start", s.handleCheckingStart)
		r.Post("/checking/stop", s.handleCheckingStop)
		r.Post("/attendance/reset", s.handleAttendanceReset)
	})

	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("HTTP", "%s %s %d %s [%s]", r.Method, r.URL.Path, ww.Status(),
			time.Since(start), chiMiddleware.GetReqID(r.Context()))
	})
}

func (s *Shell) handleIndex(w http.ResponseWriter, r *http.Request) {
	title := s.cfg.UI.Title
	if title == "" {
		title = "Face Attendance System"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	err := indexTemplate.Execute(w, indexData{
		Title:  title,
		Width:  s.cfg.Overlay.Width,
		Height: s.cfg.Overlay.Height,
	})
	if err != nil {
		logger.Error("Kiosk", "Index render error: %v", err)
	}
}

func (s *Shell) handleStream(w http.ResponseWriter, r *http.Request) {
	s.camera.Stream().ServeHTTP(w, r)
}

func (s *Shell) handleOverlay(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	if err := s.renderer.EncodePNG(&buf); err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(buf.Bytes())
}

// handleSnapshot serves the current frame with the overlay composited on top.
func (s *Shell) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	data, err := s.Snapshot(snapshotQuality)
	if errors.Is(err, camera.ErrNoFrame) {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusServiceUnavailable)
		return
	}
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(data)
}

// Snapshot encodes the current frame with the overlay on top as JPEG.
func (s *Shell) Snapshot(quality int) ([]byte, error) {
	frame, _, ok := s.camera.Surface().Frame()
	if !ok {
		return nil, camera.ErrNoFrame
	}

	out := frame
	if ov := s.renderer.Image(); ov != nil {
		out = composite(frame, ov)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// composite draws ov over frame at the top-left corner, scaled to the frame
// when their sizes differ.
func composite(frame image.Image, ov image.Image) image.Image {
	base := imaging.Clone(frame)
	fb, ob := base.Bounds(), ov.Bounds()
	if fb.Dx() != ob.Dx() || fb.Dy() != ob.Dy() {
		ov = imaging.Resize(ov, fb.Dx(), fb.Dy(), imaging.Linear)
	}
	return imaging.Overlay(base, ov, image.Pt(0, 0), 1.0)
}

func (s *Shell) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"status": "ok"})
}

func (s *Shell) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.State())
}

func (s *Shell) handleEvents(w http.ResponseWriter, r *http.Request) {
	id, eventCh := s.events.Subscribe()
	defer s.events.Unsubscribe(id)

	first, err := s.events.Current()
	if err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusInternalServerError)
		return
	}
	streamStateEvents(w, r, first, eventCh)
}

func (s *Shell) handleCheckingStart(w http.ResponseWriter, r *http.Request) {
	s.StartChecking()
	writeJSON(w, s.State())
}

func (s *Shell) handleCheckingStop(w http.ResponseWriter, r *http.Request) {
	s.StopChecking()
	writeJSON(w, s.State())
}

func (s *Shell) handleAttendanceReset(w http.ResponseWriter, r *http.Request) {
	if err := s.ResetAttendance(r.Context()); err != nil {
		writeJSONWithStatus(w, map[string]any{"error": err.Error()}, http.StatusBadGateway)
		return
	}
	writeJSON(w, s.State())
}

func writeJSON(w http.ResponseWriter, payload any) {
	writeJSONWithStatus(w, payload, http.StatusOK)
}

func writeJSONWithStatus(w http.ResponseWriter, payload any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		_, _ = fmt.Fprintf(w, `{"error":"%s"}`, err.Error())
	}
}
