package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"auto-photo-saver/ocr"
	"auto-photo-saver/storage"
	"auto-photo-saver/submission"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const ErrorInternal = "error:internal"
const ERR_MARSHAL = "failed to marshal response message"
const ERR_MULTIPART = "failed to parse multipart form"
const ERR_FORM_FILE = "failed to read uploaded file"
const ERR_SERVICE_UNAVAILABLE = "text recognition unavailable"
const ERR_BATCH = "failed to process batch"
const ERR_TOKEN = "invalid download token"
const ERR_ARTIFACT = "failed to load photo"

// DefaultMaxUploadBytes bounds one multipart request.
const DefaultMaxUploadBytes int64 = 64 << 20

type ServerConfig struct {
	Host           string `json:"host"`
	Port           int    `json:"port"`
	UseTls         bool   `json:"use_tls,omitempty"`
	TlsPrivKeyPath string `json:"tls_priv_key_path,omitempty"`
	TlsCertPath    string `json:"tls_cert_path,omitempty"`
	MaxUploadBytes int64  `json:"max_upload_bytes,omitempty"`
}

type ServerState struct {
	processor      *submission.Processor
	store          storage.ArtifactStore
	downloadTokens DownloadTokens
	gatherer       prometheus.Gatherer
}

type Server struct {
	server *http.Server
	config ServerConfig
}

func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) ListenAndServe() error {
	if s.config.UseTls {
		slog.Info("Starting server with TLS", "host", s.config.Host, "port", s.config.Port, "cert", s.config.TlsCertPath, "key", s.config.TlsPrivKeyPath)
		return s.server.ListenAndServeTLS(s.config.TlsCertPath, s.config.TlsPrivKeyPath)
	}
	slog.Info("Starting server without TLS", "host", s.config.Host, "port", s.config.Port)
	return s.server.ListenAndServe()
}

func (s *Server) Stop() error {
	slog.Info("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	err := s.server.Shutdown(ctx)
	if err != nil {
		slog.Error("Error during server shutdown", "error", err)
	} else {
		slog.Info("Server shut down successfully")
	}
	return err
}

func NewServer(state *ServerState, config ServerConfig) (*Server, error) {
	if state.processor == nil || state.store == nil || state.downloadTokens == nil {
		return nil, errors.New("server state is incomplete")
	}
	if config.MaxUploadBytes <= 0 {
		config.MaxUploadBytes = DefaultMaxUploadBytes
	}
	if state.gatherer == nil {
		state.gatherer = prometheus.DefaultGatherer
	}

	slog.Info("Creating new server", "host", config.Host, "port", config.Port, "tls", config.UseTls)
	router := mux.NewRouter()

	router.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		handleHealth(state, w, r)
	}).Methods(http.MethodGet)

	router.HandleFunc("/api/process", func(w http.ResponseWriter, r *http.Request) {
		handleProcess(state, config.MaxUploadBytes, w, r)
	})

	router.HandleFunc("/api/photos/{name}", func(w http.ResponseWriter, r *http.Request) {
		handleDownloadPhoto(state, w, r)
	}).Methods(http.MethodGet)

	router.Handle("/metrics", promhttp.HandlerFor(state.gatherer, promhttp.HandlerOpts{})).Methods(http.MethodGet)

	addr := fmt.Sprintf("%s:%d", config.Host, config.Port)
	return &Server{
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 2 * time.Minute,
		},
		config: config,
	}, nil
}

func handleHealth(state *ServerState, w http.ResponseWriter, r *http.Request) {
	slog.Debug("Health check request received")
	recognizerErr := state.processor.Check(r.Context())
	if recognizerErr != nil {
		slog.Warn("text recognition unavailable", "error", recognizerErr)
	}
	if err := writeJSON(w, http.StatusOK, healthResponse(recognizerErr == nil)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// readSlots collects passport_<n> and photo_<n> uploads for n = 1..MaxSlots.
func readSlots(r *http.Request) ([]submission.Slot, error) {
	slots := make([]submission.Slot, 0, submission.MaxSlots)
	for n := 1; n <= submission.MaxSlots; n++ {
		passport, err := readFormFile(r, "passport_"+strconv.Itoa(n))
		if err != nil {
			return nil, err
		}
		photo, err := readFormFile(r, "photo_"+strconv.Itoa(n))
		if err != nil {
			return nil, err
		}
		slots = append(slots, submission.Slot{Ordinal: n, Passport: passport, Photo: photo})
	}
	return slots, nil
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return data, nil
}

func handleProcess(state *ServerState, maxUpload int64, w http.ResponseWriter, r *http.Request) {
	if !requirePOST(w, r) {
		return
	}
	defer closeRequestBody(r)

	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	if err := r.ParseMultipartForm(maxUpload); err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_MULTIPART, err)
		return
	}

	slots, err := readSlots(r)
	if err != nil {
		respondWithErr(w, http.StatusBadRequest, "invalid request", ERR_FORM_FILE, err)
		return
	}

	opts := submission.Options{Airline: r.FormValue("airline")}
	batch, err := state.processor.ProcessBatch(r.Context(), slots, opts)
	if errors.Is(err, ocr.ErrServiceUnavailable) {
		respondWithErr(w, http.StatusServiceUnavailable, "text recognition unavailable", ERR_SERVICE_UNAVAILABLE, err)
		return
	}
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_BATCH, err)
		return
	}

	response := toBatchResponse(batch, func(name string) string {
		return downloadURL(state.downloadTokens, name)
	})
	if err := writeJSON(w, http.StatusOK, response); err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_MARSHAL, err)
	}
}

func downloadURL(tokens DownloadTokens, name string) string {
	token, err := tokens.CreateToken(name)
	if err != nil {
		slog.Error("failed to create download token", "file", name, "error", err)
		return ""
	}
	return "/api/photos/" + url.PathEscape(name) + "?token=" + url.QueryEscape(token)
}

func handleDownloadPhoto(state *ServerState, w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	if err := state.downloadTokens.VerifyToken(r.URL.Query().Get("token"), name); err != nil {
		respondWithErr(w, http.StatusUnauthorized, "unauthorized", ERR_TOKEN, err)
		return
	}

	data, err := state.store.Load(r.Context(), name)
	if errors.Is(err, storage.ErrArtifactNotFound) || errors.Is(err, storage.ErrInvalidName) {
		respondWithErr(w, http.StatusNotFound, "not found", ERR_ARTIFACT, err)
		return
	}
	if err != nil {
		respondWithErr(w, http.StatusInternalServerError, ErrorInternal, ERR_ARTIFACT, err)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	if _, err := w.Write(data); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

func respondWithErr(w http.ResponseWriter, code int, responseBody string, logMsg string, e error) {
	slog.Error(logMsg, "error", e, "status_code", code, "response_body", responseBody)
	w.WriteHeader(code)
	if _, err := w.Write([]byte(responseBody)); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
}

// helpers ------------

func closeRequestBody(r *http.Request) {
	if r.MultipartForm != nil {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			slog.Error("failed to remove multipart temp files", "error", err)
		}
	}
	if err := r.Body.Close(); err != nil {
		slog.Error("failed to close request body", "error", err)
	}
}

func requirePOST(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodPost {
		slog.Debug("Non-POST request rejected", "method", r.Method, "path", r.URL.Path)
		respondWithErr(w, http.StatusMethodNotAllowed, "method not allowed", "invalid method", nil)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err = w.Write(payload); err != nil {
		slog.Error("failed to write body to http response", "error", err)
	}
	return nil
}
