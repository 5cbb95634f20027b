package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v3"
	"github.com/go-chi/chi"
	"github.com/go-chi/valve"
	"go.uber.org/zap"

	"github.com/pagehub/pagehub/pkg/storage"
)

// Server defines parameters for running the pagehub HTTP server. It routes
// uploads and listings to the storage driver configured for each bucket;
// reads never pass through it, content is fetched directly from the URLs
// the drivers hand out.
type Server struct {
	Addr          string
	router        *chi.Mux
	drivers       map[string]storage.Driver
	writeRetryMax time.Duration
	useUnixSock   bool

	// signal chan use for testing.
	testSignalCh chan os.Signal

	logger *zap.Logger
}

// New creates new server instance.
func New(opts ...Option) (*Server, error) {
	s := &Server{drivers: make(map[string]storage.Driver)}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	s.router = chi.NewRouter()

	if s.logger == nil {
		l, err := zap.NewDevelopment()
		if err != nil {
			return nil, err
		}
		s.logger = l
	}

	s.setupRoutes()
	s.useUnixSock = strings.HasPrefix(s.Addr, "unix://")
	s.Addr = strings.TrimPrefix(s.Addr, "unix://")

	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.Route("/buckets/{bucket}", func(r chi.Router) {
		r.Post("/files/{topLevel}/*", s.UploadFile)
		r.Get("/files/{topLevel}", s.ListFiles)
		r.Get("/url-prefix", s.ReadURLPrefix)
	})
}

type uploadResponse struct {
	URL string `json:"url"`
}

type listResponse struct {
	Entries []string `json:"entries"`
	Page    *string  `json:"page"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) driverFor(w http.ResponseWriter, r *http.Request) (storage.Driver, string, bool) {
	bucket := chi.URLParam(r, "bucket")
	d, ok := s.drivers[bucket]
	if !ok {
		s.respondError(w, http.StatusNotFound, "unknown bucket "+bucket)
		return nil, "", false
	}
	return d, bucket, true
}

// UploadFile stores the request body at the path named by the URL and
// responds with the public read URL. The body is buffered here so a
// transient backend failure can be retried with the same bytes; the drivers
// themselves never retry.
func (s *Server) UploadFile(w http.ResponseWriter, r *http.Request) {
	d, bucket, ok := s.driverFor(w, r)
	if !ok {
		return
	}
	topLevel := chi.URLParam(r, "topLevel")
	relPath := chi.URLParam(r, "*")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "reading request body: "+err.Error())
		return
	}

	var url string
	operation := func() error {
		var werr error
		url, werr = d.Write(r.Context(), storage.WriteRequest{
			Path:            relPath,
			StorageTopLevel: topLevel,
			Body:            bytes.NewReader(body),
			ContentLength:   int64(len(body)),
			ContentType:     r.Header.Get("Content-Type"),
		})
		if werr == nil {
			return nil
		}
		var badPath *storage.BadPathError
		if errors.As(werr, &badPath) {
			return backoff.Permanent(werr)
		}
		return werr
	}

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = s.writeRetryMax
	if s.writeRetryMax == 0 {
		bo.MaxElapsedTime = time.Nanosecond
	}
	if err := backoff.Retry(operation, backoff.WithContext(bo, r.Context())); err != nil {
		var badPath *storage.BadPathError
		if errors.As(err, &badPath) {
			s.respondError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.logger.Error("upload failed",
			zap.String("bucket", bucket),
			zap.String("path", topLevel+"/"+relPath),
			zap.Error(err),
		)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	s.respondJSON(w, http.StatusCreated, uploadResponse{URL: url})
}

// ListFiles returns the entry names beneath the top-level namespace. The
// page token is passed through to the driver untouched.
func (s *Server) ListFiles(w http.ResponseWriter, r *http.Request) {
	d, bucket, ok := s.driverFor(w, r)
	if !ok {
		return
	}
	topLevel := chi.URLParam(r, "topLevel")

	listing, err := d.List(r.Context(), storage.ListingRequest{
		StorageTopLevel: topLevel,
		Page:            r.URL.Query().Get("page"),
	})
	if err != nil {
		s.logger.Error("listing failed",
			zap.String("bucket", bucket),
			zap.String("top_level", topLevel),
			zap.Error(err),
		)
		s.respondError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := listResponse{Entries: listing.Entries}
	if listing.Page != "" {
		resp.Page = &listing.Page
	}
	s.respondJSON(w, http.StatusOK, resp)
}

// ReadURLPrefix reports the stable read URL prefix of the bucket's driver.
func (s *Server) ReadURLPrefix(w http.ResponseWriter, r *http.Request) {
	d, _, ok := s.driverFor(w, r)
	if !ok {
		return
	}
	s.respondJSON(w, http.StatusOK, map[string]string{"prefix": d.ReadURLPrefix()})
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("failed to write response", zap.Error(err))
	}
}

func (s *Server) respondError(w http.ResponseWriter, status int, msg string) {
	s.respondJSON(w, status, errorResponse{Error: msg})
}

func (s *Server) Run() error {
	// Graceful valve shut-off package to manage code preemption and shutdown signaling.
	valv := valve.New()
	baseCtx := valv.Context()

	srv := http.Server{Handler: chi.ServerBaseContext(baseCtx, s.router)}

	c := make(chan os.Signal, 1)
	if s.testSignalCh != nil {
		c = s.testSignalCh
	}
	signal.Notify(c, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-c
		s.logger.Info("shutting down...")

		// first valv
		if err := valv.Shutdown(20 * time.Second); err != nil {
			s.logger.Error("failed to shutdown valv")
		}

		// create context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		// start http shutdown
		if err := srv.Shutdown(ctx); err != nil {
			s.logger.Error("failed to shutdown http server")
		}
	}()

	if s.useUnixSock {
		unixListener, err := net.Listen("unix", s.Addr)
		if err != nil {
			return err
		}
		return srv.Serve(unixListener)
	}

	srv.Addr = s.Addr
	return srv.ListenAndServe()
}
