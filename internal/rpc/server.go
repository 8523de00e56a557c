package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/tessro/encore/internal/core"
	encerrors "github.com/tessro/encore/internal/errors"
)

const (
	maxBodySize  = 1 << 20
	writeTimeout = 10 * time.Second
)

// Server exposes a core.Authority over HTTP.
type Server struct {
	backend  core.Authority
	logger   *slog.Logger
	upgrader websocket.Upgrader
	router   chi.Router
}

// NewServer builds the router for backend.
func NewServer(backend core.Authority, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		backend: backend,
		logger:  logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/rpc/query", s.handleCall(KindQuery))
	r.Post("/rpc/mutation", s.handleCall(KindMutation))
	r.Get("/rpc/subscribe/{key}", s.handleSubscribe)
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	s.logger.Info("player listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

func (s *Server) handleCall(kind Kind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
		if err != nil {
			s.writeError(w, http.StatusBadRequest, CodeBadRequest, err)
			return
		}
		var env envelope
		if err := json.Unmarshal(body, &env); err != nil {
			s.writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Errorf("invalid request body: %w", err))
			return
		}

		req, err := decodeRequest(kind, env.Key, env.Input)
		if err != nil {
			status, code := classify(err)
			if !errors.Is(err, encerrors.ErrUnknownProcedure) {
				status, code = http.StatusBadRequest, CodeBadRequest
			}
			s.writeError(w, status, code, err)
			return
		}

		start := time.Now()
		result, err := s.dispatch(r.Context(), req)
		s.logger.Debug("rpc", "kind", kind, "key", env.Key, "duration", time.Since(start), "err", err)
		if err != nil {
			status, code := classify(err)
			s.writeError(w, status, code, err)
			return
		}
		s.writeResult(w, result)
	}
}

// dispatch runs req against the backend. Every request type must have a case.
func (s *Server) dispatch(ctx context.Context, req Request) (any, error) {
	switch req := req.(type) {
	case *CurrentSongRequest:
		snap, err := s.backend.CurrentSong(ctx)
		return wireSnapshot(snap), err
	case *LibraryRequest:
		lib, err := s.backend.Library(ctx)
		return wireLibrary(lib), err
	case *SearchRequest:
		res, err := s.backend.Search(ctx, req.Query, core.SearchMode(req.Mode))
		return SearchResults{Artists: res.Artists, Albums: res.Albums, Songs: res.Songs}, err
	case *PlaySongRequest:
		snap, err := s.backend.PlaySong(ctx, req.SongID, core.PlayerScope(req.Scope))
		return wireSnapshot(snap), err
	case *SetPausedRequest:
		return nil, s.backend.SetPaused(ctx, req.Paused)
	case *SeekRequest:
		return nil, s.backend.Seek(ctx, req.PositionMs)
	case *NextSongRequest:
		snap, err := s.backend.NextSong(ctx)
		return wireSnapshot(snap), err
	case *PreviousSongRequest:
		snap, err := s.backend.PreviousSong(ctx)
		return wireSnapshot(snap), err
	case *SetVolumeRequest:
		return s.backend.SetVolume(ctx, req.Volume)
	case *ToggleShuffleRequest:
		return s.backend.ToggleShuffle(ctx)
	case *ToggleRepeatRequest:
		return s.backend.ToggleRepeat(ctx)
	default:
		return nil, fmt.Errorf("%w: %s", encerrors.ErrUnknownProcedure, req.Key())
	}
}

func (s *Server) handleSubscribe(w http.ResponseWriter, r *http.Request) {
	key := Key(chi.URLParam(r, "key"))
	if key != KeySubscribeCurrentSong {
		s.writeError(w, http.StatusNotFound, CodeUnknownProcedure,
			fmt.Errorf("%w: %s", encerrors.ErrUnknownProcedure, key))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("websocket upgrade failed", "err", err)
		return
	}
	defer func() { _ = conn.Close() }()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Drain the client side so a close frame ends the stream.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	sub, err := s.backend.SubscribeCurrentSong(ctx)
	if err != nil {
		s.writeFrame(conn, response{Error: toWireError(err)})
		return
	}
	defer func() { _ = sub.Close() }()

	s.logger.Debug("subscriber connected", "remote", r.RemoteAddr)
	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("subscriber disconnected", "remote", r.RemoteAddr)
			return
		case snap, ok := <-sub.Snapshots():
			if !ok {
				if err := sub.Err(); err != nil {
					s.writeFrame(conn, response{Error: toWireError(err)})
				}
				return
			}
			data, err := json.Marshal(wireSnapshot(snap))
			if err != nil {
				s.logger.Error("failed to encode snapshot", "err", err)
				return
			}
			if err := s.writeFrame(conn, response{Result: data}); err != nil {
				return
			}
		}
	}
}

func (s *Server) writeFrame(conn *websocket.Conn, frame response) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(frame); err != nil {
		s.logger.Debug("websocket write failed", "err", err)
		return err
	}
	return nil
}

func (s *Server) writeResult(w http.ResponseWriter, result any) {
	data, err := json.Marshal(result)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, CodeInternal, err)
		return
	}
	writeJSON(w, http.StatusOK, response{Result: data})
}

func (s *Server) writeError(w http.ResponseWriter, status int, code string, err error) {
	if status >= 500 {
		s.logger.Error("rpc failed", "code", code, "err", err)
	}
	writeJSON(w, status, response{Error: &wireError{Code: code, Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// classify maps an error onto an HTTP status and wire code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, encerrors.ErrRejected):
		return http.StatusConflict, CodeRejected
	case errors.Is(err, encerrors.ErrTrackNotFound):
		return http.StatusNotFound, CodeNotFound
	case errors.Is(err, encerrors.ErrNothingPlaying):
		return http.StatusConflict, CodeNothingPlaying
	case errors.Is(err, encerrors.ErrUnknownProcedure):
		return http.StatusNotFound, CodeUnknownProcedure
	default:
		return http.StatusInternalServerError, CodeInternal
	}
}

func toWireError(err error) *wireError {
	_, code := classify(err)
	return &wireError{Code: code, Message: err.Error()}
}
