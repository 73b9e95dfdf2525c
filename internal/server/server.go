// Package server exposes the three LocalSend v1 receive endpoints over TLS
// and maps controller errors onto HTTP statuses.
package server

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/landrop/landrop/internal/protocol"
	"github.com/landrop/landrop/internal/session"
	"github.com/landrop/landrop/internal/version"
)

// Response bodies fixed by the wire protocol. The 409 text carries a
// historical typo that existing peers may string-match; keep it verbatim.
const (
	blockedBody  = "Blocked by another sesssion"
	declinedBody = "User declined the request"
)

// Server routes the HTTPS surface to the session controller.
type Server struct {
	ctrl   *session.Controller
	alias  string
	logger *slog.Logger
	http   *http.Server
}

// New builds a server listening on addr with the given certificate.
func New(addr string, cert tls.Certificate, ctrl *session.Controller, alias string, logger *slog.Logger) *Server {
	s := &Server{
		ctrl:   ctrl,
		alias:  alias,
		logger: logger,
	}
	s.http = &http.Server{
		Addr:      addr,
		Handler:   s.Routes(),
		TLSConfig: &tls.Config{Certificates: []tls.Certificate{cert}},
	}
	return s
}

// Routes registers the endpoint handlers.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("POST /api/localsend/v1/send-request", s.handleSendRequest)
	mux.HandleFunc("POST /api/localsend/v1/send", s.handleSend)
	mux.HandleFunc("POST /api/localsend/v1/cancel", s.handleCancel)
	return mux
}

// ListenAndServe serves TLS until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		// Certificate comes from TLSConfig; no key files on disk.
		errCh <- s.http.ListenAndServeTLS("", "")
	}()
	s.logger.Info("https listening", "addr", s.http.Addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		_ = s.http.Shutdown(context.Background())
		return ctx.Err()
	}
}

// writeWireBody sends one of the fixed protocol bodies byte-exact. Peers
// string-match these, so no trailing newline.
func writeWireBody(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, "<h1>%s</h1><p>landrop %s</p>", s.alias, version.Version)
}

func (s *Server) handleSendRequest(w http.ResponseWriter, r *http.Request) {
	var req protocol.SendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "malformed send-request body", http.StatusBadRequest)
		return
	}

	tokens, err := s.ctrl.HandleSendRequest(req)
	switch {
	case errors.Is(err, session.ErrSessionActive):
		writeWireBody(w, http.StatusConflict, blockedBody)
		return
	case errors.Is(err, session.ErrDeclined):
		writeWireBody(w, http.StatusForbidden, declinedBody)
		return
	case err != nil:
		s.logger.Error("send-request", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(tokens); err != nil {
		s.logger.Debug("write token response", "err", err)
	}
}

func (s *Server) handleSend(w http.ResponseWriter, r *http.Request) {
	info := protocol.SendInfo{
		FileID: r.URL.Query().Get("fileId"),
		Token:  r.URL.Query().Get("token"),
	}

	err := s.ctrl.Ingest(info, r.Body)
	switch {
	case errors.Is(err, session.ErrTokenMismatch):
		http.Error(w, "invalid token", http.StatusForbidden)
	case errors.Is(err, session.ErrNoSession), errors.Is(err, session.ErrUnknownFile):
		http.Error(w, "no session for this file", http.StatusInternalServerError)
	case err != nil:
		s.logger.Error("send", "file", info.FileID, "err", err)
		http.Error(w, "transfer failed", http.StatusInternalServerError)
	default:
		w.WriteHeader(http.StatusOK)
	}
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.HandleCancel(); err != nil {
		http.Error(w, "no session to cancel", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)
}
