// Package api serves the roost control API over a Unix socket or loopback
// TCP. The embedded browser shell's login detector posts signals here, and
// the menu glue drives account operations through it.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/benaskins/roost/internal/bridge"
	"github.com/benaskins/roost/internal/vault"
)

// Server serves the roost control API.
type Server struct {
	vault    *vault.Vault
	bridge   *bridge.Bridge
	listener net.Listener
	server   *http.Server
	logger   *slog.Logger
}

// NewServer creates an API server over the given vault and bridge.
func NewServer(v *vault.Vault, b *bridge.Bridge) *Server {
	s := &Server{
		vault:  v,
		bridge: b,
		logger: slog.With("component", "api"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/accounts", s.listAccounts)
	mux.HandleFunc("POST /v1/accounts/{id}/activate", s.activateAccount)
	mux.HandleFunc("DELETE /v1/accounts/active", s.removeActive)
	mux.HandleFunc("POST /v1/login", s.loginSignal)
	mux.HandleFunc("GET /v1/health", s.health)

	s.server = &http.Server{Handler: mux}
	return s
}

// ListenUnix starts the server on a Unix socket.
func (s *Server) ListenUnix(path string) error {
	ln, err := net.Listen("unix", path)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("API listening", "socket", path)
	return s.server.Serve(ln)
}

// ListenTCP starts the server on a TCP address.
func (s *Server) ListenTCP(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = ln
	s.logger.Info("API listening", "addr", addr)
	return s.server.Serve(ln)
}

// Handler exposes the route table for tests.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.vault.Accounts())
}

func (s *Server) activateAccount(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	res := s.wait(func(done func(bridge.Result)) {
		s.bridge.RequestSwitch(id, done)
	})
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"active": res.AccountID})
}

func (s *Server) removeActive(w http.ResponseWriter, r *http.Request) {
	res := s.wait(func(done func(bridge.Result)) {
		s.bridge.RequestRemove(done)
	})
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"removed": res.AccountID})
}

func (s *Server) loginSignal(w http.ResponseWriter, r *http.Request) {
	var sig bridge.LoginSignal
	if err := json.NewDecoder(r.Body).Decode(&sig); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed login signal"})
		return
	}
	if sig.Identity == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing username"})
		return
	}

	res := s.wait(func(done func(bridge.Result)) {
		s.bridge.NotifyLogin(sig, done)
	})
	if res.Err != nil {
		writeError(w, res.Err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"account_id": res.AccountID})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// wait bridges the async command callback back into the synchronous
// request handler. Vault operations are short-lived and user-initiated;
// blocking the request until completion is the accepted trade-off.
func (s *Server) wait(enqueue func(done func(bridge.Result))) bridge.Result {
	ch := make(chan bridge.Result, 1)
	enqueue(func(r bridge.Result) { ch <- r })
	return <-ch
}

// writeError maps the vault error taxonomy onto status codes. Error
// bodies carry the sentinel text only — never payload detail.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"
	switch {
	case errors.Is(err, vault.ErrUnknownAccount):
		status, msg = http.StatusNotFound, vault.ErrUnknownAccount.Error()
	case errors.Is(err, vault.ErrNoActiveAccount):
		status, msg = http.StatusConflict, vault.ErrNoActiveAccount.Error()
	case errors.Is(err, vault.ErrAuth):
		status, msg = http.StatusConflict, vault.ErrAuth.Error()
	case errors.Is(err, vault.ErrStore):
		status, msg = http.StatusBadGateway, vault.ErrStore.Error()
	case errors.Is(err, vault.ErrCrypto):
		status, msg = http.StatusInternalServerError, vault.ErrCrypto.Error()
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
