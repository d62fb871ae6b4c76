// Package oauth runs the browser half of an installed-app OAuth flow: a
// loopback server receives the authorization code and the code is
// exchanged with PKCE for a refresh token.
package oauth

import (
	"context"
	"errors"
	"fmt"
	"html"
	"net"
	"net/http"
	"os/exec"
	"runtime"
	"sync"
	"time"
)

// CallbackServer receives the authorization redirect on 127.0.0.1.
type CallbackServer struct {
	mu       sync.Mutex
	port     int
	state    string
	codes    chan string
	errs     chan error
	server   *http.Server
	listener net.Listener
}

// NewCallbackServer creates a callback server expecting state.
// Port 0 picks a free port on Start.
func NewCallbackServer(port int, state string) *CallbackServer {
	return &CallbackServer{
		port:  port,
		state: state,
		codes: make(chan string, 1),
		errs:  make(chan error, 1),
	}
}

// Start begins listening.
func (s *CallbackServer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	mux := http.NewServeMux()
	mux.HandleFunc("/callback", s.handleCallback)

	addr := fmt.Sprintf("127.0.0.1:%d", s.port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener
	if tcpAddr, ok := listener.Addr().(*net.TCPAddr); ok {
		s.port = tcpAddr.Port
	}

	s.server = &http.Server{
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.fail(err)
		}
	}()
	return nil
}

func (s *CallbackServer) fail(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

func (s *CallbackServer) handleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	if e := q.Get("error"); e != "" {
		s.fail(fmt.Errorf("authorization denied: %s %s", e, q.Get("error_description")))
		fmt.Fprint(w, page("Authorization failed", html.EscapeString(q.Get("error_description"))))
		return
	}
	if q.Get("state") != s.state {
		s.fail(errors.New("authorization callback has an unexpected state"))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Authorization failed", "The request did not come from this session."))
		return
	}
	code := q.Get("code")
	if code == "" {
		s.fail(errors.New("authorization callback without code"))
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, page("Authorization failed", "No authorization code was received."))
		return
	}

	select {
	case s.codes <- code:
	default:
	}
	fmt.Fprint(w, page("Factura is authorized", "You can close this window and return to the terminal."))
}

// Wait blocks until a code or an error arrives, or ctx ends.
func (s *CallbackServer) Wait(ctx context.Context) (string, error) {
	select {
	case code := <-s.codes:
		return code, nil
	case err := <-s.errs:
		return "", err
	case <-ctx.Done():
		return "", fmt.Errorf("waiting for authorization: %w", ctx.Err())
	}
}

// Stop shuts the server down. Stopping twice is harmless.
func (s *CallbackServer) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Port returns the listening port.
func (s *CallbackServer) Port() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.port
}

// RedirectURI is the redirect URL to register with the authorization request.
func (s *CallbackServer) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d/callback", s.Port())
}

func page(title, message string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
<title>Factura</title>
<style>
body { font-family: -apple-system, 'Segoe UI', Roboto, sans-serif; display: flex;
       justify-content: center; align-items: center; height: 100vh; margin: 0; background: #F5F7FA; }
.box { text-align: center; background: #FFF; padding: 48px 64px; border-radius: 12px;
       border: 1px solid #D0D5DD; }
h1 { color: #1F3A5F; margin: 0 0 8px 0; font-size: 22px; }
p { color: #667085; margin: 0; }
</style>
</head>
<body><div class="box"><h1>%s</h1><p>%s</p></div></body>
</html>`, title, message)
}

// OpenBrowser opens url in the default browser.
func OpenBrowser(url string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux", "freebsd", "openbsd":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}
	return cmd.Start()
}
