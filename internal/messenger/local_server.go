package messenger

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/duplex-cli/duplex/internal/log"
	"github.com/pkg/browser"
)

const defaultCallbackPath = "/callback"

const callbackSuccessHTML = `<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Duplex Auth</title>
</head>
<body>
    <h1>Authorization received</h1>
    <p>You can close this window and return to your terminal.</p>
</body>
</html>
`

// LocalServerMessenger conducts the exchange over a loopback HTTP listener.
// Installing a context binds the listener at the redirect URL's host, sending
// opens the system browser on the auth URL, and receiving waits for the
// provider to redirect back with the authorization code.
type LocalServerMessenger struct {
	mu           sync.Mutex
	auth         AuthContext
	callbackPath string
	codeChannel  chan string
	httpServer   *http.Server
	addr         string
}

var _ ChannelMessenger = (*LocalServerMessenger)(nil)

// NewLocalServerMessenger creates a loopback listener channel serving the
// callback on the given path ("/callback" when empty).
func NewLocalServerMessenger(callbackPath string) *LocalServerMessenger {
	if callbackPath == "" {
		callbackPath = defaultCallbackPath
	}
	return &LocalServerMessenger{
		callbackPath: callbackPath,
		codeChannel:  make(chan string, 1),
	}
}

// WithContext binds the callback listener.  The redirect URL decides the bind
// address, so the context must carry one.  Installing twice on a running
// listener is rejected rather than rebinding underneath an exchange.
func (m *LocalServerMessenger) WithContext(ctx context.Context, auth AuthContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.httpServer != nil {
		return Errorf("context already installed on local server messenger")
	}
	if auth.RedirectURL == nil {
		return Errorf("local server messenger requires a redirect URL to bind")
	}
	m.auth = auth

	mux := http.NewServeMux()
	mux.HandleFunc(m.callbackPath, m.handleCallback)

	// Create the listener early so we can report an error if we can't secure the port
	var lc net.ListenConfig
	listener, err := lc.Listen(ctx, "tcp", auth.RedirectURL.Host)
	if err != nil {
		log.Error("Could not listen on callback address", "addr", auth.RedirectURL.Host, "error", err)
		return Errorf("failed to bind callback listener on %s: %v", auth.RedirectURL.Host, err)
	}
	m.addr = listener.Addr().String()

	m.httpServer = &http.Server{
		Handler: mux,
	}

	go func(server *http.Server) {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Callback server error", "error", err)
		}
	}(m.httpServer)

	log.Info("Callback server listening", "addr", m.addr, "path", m.callbackPath)
	return nil
}

// SendAuthMessage opens the system browser on the installed auth URL.
func (m *LocalServerMessenger) SendAuthMessage(ctx context.Context) error {
	m.mu.Lock()
	authURL := m.auth.AuthURL
	m.mu.Unlock()

	if authURL == nil {
		return Errorf("no auth URL installed on local server messenger")
	}

	if err := browser.OpenURL(authURL.String()); err != nil {
		log.Warn("Failed to open browser", "error", err)
		return Errorf("failed to open browser: %v", err)
	}

	log.Info("Opened browser for authorization", "url", authURL.String())
	return nil
}

// ReceiveAuthMessage waits for the authorization code to arrive on the
// callback endpoint.  The listener is shut down once waiting finishes,
// whichever way it finishes.
func (m *LocalServerMessenger) ReceiveAuthMessage(ctx context.Context) (string, error) {
	log.Debug("Waiting for authorization code on callback endpoint")
	defer m.stop()

	select {
	case <-ctx.Done():
		log.Debug("ReceiveAuthMessage exiting because context is done")
		return "", Errorf("gave up waiting for authorization code: %v", ctx.Err())
	case code, ok := <-m.codeChannel:
		if !ok || code == "" {
			log.Warn("Failed to receive authorization code")
			return "", Errorf("failed to receive authorization code")
		}
		log.Info("Received authorization code")
		return code, nil
	}
}

// Addr returns the address the callback listener is bound to, or an empty
// string before a context is installed.
func (m *LocalServerMessenger) Addr() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addr
}

// stop shuts the callback server down.
func (m *LocalServerMessenger) stop() {
	m.mu.Lock()
	server := m.httpServer
	m.mu.Unlock()

	if server == nil {
		log.Warn("Call to stop when callback server was not started")
		return
	}
	log.Debug("Stopping callback server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error("Callback server shutdown failed", "error", err)
	}
	log.Debug("Callback server shutdown successfully")
}

// handleCallback handles the redirect from the authorization server.
func (m *LocalServerMessenger) handleCallback(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	m.mu.Lock()
	csrf := m.auth.CSRF
	m.mu.Unlock()

	if csrf != "" && query.Get("state") != csrf {
		log.Warn("Callback state did not match CSRF token")
		http.Error(w, "Invalid state", http.StatusBadRequest)
		return
	}

	code := query.Get("code")
	if code == "" {
		log.Warn("Callback arrived without an authorization code")
		http.Error(w, "Missing code", http.StatusBadRequest)
		return
	}

	// Only the first callback counts; drop the code if one already arrived
	select {
	case m.codeChannel <- code:
		log.Debug("Authorization code received on callback", "length", len(code))
	default:
		log.Warn("Discarding extra callback, code already received")
	}

	w.Header().Set("Content-Type", "text/html")
	if _, err := fmt.Fprint(w, callbackSuccessHTML); err != nil {
		log.Error("Error writing callback response", "error", err)
	}
}
