package messenger

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/duplex-cli/duplex/internal/log"
)

var (
	stdioPromptStyle = lipgloss.NewStyle().
				Bold(true)

	stdioURLStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#43BF6D")).
			Underline(true)
)

// StdioMessenger conducts the exchange manually over the console: it prints
// the auth URL for the user to visit and reads the redirect URL they paste
// back once the provider has issued a code.
type StdioMessenger struct {
	mu   sync.Mutex
	auth AuthContext
	in   *bufio.Reader
	out  io.Writer
}

var _ ChannelMessenger = (*StdioMessenger)(nil)

// NewStdioMessenger creates a console channel on stdin/stdout.
func NewStdioMessenger() *StdioMessenger {
	return newStdioMessenger(os.Stdin, os.Stdout)
}

func newStdioMessenger(in io.Reader, out io.Writer) *StdioMessenger {
	return &StdioMessenger{
		in:  bufio.NewReader(in),
		out: out,
	}
}

// WithContext stores the exchange context.  The console needs no preparation
// beyond holding onto the auth URL and CSRF token.
func (m *StdioMessenger) WithContext(ctx context.Context, auth AuthContext) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth = auth
	return nil
}

// SendAuthMessage prints the auth URL and instructions for completing the
// exchange by hand.
func (m *StdioMessenger) SendAuthMessage(ctx context.Context) error {
	m.mu.Lock()
	authURL := m.auth.AuthURL
	m.mu.Unlock()

	if authURL == nil {
		return Errorf("no auth URL installed on stdio messenger")
	}

	msg := fmt.Sprintf("%s\n\n  %s\n\n%s\n",
		stdioPromptStyle.Render("Visit the following URL to authorize:"),
		stdioURLStyle.Render(authURL.String()),
		"Then paste the full redirect URL from your browser below and press enter.")

	if _, err := fmt.Fprint(m.out, msg); err != nil {
		return Errorf("failed to write auth message to console: %v", err)
	}

	log.Info("Printed auth URL to console")
	return nil
}

// ReceiveAuthMessage reads the pasted redirect URL from the console and
// extracts the authorization code from it.
func (m *StdioMessenger) ReceiveAuthMessage(ctx context.Context) (string, error) {
	type readResult struct {
		line string
		err  error
	}
	results := make(chan readResult, 1)

	go func() {
		line, err := m.in.ReadString('\n')
		results <- readResult{line: line, err: err}
	}()

	select {
	case <-ctx.Done():
		log.Debug("ReceiveAuthMessage exiting because context is done")
		return "", Errorf("gave up waiting for console input: %v", ctx.Err())
	case result := <-results:
		if result.err != nil && result.line == "" {
			return "", Errorf("failed to read redirect URL from console: %v", result.err)
		}
		return m.parseRedirect(strings.TrimSpace(result.line))
	}
}

// parseRedirect validates the pasted redirect URL and pulls the code out.
func (m *StdioMessenger) parseRedirect(line string) (string, error) {
	if line == "" {
		return "", Errorf("no redirect URL entered")
	}

	redirect, err := url.Parse(line)
	if err != nil {
		return "", Errorf("could not parse redirect URL: %v", err)
	}

	m.mu.Lock()
	csrf := m.auth.CSRF
	m.mu.Unlock()

	query := redirect.Query()
	if csrf != "" && query.Get("state") != csrf {
		log.Warn("Pasted redirect state did not match CSRF token")
		return "", Errorf("redirect URL state does not match")
	}

	code := query.Get("code")
	if code == "" {
		return "", Errorf("redirect URL does not contain an authorization code")
	}

	log.Info("Received authorization code from console")
	return code, nil
}
