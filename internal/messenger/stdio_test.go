package messenger

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdioSendPrintsAuthURL(t *testing.T) {
	var out bytes.Buffer
	m := newStdioMessenger(strings.NewReader(""), &out)

	auth := AuthContext{
		AuthURL: mustParseURL(t, "https://provider.example/authorize?client_id=abc&state=xyz"),
	}
	require.NoError(t, m.WithContext(context.Background(), auth))
	require.NoError(t, m.SendAuthMessage(context.Background()))

	assert.Contains(t, out.String(), "https://provider.example/authorize?client_id=abc&state=xyz")
	assert.Contains(t, out.String(), "paste the full redirect URL")
}

func TestStdioSendWithoutContext(t *testing.T) {
	m := newStdioMessenger(strings.NewReader(""), io.Discard)

	err := m.SendAuthMessage(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no auth URL installed")
}

func TestStdioReceiveParsesRedirect(t *testing.T) {
	in := strings.NewReader("http://127.0.0.1:18741/callback?code=abc123&state=csrf-token\n")
	m := newStdioMessenger(in, io.Discard)

	require.NoError(t, m.WithContext(context.Background(), AuthContext{CSRF: "csrf-token"}))

	code, err := m.ReceiveAuthMessage(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "abc123", code)
}

func TestStdioReceiveRejectsStateMismatch(t *testing.T) {
	in := strings.NewReader("http://127.0.0.1:18741/callback?code=abc123&state=wrong\n")
	m := newStdioMessenger(in, io.Discard)

	require.NoError(t, m.WithContext(context.Background(), AuthContext{CSRF: "csrf-token"}))

	_, err := m.ReceiveAuthMessage(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "state does not match")
}

func TestStdioReceiveRejectsMissingCode(t *testing.T) {
	in := strings.NewReader("http://127.0.0.1:18741/callback?state=csrf-token\n")
	m := newStdioMessenger(in, io.Discard)

	require.NoError(t, m.WithContext(context.Background(), AuthContext{CSRF: "csrf-token"}))

	_, err := m.ReceiveAuthMessage(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "does not contain an authorization code")
}

func TestStdioReceiveRejectsEmptyInput(t *testing.T) {
	in := strings.NewReader("\n")
	m := newStdioMessenger(in, io.Discard)

	_, err := m.ReceiveAuthMessage(context.Background())
	require.Error(t, err)
	assert.ErrorContains(t, err, "no redirect URL entered")
}

func TestStdioReceiveHonoursContextCancellation(t *testing.T) {
	// A reader that never produces input
	blocked, _ := io.Pipe()
	m := newStdioMessenger(blocked, io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.ReceiveAuthMessage(ctx)
	require.Error(t, err)
	assert.ErrorContains(t, err, "gave up waiting for console input")
}
