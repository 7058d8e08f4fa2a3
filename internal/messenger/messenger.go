package messenger

import "context"

// ChannelMessenger is the capability contract any transport must satisfy to
// carry one side of an authorization-code exchange.  Implementations include
// a loopback HTTP listener and a manual console exchange; the compound
// messenger satisfies it too, so coordinators compose.
type ChannelMessenger interface {
	// WithContext gives the channel the data it needs to conduct its exchange,
	// for example binding a listener or preparing a URL to print.  It is called
	// once per exchange; calling it again is implementation-defined but must not
	// corrupt channel state.
	WithContext(ctx context.Context, auth AuthContext) error

	// SendAuthMessage performs the channel-specific action that initiates the
	// authorization step, such as opening a browser or printing the auth URL.
	SendAuthMessage(ctx context.Context) error

	// ReceiveAuthMessage blocks until an authorization code is available and
	// returns it.
	ReceiveAuthMessage(ctx context.Context) (string, error)
}
