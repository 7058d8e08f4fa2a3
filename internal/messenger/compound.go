package messenger

import (
	"context"
	"sync/atomic"

	"github.com/duplex-cli/duplex/internal/log"
)

// Selection counter values.  Anything past selectOther means both channels
// have failed and the compound messenger is exhausted for good.
const (
	selectDefault uint64 = iota
	selectOther
)

// CompoundMessenger presents the ChannelMessenger contract while routing each
// call to one of two owned channels.  A send failure advances the selection
// counter, so failover is sticky: once a channel has failed, no caller is ever
// routed back to it.  The counter only moves forward; when it passes the
// second channel the messenger is exhausted and every call fails fast.
type CompoundMessenger struct {
	selected atomic.Uint64
	def      ChannelMessenger
	other    ChannelMessenger
}

var _ ChannelMessenger = (*CompoundMessenger)(nil)

// NewCompoundMessenger builds a compound messenger from a preferred channel
// and a fallback.  The compound messenger owns both for its lifetime.
func NewCompoundMessenger(def, other ChannelMessenger) *CompoundMessenger {
	return &CompoundMessenger{
		def:   def,
		other: other,
	}
}

// WithContext broadcasts an independent copy of the context to both channels,
// preferred first.  Either channel may end up handling the exchange, so the
// selection counter plays no part here.  If the preferred channel's install
// fails the fallback is never attempted and the whole messenger must be
// considered unusable.
func (m *CompoundMessenger) WithContext(ctx context.Context, auth AuthContext) error {
	if err := m.def.WithContext(ctx, auth.Clone()); err != nil {
		return err
	}
	return m.other.WithContext(ctx, auth.Clone())
}

// SendAuthMessage initiates the authorization step on the currently selected
// channel, advancing to the next channel on failure within the same call.
func (m *CompoundMessenger) SendAuthMessage(ctx context.Context) error {
	for {
		var err error
		switch m.selected.Load() {
		case selectDefault:
			err = m.def.SendAuthMessage(ctx)
		case selectOther:
			err = m.other.SendAuthMessage(ctx)
		default:
			return &ChannelError{Message: "No Messengers available to send"}
		}

		if err == nil {
			return nil
		}

		log.Warn("Messenger failed to send, selecting next", "error", err)
		m.selected.Add(1)
	}
}

// ReceiveAuthMessage waits for the authorization code on the currently
// selected channel.  Unlike send it performs no failover: a send must already
// have settled which channel is conducting the exchange.
func (m *CompoundMessenger) ReceiveAuthMessage(ctx context.Context) (string, error) {
	switch m.selected.Load() {
	case selectDefault:
		return m.def.ReceiveAuthMessage(ctx)
	case selectOther:
		return m.other.ReceiveAuthMessage(ctx)
	default:
		return "", &ChannelError{Message: "No Messengers receive successfully"}
	}
}
