package messenger

import "net/url"

// AuthContext carries the data a channel needs to conduct an authorization
// exchange.  All fields are optional; each channel decides which ones it
// requires and rejects an install that is missing them.
type AuthContext struct {
	// AuthURL is the provider's authorization endpoint with query parameters attached
	AuthURL *url.URL
	// CSRF is the opaque anti-forgery token the channel validates the callback against
	CSRF string
	// RedirectURL is where the authorization server sends the user after consent
	RedirectURL *url.URL
}

// Clone returns an independent copy of the context.  Each channel holds its
// copy for the lifetime of the exchange, so broadcasting the same context to
// multiple channels must go through Clone.
func (c AuthContext) Clone() AuthContext {
	clone := AuthContext{CSRF: c.CSRF}
	if c.AuthURL != nil {
		u := *c.AuthURL
		clone.AuthURL = &u
	}
	if c.RedirectURL != nil {
		u := *c.RedirectURL
		clone.RedirectURL = &u
	}
	return clone
}
