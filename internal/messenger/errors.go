package messenger

import "fmt"

// ChannelError is the failure kind shared by every channel operation: channel
// preparation, transport send, transport receive, and the terminal conditions
// once a compound messenger has exhausted its channels.
type ChannelError struct {
	Message string
}

func (e *ChannelError) Error() string {
	return "channel messenger: " + e.Message
}

// Errorf builds a ChannelError from a format string.
func Errorf(format string, args ...any) error {
	return &ChannelError{Message: fmt.Sprintf(format, args...)}
}
