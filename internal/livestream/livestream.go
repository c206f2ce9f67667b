// Package livestream defines the port to the live-stream platform. The
// platform is consumed as a typed event source: one stream per tracked host,
// emitting connect/gift/like/comment/end events until closed.
package livestream

import "context"

type EventKind int

const (
	EventConnect EventKind = iota
	EventGift
	EventLike
	EventComment
	EventEnd
)

func (k EventKind) String() string {
	switch k {
	case EventConnect:
		return "connect"
	case EventGift:
		return "gift"
	case EventLike:
		return "like"
	case EventComment:
		return "comment"
	case EventEnd:
		return "end"
	default:
		return "unknown"
	}
}

// Event is a single observation from the platform. Performer is the platform
// handle of the viewer who acted. Repeat and Diamonds are set for gifts
// (Diamonds may be zero when the platform omits the gift value); Likes is set
// for like events.
type Event struct {
	Kind      EventKind
	Performer string
	Repeat    int64
	Diamonds  int64
	Likes     int64
}

type Source interface {
	// Open starts an event stream for the host's current or next broadcast.
	Open(ctx context.Context, hostHandle string) (Stream, error)
	// IsLive probes the host's public live status. Probe failures report
	// "not live"; they are never fatal.
	IsLive(ctx context.Context, hostHandle string) (bool, error)
}

type Stream interface {
	// Events delivers the broadcast's events in order. The channel is closed
	// after an EventEnd or when the stream is torn down.
	Events() <-chan Event
	Close() error
}
