package hostreq

import (
	"errors"
	"sync"
)

// Cancel is the outcome of a request withdrawn before it completed.  It is
// never confused with a transport failure: use IsCancel to detect it.
type Cancel struct {
	Message string
	// Cause holds a non-Cancel reason which triggered the cancellation,
	// such as context.Canceled.
	Cause error
}

func (c *Cancel) Error() string {
	if c.Message == "" {
		return "canceled"
	}
	return c.Message
}

// Unwrap returns the cause, so errors.Is(err, context.DeadlineExceeded) works
// for requests canceled by their context.
func (c *Cancel) Unwrap() error {
	return c.Cause
}

// IsCancel reports whether err is, or wraps, a *Cancel.
func IsCancel(err error) bool {
	var c *Cancel
	return errors.As(err, &c)
}

// cancelOutcome returns reason itself if it is a *Cancel, otherwise a generic
// cancellation wrapping reason.
func cancelOutcome(reason error) error {
	var c *Cancel
	if errors.As(reason, &c) {
		return reason
	}
	return &Cancel{Message: "canceled", Cause: reason}
}

// CancelToken is a caller supplied cancellation handle.
type CancelToken interface {
	// Reason returns the cancellation reason once the token has been
	// canceled, and nil before.
	Reason() error
}

// Subscriber is implemented by cancel tokens which push cancellation to
// listeners.  Tokens which only implement CancelToken are checked once, before
// the host request starts.
type Subscriber interface {
	// Subscribe registers a listener and returns an id for Unsubscribe.  If
	// the token is already canceled, the listener is called immediately.
	Subscribe(listener func(reason error)) int
	Unsubscribe(id int)
}

// CancelSource is a subscribable CancelToken:
//
//     src := hostreq.NewCancelSource()
//     call, _ := cfg.Dispatch(ctx, hostreq.WithCancelToken(src))
//     src.Cancel("user navigated away")
//
// A CancelSource can be shared by many requests.  The zero value is ready to use.
type CancelSource struct {
	mu        sync.Mutex
	reason    error
	listeners map[int]func(error)
	nextID    int
}

// NewCancelSource returns a new CancelSource.
func NewCancelSource() *CancelSource {
	return &CancelSource{}
}

// Reason implements CancelToken.
func (s *CancelSource) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// Subscribe implements Subscriber.
func (s *CancelSource) Subscribe(listener func(reason error)) int {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	reason := s.reason
	if reason == nil {
		if s.listeners == nil {
			s.listeners = map[int]func(error){}
		}
		s.listeners[id] = listener
	}
	s.mu.Unlock()

	if reason != nil {
		listener(reason)
	}
	return id
}

// Unsubscribe implements Subscriber.  Unknown ids are ignored.
func (s *CancelSource) Unsubscribe(id int) {
	s.mu.Lock()
	delete(s.listeners, id)
	s.mu.Unlock()
}

// Cancel cancels the source with a *Cancel carrying message.  Only the first
// call has any effect.
func (s *CancelSource) Cancel(message string) {
	s.CancelWith(&Cancel{Message: message})
}

// CancelWith cancels the source with an arbitrary reason.  Requests which
// receive a reason that is not a *Cancel reject with a generic *Cancel
// wrapping it.
func (s *CancelSource) CancelWith(reason error) {
	if reason == nil {
		reason = &Cancel{}
	}

	s.mu.Lock()
	if s.reason != nil {
		s.mu.Unlock()
		return
	}
	s.reason = reason
	listeners := s.listeners
	s.listeners = nil
	s.mu.Unlock()

	for _, l := range listeners {
		l(reason)
	}
}
