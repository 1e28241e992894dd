package nethost

import (
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/ansel1/merry"
	"go.uber.org/zap"
	"golang.org/x/net/publicsuffix"
)

// Option is a configuration option for building a Host.
type Option interface {

	// Apply is called when constructing a Host.  Apply
	// should make some configuration change to the argument.
	//
	// The host argument will not be nil.
	Apply(*Host) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*Host) error

// Apply implements Option.
func (f OptionFunc) Apply(h *Host) error {
	return f(h)
}

// A TransportOption configures the client's transport.
//
// The argument will never be nil.  TransportOption will
// clone http.DefaultTransport if the client has no transport yet.
//
// If the client's transport is not a *http.Transport, an
// error is returned.
type TransportOption func(transport *http.Transport) error

// Apply implements Option.
func (f TransportOption) Apply(h *Host) error {
	var transport *http.Transport
	switch t := h.Client.Transport.(type) {
	case nil:
		transport = http.DefaultTransport.(*http.Transport).Clone()
		h.Client.Transport = transport
	case *http.Transport:
		transport = t
	default:
		return merry.Errorf("client.Transport is not a *http.Transport.  It's a %T", h.Client.Transport)
	}

	return f(transport)
}

// WithClient replaces the http.Client used to send requests.
func WithClient(c *http.Client) Option {
	return OptionFunc(func(h *Host) error {
		if c == nil {
			return merry.New("client must not be nil")
		}
		h.Client = c
		return nil
	})
}

// Timeout sets the timeout for requests which don't carry their own.
func Timeout(d time.Duration) Option {
	return OptionFunc(func(h *Host) error {
		h.Timeout = d
		return nil
	})
}

// WithLogger sets the logger used for request diagnostics.
func WithLogger(l *zap.Logger) Option {
	return OptionFunc(func(h *Host) error {
		h.Logger = l
		return nil
	})
}

// NoRedirects configures the client to not perform any redirects.  The
// redirect response itself is delivered to the success hook.
func NoRedirects() Option {
	return OptionFunc(func(h *Host) error {
		h.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			return http.ErrUseLastResponse
		}
		return nil
	})
}

// MaxRedirects configures the max number of redirects the client will perform before
// giving up.
func MaxRedirects(max int) Option {
	return OptionFunc(func(h *Host) error {
		h.Client.CheckRedirect = func(req *http.Request, via []*http.Request) error {
			if len(via) >= max {
				return merry.Errorf("stopped after max %d requests", len(via))
			}
			return nil
		}
		return nil
	})
}

// CookieJar installs a cookie jar which keeps cookies between requests, the
// way a mini-program host does.  Cookie domains are checked against the
// public suffix list.
func CookieJar() Option {
	return OptionFunc(func(h *Host) error {
		jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
		if err != nil {
			return merry.Wrap(err)
		}
		h.Client.Jar = jar
		return nil
	})
}

// ProxyURL will proxy all calls through a single proxy URL.
func ProxyURL(proxyURL string) Option {
	return TransportOption(func(t *http.Transport) error {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return merry.Wrap(err)
		}
		t.Proxy = http.ProxyURL(u)
		return nil
	})
}
