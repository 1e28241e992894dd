package hostreq

import (
	"context"
	"net/http"
	"time"

	"github.com/ansel1/merry"
	"go.uber.org/zap"
)

// ResponseType is the representation the caller wants for the response data.
type ResponseType string

// Supported response types.  The zero value behaves like ResponseJSON.
const (
	ResponseJSON        ResponseType = "json"
	ResponseText        ResponseType = "text"
	ResponseArrayBuffer ResponseType = "arraybuffer"
)

// Config describes a single request and the plumbing used to send it
// through a Host.
//
// A Config can be constructed as a literal:
//
//     cfg := hostreq.Config{
//              BaseURL: "https://api.example.com",
//              URL:     "/users",
//              Method:  "POST",
//              Data:    user,
//              Host:    host,
//          }
//
// ...or via the New() and MustNew() constructors, which take Options:
//
//     cfg, err := hostreq.New(hostreq.BaseURL("https://api.example.com"), hostreq.Post("/users"), hostreq.Body(user))
//
// Configs can be cloned.  The clone can then be further configured without
// affecting the parent:
//
//     cfg2, err := cfg.With(hostreq.Header("X-Frame", "1"))
//
// Send(), Receive() and Dispatch() accept a varargs of Options, which are applied
// only to a single request, not to the Config.
type Config struct {
	////////////////////////////////////////////////////////////////
	//                                                            //
	//  Attributes describing the request.                        //
	//                                                            //
	////////////////////////////////////////////////////////////////

	// Method defaults to "GET".  It is upper cased before it reaches the host.
	Method string

	// BaseURL and URL are concatenated as-is to form the request URL.
	BaseURL string
	URL     string

	// Header supplies the request headers.  If the Content-Type header
	// is explicitly set here, it will override the Content-Type header
	// supplied by the Marshaler.
	Header http.Header

	// Params are serialized into the query string.  See DefaultParamsSerializer
	// for the supported types.
	Params interface{}

	// ParamsSerializer overrides DefaultParamsSerializer.
	ParamsSerializer ParamsSerializer

	// Data can be set to a string, []byte, io.Reader, url.Values or a struct.
	// Strings, byte slices and readers are sent as is, url.Values are form
	// encoded, and anything else is marshaled with Marshaler.
	Data interface{}

	// Marshaler marshals Data when it is not already raw bytes.  Defaults
	// to DefaultMarshaler.
	Marshaler Marshaler

	// Timeout is handed to the host untouched.  The adapter never enforces
	// it itself.
	Timeout time.Duration

	// ResponseType selects the representation of Response.Data.
	ResponseType ResponseType

	// ValidateStatus decides whether a status code fulfills the request.
	// If nil, every status is acceptable.
	ValidateStatus func(status int) bool

	// CancelToken can withdraw the request while it is in flight.
	CancelToken CancelToken

	//////////////////////////////////////////////////////////////
	//
	//  Attributes related to sending requests and handling
	//  responses.
	//
	////////////////////////////////////////////////////////////////

	// Host executes requests.  There is no default: a Config without
	// a Host fails every request.
	Host Host

	// Middleware wraps the Host.  Middleware will be invoked in the order
	// it is in this slice.
	Middleware []Middleware

	// Unmarshaler is used by Receive and Response.Decode.  Defaults to
	// DefaultUnmarshaler.
	Unmarshaler Unmarshaler

	// Logger receives debug events about the request lifecycle.  Defaults
	// to a no-op logger.
	Logger *zap.Logger
}

// New returns a new Config, applying all options.
func New(options ...Option) (*Config, error) {
	c := &Config{}
	err := c.Apply(options...)
	if err != nil {
		return nil, merry.Wrap(err)
	}
	return c, nil
}

// MustNew creates a new Config, applying all options.  If
// an error occurs applying options, this will panic.
func MustNew(options ...Option) *Config {
	c := &Config{}
	c.MustApply(options...)
	return c
}

func cloneHeader(h http.Header) http.Header {
	if h == nil {
		return nil
	}
	h2 := make(http.Header, len(h))
	for key, value := range h {
		h2[key] = append([]string(nil), value...)
	}
	return h2
}

// Clone returns a copy of a Config.  Header and Middleware are deep copied;
// Params and Data are shared with the original.
func (c *Config) Clone() *Config {
	c2 := *c
	c2.Header = cloneHeader(c.Header)
	if c.Middleware != nil {
		c2.Middleware = append([]Middleware(nil), c.Middleware...)
	}
	return &c2
}

// withOpts is like With(), but skips the clone if there are no options to apply.
func (c *Config) withOpts(opts ...Option) (*Config, error) {
	if len(opts) > 0 {
		return c.With(opts...)
	}
	return c, nil
}

// Dispatch starts the request and returns without waiting for the outcome.
//
// Additional options arguments can be passed.  They will be applied to this request only.
func (c *Config) Dispatch(ctx context.Context, opts ...Option) (*Call, error) {
	cfg, err := c.withOpts(opts...)
	if err != nil {
		return nil, err
	}
	return Dispatch(ctx, cfg), nil
}

// Send dispatches the request and waits for its outcome.  A *Response is
// returned only when the request was fulfilled.
//
// Additional options arguments can be passed.  They will be applied to this request only.
func (c *Config) Send(ctx context.Context, opts ...Option) (*Response, error) {
	call, err := c.Dispatch(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return call.Wait()
}

// Receive sends the request and decodes the response data into the first
// argument.
//
// The first argument may be nil, an Option, or a value to unmarshal the
// response data into.
//
// If option arguments are passed, they are applied to this single request only.
func (c *Config) Receive(ctx context.Context, into interface{}, opts ...Option) (*Response, error) {
	// if into is really an option, treat it like an option
	if opt, ok := into.(Option); ok {
		opts = append(opts, nil)
		copy(opts[1:], opts)
		opts[0] = opt
		into = nil
	}

	resp, err := c.Send(ctx, opts...)
	if err != nil || into == nil {
		return resp, err
	}

	return resp, resp.Decode(into)
}

// Headers returns the Header, initializing it if necessary.  Never returns nil.
func (c *Config) Headers() http.Header {
	if c.Header == nil {
		c.Header = http.Header{}
	}
	return c.Header
}

func (c *Config) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *Config) host() Host {
	if c.Host == nil {
		return nil
	}
	return Wrap(c.Host, c.Middleware...)
}
