package hostreq

import (
	"encoding/base64"
	"net/http"
	"strings"
	"time"

	"github.com/ansel1/merry"
	"go.uber.org/zap"
)

// HTTP constants.
const (
	HeaderAccept        = "Accept"
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"

	MediaTypeJSON = "application/json"
	MediaTypeXML  = "application/xml"
	MediaTypeForm = "application/x-www-form-urlencoded"
)

// Option applies some setting to a Config.  Options can be passed
// as arguments to most of Config's methods.
type Option interface {

	// Apply modifies the Config argument.  The Config pointer will never be nil.
	// Returning an error will stop applying the rest of the Options, and the error
	// will float up to the original caller.
	Apply(*Config) error
}

// OptionFunc adapts a function to the Option interface.
type OptionFunc func(*Config) error

// Apply implements Option.
func (f OptionFunc) Apply(c *Config) error {
	return f(c)
}

// With clones the Config, then applies the options
// to the clone.
func (c *Config) With(opts ...Option) (*Config, error) {
	c2 := c.Clone()
	err := c2.Apply(opts...)
	if err != nil {
		return nil, err
	}
	return c2, nil
}

// MustWith is like With(), but panics if an option returns an error.
func (c *Config) MustWith(opts ...Option) *Config {
	c2, err := c.With(opts...)
	if err != nil {
		panic(err)
	}
	return c2
}

// Apply applies the options to the receiver.
func (c *Config) Apply(opts ...Option) error {
	for _, o := range opts {
		if o == nil {
			continue
		}
		err := o.Apply(c)
		if err != nil {
			return merry.Prepend(err, "applying options")
		}
	}
	return nil
}

// MustApply is like Apply(), but panics if an option returns an error.
func (c *Config) MustApply(opts ...Option) {
	err := c.Apply(opts...)
	if err != nil {
		panic(err)
	}
}

// Method sets the HTTP method (e.g. GET/DELETE/etc).
// If a path argument is passed, it is set as the URL.
func Method(m string, path ...string) Option {
	return OptionFunc(func(c *Config) error {
		c.Method = m
		if len(path) > 0 {
			c.URL = strings.Join(path, "")
		}
		return nil
	})
}

// Head sets the HTTP method to "HEAD".  An optional path argument
// is set as the URL.
func Head(path ...string) Option {
	return Method("HEAD", path...)
}

// Get sets the HTTP method to "GET".  An optional path argument
// is set as the URL.
func Get(path ...string) Option {
	return Method("GET", path...)
}

// Post sets the HTTP method to "POST".  An optional path argument
// is set as the URL.
func Post(path ...string) Option {
	return Method("POST", path...)
}

// Put sets the HTTP method to "PUT".  An optional path argument
// is set as the URL.
func Put(path ...string) Option {
	return Method("PUT", path...)
}

// Patch sets the HTTP method to "PATCH".  An optional path argument
// is set as the URL.
func Patch(path ...string) Option {
	return Method("PATCH", path...)
}

// Delete sets the HTTP method to "DELETE".  An optional path argument
// is set as the URL.
func Delete(path ...string) Option {
	return Method("DELETE", path...)
}

// BaseURL sets Config.BaseURL.
func BaseURL(u string) Option {
	return OptionFunc(func(c *Config) error {
		c.BaseURL = u
		return nil
	})
}

// URL sets Config.URL, the path appended to the base URL.
func URL(path string) Option {
	return OptionFunc(func(c *Config) error {
		c.URL = path
		return nil
	})
}

// AddHeader adds a header value, using Header.Add()
func AddHeader(key, value string) Option {
	return OptionFunc(func(c *Config) error {
		c.Headers().Add(key, value)
		return nil
	})
}

// Header sets a header value, using Header.Set()
func Header(key, value string) Option {
	return OptionFunc(func(c *Config) error {
		c.Headers().Set(key, value)
		return nil
	})
}

// DeleteHeader deletes a header key, using Header.Del()
func DeleteHeader(key string) Option {
	return OptionFunc(func(c *Config) error {
		c.Header.Del(key)
		return nil
	})
}

// BasicAuth sets the Authorization header to "Basic <encoded username and password>".
// If username and password are empty, it deletes the Authorization header.
func BasicAuth(username, password string) Option {
	if username == "" && password == "" {
		return DeleteHeader(HeaderAuthorization)
	}
	auth := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return Header(HeaderAuthorization, "Basic "+auth)
}

// BearerAuth sets the Authorization header to "Bearer <token>".
// If the token is empty, it deletes the Authorization header.
func BearerAuth(token string) Option {
	if token == "" {
		return DeleteHeader(HeaderAuthorization)
	}
	return Header(HeaderAuthorization, "Bearer "+token)
}

// Accept sets the Accept header.
func Accept(accept string) Option {
	return Header(HeaderAccept, accept)
}

// ContentType sets the Content-Type header.
func ContentType(contentType string) Option {
	return Header(HeaderContentType, contentType)
}

// Params sets Config.Params, replacing any previous value.
//
// The argument may be a url.Values, a map, a pre-encoded query string, or
// a struct tagged for github.com/google/go-querystring:
//
//     type ReqParams struct {
//         Color string `url:"color"`
//     }
//
func Params(params interface{}) Option {
	return OptionFunc(func(c *Config) error {
		c.Params = params
		return nil
	})
}

// WithParamsSerializer sets Config.ParamsSerializer.
func WithParamsSerializer(s ParamsSerializer) Option {
	return OptionFunc(func(c *Config) error {
		c.ParamsSerializer = s
		return nil
	})
}

// Body sets Config.Data
func Body(body interface{}) Option {
	return OptionFunc(func(c *Config) error {
		c.Data = body
		return nil
	})
}

// WithMarshaler sets Config.Marshaler
func WithMarshaler(m Marshaler) Option {
	return OptionFunc(func(c *Config) error {
		c.Marshaler = m
		return nil
	})
}

// WithUnmarshaler sets Config.Unmarshaler
func WithUnmarshaler(m Unmarshaler) Option {
	return OptionFunc(func(c *Config) error {
		c.Unmarshaler = m
		return nil
	})
}

func joinOpts(opts ...Option) Option {
	return OptionFunc(func(c *Config) error {
		for _, opt := range opts {
			err := opt.Apply(c)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

// JSON sets Config.Marshaler to the JSONMarshaler.
// If the arg is true, the generated JSON will be indented.
// The JSONMarshaler will set the Content-Type header to
// "application/json" unless explicitly overwritten.
func JSON(indent bool) Option {
	return joinOpts(
		&JSONMarshaler{Indent: indent},
		ContentType(MediaTypeJSON),
		Accept(MediaTypeJSON),
		Responses(ResponseJSON),
	)
}

// XML sets Config.Marshaler to the XMLMarshaler.
// If the arg is true, the generated XML will be indented.
// Responses are requested as text so they can be unmarshaled
// with the XMLMarshaler.
func XML(indent bool) Option {
	return joinOpts(
		&XMLMarshaler{Indent: indent},
		ContentType(MediaTypeXML),
		Accept(MediaTypeXML),
		Responses(ResponseText),
	)
}

// Form sets Config.Marshaler to the FormMarshaler,
// which marshals the body into form-urlencoded.
// The FormMarshaler will set the Content-Type header to
// "application/x-www-form-urlencoded" unless explicitly overwritten.
func Form() Option {
	return &FormMarshaler{}
}

// Timeout sets Config.Timeout.  The duration is passed to the host.
func Timeout(d time.Duration) Option {
	return OptionFunc(func(c *Config) error {
		if d < 0 {
			return merry.Errorf("timeout must not be negative: %s", d)
		}
		c.Timeout = d
		return nil
	})
}

// Responses sets Config.ResponseType.
func Responses(t ResponseType) Option {
	return OptionFunc(func(c *Config) error {
		switch t {
		case "", ResponseJSON, ResponseText, ResponseArrayBuffer:
			c.ResponseType = t
			return nil
		}
		return merry.Errorf("unsupported response type: %s", t)
	})
}

// ValidateStatus sets Config.ValidateStatus.  Passing nil accepts every status.
func ValidateStatus(fn func(status int) bool) Option {
	return OptionFunc(func(c *Config) error {
		c.ValidateStatus = fn
		return nil
	})
}

// WithCancelToken sets Config.CancelToken.
func WithCancelToken(t CancelToken) Option {
	return OptionFunc(func(c *Config) error {
		c.CancelToken = t
		return nil
	})
}

// WithHost replaces Config.Host.
func WithHost(h Host) Option {
	return OptionFunc(func(c *Config) error {
		c.Host = h
		return nil
	})
}

// Use appends middleware to Config.Middleware.  Middleware
// is invoked in the order added.
func Use(m ...Middleware) Option {
	return OptionFunc(func(c *Config) error {
		c.Middleware = append(c.Middleware, m...)
		return nil
	})
}

// WithLogger sets Config.Logger.
func WithLogger(l *zap.Logger) Option {
	return OptionFunc(func(c *Config) error {
		c.Logger = l
		return nil
	})
}

// SuccessStatus accepts 2XX status codes.  It can be passed to ValidateStatus.
func SuccessStatus(status int) bool {
	return status >= 200 && status <= 299
}

// ExpectCode returns a status validator which only accepts the given codes.
func ExpectCode(codes ...int) func(status int) bool {
	return func(status int) bool {
		for _, code := range codes {
			if status == code {
				return true
			}
		}
		return false
	}
}

// statusText is the static status code table.  Unknown codes map to "".
func statusText(code int) string {
	return http.StatusText(code)
}
