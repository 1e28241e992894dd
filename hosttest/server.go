package hosttest

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/felixge/httpsnoop"
)

// Exchange is a snapshot of one request/response exchange seen by a test
// server.
type Exchange struct {
	Request     *http.Request
	RequestBody []byte

	StatusCode   int
	Header       http.Header
	ResponseBody *bytes.Buffer
}

// ServerInspector captures the exchanges of an httptest.Server in a buffered
// channel.  If the buffer fills, later exchanges are dropped.
type ServerInspector struct {
	Exchanges chan Exchange
}

// Inspect wraps the server's handler with a ServerInspector.  It should be
// called after the real handler has been installed.
func Inspect(ts *httptest.Server) *ServerInspector {
	i := &ServerInspector{Exchanges: make(chan Exchange, 50)}
	ts.Config.Handler = i.Wrap(ts.Config.Handler)
	return i
}

// LastExchange drains the channel and returns the most recent exchange, or
// nil if none is ready.  It is non-blocking.
func (i *ServerInspector) LastExchange() *Exchange {
	var e *Exchange
	for {
		select {
		case ex := <-i.Exchanges:
			e = &ex
		default:
			return e
		}
	}
}

// Wrap returns a handler which records each exchange handled by next.
func (i *ServerInspector) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ex := Exchange{
			Request:      r,
			StatusCode:   http.StatusOK,
			ResponseBody: &bytes.Buffer{},
		}
		if r.Body != nil && r.Body != http.NoBody {
			b, err := io.ReadAll(r.Body)
			if err != nil {
				panic(err)
			}
			ex.RequestBody = b
			r.Body = io.NopCloser(bytes.NewReader(b))
		}

		w = httpsnoop.Wrap(w, httpsnoop.Hooks{
			Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(b []byte) (int, error) {
					ex.ResponseBody.Write(b)
					return next(b)
				}
			},
			WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
				return func(code int) {
					ex.StatusCode = code
					ex.Header = w.Header().Clone()
					next(code)
				}
			},
		})

		if next != nil {
			next.ServeHTTP(w, r)
		}

		select {
		case i.Exchanges <- ex:
		default:
			// don't block if channel is full, just drop
		}
	})
}
