package hostreq

import (
	"encoding/json"
	"net/http"

	"github.com/ansel1/merry"
)

// Response is the fulfilled outcome of a request.
type Response struct {
	// Data is the body as the host delivered it: a decoded JSON value for
	// ResponseJSON, a string for ResponseText, a []byte for ResponseArrayBuffer.
	Data       interface{}
	Status     int
	StatusText string
	Header     http.Header
	// Config is the config the request was sent with.
	Config *Config
	// Request is the host task which produced the response.
	Request Task
}

// Decode unmarshals Data into v.  Raw data (string or []byte) is handed to
// the config's Unmarshaler along with the Content-Type header.  Data the host
// already decoded is converted through JSON.
func (r *Response) Decode(v interface{}) error {
	var unmarshaler Unmarshaler = DefaultUnmarshaler
	if r.Config != nil && r.Config.Unmarshaler != nil {
		unmarshaler = r.Config.Unmarshaler
	}

	switch d := r.Data.(type) {
	case nil:
		return nil
	case []byte:
		return unmarshaler.Unmarshal(d, r.Header.Get(HeaderContentType), v)
	case string:
		return unmarshaler.Unmarshal([]byte(d), r.Header.Get(HeaderContentType), v)
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return merry.Prepend(err, "re-encoding response data")
		}
		return merry.Wrap(json.Unmarshal(b, v))
	}
}

func toHeader(m map[string]string) http.Header {
	h := make(http.Header, len(m))
	for k, v := range m {
		h.Set(k, v)
	}
	return h
}

func flattenHeader(h http.Header) map[string]string {
	if len(h) == 0 {
		return nil
	}
	m := make(map[string]string, len(h))
	for k, v := range h {
		if len(v) == 0 {
			continue
		}
		joined := v[0]
		for _, s := range v[1:] {
			joined += ", " + s
		}
		m[k] = joined
	}
	return m
}
