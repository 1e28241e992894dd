package hostreq

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"net/url"
	"strings"

	"github.com/ansel1/merry"
	goquery "github.com/google/go-querystring/query"
)

// Request bodies are produced by a Marshaler and response data is decoded by
// an Unmarshaler.  Implementations can be installed in a Config with the
// WithMarshaler and WithUnmarshaler Options, or the JSON(), XML(), and Form()
// Options.
//
// If not set, Configs fall back on the DefaultMarshaler and
// DefaultUnmarshaler.  The DefaultMarshaler marshals into JSON, and the
// DefaultUnmarshaler uses the response's Content-Type header to
// determine which unmarshaler to delegate to.  It supports JSON and XML.

// DefaultMarshaler is used by Config if Config.Marshaler is nil.
// nolint:gochecknoglobals
var DefaultMarshaler Marshaler = &JSONMarshaler{}

// DefaultUnmarshaler is used by Config if Config.Unmarshaler is nil.
// nolint:gochecknoglobals
var DefaultUnmarshaler Unmarshaler = &MultiUnmarshaler{}

const (
	contentTypeForm = MediaTypeForm + "; charset=UTF-8"
	contentTypeXML  = MediaTypeXML + "; charset=UTF-8"
	contentTypeJSON = MediaTypeJSON + "; charset=UTF-8"
)

// Marshaler marshals values into a []byte.
//
// If the content type returned is not empty, it
// will be used in the request's Content-Type header.
type Marshaler interface {
	Marshal(v interface{}) (data []byte, contentType string, err error)
}

// Unmarshaler unmarshals a []byte response body into a value.  It is provided
// the value of the Content-Type header from the response.
type Unmarshaler interface {
	Unmarshal(data []byte, contentType string, v interface{}) error
}

// MarshalFunc adapts a function to the Marshaler interface.
type MarshalFunc func(v interface{}) ([]byte, string, error)

// Apply implements Option.  MarshalFunc can be applied as a config option, which
// install itself as the Marshaler.
func (f MarshalFunc) Apply(c *Config) error {
	c.Marshaler = f
	return nil
}

// Marshal implements the Marshaler interface.
func (f MarshalFunc) Marshal(v interface{}) ([]byte, string, error) {
	return f(v)
}

// UnmarshalFunc adapts a function to the Unmarshaler interface.
type UnmarshalFunc func(data []byte, contentType string, v interface{}) error

// Apply implements Option.  UnmarshalFunc can be applied as a config option, which
// install itself as the Unmarshaler.
func (f UnmarshalFunc) Apply(c *Config) error {
	c.Unmarshaler = f
	return nil
}

// Unmarshal implements the Unmarshaler interface.
func (f UnmarshalFunc) Unmarshal(data []byte, contentType string, v interface{}) error {
	return f(data, contentType, v)
}

// JSONMarshaler implement Marshaler and Unmarshaler.  It marshals values to and
// from JSON.  If Indent is true, marshaled JSON will be indented.
//
//   cfg := hostreq.Config{
//       Marshaler: &JSONMarshaler{},
//   }
//
type JSONMarshaler struct {
	Indent bool
}

// Unmarshal implements Unmarshaler.
func (m *JSONMarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	return merry.Wrap(json.Unmarshal(data, v))
}

// Marshal implements Marshaler.
func (m *JSONMarshaler) Marshal(v interface{}) (data []byte, contentType string, err error) {
	if m.Indent {
		data, err = json.MarshalIndent(v, "", "  ")
	} else {
		data, err = json.Marshal(v)
	}

	return data, contentTypeJSON, merry.Wrap(err)
}

// Apply implements Option.
func (m *JSONMarshaler) Apply(c *Config) error {
	c.Marshaler = m
	return nil
}

// XMLMarshaler implements Marshaler and Unmarshaler.  It marshals values to
// and from XML.  If Indent is true, marshaled XML will be indented.
type XMLMarshaler struct {
	Indent bool
}

// Unmarshal implements Unmarshaler.
func (*XMLMarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	return merry.Wrap(xml.Unmarshal(data, v))
}

// Marshal implements Marshaler.
func (m *XMLMarshaler) Marshal(v interface{}) (data []byte, contentType string, err error) {
	if m.Indent {
		data, err = xml.MarshalIndent(v, "", "  ")
	} else {
		data, err = xml.Marshal(v)
	}
	return data, contentTypeXML, merry.Wrap(err)
}

// Apply implements Option.
func (m *XMLMarshaler) Apply(c *Config) error {
	c.Marshaler = m
	return nil
}

// FormMarshaler implements Marshaler.  It marshals values into URL-Encoded form data.
//
// The value can be either a map[string][]string, map[string]string, url.Values, or a struct with `url` tags.
type FormMarshaler struct{}

// Marshal implements Marshaler.
func (*FormMarshaler) Marshal(v interface{}) (data []byte, contentType string, err error) {
	switch t := v.(type) {
	case map[string][]string:
		urlV := url.Values(t)
		return []byte(urlV.Encode()), contentTypeForm, nil
	case map[string]string:
		urlV := url.Values{}
		for key, value := range t {
			urlV.Set(key, value)
		}
		return []byte(urlV.Encode()), contentTypeForm, nil
	case url.Values:
		return []byte(t.Encode()), contentTypeForm, nil
	default:
		values, err := goquery.Values(v)
		if err != nil {
			return nil, "", merry.Prepend(err, "invalid form struct")
		}
		return []byte(values.Encode()), contentTypeForm, nil
	}
}

// Apply implements Option.
func (m *FormMarshaler) Apply(c *Config) error {
	c.Marshaler = m
	return nil
}

// MultiUnmarshaler implements Unmarshaler.  It uses the value of the Content-Type header in the
// response to choose between the JSON and XML unmarshalers.  If Content-Type is something else,
// an error is returned.
//
// MultiUnmarshaler is the default Unmarshaler.
type MultiUnmarshaler struct {
	jsonMar JSONMarshaler
	xmlMar  XMLMarshaler
}

// Unmarshal implements Unmarshaler.
func (m *MultiUnmarshaler) Unmarshal(data []byte, contentType string, v interface{}) error {
	switch {
	case strings.Contains(contentType, MediaTypeJSON):
		return m.jsonMar.Unmarshal(data, contentType, v)
	case strings.Contains(contentType, MediaTypeXML):
		return m.xmlMar.Unmarshal(data, contentType, v)
	}
	return merry.Errorf("unsupported content type: %s", contentType)
}

// Apply implements Option
func (m *MultiUnmarshaler) Apply(c *Config) error {
	c.Unmarshaler = m
	return nil
}

// requestBody turns Config.Data into the bytes handed to the host.
func (c *Config) requestBody() (body []byte, contentType string, err error) {
	switch v := c.Data.(type) {
	case nil:
		return nil, "", nil
	case []byte:
		return v, "", nil
	case string:
		return []byte(v), "", nil
	case io.Reader:
		var buf bytes.Buffer
		if _, err := buf.ReadFrom(v); err != nil {
			return nil, "", merry.Prepend(err, "reading request body")
		}
		return buf.Bytes(), "", nil
	case url.Values:
		return []byte(v.Encode()), contentTypeForm, nil
	default:
		marshaler := c.Marshaler
		if marshaler == nil {
			marshaler = DefaultMarshaler
		}
		b, ct, err := marshaler.Marshal(c.Data)
		if err != nil {
			return nil, "", merry.Prepend(err, "marshaling request body")
		}
		return b, ct, nil
	}
}
