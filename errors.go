package hostreq

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/ansel1/merry"
)

// CodeBadRequest marks errors raised before the host could start the request.
const CodeBadRequest = "ERR_BAD_REQUEST"

// Error is the rejection of a request which was not canceled: a transport
// failure reported by the host (Code is empty), an unacceptable status (Code is
// the status code), or a construction failure (Code is CodeBadRequest).
type Error struct {
	Message string
	Code    string
	// Status is the response status, or 0 if no response was received.
	Status int
	Config *Config
	// Request is the in-flight task, or nil if it had already been cleared.
	Request  Task
	Response *Response

	err error
}

func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying merry error, which carries the stack and,
// for status failures, the HTTP code.
func (e *Error) Unwrap() error {
	return e.err
}

func transportError(cfg *Config, task Task, msg string) *Error {
	return &Error{
		Message: msg,
		Config:  cfg,
		Request: task,
		err:     merry.New(msg),
	}
}

func statusError(resp *Response) *Error {
	msg := "Request failed with status code " + strconv.Itoa(resp.Status)
	return &Error{
		Message:  msg,
		Code:     strconv.Itoa(resp.Status),
		Status:   resp.Status,
		Config:   resp.Config,
		Request:  resp.Request,
		Response: resp,
		err:      merry.New(msg).WithHTTPCode(resp.Status),
	}
}

func badRequestError(cfg *Config, err error) *Error {
	err = merry.Wrap(err)
	return &Error{
		Message: err.Error(),
		Code:    CodeBadRequest,
		Config:  cfg,
		err:     err,
	}
}

// Diagnostic is a plain, JSON friendly snapshot of an Error.
type Diagnostic struct {
	Name     string              `json:"name"`
	Message  string              `json:"message"`
	Stack    string              `json:"stack,omitempty"`
	Code     string              `json:"code,omitempty"`
	Status   int                 `json:"status,omitempty"`
	Config   *ConfigDiagnostic   `json:"config,omitempty"`
	Response *ResponseDiagnostic `json:"response,omitempty"`
}

// ConfigDiagnostic is the serializable part of a Config.
type ConfigDiagnostic struct {
	Method       string       `json:"method,omitempty"`
	BaseURL      string       `json:"baseURL,omitempty"`
	URL          string       `json:"url,omitempty"`
	Params       string       `json:"params,omitempty"`
	Header       http.Header  `json:"headers,omitempty"`
	Timeout      string       `json:"timeout,omitempty"`
	ResponseType ResponseType `json:"responseType,omitempty"`
}

// ResponseDiagnostic is the serializable part of a Response.
type ResponseDiagnostic struct {
	Status     int         `json:"status"`
	StatusText string      `json:"statusText,omitempty"`
	Header     http.Header `json:"headers,omitempty"`
	Data       interface{} `json:"data,omitempty"`
}

// ToJSON returns a diagnostic snapshot of the error for logging.  It never
// fails, whichever fields are missing.
func (e *Error) ToJSON() Diagnostic {
	d := Diagnostic{
		Name:    "RequestError",
		Message: e.Message,
		Code:    e.Code,
		Status:  e.Status,
	}
	if e.err != nil {
		d.Stack = merry.Stacktrace(e.err)
	}
	if e.Config != nil {
		d.Config = e.Config.diagnostic()
	}
	if e.Response != nil {
		d.Response = &ResponseDiagnostic{
			Status:     e.Response.Status,
			StatusText: e.Response.StatusText,
			Header:     e.Response.Header,
			Data:       serializableData(e.Response.Data),
		}
	}
	return d
}

// MarshalJSON implements json.Marshaler with the ToJSON snapshot.
func (e *Error) MarshalJSON() ([]byte, error) {
	return json.Marshal(e.ToJSON())
}

func (c *Config) diagnostic() *ConfigDiagnostic {
	d := &ConfigDiagnostic{
		Method:       c.Method,
		BaseURL:      c.BaseURL,
		URL:          c.URL,
		Header:       c.Header,
		ResponseType: c.ResponseType,
	}
	if c.Timeout > 0 {
		d.Timeout = c.Timeout.String()
	}
	if c.Params != nil {
		serializer := c.ParamsSerializer
		if serializer == nil {
			serializer = DefaultParamsSerializer
		}
		if q, err := serializer(c.Params); err == nil {
			d.Params = q
		} else {
			d.Params = fmt.Sprint(c.Params)
		}
	}
	return d
}

func serializableData(data interface{}) interface{} {
	switch d := data.(type) {
	case nil:
		return nil
	case []byte:
		return string(d)
	}
	if _, err := json.Marshal(data); err != nil {
		return fmt.Sprint(data)
	}
	return data
}
