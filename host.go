package hostreq

import (
	"time"
)

// DataType tells the host how to interpret the response body before handing
// it back in the success hook.
type DataType string

// HostResponseType tells the host which representation to use for the raw
// response body.
type HostResponseType string

// Host data types and response types.
const (
	DataTypeJSON  DataType = "json"
	DataTypeOther DataType = "other"

	HostResponseText        HostResponseType = "text"
	HostResponseArrayBuffer HostResponseType = "arraybuffer"
)

// HostSuccess is delivered to the success hook once the host has received a
// complete response.
type HostSuccess struct {
	StatusCode int
	Header     map[string]string
	// Data is the response body.  Depending on the request's DataType and
	// ResponseType it is a decoded JSON value, a string, or a []byte.
	Data interface{}
}

// HostFailure is delivered to the fail hook when the host could not complete
// the network operation.
type HostFailure struct {
	ErrMsg string
}

// HostRequest is the call shape of the host platform's request primitive.
type HostRequest struct {
	URL          string
	Method       string
	Header       map[string]string
	Data         []byte
	DataType     DataType
	ResponseType HostResponseType
	// Timeout is passed through untouched.  Zero leaves the host's default
	// in place.
	Timeout time.Duration

	// Success or Fail is called at most once, followed by Complete.  Hooks
	// may be invoked from any goroutine.
	Success  func(HostSuccess)
	Fail     func(HostFailure)
	Complete func()
}

// Task is the abortable handle the host returns for one in-flight request.
type Task interface {
	Abort()
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func()

// Abort implements Task.
func (f TaskFunc) Abort() {
	f()
}

// Host starts requests through a platform's request primitive.  Request must
// return the task synchronously.  If it returns an error, none of the hooks
// may be called.
type Host interface {
	Request(req *HostRequest) (Task, error)
}

// HostFunc adapts a function to the Host interface.
type HostFunc func(req *HostRequest) (Task, error)

// Request implements Host.
func (f HostFunc) Request(req *HostRequest) (Task, error) {
	return f(req)
}
