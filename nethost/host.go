// Package nethost implements the hostreq.Host request primitive on top of
// net/http, for use outside a mini-program runtime and in tests.
//
// Hosts are created with the New() function, which takes a set of Options to
// configure the underlying http.Client:
//
//     h, err := nethost.New(nethost.Timeout(10 * time.Second), nethost.NoRedirects())
//     cfg := hostreq.MustNew(hostreq.WithHost(h), hostreq.BaseURL("https://api.example.com"))
//
package nethost

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"syscall"
	"time"

	"github.com/ThalesGroup/hostreq"
	"github.com/ansel1/merry"
	"go.uber.org/zap"
)

// DefaultTimeout applies to requests which don't carry a timeout.
const DefaultTimeout = 60 * time.Second

// Failure messages reported through the fail hook.
const (
	FailAbort             = "request:fail abort"
	FailTimeout           = "request:fail timeout"
	FailConnectionRefused = "request:fail connection refused"
	FailConnectionReset   = "request:fail connection reset"
	failPrefix            = "request:fail "
)

// Host is a hostreq.Host backed by an *http.Client.
type Host struct {
	Client *http.Client
	// Timeout replaces DefaultTimeout for requests without their own timeout.
	Timeout time.Duration
	Logger  *zap.Logger
}

var _ hostreq.Host = (*Host)(nil)

// New builds a new Host.  With no arguments, requests are sent with a
// dedicated http.Client configured like http.DefaultClient.
func New(opts ...Option) (*Host, error) {
	h := &Host{
		Client: &http.Client{},
		Logger: zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt.Apply(h); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// MustNew is like New, but panics if an option returns an error.
func MustNew(opts ...Option) *Host {
	h, err := New(opts...)
	if err != nil {
		panic(err)
	}
	return h
}

// Request implements hostreq.Host.  The request runs on its own goroutine.
// The returned task cancels it.
func (h *Host) Request(req *hostreq.HostRequest) (hostreq.Task, error) {
	ctx, cancel := context.WithCancelCause(context.Background())

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bytes.NewReader(req.Data))
	if err != nil {
		cancel(nil)
		return nil, merry.Prepend(err, "building http request")
	}
	if len(req.Data) == 0 {
		httpReq.Body = http.NoBody
		httpReq.ContentLength = 0
	}
	for k, v := range req.Header {
		httpReq.Header.Set(k, v)
	}

	go h.run(httpReq, req, cancel)

	return hostreq.TaskFunc(func() { cancel(errAborted) }), nil
}

var (
	errAborted  = errors.New("aborted")
	errTimedOut = errors.New("timed out")
)

func (h *Host) run(httpReq *http.Request, req *hostreq.HostRequest, cancel context.CancelCauseFunc) {
	defer cancel(nil)
	defer func() {
		if req.Complete != nil {
			req.Complete()
		}
	}()

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = h.Timeout
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, stop := context.WithTimeoutCause(httpReq.Context(), timeout, errTimedOut)
	defer stop()

	res, err := h.do(httpReq.WithContext(ctx), req)
	if err != nil {
		msg := failMessage(ctx, err)
		h.logger().Debug("nethost_request_failed", zap.String("url", req.URL), zap.String("errMsg", msg), zap.Error(err))
		if req.Fail != nil {
			req.Fail(hostreq.HostFailure{ErrMsg: msg})
		}
		return
	}

	h.logger().Debug("nethost_request_done", zap.String("url", req.URL), zap.Int("status", res.StatusCode))
	if req.Success != nil {
		req.Success(*res)
	}
}

func (h *Host) do(httpReq *http.Request, req *hostreq.HostRequest) (*hostreq.HostSuccess, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	header := make(map[string]string, len(resp.Header))
	for k, v := range resp.Header {
		header[k] = strings.Join(v, ", ")
	}

	return &hostreq.HostSuccess{
		StatusCode: resp.StatusCode,
		Header:     header,
		Data:       decode(body, req.DataType, req.ResponseType),
	}, nil
}

// decode shapes the body the way a mini-program host does: JSON data types
// are parsed when possible, falling back to the raw text.
func decode(body []byte, dataType hostreq.DataType, responseType hostreq.HostResponseType) interface{} {
	if responseType == hostreq.HostResponseArrayBuffer {
		return body
	}
	if dataType == hostreq.DataTypeJSON && len(body) > 0 {
		var v interface{}
		if err := json.Unmarshal(body, &v); err == nil {
			return v
		}
	}
	return string(body)
}

// failMessage maps err onto the host's failure messages.
func failMessage(ctx context.Context, err error) string {
	var netErr net.Error

	switch {
	case errors.Is(context.Cause(ctx), errAborted):
		return FailAbort
	case errors.Is(context.Cause(ctx), errTimedOut):
		return FailTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return FailTimeout
	case errors.Is(err, syscall.ECONNREFUSED):
		return FailConnectionRefused
	case errors.Is(err, syscall.ECONNRESET):
		return FailConnectionReset
	}
	return failPrefix + err.Error()
}

func (h *Host) logger() *zap.Logger {
	if h.Logger == nil {
		return zap.NewNop()
	}
	return h.Logger
}
