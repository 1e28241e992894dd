package nethost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"syscall"
	"testing"
	"time"

	"github.com/ThalesGroup/hostreq"
	"github.com/ThalesGroup/hostreq/hosttest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type outcome struct {
	success *hostreq.HostSuccess
	failure *hostreq.HostFailure
}

// send runs req through h and waits for the complete hook.
func send(t *testing.T, h *Host, req *hostreq.HostRequest) outcome {
	t.Helper()
	var o outcome
	done := make(chan struct{})
	req.Success = func(res hostreq.HostSuccess) { o.success = &res }
	req.Fail = func(res hostreq.HostFailure) { o.failure = &res }
	req.Complete = func() { close(done) }

	_, err := h.Request(req)
	require.NoError(t, err)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("request did not complete")
	}
	return o
}

func TestHost_Request(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("X-Multi", "a")
		w.Header().Add("X-Multi", "b")
		switch r.URL.Path {
		case "/json":
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"color":"red"}`)
		case "/notjson":
			_, _ = io.WriteString(w, `<color>red</color>`)
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, "missing")
		}
	}))
	defer ts.Close()
	i := hosttest.Inspect(ts)

	h := MustNew()

	t.Run("json", func(t *testing.T) {
		o := send(t, h, &hostreq.HostRequest{
			URL:          ts.URL + "/json?id=1",
			Method:       "PUT",
			Header:       map[string]string{"Content-Type": "application/json", "X-Token": "abc"},
			Data:         []byte(`{"a":1}`),
			DataType:     hostreq.DataTypeJSON,
			ResponseType: hostreq.HostResponseText,
		})
		require.Nil(t, o.failure)
		require.NotNil(t, o.success)
		assert.Equal(t, 200, o.success.StatusCode)
		assert.Equal(t, map[string]interface{}{"color": "red"}, o.success.Data)
		assert.Equal(t, "a, b", o.success.Header["X-Multi"])

		ex := i.LastExchange()
		require.NotNil(t, ex)
		assert.Equal(t, "PUT", ex.Request.Method)
		assert.Equal(t, "1", ex.Request.URL.Query().Get("id"))
		assert.Equal(t, "abc", ex.Request.Header.Get("X-Token"))
		assert.Equal(t, `{"a":1}`, string(ex.RequestBody))
	})

	t.Run("json fallback to text", func(t *testing.T) {
		o := send(t, h, &hostreq.HostRequest{URL: ts.URL + "/notjson", Method: "GET", DataType: hostreq.DataTypeJSON})
		require.NotNil(t, o.success)
		assert.Equal(t, "<color>red</color>", o.success.Data)
	})

	t.Run("text", func(t *testing.T) {
		o := send(t, h, &hostreq.HostRequest{URL: ts.URL + "/json", Method: "GET", DataType: hostreq.DataTypeOther})
		require.NotNil(t, o.success)
		assert.Equal(t, `{"color":"red"}`, o.success.Data)
	})

	t.Run("arraybuffer", func(t *testing.T) {
		o := send(t, h, &hostreq.HostRequest{
			URL:          ts.URL + "/json",
			Method:       "GET",
			DataType:     hostreq.DataTypeJSON,
			ResponseType: hostreq.HostResponseArrayBuffer,
		})
		require.NotNil(t, o.success)
		assert.Equal(t, []byte(`{"color":"red"}`), o.success.Data)
	})

	t.Run("error status is a success", func(t *testing.T) {
		o := send(t, h, &hostreq.HostRequest{URL: ts.URL + "/missing", Method: "GET"})
		require.Nil(t, o.failure)
		require.NotNil(t, o.success)
		assert.Equal(t, 404, o.success.StatusCode)
		assert.Equal(t, "missing", o.success.Data)
	})

	t.Run("no body", func(t *testing.T) {
		send(t, h, &hostreq.HostRequest{URL: ts.URL + "/json", Method: "GET"})
		ex := i.LastExchange()
		require.NotNil(t, ex)
		assert.Empty(t, ex.RequestBody)
		assert.Zero(t, ex.Request.ContentLength)
	})

	t.Run("invalid request", func(t *testing.T) {
		_, err := h.Request(&hostreq.HostRequest{URL: ts.URL, Method: "BAD METHOD"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "building http request")
	})
}

func TestHost_Failures(t *testing.T) {
	block := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(block)

	t.Run("timeout", func(t *testing.T) {
		o := send(t, MustNew(), &hostreq.HostRequest{URL: ts.URL, Method: "GET", Timeout: 20 * time.Millisecond})
		require.Nil(t, o.success)
		require.NotNil(t, o.failure)
		assert.Equal(t, FailTimeout, o.failure.ErrMsg)
	})

	t.Run("host timeout", func(t *testing.T) {
		o := send(t, MustNew(Timeout(20*time.Millisecond)), &hostreq.HostRequest{URL: ts.URL, Method: "GET"})
		require.NotNil(t, o.failure)
		assert.Equal(t, FailTimeout, o.failure.ErrMsg)
	})

	t.Run("abort", func(t *testing.T) {
		h := MustNew()
		var failure *hostreq.HostFailure
		done := make(chan struct{})
		task, err := h.Request(&hostreq.HostRequest{
			URL:      ts.URL,
			Method:   "GET",
			Success:  func(hostreq.HostSuccess) { t.Error("unexpected success") },
			Fail:     func(res hostreq.HostFailure) { failure = &res },
			Complete: func() { close(done) },
		})
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		task.Abort()
		task.Abort()

		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("request did not complete")
		}
		require.NotNil(t, failure)
		assert.Equal(t, FailAbort, failure.ErrMsg)
	})

	t.Run("connection refused", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)
		addr := l.Addr().String()
		require.NoError(t, l.Close())

		o := send(t, MustNew(), &hostreq.HostRequest{URL: "http://" + addr, Method: "GET"})
		require.NotNil(t, o.failure)
		assert.Equal(t, FailConnectionRefused, o.failure.ErrMsg)
	})
}

func TestFailMessage(t *testing.T) {
	ctx := context.Background()

	aborted, cancel := context.WithCancelCause(ctx)
	cancel(errAborted)

	tests := []struct {
		name string
		ctx  context.Context
		err  error
		want string
	}{
		{"aborted", aborted, context.Canceled, FailAbort},
		{"net timeout", ctx, &net.OpError{Op: "dial", Err: timeoutErr{}}, FailTimeout},
		{"refused", ctx, &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}, FailConnectionRefused},
		{"reset", ctx, fmt.Errorf("read: %w", syscall.ECONNRESET), FailConnectionReset},
		{"other", ctx, errors.New("tls: bad certificate"), "request:fail tls: bad certificate"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, failMessage(tc.ctx, tc.err))
		})
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestHost_Logger(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "ok")
	}))
	defer ts.Close()

	core, logs := observer.New(zap.DebugLevel)
	h := MustNew(WithLogger(zap.New(core)))
	send(t, h, &hostreq.HostRequest{URL: ts.URL, Method: "GET"})

	entries := logs.FilterMessage("nethost_request_done").All()
	require.Len(t, entries, 1)
	assert.Equal(t, int64(200), entries[0].ContextMap()["status"])
}

func TestHost_EndToEnd(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("color") == "" {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"color":%q}`, r.URL.Query().Get("color"))
	}))
	defer ts.Close()

	cfg := hostreq.MustNew(
		hostreq.WithHost(MustNew()),
		hostreq.BaseURL(ts.URL),
		hostreq.ValidateStatus(hostreq.SuccessStatus),
	)

	var body struct {
		Color string `json:"color"`
	}
	resp, err := cfg.Receive(context.Background(), &body, hostreq.Get("/color"), hostreq.Params(map[string]string{"color": "blue"}))
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "blue", body.Color)

	_, err = cfg.Send(context.Background(), hostreq.Get("/color"))
	var herr *hostreq.Error
	require.ErrorAs(t, err, &herr)
	assert.Equal(t, "400", herr.Code)

	t.Run("canceled by context", func(t *testing.T) {
		block := make(chan struct{})
		slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-block:
			case <-r.Context().Done():
			}
		}))
		defer slow.Close()
		defer close(block)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := cfg.Send(ctx, hostreq.BaseURL(slow.URL))
		require.Error(t, err)
		assert.True(t, hostreq.IsCancel(err))
		assert.True(t, errors.Is(err, context.DeadlineExceeded))
	})
}
