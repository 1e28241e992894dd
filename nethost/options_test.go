package nethost

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/ThalesGroup/hostreq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	h, err := New()
	require.NoError(t, err)
	assert.NotNil(t, h.Client)
	assert.NotNil(t, h.Logger)
	assert.Zero(t, h.Timeout)

	_, err = New(WithClient(nil))
	require.Error(t, err)

	assert.Panics(t, func() {
		MustNew(WithClient(nil))
	})

	c := &http.Client{}
	h = MustNew(WithClient(c), Timeout(time.Second))
	assert.Same(t, c, h.Client)
	assert.Equal(t, time.Second, h.Timeout)
}

func TestRedirects(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/a":
			http.Redirect(w, r, "/b", http.StatusFound)
		case "/b":
			http.Redirect(w, r, "/c", http.StatusFound)
		default:
			_, _ = io.WriteString(w, "landed")
		}
	}))
	defer ts.Close()

	t.Run("follows by default", func(t *testing.T) {
		o := send(t, MustNew(), &hostreq.HostRequest{URL: ts.URL + "/a", Method: "GET"})
		require.NotNil(t, o.success)
		assert.Equal(t, "landed", o.success.Data)
	})

	t.Run("no redirects", func(t *testing.T) {
		o := send(t, MustNew(NoRedirects()), &hostreq.HostRequest{URL: ts.URL + "/a", Method: "GET"})
		require.NotNil(t, o.success)
		assert.Equal(t, http.StatusFound, o.success.StatusCode)
		assert.Equal(t, "/b", o.success.Header["Location"])
	})

	t.Run("max redirects", func(t *testing.T) {
		o := send(t, MustNew(MaxRedirects(1)), &hostreq.HostRequest{URL: ts.URL + "/a", Method: "GET"})
		require.NotNil(t, o.failure)
		assert.Contains(t, o.failure.ErrMsg, "stopped after max 1 requests")

		o = send(t, MustNew(MaxRedirects(3)), &hostreq.HostRequest{URL: ts.URL + "/a", Method: "GET"})
		require.NotNil(t, o.success)
	})
}

func TestCookieJar(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/login" {
			http.SetCookie(w, &http.Cookie{Name: "session", Value: "s1", Path: "/"})
			return
		}
		c, err := r.Cookie("session")
		if err != nil {
			_, _ = io.WriteString(w, "anonymous")
			return
		}
		_, _ = io.WriteString(w, c.Value)
	}))
	defer ts.Close()

	h := MustNew(CookieJar())
	send(t, h, &hostreq.HostRequest{URL: ts.URL + "/login", Method: "POST"})
	o := send(t, h, &hostreq.HostRequest{URL: ts.URL + "/me", Method: "GET"})
	require.NotNil(t, o.success)
	assert.Equal(t, "s1", o.success.Data)

	o = send(t, MustNew(), &hostreq.HostRequest{URL: ts.URL + "/me", Method: "GET"})
	assert.Equal(t, "anonymous", o.success.Data)
}

func TestProxyURL(t *testing.T) {
	h := MustNew(ProxyURL("http://proxy.example.com:8080"))
	transport, ok := h.Client.Transport.(*http.Transport)
	require.True(t, ok)
	require.NotNil(t, transport.Proxy)

	req, err := http.NewRequest("GET", "http://api.example.com", nil)
	require.NoError(t, err)
	u, err := transport.Proxy(req)
	require.NoError(t, err)
	assert.Equal(t, &url.URL{Scheme: "http", Host: "proxy.example.com:8080"}, u)

	_, err = New(ProxyURL("://bad"))
	require.Error(t, err)
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestTransportOption(t *testing.T) {
	h := MustNew(TransportOption(func(tr *http.Transport) error {
		tr.MaxIdleConns = 7
		return nil
	}))
	assert.Equal(t, 7, h.Client.Transport.(*http.Transport).MaxIdleConns)
	assert.NotSame(t, http.DefaultTransport, h.Client.Transport)

	_, err := New(
		WithClient(&http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) { return nil, nil })}),
		ProxyURL("http://proxy.example.com"),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a *http.Transport")
}
