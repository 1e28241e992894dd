package hostreq

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/ansel1/merry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError(t *testing.T) {
	cfg := &Config{URL: "/missing"}
	task := TaskFunc(func() {})
	resp := &Response{Status: 404, StatusText: "Not Found", Config: cfg, Request: task}

	err := statusError(resp)
	assert.EqualError(t, err, "Request failed with status code 404")
	assert.Equal(t, "404", err.Code)
	assert.Equal(t, 404, err.Status)
	assert.Same(t, resp, err.Response)
	assert.Same(t, cfg, err.Config)
	assert.Equal(t, 404, merry.HTTPCode(err.Unwrap()))
}

func TestBadRequestError(t *testing.T) {
	err := badRequestError(&Config{}, merry.New("no host configured"))
	assert.Equal(t, CodeBadRequest, err.Code)
	assert.EqualError(t, err, "no host configured")
	assert.Zero(t, err.Status)
	assert.Nil(t, err.Response)
}

func TestError_ToJSON(t *testing.T) {
	t.Run("bare", func(t *testing.T) {
		e := &Error{Message: "request:fail timeout"}
		d := e.ToJSON()
		assert.Equal(t, "RequestError", d.Name)
		assert.Equal(t, "request:fail timeout", d.Message)
		assert.Empty(t, d.Stack)
		assert.Nil(t, d.Config)
		assert.Nil(t, d.Response)
	})

	t.Run("transport failure", func(t *testing.T) {
		cfg := &Config{
			Method:  "GET",
			BaseURL: "https://api.example.com",
			URL:     "/users",
			Params:  map[string]interface{}{"id": []int{1, 2}},
			Timeout: 3 * time.Second,
			Header:  http.Header{"X-Token": {"abc"}},
		}
		d := transportError(cfg, nil, "request:fail timeout").ToJSON()
		assert.NotEmpty(t, d.Stack)
		assert.Empty(t, d.Code)
		require.NotNil(t, d.Config)
		assert.Equal(t, "id[]=1&id[]=2", d.Config.Params)
		assert.Equal(t, "3s", d.Config.Timeout)
		assert.Equal(t, "abc", d.Config.Header.Get("X-Token"))
	})

	t.Run("unserializable params", func(t *testing.T) {
		d := (&Error{Config: &Config{Params: 42}}).ToJSON()
		assert.Equal(t, "42", d.Config.Params)
	})

	t.Run("status failure", func(t *testing.T) {
		resp := &Response{
			Status:     500,
			StatusText: "Internal Server Error",
			Header:     http.Header{"Content-Type": {"text/plain"}},
			Data:       []byte("oops"),
			Config:     &Config{},
		}
		d := statusError(resp).ToJSON()
		assert.Equal(t, "500", d.Code)
		assert.Equal(t, 500, d.Status)
		require.NotNil(t, d.Response)
		assert.Equal(t, "oops", d.Response.Data)
		assert.Equal(t, "Internal Server Error", d.Response.StatusText)
	})
}

func TestError_MarshalJSON(t *testing.T) {
	resp := &Response{
		Status: 404,
		Data:   map[string]interface{}{"ch": make(chan int)},
		Config: &Config{Method: "GET", URL: "/x"},
	}
	b, err := json.Marshal(statusError(resp))
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "RequestError", m["name"])
	assert.Equal(t, "Request failed with status code 404", m["message"])
	assert.Equal(t, "404", m["code"])
	assert.Equal(t, float64(404), m["status"])
	assert.Equal(t, map[string]interface{}{"method": "GET", "url": "/x"}, m["config"])
	assert.IsType(t, "", m["response"].(map[string]interface{})["data"])
}
