package hostreq

import (
	"context"
	"strings"
	"sync"

	"github.com/ansel1/merry"
	"go.uber.org/zap"
)

// CodeBadResponse marks errors raised while evaluating a response the host
// did deliver, such as a panicking ValidateStatus.
const CodeBadResponse = "ERR_BAD_RESPONSE"

// Call is a single dispatched request.  It settles exactly once, with either
// a *Response or an error, whichever of the host's success hook, the host's
// fail hook, or a cancellation comes first.
type Call struct {
	cfg  *Config
	log  *zap.Logger
	done chan struct{}

	mu          sync.Mutex
	task        Task
	settled     bool
	resp        *Response
	err         error
	unsubscribe []func()
}

// Dispatch translates cfg into one host request and returns immediately.
//
// The call is canceled when ctx is done or when cfg.CancelToken is canceled,
// whichever happens first.  A cancellation aborts the host task and the call
// rejects with a *Cancel.  If the cancellation is already requested when
// Dispatch is called, the host is never invoked.
//
// Errors building the host request are reported through the Call, never by
// a panic.
func Dispatch(ctx context.Context, cfg *Config) *Call {
	if ctx == nil {
		ctx = context.Background()
	}
	c := &Call{
		cfg:  cfg,
		log:  cfg.logger(),
		done: make(chan struct{}),
	}

	host := cfg.host()
	if host == nil {
		c.settle(nil, badRequestError(cfg, merry.New("no host configured")), false)
		return c
	}

	if ctx.Err() != nil {
		c.settle(nil, cancelOutcome(context.Cause(ctx)), false)
		return c
	}
	if cfg.CancelToken != nil {
		if reason := cfg.CancelToken.Reason(); reason != nil {
			c.settle(nil, cancelOutcome(reason), false)
			return c
		}
	}

	req, err := c.hostRequest()
	if err != nil {
		c.settle(nil, badRequestError(cfg, err), false)
		return c
	}

	c.log.Debug("host_request_started", zap.String("method", req.Method), zap.String("url", req.URL))

	task, err := start(host, req)
	if err != nil {
		c.settle(nil, badRequestError(cfg, err), false)
		return c
	}

	c.mu.Lock()
	if !c.settled {
		c.task = task
	}
	c.mu.Unlock()

	c.subscribe(ctx)
	return c
}

// Done is closed once the call has settled.
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the call settles and returns its outcome.
func (c *Call) Wait() (*Response, error) {
	<-c.done
	return c.resp, c.err
}

// Config returns the config the call was dispatched with.
func (c *Call) Config() *Config {
	return c.cfg
}

func (c *Call) hostRequest() (*HostRequest, error) {
	cfg := c.cfg

	u, err := BuildURL(cfg.BaseURL, cfg.URL, cfg.Params, cfg.ParamsSerializer)
	if err != nil {
		return nil, err
	}

	body, contentType, err := cfg.requestBody()
	if err != nil {
		return nil, err
	}

	header := flattenHeader(cfg.Header)
	if contentType != "" && cfg.Header.Get(HeaderContentType) == "" {
		if header == nil {
			header = map[string]string{}
		}
		header[HeaderContentType] = contentType
	}

	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = "GET"
	}

	dataType := DataTypeOther
	if cfg.ResponseType == "" || cfg.ResponseType == ResponseJSON {
		dataType = DataTypeJSON
	}
	responseType := HostResponseText
	if cfg.ResponseType == ResponseArrayBuffer {
		responseType = HostResponseArrayBuffer
	}

	return &HostRequest{
		URL:          u,
		Method:       method,
		Header:       header,
		Data:         body,
		DataType:     dataType,
		ResponseType: responseType,
		Timeout:      cfg.Timeout,
		Success:      c.onSuccess,
		Fail:         c.onFail,
		Complete:     c.onComplete,
	}, nil
}

func start(host Host, req *HostRequest) (task Task, err error) {
	defer func() {
		if r := recover(); r != nil {
			task, err = nil, merry.Errorf("host request panicked: %v", r)
		}
	}()

	task, err = host.Request(req)
	if err != nil {
		return nil, merry.Prepend(err, "starting host request")
	}
	if task == nil {
		task = TaskFunc(func() {})
	}
	return task, nil
}

// subscribe registers the cancellation listeners.  It runs after the host
// request started, so a listener always has a task to abort.
func (c *Call) subscribe(ctx context.Context) {
	var unsubscribe []func()

	if s, ok := c.cfg.CancelToken.(Subscriber); ok {
		id := s.Subscribe(c.cancel)
		unsubscribe = append(unsubscribe, func() { s.Unsubscribe(id) })
	}
	if ctx.Done() != nil {
		stop := context.AfterFunc(ctx, func() {
			c.cancel(context.Cause(ctx))
		})
		unsubscribe = append(unsubscribe, func() { stop() })
	}

	c.mu.Lock()
	if c.settled {
		// settled while subscribing, finish() has already run
		c.mu.Unlock()
		for _, u := range unsubscribe {
			u()
		}
		return
	}
	c.unsubscribe = unsubscribe
	c.mu.Unlock()
}

func (c *Call) inflight() (Task, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.task, !c.settled
}

func (c *Call) onSuccess(res HostSuccess) {
	task, ok := c.inflight()
	if !ok {
		return
	}

	resp := &Response{
		Data:       res.Data,
		Status:     res.StatusCode,
		StatusText: statusText(res.StatusCode),
		Header:     toHeader(res.Header),
		Config:     c.cfg,
		Request:    task,
	}

	valid, err := c.validate(res.StatusCode)
	switch {
	case err != nil:
		c.settle(nil, &Error{
			Message:  err.Error(),
			Code:     CodeBadResponse,
			Status:   resp.Status,
			Config:   c.cfg,
			Request:  task,
			Response: resp,
			err:      err,
		}, false)
	case valid:
		c.settle(resp, nil, false)
	default:
		c.settle(nil, statusError(resp), false)
	}
}

func (c *Call) validate(status int) (valid bool, err error) {
	if c.cfg.ValidateStatus == nil {
		return true, nil
	}
	defer func() {
		if r := recover(); r != nil {
			valid, err = false, merry.Errorf("validating status %d: %v", status, r)
		}
	}()
	return c.cfg.ValidateStatus(status), nil
}

func (c *Call) onFail(res HostFailure) {
	task, ok := c.inflight()
	if !ok {
		return
	}
	c.settle(nil, transportError(c.cfg, task, res.ErrMsg), false)
}

func (c *Call) onComplete() {
	// a host must report success or failure before completion; settle
	// anyway so Wait never hangs on a misbehaving host
	c.settle(nil, transportError(c.cfg, nil, "request completed without a result"), false)
	c.finish()
}

func (c *Call) cancel(reason error) {
	if c.settle(nil, cancelOutcome(reason), true) {
		c.log.Debug("host_request_canceled", zap.Error(reason))
	}
}

// settle records the outcome if the call has not settled yet.  With abort
// set, it only settles while a task is in flight, and aborts that task.
func (c *Call) settle(resp *Response, err error, abort bool) bool {
	c.mu.Lock()
	if c.settled || (abort && c.task == nil) {
		c.mu.Unlock()
		return false
	}
	c.settled = true
	c.resp, c.err = resp, err
	task := c.task
	c.task = nil
	c.mu.Unlock()

	defer close(c.done)
	defer c.finish()

	if err != nil {
		c.log.Debug("host_request_settled", zap.Error(err))
	} else {
		c.log.Debug("host_request_settled", zap.Int("status", resp.Status))
	}

	if abort {
		task.Abort()
	}
	return true
}

// finish unregisters the cancellation listeners and clears the task.  Only
// the first call does any work.
func (c *Call) finish() {
	c.mu.Lock()
	c.task = nil
	unsubscribe := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	for _, u := range unsubscribe {
		u()
	}
}
