// Package hosttest contains Host implementations and helpers for writing
// tests against hostreq.
//
// FakeHost records every request and lets the test decide when and how each
// one completes:
//
//     h := hosttest.NewFakeHost()
//     call := hostreq.Dispatch(ctx, &hostreq.Config{Host: h})
//     h.Last().Succeed(200, nil, "pong")
//     resp, err := call.Wait()
//
// Respond builds a Host which answers every request on its own.
package hosttest

import (
	"sync"

	"github.com/ThalesGroup/hostreq"
	"github.com/ansel1/merry"
)

// FakeHost is a scriptable hostreq.Host.  The zero value is ready to use.
type FakeHost struct {
	// Err, if set, is returned by Request and no task is created.
	Err error

	mu    sync.Mutex
	tasks []*FakeTask
}

// NewFakeHost returns a new FakeHost.
func NewFakeHost() *FakeHost {
	return &FakeHost{}
}

// Request implements hostreq.Host.
func (h *FakeHost) Request(req *hostreq.HostRequest) (hostreq.Task, error) {
	if h.Err != nil {
		return nil, h.Err
	}
	t := &FakeTask{Req: req}
	h.mu.Lock()
	h.tasks = append(h.tasks, t)
	h.mu.Unlock()
	return t, nil
}

// Tasks returns every task started so far, oldest first.
func (h *FakeHost) Tasks() []*FakeTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]*FakeTask(nil), h.tasks...)
}

// Last returns the most recent task, or nil.
func (h *FakeHost) Last() *FakeTask {
	h.mu.Lock()
	defer h.mu.Unlock()
	if len(h.tasks) == 0 {
		return nil
	}
	return h.tasks[len(h.tasks)-1]
}

// FakeTask is one request received by a FakeHost.
type FakeTask struct {
	Req *hostreq.HostRequest

	mu     sync.Mutex
	aborts int
}

// Abort implements hostreq.Task.  It only counts calls; like a real host,
// follow with Fail and Complete to report the aborted request.
func (t *FakeTask) Abort() {
	t.mu.Lock()
	t.aborts++
	t.mu.Unlock()
}

// Aborts returns how many times Abort was called.
func (t *FakeTask) Aborts() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborts
}

// Succeed invokes the success hook, then the complete hook.
func (t *FakeTask) Succeed(status int, header map[string]string, data interface{}) {
	if t.Req.Success != nil {
		t.Req.Success(hostreq.HostSuccess{StatusCode: status, Header: header, Data: data})
	}
	t.Complete()
}

// Fail invokes the fail hook, then the complete hook.
func (t *FakeTask) Fail(errMsg string) {
	if t.Req.Fail != nil {
		t.Req.Fail(hostreq.HostFailure{ErrMsg: errMsg})
	}
	t.Complete()
}

// Complete invokes only the complete hook.
func (t *FakeTask) Complete() {
	if t.Req.Complete != nil {
		t.Req.Complete()
	}
}

// Respond returns a Host which answers every request from a new goroutine
// with the given status, header and data.
func Respond(status int, header map[string]string, data interface{}) hostreq.Host {
	return hostreq.HostFunc(func(req *hostreq.HostRequest) (hostreq.Task, error) {
		if req.Success == nil {
			return nil, merry.New("request has no success hook")
		}
		t := &FakeTask{Req: req}
		go t.Succeed(status, header, data)
		return t, nil
	})
}

// ChannelHost returns a Host and an input channel.  Each request is answered
// by the next function received on the channel, which is given the request's
// task and should complete it.
func ChannelHost() (chan<- func(*FakeTask), hostreq.Host) {
	input := make(chan func(*FakeTask), 1)

	return input, hostreq.HostFunc(func(req *hostreq.HostRequest) (hostreq.Task, error) {
		t := &FakeTask{Req: req}
		go func() {
			answer := <-input
			answer(t)
		}()
		return t, nil
	})
}
