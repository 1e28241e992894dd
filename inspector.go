package hostreq

import (
	"sync"
)

// Inspector is a Config Option which captures host requests and their
// outcomes.  It's useful for inspecting the contents of exchanges in tests.
//
// It keeps requests and outcomes around longer than their intended lifespan,
// so it should not be used in production code or benchmarks.
type Inspector struct {
	mu sync.Mutex

	request *HostRequest
	success *HostSuccess
	failure *HostFailure
}

// Request returns the last request sent to the host.
func (i *Inspector) Request() *HostRequest {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.request
}

// Success returns the outcome of the last request if the host reported success.
func (i *Inspector) Success() *HostSuccess {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.success
}

// Failure returns the outcome of the last request if the host reported failure.
func (i *Inspector) Failure() *HostFailure {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.failure
}

// Clear clears the inspector's fields.
func (i *Inspector) Clear() {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.request = nil
	i.success = nil
	i.failure = nil
}

// Apply implements Option
func (i *Inspector) Apply(c *Config) error {
	return c.Apply(Middleware(i.MiddlewareFunc))
}

// MiddlewareFunc implements Middleware
func (i *Inspector) MiddlewareFunc(next Host) Host {
	return HostFunc(func(req *HostRequest) (Task, error) {
		inspected := *req
		inspected.Success = func(res HostSuccess) {
			i.mu.Lock()
			i.success = &res
			i.mu.Unlock()
			if req.Success != nil {
				req.Success(res)
			}
		}
		inspected.Fail = func(res HostFailure) {
			i.mu.Lock()
			i.failure = &res
			i.mu.Unlock()
			if req.Fail != nil {
				req.Fail(res)
			}
		}

		i.mu.Lock()
		i.request = req
		i.success = nil
		i.failure = nil
		i.mu.Unlock()

		return next.Request(&inspected)
	})
}
