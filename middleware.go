package hostreq

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Middleware can be used to wrap Hosts with additional functionality:
//
//     loggingMiddleware := func(next Host) Host {
//         return HostFunc(func(req *HostRequest) (Task, error) {
//             logRequest(req)
//             return next.Request(req)
//         })
//     }
//
// Middleware can be applied to a Config with the Use() option:
//
//     cfg.Apply(hostreq.Use(loggingMiddleware))
//
// Middleware itself is an Option, so it can also be applied directly:
//
//     cfg.Apply(Middleware(loggingMiddleware))
//
type Middleware func(Host) Host

// Apply implements Option
func (m Middleware) Apply(c *Config) error {
	c.Middleware = append(c.Middleware, m)
	return nil
}

// Wrap applies a set of middleware to a Host.  The returned Host will invoke
// the middleware in the order of the arguments.
func Wrap(h Host, m ...Middleware) Host {
	for i := len(m) - 1; i > -1; i-- {
		h = m[i](h)
	}
	return h
}

// Dump dumps host requests and their outcomes to a writer.  Just intended for debugging.
func Dump(w io.Writer) Middleware {
	return func(next Host) Host {
		return HostFunc(func(req *HostRequest) (Task, error) {
			// Write the entire request out as a single Write() call
			// so a logger receives it as one entry.
			io.WriteString(w, dumpRequest(req))

			dumped := *req
			dumped.Success = func(res HostSuccess) {
				io.WriteString(w, dumpSuccess(&res))
				if req.Success != nil {
					req.Success(res)
				}
			}
			dumped.Fail = func(res HostFailure) {
				io.WriteString(w, "FAIL "+res.ErrMsg+"\n")
				if req.Fail != nil {
					req.Fail(res)
				}
			}

			task, err := next.Request(&dumped)
			if err != nil {
				io.WriteString(w, "Error starting request: "+err.Error()+"\n")
			}
			return task, err
		})
	}
}

// DumpToStout dumps host requests to os.Stdout.
func DumpToStout() Middleware {
	return Dump(os.Stdout)
}

type logFunc func(a ...interface{})

func (f logFunc) Write(p []byte) (n int, err error) {
	f(string(p))
	return len(p), nil
}

// DumpToLog dumps the request and outcome to a logging function.
// logf is compatible with fmt.Print(), testing.T.Log, or log.XXX()
// functions.
//
// Request and outcome will be logged separately.  Though logf
// takes a variadic arg, it will only be called with one string
// arg at a time.
func DumpToLog(logf func(a ...interface{})) Middleware {
	return Dump(logFunc(logf))
}

func dumpRequest(req *HostRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s\n", req.Method, req.URL)
	writeHeaderMap(&b, req.Header)
	if req.Timeout > 0 {
		fmt.Fprintf(&b, "Timeout: %s\n", req.Timeout)
	}
	b.WriteString("\n")
	if len(req.Data) > 0 {
		b.Write(req.Data)
		b.WriteString("\n")
	}
	return b.String()
}

func dumpSuccess(res *HostSuccess) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s\n", res.StatusCode, statusText(res.StatusCode))
	writeHeaderMap(&b, res.Header)
	b.WriteString("\n")
	switch d := res.Data.(type) {
	case nil:
	case []byte:
		b.Write(d)
		b.WriteString("\n")
	default:
		fmt.Fprintf(&b, "%v\n", d)
	}
	return b.String()
}

func writeHeaderMap(b *strings.Builder, h map[string]string) {
	keys := make([]string, 0, len(h))
	for k := range h {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(b, "%s: %s\n", k, h[k])
	}
}
