/*
Package hostreq sends HTTP requests through a host platform's request
primitive, such as the `request` API of a mini-program runtime, instead of a
standard network stack.

A request is described by a Config.  The adapter translates it into a single
HostRequest, hands it to a Host, and turns the host's success/fail/complete
hooks back into a *Response or an error:

	cfg := hostreq.MustNew(
		hostreq.WithHost(host),
		hostreq.BaseURL("https://api.example.com"),
		hostreq.Get("/users"),
		hostreq.Params(map[string]interface{}{"id": []int{1, 2}}),
		hostreq.ValidateStatus(hostreq.SuccessStatus),
	)

	resp, err := cfg.Send(ctx)

The request above is sent to https://api.example.com/users?id[]=1&id[]=2.

Config revolves around the use of Options, which are arguments to the
functions which build and send requests.  Options can be used to set headers,
query parameters, the body, the response type, install host middleware,
replace the host, etc.  Options passed to Send, Receive or Dispatch apply to
that request only.

Outcomes

Every request settles exactly once:

  - the host reported a response and ValidateStatus accepted it (or is nil):
    a *Response is returned
  - the host reported a response which ValidateStatus rejected: an *Error
    with Code "404" (for example), Message "Request failed with status code 404",
    and the *Response attached
  - the host reported a failure: an *Error carrying the host's message and
    an empty Code
  - the request was canceled: a *Cancel, recognized with IsCancel
  - the request could not be started: an *Error with Code CodeBadRequest

Cancellation

A request is canceled by its context, or by a CancelToken.  Tokens which also
implement Subscriber, like CancelSource, can abort a request in flight:

	src := hostreq.NewCancelSource()
	call, _ := cfg.Dispatch(ctx, hostreq.WithCancelToken(src))
	src.Cancel("no longer needed")
	_, err := call.Wait() // err is a *Cancel with Message "no longer needed"

The host task is aborted at most once, and the listeners are removed as soon
as the request settles.

Hosts

The Host interface is the host platform's request primitive.  Package
nethost implements it with net/http; package hosttest has scriptable hosts
for tests.
*/
package hostreq
