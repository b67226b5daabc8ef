package httpx

import (
	"net/http"
	"time"
)

// BeforeHook runs before each attempt. attempt starts at 1.
type BeforeHook func(req *http.Request, attempt int)

// AfterHook runs after each attempt, whether it succeeded or not.
type AfterHook func(req *http.Request, resp *http.Response, err error, dur time.Duration, attempt int)

type Middleware func(next http.RoundTripper) http.RoundTripper

func chain(rt http.RoundTripper, mws []Middleware) http.RoundTripper {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] == nil {
			continue
		}
		rt = mws[i](rt)
	}
	return rt
}
