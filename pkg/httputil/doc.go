// Package httputil provides retry helpers for the HTTP store.
//
// Transient failures (network errors, 5xx responses, 429 rate limits) are
// wrapped in [RetryableError] by the caller; [Retry] re-runs the operation
// with exponential backoff and returns every other error immediately:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy, func() error {
//	    resp, err := client.Do(req)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// The default policy makes 3 attempts starting at a 500ms delay. Both are
// configurable through the [http] section of the config file.
package httputil
