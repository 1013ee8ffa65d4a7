package reddit

import (
	"errors"
	"net"
	"net/url"

	goreddit "github.com/vartanbeno/go-reddit/v2/reddit"
	"golang.org/x/oauth2"
)

// IsAPIError reports whether err came from the Reddit service layer: an
// error status or a {"json":{"errors":...}} body, a rate limit rejection,
// a failed token exchange, or a transport failure talking to the API. Anything else is not the API's doing.
func IsAPIError(err error) bool {
	if err == nil {
		return false
	}
	var errResp *goreddit.ErrorResponse
	if errors.As(err, &errResp) {
		return true
	}
	var jsonErr *goreddit.JSONErrorResponse
	if errors.As(err, &jsonErr) {
		return true
	}
	var rateErr *goreddit.RateLimitError
	if errors.As(err, &rateErr) {
		return true
	}
	var retrieveErr *oauth2.RetrieveError
	if errors.As(err, &retrieveErr) {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
