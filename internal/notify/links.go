package notify

import "net/url"

// LinkBuilder constructs absolute URLs embedded in outgoing emails.
// BaseURL is the externally reachable origin of the service, without a
// trailing slash.
type LinkBuilder struct {
	BaseURL string
}

// MagicLogin returns the magic-link URL for a raw session token with an
// optional post-login redirect target.  The login handler re-validates
// next against the current host before following it.
func (b LinkBuilder) MagicLogin(rawToken, next string) string {
	q := url.Values{}
	q.Set("token", rawToken)
	if next != "" {
		q.Set("next", next)
	}
	return b.BaseURL + "/v1/auth/login?" + q.Encode()
}
