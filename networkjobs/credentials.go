package networkjobs

import (
	"net/http"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
)

// Credentials sign the requests of an account.  Jobs which must not
// leak credentials, such as the server probe, skip them.
type Credentials interface {
	Sign(req *http.Request) error
}

// BasicCredentials sign with HTTP basic authentication
type BasicCredentials struct {
	User string
	Pass string
}

// Sign adds the Authorization header
func (c *BasicCredentials) Sign(req *http.Request) error {
	req.SetBasicAuth(c.User, c.Pass)
	return nil
}

// TokenCredentials sign with an OAuth2 bearer token
type TokenCredentials struct {
	Source oauth2.TokenSource
}

// NewTokenCredentials returns credentials for a fixed access token
func NewTokenCredentials(accessToken string) *TokenCredentials {
	return &TokenCredentials{
		Source: oauth2.StaticTokenSource(&oauth2.Token{
			AccessToken: accessToken,
			TokenType:   "Bearer",
		}),
	}
}

// Sign fetches a token from the source and adds the Authorization
// header
func (c *TokenCredentials) Sign(req *http.Request) error {
	token, err := c.Source.Token()
	if err != nil {
		return errors.Wrap(err, "failed to get access token")
	}
	token.SetAuthHeader(req)
	return nil
}

// credentialsFromOptions chooses the credentials opt asks for.  A
// bearer token wins over a user name.  It returns nil if opt has
// neither.
func credentialsFromOptions(opt *Options) Credentials {
	switch {
	case opt.BearerToken != "":
		return NewTokenCredentials(opt.BearerToken)
	case opt.User != "":
		return &BasicCredentials{User: opt.User, Pass: opt.Pass}
	}
	return nil
}

// check interfaces
var (
	_ Credentials = (*BasicCredentials)(nil)
	_ Credentials = (*TokenCredentials)(nil)
)
