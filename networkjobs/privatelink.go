package networkjobs

import (
	"context"
	"time"

	"github.com/davsync/davsync/lib/rest"
)

// privateLinkTimeout is the timeout of the PROPFIND asking for the link
const privateLinkTimeout = 10 * time.Second

// FetchPrivateLinkURL asks the server for the private link of
// remotePath.
//
// If the server only knows the numeric file id the link is made as
// <base>/f/<fileid>.  ErrNoPrivateLink is returned if it knows
// neither.
func FetchPrivateLinkURL(ctx context.Context, acc *Account, remotePath string) (string, error) {
	j := NewPropfindJob(acc, remotePath)
	j.Properties = []string{
		NamespaceOwnCloud + ":fileid",
		NamespaceOwnCloud + ":privatelink",
	}
	j.SetTimeout(privateLinkTimeout)
	props, err := j.Run(ctx)
	if err != nil {
		return "", err
	}
	if link := props["privatelink"]; link != "" {
		return link, nil
	}
	if id := props["fileid"]; id != "" {
		return rest.ConcatPath(acc.URL().String(), "f/"+rest.URLPathEscape(id)), nil
	}
	return "", ErrNoPrivateLink
}
