package networkjobs

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/davsync/davsync/lib/rest"
	"github.com/gabriel-vasile/mimetype"
)

// avatarLimit is the largest avatar read
const avatarLimit = 4 * 1024 * 1024

// AvatarJob fetches the avatar image of a user
type AvatarJob struct {
	job
}

// NewAvatarJob returns a job fetching the avatar of user at size
// pixels.  The URL depends on the server version so a CheckServerJob
// should have found the server first.
func NewAvatarJob(acc *Account, user string, size int) *AvatarJob {
	var p string
	if acc.ServerVersionAtLeast(10, 0, 0) {
		p = fmt.Sprintf("remote.php/dav/avatars/%s/%d.png", url.PathEscape(user), size)
	} else {
		p = fmt.Sprintf("index.php/avatar/%s/%d", url.PathEscape(user), size)
	}
	j := &AvatarJob{}
	j.init(acc, "avatar", rest.ConcatPath(acc.URL().String(), p))
	return j
}

// run returns the image or nil if the server had none
func (j *AvatarJob) run(ctx context.Context) ([]byte, error) {
	opts := rest.Opts{
		Method:       "GET",
		RootURL:      j.url,
		IgnoreStatus: true,
	}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		discardBody(resp)
		return nil, nil
	}
	data, err := rest.ReadBodyLimit(resp, avatarLimit)
	if err != nil {
		return nil, newTransportError(err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	mime := mimetype.Detect(data)
	if !strings.HasPrefix(mime.String(), "image/") {
		j.log().WithField("mime", mime.String()).Debug("Avatar is not an image")
		return nil, nil
	}
	j.log().WithField("mime", mime.String()).Debug("Retrieved avatar")
	return data, nil
}

// Start fetching the avatar
func (j *AvatarJob) Start(ctx context.Context) <-chan Result[[]byte] {
	return start(ctx, &j.job, j.run)
}

// Run fetches the avatar and waits for the result
func (j *AvatarJob) Run(ctx context.Context) ([]byte, error) {
	return Wait(ctx, j.Start(ctx))
}
