package networkjobs

import (
	"bytes"
	"context"
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"

	"github.com/davsync/davsync/lib/rest"
)

// JSONReply is the result of a JSONAPIJob
type JSONReply struct {
	StatusCode int            // OCS status code, 0 if unknown
	HTTPStatus int            // HTTP status, 0 if there was no response
	Data       map[string]any // decoded document, nil if not JSON
	Raw        []byte
}

var (
	xmlStatusCode  = regexp.MustCompile(`<statuscode>(\d+)</statuscode>`)
	jsonStatusCode = regexp.MustCompile(`"statuscode":(\d+)`)
)

// ocsStatusCode finds the OCS status code in body which may be either
// an XML error document or JSON
func ocsStatusCode(body []byte) int {
	re := jsonStatusCode
	if bytes.Contains(body, []byte("<?xml")) {
		re = xmlStatusCode
	}
	m := re.FindSubmatch(body)
	if m == nil {
		return 0
	}
	code, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0
	}
	return code
}

// JSONAPIJob calls an OCS API endpoint asking for JSON
type JSONAPIJob struct {
	job

	// Params are added to the query before format=json
	Params url.Values
}

// NewJSONAPIJob returns a job calling path relative to the account
// URL, for example "ocs/v1.php/cloud/capabilities"
func NewJSONAPIJob(acc *Account, path string) *JSONAPIJob {
	j := &JSONAPIJob{}
	j.init(acc, "jsonapi", acc.accountURL(path))
	return j
}

// requestURL returns the URL with the query
func (j *JSONAPIJob) requestURL() string {
	query := j.Params.Encode()
	if query != "" {
		query += "&"
	}
	return j.url + "?" + query + "format=json"
}

func (j *JSONAPIJob) run(ctx context.Context) (*JSONReply, error) {
	opts := rest.Opts{
		Method:       "GET",
		RootURL:      j.requestURL(),
		ExtraHeaders: map[string]string{"OCS-APIREQUEST": "true"},
		IgnoreStatus: true,
	}
	reply := &JSONReply{}
	resp, err := j.send(ctx, &opts)
	if err != nil {
		j.log().WithError(err).Warn("Network error")
		return reply, err
	}
	reply.HTTPStatus = resp.StatusCode
	j.log().WithField("status", resp.Status).Info("JSON API call finished")
	body, err := rest.ReadBody(resp)
	if err != nil {
		return reply, newTransportError(err)
	}
	reply.Raw = body
	reply.StatusCode = ocsStatusCode(body)
	if err := json.Unmarshal(body, &reply.Data); err != nil || reply.Data == nil {
		j.log().WithError(err).Warn("Invalid JSON")
		reply.Data = nil
		return reply, &ProtocolError{Reason: "invalid JSON in OCS reply", Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return reply, newHTTPError(resp, nil)
	}
	return reply, nil
}

// Start the call
func (j *JSONAPIJob) Start(ctx context.Context) <-chan Result[*JSONReply] {
	return start(ctx, &j.job, j.run)
}

// Run the call and wait for the result
func (j *JSONAPIJob) Run(ctx context.Context) (*JSONReply, error) {
	return Wait(ctx, j.Start(ctx))
}
