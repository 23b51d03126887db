// Package api has type definitions for the WebDAV and OCS endpoints
// the network jobs talk to
package api

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/coreos/go-semver/semver"
	"github.com/pkg/errors"
)

// Error is the error body returned by Sabre based WebDAV servers
//
//	<?xml version="1.0" encoding="utf-8"?>
//	<d:error xmlns:d="DAV:" xmlns:s="http://sabredav.org/ns">
//	  <s:exception>Sabre\DAV\Exception\NotFound</s:exception>
//	  <s:message>File with name x could not be located</s:message>
//	</d:error>
type Error struct {
	Exception  string `xml:"exception,omitempty"`
	Message    string `xml:"message,omitempty"`
	Status     string `xml:"-"`
	StatusCode int    `xml:"-"`
}

// Error returns a string for the error and satisfies the error interface
func (e *Error) Error() string {
	var out []string
	if e.Message != "" {
		out = append(out, e.Message)
	}
	if e.Exception != "" {
		out = append(out, e.Exception)
	}
	if e.Status != "" {
		out = append(out, e.Status)
	}
	if len(out) == 0 {
		return "Webdav Error"
	}
	return strings.Join(out, ": ")
}

// ServerStatus is the decoded status.php document
//
//	{"installed":true,"maintenance":false,"needsDbUpgrade":false,
//	 "version":"10.11.0.6","versionstring":"10.11.0",
//	 "edition":"Community","productname":"ownCloud"}
type ServerStatus struct {
	HasInstalled   bool // the installed key was present at all
	Installed      bool
	Maintenance    bool
	NeedsDBUpgrade bool
	Version        string
	VersionString  string
	Edition        string
	ProductName    string
	Raw            map[string]any
}

// ParseServerStatus decodes a status.php body.
//
// It always returns a usable ServerStatus.  If the body isn't a JSON
// object the error is returned and the status is empty.
func ParseServerStatus(body []byte) (*ServerStatus, error) {
	s := &ServerStatus{Raw: map[string]any{}}
	if err := json.Unmarshal(body, &s.Raw); err != nil {
		s.Raw = map[string]any{}
		return s, errors.Wrap(err, "status.php is not valid JSON")
	}
	if s.Raw == nil {
		// the body was "null"
		s.Raw = map[string]any{}
		return s, errors.New("status.php is not a JSON object")
	}
	_, s.HasInstalled = s.Raw["installed"]
	s.Installed = boolValue(s.Raw["installed"])
	s.Maintenance = boolValue(s.Raw["maintenance"])
	s.NeedsDBUpgrade = boolValue(s.Raw["needsDbUpgrade"])
	s.Version = stringValue(s.Raw["version"])
	s.VersionString = stringValue(s.Raw["versionstring"])
	s.Edition = stringValue(s.Raw["edition"])
	s.ProductName = stringValue(s.Raw["productname"])
	return s, nil
}

// DisplayVersion returns "version-productname", e.g. "10.11.0.6-ownCloud"
func (s *ServerStatus) DisplayVersion() string {
	return s.Version + "-" + s.ProductName
}

// SemVer returns the server version as a semantic version
func (s *ServerStatus) SemVer() (*semver.Version, error) {
	return ParseVersion(s.Version)
}

// ParseVersion turns a server version like "10.0.3.2" or "9.1" into a
// semver.Version using its first three numeric components.
func ParseVersion(in string) (*semver.Version, error) {
	parts := strings.SplitN(strings.TrimSpace(in), ".", 4)
	if len(parts) > 3 {
		parts = parts[:3]
	}
	var nums [3]int64
	for i, part := range parts {
		// stop at the first non numeric suffix, e.g. "0 beta"
		end := 0
		for end < len(part) && part[end] >= '0' && part[end] <= '9' {
			end++
		}
		if end == 0 {
			return nil, errors.Errorf("can't parse server version %q", in)
		}
		n, err := strconv.ParseInt(part[:end], 10, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "can't parse server version %q", in)
		}
		nums[i] = n
		if end != len(part) {
			break
		}
	}
	return semver.New(fmt.Sprintf("%d.%d.%d", nums[0], nums[1], nums[2])), nil
}

func boolValue(v any) bool {
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, _ := strconv.ParseBool(x)
		return b
	case float64:
		return x != 0
	}
	return false
}

func stringValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	default:
		return fmt.Sprint(x)
	}
}

// AuthType is the authentication scheme a server asks for
type AuthType int

// Authentication schemes
const (
	AuthBasic AuthType = iota
	AuthOAuth
)

// String turns an AuthType into a string
func (a AuthType) String() string {
	switch a {
	case AuthBasic:
		return "basic"
	case AuthOAuth:
		return "oauth"
	}
	return fmt.Sprintf("AuthType(%d)", int(a))
}
