// Package all imports all the commands
package all

import (
	// Active commands
	_ "github.com/davsync/davsync/cmd"
	_ "github.com/davsync/davsync/cmd/authtype"
	_ "github.com/davsync/davsync/cmd/avatar"
	_ "github.com/davsync/davsync/cmd/etag"
	_ "github.com/davsync/davsync/cmd/exists"
	_ "github.com/davsync/davsync/cmd/link"
	_ "github.com/davsync/davsync/cmd/ls"
	_ "github.com/davsync/davsync/cmd/mkdir"
	_ "github.com/davsync/davsync/cmd/ocs"
	_ "github.com/davsync/davsync/cmd/probe"
	_ "github.com/davsync/davsync/cmd/props"
	_ "github.com/davsync/davsync/cmd/setprop"
	_ "github.com/davsync/davsync/cmd/version"
)
