// Run the network jobs of a sync client against an ownCloud style
// server from the command line
package main

import (
	"github.com/davsync/davsync/cmd"
	_ "github.com/davsync/davsync/cmd/all" // import all commands
)

func main() {
	cmd.Main()
}
