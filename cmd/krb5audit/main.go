package main

import (
	"os"

	"github.com/marmos91/krb5audit/cmd/krb5audit/commands"

	// Import prometheus metrics to register init() functions
	_ "github.com/marmos91/krb5audit/pkg/metrics/prometheus"
)

// Build-time variables injected via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Set version info for commands package
	commands.Version = version
	commands.Commit = commit
	commands.Date = date

	os.Exit(commands.Execute())
}
