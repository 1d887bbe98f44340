// resume-upload submits resume files to the resume-ranker ingestion API.
package main

import (
	"os"

	"github.com/resumeranker/resume-uploader/internal/cli"
	"github.com/resumeranker/resume-uploader/internal/version"
)

// Version information, overridden with -ldflags at release time
var (
	Version   = "v0.3.0-dev"
	BuildTime = "unknown"
)

func main() {
	// Set version in version package (canonical source for all packages)
	version.Version = Version
	version.BuildTime = BuildTime

	// Any error (including files that failed to upload) exits non-zero
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
