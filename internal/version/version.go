package version

import (
	"runtime"
	"time"
)

// ServiceName is reported by the informational endpoints.
const ServiceName = "Bookmark Health Check API"

// APIVersion is the version of the health-check HTTP contract, independent of the build.
const APIVersion = "1.0.0"

var (
	Version   = "dev"                           // ex: v0.1.0
	Commit    = "none"                          // ex: abcd123
	BuildDate = time.Now().Format(time.RFC3339) // ex: 2025-08-11T18:42:00Z
	GoVersion = runtime.Version()               // go version
)
