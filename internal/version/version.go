package version

import "strings"

// Version is the module's release version. It is a compile-time
// constant, so it cannot be overridden at link time with -ldflags -X.
const Version = "0.1.0.dev1"

var Environment string

func init() {
	if strings.Contains(Version, "dev") {
		Environment = "development"
	} else {
		Environment = "production"
	}
}
