// Package version holds the build version, overridable at link time.
package version

// Version is the homebase release version. Set with:
//
//	go build -ldflags "-X github.com/stavrou/homebase/internal/version.Version=v1.2.3"
var Version = "dev"
