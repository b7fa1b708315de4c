// Package version carries the build identity reported on /api/health
// and in the websocket connection banner.
package version

var (
	// Version is the valve.report release, overridden at build time.
	Version = "dev"
	// GitSHA is the commit the binary was built from.
	GitSHA = "unknown"
	// BuildTime is when the binary was built.
	BuildTime = "unknown"
)
