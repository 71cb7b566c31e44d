// Package misc keeps build identification helpers in one place.
package misc

import (
	"runtime/debug"
	"sync"
)

const appName = "bix"

// set by the build with -ldflags "-X bix/misc.version=..."
var version = "development"

// GetAppName returns short program name used in logs, reports and templates.
func GetAppName() string {
	return appName
}

// GetVersion returns program version set at build time.
func GetVersion() string {
	return version
}

var gitHash = sync.OnceValue(func() string {
	if bi, ok := debug.ReadBuildInfo(); ok {
		for _, s := range bi.Settings {
			if s.Key == "vcs.revision" {
				return s.Value
			}
		}
	}
	return "unknown"
})

// GetGitHash returns VCS revision recorded in the binary if available.
func GetGitHash() string {
	return gitHash()
}
