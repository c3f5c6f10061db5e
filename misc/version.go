// Package misc keeps build time information about the program.
package misc

// Set with -ldflags "-X stylify/misc.version=... -X stylify/misc.gitHash=..."
var (
	version = "dev"
	gitHash = "unknown"
)

const appName = "stylify"

func GetAppName() string {
	return appName
}

func GetVersion() string {
	return version
}

func GetGitHash() string {
	return gitHash
}
