// Package version holds the build version string shared by the CLI and
// the server_info RPC method.
package version

// Version is the semantic version of the swapd build.
const Version = "0.1.0-dev"
