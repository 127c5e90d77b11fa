// File: cmd/version.go
package cmd

// Version is the application version, set at build time with
// -ldflags "-X github.com/xkilldash9x/browsepilot/cmd.Version=1.0.0".
var Version = "dev"
