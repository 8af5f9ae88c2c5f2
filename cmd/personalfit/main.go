// Package main is the single-binary entrypoint for PersonalFit.
package main

import "github.com/Poolchaos/personalfit/internal/cli"

// version is set at build time via -ldflags.
var version = "dev"

func main() {
	cli.Execute(version)
}
