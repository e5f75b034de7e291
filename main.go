package main

import "github.com/ampynjord/starvis-sub003/cmd"

// version is overridden at build time.
var version = "dev"

func main() {
	cmd.Execute(version)
}
