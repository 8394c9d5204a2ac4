package main

import "github.com/poolworks/swapd/internal/cli"

func main() {
	cli.Execute()
}
