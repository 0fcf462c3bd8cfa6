package main

import "github.com/devicelab-dev/device-harness/pkg/cli"

func main() {
	cli.Execute()
}
