package main

import "github.com/rustyeddy/chartscan/internal/cli"

func main() {
	cli.Execute()
}
