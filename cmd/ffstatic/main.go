package main

import "ffstatic/internal/cli"

func main() {
	cli.Execute()
}
