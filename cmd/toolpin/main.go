package main

import "toolpin/internal/cli"

func main() {
	cli.Execute()
}
