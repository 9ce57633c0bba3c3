package main

import "github.com/amterp/tally/internal/cli"

func main() {
	cli.Run()
}
