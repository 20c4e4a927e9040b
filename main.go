package main

import "github.com/vannyda/melo/internal/cli"

func main() {
	cli.Execute()
}
