package main

import "github.com/conorfennell/wordhash/internal/cli"

func main() {
	cli.Execute()
}
