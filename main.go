package main

import "github.com/robalobadob/motmystere/internal/cli"

func main() {
	cli.Execute()
}
