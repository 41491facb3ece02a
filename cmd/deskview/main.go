package main

import (
	"deskview/cmd/cli"
)

func main() {
	cli.Execute()
}
