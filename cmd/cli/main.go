package main

import "socialhub/cmd/cli/command"

func main() {
	command.Execute()
}
