package main

import "github.com/timebot/timebot-cli/cmd"

func main() {
	cmd.Execute()
}
