package main

import "github.com/jasperwreed/pixel-chat/internal/cli"

func main() {
	cli.Execute()
}
