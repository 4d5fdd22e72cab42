package main

import "github.com/pfrederiksen/bts-board/internal/cli"

func main() {
	cli.Execute()
}
