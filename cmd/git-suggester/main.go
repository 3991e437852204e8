package main

import "git-suggester/internal/cli"

func main() {
	cli.Execute()
}
