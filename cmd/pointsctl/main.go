package main

import "github.com/mcoot/gamepoints/internal/cli"

func main() {
	cli.Execute()
}
