package main

import "github.com/ppiankov/labelsel/internal/cli"

func main() {
	cli.Execute()
}
