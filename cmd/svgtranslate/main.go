package main

import "svgtranslate/internal/cli"

func main() {
	cli.Execute()
}
