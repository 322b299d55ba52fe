package main

import "github.com/mcoot/crcon-linkbot/internal/cli"

func main() {
	cli.Execute()
}
