package main

import "github.com/agentic-research/sitemap/cmd"

func main() {
	cmd.Execute()
}
