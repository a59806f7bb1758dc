package main

import "ai-tutor-be/internal/cli"

func main() {
	cli.Execute()
}
