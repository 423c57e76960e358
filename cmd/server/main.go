package main

import "pose-feedback/internal/cli"

func main() {
	cli.Execute()
}
