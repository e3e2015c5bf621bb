package main

import "github.com/sadopc/taskflow/internal/cli"

func main() {
	cli.Execute()
}
