package main

import "github.com/pfrederiksen/connpass-attendance/internal/cli"

func main() {
	cli.Execute()
}
