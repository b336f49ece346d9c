package main

import (
	"context"
	"os"

	"github.com/terraincognita07/rehab360/internal/cli"
)

func main() {
	os.Exit(cli.Execute(context.Background(), cli.StandardStreams(), os.Args[1:]))
}
