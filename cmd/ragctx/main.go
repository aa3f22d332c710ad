package main

import (
	"github.com/kailas-cloud/ragctx/internal/cli"
)

func main() {
	cli.Execute()
}
