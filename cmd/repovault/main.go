package main

import (
	"github.com/repovault/repovault/pkg/cli/cmd"
)

func main() {
	cmd.Execute()
}
