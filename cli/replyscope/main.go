package main

import (
	"os"

	replyscopecmder "github.com/replyscope/replyscope/cmd/replyscope"
)

func main() {
	cmd := replyscopecmder.NewReplyscopeCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
