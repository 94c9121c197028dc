package main

import (
	"os"

	choruscmder "github.com/papercomputeco/chorus/cmd/chorus"
)

func main() {
	cmd := choruscmder.NewChorusCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
