package main

import (
	"os"

	"github.com/vietdv277/geowalk/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
