package main

import (
	"fmt"
	"os"
)

func main() {
	if err := buildRootCmd(&settings{}).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
