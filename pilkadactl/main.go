package main

import (
	"os"
)

func main() {
	if err := newRootCmd(newService).Execute(); err != nil {
		os.Exit(1)
	}
}
