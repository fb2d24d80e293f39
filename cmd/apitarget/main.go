package main

import (
	"fmt"
	"os"

	"github.com/nojima/apitarget"
)

func main() {
	if err := apitarget.Main(); err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
}
