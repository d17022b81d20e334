// Package main is the entry point for emergency-shutdown.
package main

import (
	"os"
)

func main() {
	os.Exit(Execute())
}
