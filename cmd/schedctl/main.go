// Command schedctl runs maintenance and reporting tasks against the
// scheduler database without going through the HTTP API.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
