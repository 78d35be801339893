// Command grantforms serves the energy-grant lead forms over HTTP and offers
// terminal tooling around the same definitions.
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "grantforms:", err)
		os.Exit(1)
	}
}
