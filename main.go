// The main package for the politeping executable.
package main

import (
	"github.com/politeping/politeping/cmd"
)

func main() {
	cmd.Execute()
}
