// pyqck scaffolds Python projects and drives their day-to-day tooling.
package main

import (
	"os"

	"github.com/hupe1980/pyqck/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
