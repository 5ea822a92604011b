package main

import (
	// Embedded zone database so app.timezone resolves on minimal images.
	_ "time/tzdata"

	"github.com/ogulcanaydogan/wattsense/internal/cli"
)

func main() {
	cli.Execute()
}
