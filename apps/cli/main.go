package main

import (
	"fmt"
	"os"

	"github.com/meridianiot/meridian/apps/cli/root"

	_ "github.com/meridianiot/meridian/apps/cli/cmd/alerting"
	_ "github.com/meridianiot/meridian/apps/cli/cmd/tenant"
)

func main() {
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
