// Command fscrawler indexes local directory trees into a searchable store.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Bowriverstudio/fscrawler/internal/adapters/driven/config/file"
	"github.com/Bowriverstudio/fscrawler/internal/adapters/driving/cli"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	settingsStore, err := file.NewSettingsStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cli.SetVersion(version)
	cli.SetConfig(&cli.Config{
		Settings:   settingsStore,
		BuildJob:   buildJob,
		OpenStatus: openStatus,
	})

	if err := cli.Execute(context.Background()); err != nil {
		os.Exit(1)
	}
}
