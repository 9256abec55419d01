// Command admitweb serves the workbook passes over HTTP with websocket
// progress, review sessions for ambiguous matches and the run ledger.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"admitcli/internal/app"
	"admitcli/internal/infrastructure"
	"admitcli/pkg/contracts"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetFullVersionString(app.AppName))
		return
	}

	application, err := app.NewApplication(context.Background(), *configPath)
	if err != nil {
		slog.Error("Failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	if err := application.Run(); err != nil {
		slog.Error("Application error", slog.String("error", err.Error()))
		infrastructure.CloseLogFile()
		os.Exit(1)
	}
}
