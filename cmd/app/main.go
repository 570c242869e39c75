package main

import (
	"os"

	"backoffice/internal/adapters/cli"
	"backoffice/internal/logger"
)

func main() {
	if err := cli.NewApp(os.Stdout, nil).Run(os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("command failed")
	}
}
