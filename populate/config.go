package main

import (
	"fmt"

	brain "github.com/churchlandlab/pacman_brain_go/pkg"
)

func printConfiguration(config brain.Configuration, logger brain.Logger) {
	logger.Info(fmt.Sprintf("Subject: %s", config.Subject), "config")
	logger.Info(fmt.Sprintf("Session date: %s", config.SessionDate), "config")
	logger.Info(fmt.Sprintf("No DB: %t", config.NoDB), "config")
	if config.NoDB {
		logger.Info(fmt.Sprintf("Source file: %s", config.SourceFile), "config")
	} else {
		logger.Info(fmt.Sprintf("Host: %s:%d", config.Host, config.Port), "config")
		logger.Info(fmt.Sprintf("DB name: %s", config.DBName), "config")
	}
	logger.Info(fmt.Sprintf("Store backend: %s", config.StoreBackend), "config")
	logger.Info(fmt.Sprintf("Store path: %s", config.StorePath), "config")
	logger.Info(fmt.Sprintf("Good trials only: %t", config.GoodTrialsOnly), "config")
	logger.Info(fmt.Sprintf("Number of workers: %d", config.NumWorkers), "config")
	logger.Info(fmt.Sprintf("Verbosity: %d", config.Verbosity), "config")
}
