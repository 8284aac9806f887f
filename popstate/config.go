package main

import (
	"fmt"

	brain "github.com/churchlandlab/pacman_brain_go/pkg"
)

func printConfiguration(config brain.Configuration, logger brain.Logger) {
	logger.Info(fmt.Sprintf("Subject: %s", config.Subject), "config")
	logger.Info(fmt.Sprintf("Session date: %s", config.SessionDate), "config")
	logger.Info(fmt.Sprintf("Store backend: %s", config.StoreBackend), "config")
	logger.Info(fmt.Sprintf("Store path: %s", config.StorePath), "config")
	logger.Info(fmt.Sprintf("Filter params id: %d", config.FilterParamsID), "config")
	logger.Info(fmt.Sprintf("Sample rate: %g", config.SampleRate), "config")
	logger.Info(fmt.Sprintf("Attributes: %v", config.Attributes), "config")
	logger.Info(fmt.Sprintf("Condition order: %v", config.ConditionOrder), "config")
	logger.Info(fmt.Sprintf("Mean center: %t", config.MeanCenter), "config")
	logger.Info(fmt.Sprintf("Normalize: %t", config.Normalize), "config")
	logger.Info(fmt.Sprintf("Soft factor: %g", config.SoftFactor), "config")
	logger.Info(fmt.Sprintf("File out: %s", config.FileOut), "config")
	logger.Info(fmt.Sprintf("Compression level: %d", config.CompressionLevel), "config")
}
