// Package config provides centralized configuration management for aqicli.
//
// # Configuration Sources
//
// Configuration is assembled in order of increasing precedence:
//
//	1. Built-in defaults (Default)
//	2. A YAML file: $AQ_CONFIG_FILE, ./config.yaml or ./configs/config.yaml
//	3. A .env file in the working directory, then the process environment
//
// # Environment Variables
//
// All variables use the AQ_ prefix and the section name:
//
//	AQ_LOGGING_LEVEL=debug
//	AQ_PROCESSING_REGISTRY=ChinaAQIPoints.xlsx
//	AQ_PROCESSING_DATE_POLICY=lenient
//	AQ_PARTITION_WORKERS=8
//	AQ_STORE_DSN=postgres://...
//
// # Path Management
//
// Paths resolves every configured file relative to a base directory:
//
//	paths, err := config.GetPaths(cfg)
//	stationFile := paths.GetStationPath("beijing")
//	monthFile := paths.GetMonthlyPath(domain.MonthKey{Year: 2014, Month: time.January})
package config
