// Package config provides configuration loading for the car sales dashboard.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables, including those read from an optional .env file
//	2. A YAML configuration file (config.yaml, configs/config.yaml or CARSALES_CONFIG_FILE)
//	3. Default values declared in struct tags
//
// # Environment Variables
//
// All environment variables use the CARSALES_ prefix followed by the section name:
//
//	CARSALES_SERVER_PORT=8080
//	CARSALES_DATASET_PATH=data/car_prices.csv
//	CARSALES_LOGGING_LEVEL=debug
//	CARSALES_TELEMETRY_TRACE_EXPORTER=stdout
//	CARSALES_REGRESSION_SEED=7
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return fmt.Errorf("failed to load configuration: %w", err)
//	}
//	table, err := dataset.Load(ctx, cfg.DatasetPath(), dataset.Options{})
package config
