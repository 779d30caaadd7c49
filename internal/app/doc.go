// Package app wires the dashboard together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration from .env, environment and an optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Load and clean the sales dataset (failure is fatal)
//	4. Build the dashboard, health and websocket services around the table
//	5. Set up middleware and routes
//	6. Create the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Tests build the application from an explicit configuration with New.
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM: the server stops accepting requests and
// drains active ones, websocket sessions are closed, telemetry is flushed
// and the log file is closed. The package never calls os.Exit.
package app
