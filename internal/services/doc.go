// Package services implements the business logic layer of the dashboard.
// It sits between the HTTP and websocket handlers and the analysis packages,
// so both transports answer a selection with exactly the same payload.
//
// # Available Services
//
//	- DashboardService: controls, summary, the five descriptive views,
//	  the regression report and live fit, and exports
//	- HealthService: liveness, readiness and version information
//
// # Error Handling
//
// Services return the analysis sentinels unchanged so handlers can map
// them: analysis.ErrInvalidSelection and analysis.ErrUnknownModel become
// validation failures, analysis.ErrUnknownMake becomes a validation failure
// on view routes and not found on the model options route, ErrUnknownView
// is not found, ErrLiveRegressionDisabled is service unavailable.
package services
