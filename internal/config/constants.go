package config

import "time"

// Application constants
const (
	// Application Info
	AppName    = "Car Sales Pulse"
	AppVersion = "1.0.0"
	RepoURL    = "https://github.com/carsales/carsales"

	// Network Timeouts
	DefaultHTTPTimeout = 30 * time.Second
	ReadinessTimeout   = 2 * time.Second

	// Export file names
	WorkbookFileName = "dashboard.xlsx"
	CleanedFileName  = "cleaned_sales.csv"

	// Content types served by the export routes
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// URLs and Endpoints
const (
	APIBasePath        = "/api"
	DashboardEndpoint  = "/api/dashboard"
	RegressionEndpoint = "/api/regression"
	ExportEndpoint     = "/api/export"
	HealthEndpoint     = "/health"
	VersionEndpoint    = "/version"
	MetricsEndpoint    = "/metrics"
	WebSocketEndpoint  = "/ws"
)
