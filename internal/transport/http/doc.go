// Package http implements the HTTP handlers of the dashboard service.
// Handlers stay thin: they parse the request, call the dashboard service
// and format the response.
//
// # Routes
//
//	GET  /api/dashboard/controls            selector options
//	GET  /api/dashboard/summary             dataset summary
//	GET  /api/dashboard/makes/{make}/models map model options
//	GET  /api/dashboard/{view}              one descriptive view
//	GET  /api/regression/report             published regression models
//	POST /api/regression/fit                live refit
//	GET  /api/export/{view}.csv             view as CSV
//	GET  /api/export/workbook.xlsx          every view as one workbook
//	POST /api/logs                          client-side log entries
//
// # Responses
//
// Successful JSON responses use the envelope
//
//	{"status": "success", "data": ...}
//
// Errors follow RFC 7807 and are written by errors.ErrorHandler:
//
//	{
//	    "type": "/errors/validation",
//	    "title": "Bad Request",
//	    "status": 400,
//	    "detail": "Request validation failed",
//	    "instance": "/api/dashboard/categories",
//	    "error_code": "VALIDATION_FAILED",
//	    "details": {"errors": [{"field": "direction", "message": "..."}]},
//	    "trace_id": "..."
//	}
//
// Selections are validated before they reach the service by
// middleware.SelectionValidator, passed to the handlers as plain middleware.
package http
