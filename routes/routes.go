// Package routes wires the HTTP surface of the street-name story service.
//
// Layout:
//   - api.go: /v1 story, gallery, search, export and admin routes, probes
//   - web.go: /, /docs, /status
//
// Usage:
//
//	routes.SetupAllRoutes(router, storyController, adminController)
package routes
