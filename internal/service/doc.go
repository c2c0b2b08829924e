// Package service provides the service registry behind /services.
//
// The registry maintains a catalog of service providers (the terminal tool
// provider among them) and handles discovery, tool execution, and relevance
// scoring for assistant queries.
//
// Discovery Algorithm:
//   - Keyword matching in name/description
//   - Capability matching
//   - Category bonus for exact matches
//   - Score-based ranking
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(terminalProvider)
//	services := registry.Discover("run a shell command", 5)
//	result, err := registry.Execute(ctx, "terminal.run_command", params, appCtx)
package service
