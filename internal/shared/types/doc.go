// Package types provides shared data structures for the terminal backend.
//
// Core Types:
//   - Service: Service provider definition
//   - Tool: Service tool definition
//   - Context: Execution context for operations
//   - Result: Standard operation result
//
// Request Types:
//   - CreateSessionRequest, CommandRequest, InputRequest, ResizeRequest,
//     CommandEndRequest: terminal HTTP bodies
//   - ExecuteRequest, DiscoverRequest: service tool execution
//   - WSMessage: WebSocket communication
package types
