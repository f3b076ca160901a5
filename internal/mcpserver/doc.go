// Package mcpserver exposes label analysis and scan history as MCP tools,
// so that assistants can analyze an ingredient list and manage saved scans
// over stdio.
//
// Each tool is a struct with its dependencies injected by constructor,
// a Definition method returning the mcp.Tool schema and a Handle method
// processing one call. Invalid arguments and storage failures are
// returned as tool errors, never as Go errors.
package mcpserver
