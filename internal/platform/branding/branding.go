// Package branding holds the user-facing product name.
package branding

// AppName is the product name shown to MCP clients and in CLI help.
const AppName = "Sunpi"
