// Package common provides shared constants, types, utilities, and interfaces
// used throughout the VPN Tray application.
//
// This package serves as the foundation for cross-cutting concerns:
//
//   - Constants: Application-wide defaults like poll interval, action timeout and scrollback
//   - Errors: Sentinel errors for consistent error handling across packages
//   - Interfaces: Abstractions for logging and desktop notifications
//   - Logger: Leveled logging with optional rotated file output
//   - Utils: Executable checks, tool lookup and ID generation
//
// # Usage
//
//	timeout := common.ActionTimeout
//
//	common.LogInfo("Submitting %s", title)
//
//	if errors.Is(err, common.ErrNotExecutable) {
//	    // Tool path misconfigured
//	}
package common
