// Package logx configures rtsampler's structured logging.
//
// It is a small wrapper (logx.Logger) on top of zerolog that keeps:
//   - Console output readable (short timestamp + short caller)
//   - JSON output available for captures and log shippers
//   - Level and format swappable at runtime (Service.Apply)
package logx
