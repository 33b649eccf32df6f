// Package app assembles a command run: validated configuration, resolved
// paths, the process logger and telemetry.
//
// Both commands follow the same shape:
//
//	application, err := app.NewApplication(cfg)
//	defer application.Shutdown()
//	state, err := application.Run(ctx, operations.RegistryPipeline(application.Dependencies()), months)
package app
