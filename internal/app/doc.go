// Package app wires the admitweb server: configuration, logging, telemetry,
// the run ledger, the reference lists, the pipeline runner, the websocket
// progress hub and the HTTP handlers.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML, .env and ADMIT_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Open the run ledger and read the reference workbooks
//	4. Build the pipeline runner, websocket hub and review session store
//	5. Set up the router and middleware
//	6. Serve until SIGINT or SIGTERM, then shut down gracefully
//
// # Usage
//
//	application, err := app.NewApplication(ctx, configPath)
//	if err != nil {
//	    return err
//	}
//	return application.Run()
package app
