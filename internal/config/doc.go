// Package config loads admitcli configuration.
//
// Sources are applied in increasing precedence:
//
//  1. Default values
//  2. YAML file (config.yaml, configs/config.yaml, or ADMIT_CONFIG)
//  3. .env in the working directory
//  4. ADMIT_* environment variables
//
// Nested sections map to underscored names:
//
//	ADMIT_SERVER_PORT=9090
//	ADMIT_ENGINE_CHUNK_SIZE=500
//	ADMIT_REFERENCES_SCHOOL_FILE=refs/schools.xlsx
//	ADMIT_LEDGER_DRIVER=postgres
//	ADMIT_LEDGER_DSN=postgres://admit@localhost/admit?sslmode=disable
package config
