package meta

const (
	// CLIName is the binary name used in help text, config paths and env var prefixes.
	CLIName = "dealerctl"

	// EnvPrefix prefixes every environment variable read by the CLI.
	EnvPrefix = "DEALERCTL"
)
