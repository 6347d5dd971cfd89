// Package utils exposes reusable helpers consumed by the fleet commands.
//
// It houses ConfigurationLoader and LoggerFactory, which integrate Viper,
// environment variables, and zap logging for the CLI, together with the
// command context accessor and a flushing writer used for report output.
package utils
