// Package cli implements the intentcheck command line.
//
// Every subcommand shares the root's persistent flags: --config selects the
// configuration file, --log-level overrides log.level, --output picks text,
// json or yaml, and --color controls colored text output. Logs are written to
// stderr; command output goes to stdout.
package cli
