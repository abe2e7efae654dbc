package config

// ExampleConfig returns an example configuration showing all available options.
func ExampleConfig() string {
	return `# taxocard configuration file
# Values can be overridden by TAXOCARD_* environment variables or CLI flags

# Edit configurations, one {taxoid}_{instrumentid}.json per card
config_dir = "configs"

# Accepted cards, one {taxoid}_{instrumentid}.html per card
card_dir = "cards"

# Cards dropped here are validated and stored by "taxocard watch"
inbox_dir = "inbox"

# Cards validated concurrently by "taxocard validate" (0 = unlimited)
workers = 4

# Maximum curve segments in a spline path
max_spline_segments = 16

# Serve Prometheus metrics while watching, e.g. ":9464" (empty = off)
metrics_addr = ""

# Quiet period before a changed inbox file is submitted (milliseconds)
watch_debounce_ms = 200

# Logging
log_level = "info"      # debug, info, warn, error
log_format = "text"     # text, json, logfmt
log_timestamps = false
log_caller = false
`
}
