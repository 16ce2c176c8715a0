package engine

import (
	"strconv"
	"strings"

	"github.com/ryarnyah/collectd-wasm/errors"
)

// options is the parsed form of the accumulated runtime option strings.
type options struct {
	interpreter      bool
	memoryLimitPages uint32
	cacheDir         string
	wasi             bool
}

func defaultOptions() options {
	return options{wasi: true}
}

// parseOptions folds a list of option strings into an options value.
// Later options override earlier ones. Unknown options and malformed
// values are rejected; runtime creation must not proceed on guesswork.
func parseOptions(args []string) (options, error) {
	opts := defaultOptions()

	for _, arg := range args {
		key, value, hasValue := strings.Cut(strings.TrimSpace(arg), "=")

		switch key {
		case "interpreter":
			if hasValue {
				return opts, errors.Runtime(errors.PhaseInit, nil, "option %q takes no value", key)
			}
			opts.interpreter = true
		case "compiler":
			if hasValue {
				return opts, errors.Runtime(errors.PhaseInit, nil, "option %q takes no value", key)
			}
			opts.interpreter = false
		case "memory-limit-pages":
			n, err := strconv.ParseUint(value, 10, 32)
			if err != nil || n == 0 {
				return opts, errors.Runtime(errors.PhaseInit, err, "invalid memory-limit-pages %q", value)
			}
			opts.memoryLimitPages = uint32(n)
		case "cache-dir":
			if value == "" {
				return opts, errors.Runtime(errors.PhaseInit, nil, "cache-dir requires a path")
			}
			opts.cacheDir = value
		case "wasi":
			switch value {
			case "on":
				opts.wasi = true
			case "off":
				opts.wasi = false
			default:
				return opts, errors.Runtime(errors.PhaseInit, nil, "invalid wasi setting %q", value)
			}
		case "":
			// Empty option strings are tolerated.
		default:
			return opts, errors.Runtime(errors.PhaseInit, nil, "unknown runtime option %q", key)
		}
	}

	return opts, nil
}
