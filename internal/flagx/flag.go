// Package flagx holds the small helpers both binaries use to layer their
// configuration: picking a subset of command-line flags, locating the JSON
// config file and overlaying CHITCHAT_* environment variables.
package flagx

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// FilterArgs returns the arguments from args that belong to one of
// allowedFlags, together with their values.
//
// Supported forms:
//
//	-c conf.json
//	--config=conf.json
//
// A value is only consumed when the next token does not start with '-'.
// The result is never nil.
func FilterArgs(args []string, allowedFlags []string) []string {
	allowed := make(map[string]struct{}, len(allowedFlags))
	for _, f := range allowedFlags {
		allowed[f] = struct{}{}
	}

	filtered := make([]string, 0, len(args))

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if strings.HasPrefix(arg, "-") && strings.Contains(arg, "=") {
			name := strings.SplitN(arg, "=", 2)[0]
			if _, ok := allowed[name]; ok {
				filtered = append(filtered, arg)
			}
			continue
		}

		if _, ok := allowed[arg]; ok {
			filtered = append(filtered, arg)
			if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
				filtered = append(filtered, args[i+1])
				i++
			}
		}
	}

	return filtered
}

// JsonConfigFlags extracts the config file path given via -c or -config
// from the process arguments. It returns "" when neither is present.
func JsonConfigFlags() string {
	return JsonConfigPath(os.Args[1:])
}

// JsonConfigPath is JsonConfigFlags over an explicit argument list.
func JsonConfigPath(args []string) string {
	var config string

	filtered := FilterArgs(args, []string{"-c", "-config"})

	fs := flag.NewFlagSet("json", flag.ContinueOnError)
	fs.StringVar(&config, "config", "", "Path to config file")
	fs.StringVar(&config, "c", "", "Path to config file (short)")
	_ = fs.Parse(filtered)

	return config
}

// EnvString overwrites *dst with the value of the environment variable
// name when it is set and non-empty.
func EnvString(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok && v != "" {
		*dst = v
	}
}

// EnvInt parses the environment variable name into *dst.
func EnvInt(name string, dst *int) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = n
	return nil
}

// EnvDuration parses the environment variable name (e.g. "15m") into *dst.
func EnvDuration(name string, dst *time.Duration) error {
	v, ok := os.LookupEnv(name)
	if !ok || v == "" {
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	*dst = d
	return nil
}
