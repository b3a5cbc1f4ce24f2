package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
)

const (
	ModeTracking = "tracking-service"
)

// modeAliases maps every accepted spelling to its canonical mode name.
var modeAliases = map[string]string{
	ModeTracking: ModeTracking,
	"tracking":   ModeTracking,
	"t":          ModeTracking,
}

// ParseMode extracts the service mode from args and returns the remaining
// flags untouched. Accepted forms:
//
//	--mode=<value>
//	<value> as a bare subcommand, e.g. `tracking-service --max-concurrent=500`
func ParseMode(args []string) (string, []string, error) {
	var mode string
	var rest []string

	for _, arg := range args {
		if val, ok := strings.CutPrefix(arg, "--mode="); ok {
			mode = val
			continue
		}
		if mode == "" {
			if canonical, ok := modeAliases[arg]; ok {
				mode = canonical
				continue
			}
		}
		rest = append(rest, arg)
	}

	if mode == "" {
		return "", rest, errors.New("no mode specified: use --mode=<service>")
	}
	canonical, ok := modeAliases[mode]
	if !ok {
		return "", rest, fmt.Errorf("unknown mode %q", mode)
	}
	return canonical, rest, nil
}

const usageText = `Usage:
  ./geotrack-backend --mode=<service> [flags]

Services (modes):
  tracking-service             Real-time location tracking over WebSocket

Examples:
  ./geotrack-backend --mode=tracking-service --max-concurrent=500
  ./geotrack-backend tracking --prefetch=10 --max-concurrent=500`

// PrintUsage writes the top-level usage block, colorized for terminals.
func PrintUsage(w io.Writer) {
	fmt.Fprintf(w, "\033[36m%s\033[0m\n", usageText)
}

// AttachUsage wires a concise per-mode usage to a FlagSet.
func AttachUsage(fs *flag.FlagSet, mode string) {
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: ./geotrack-backend --mode=%s [flags]\n", mode)
		fs.PrintDefaults()
	}
}
