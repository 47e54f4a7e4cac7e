package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/viper"
	"golang.org/x/term"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/fivetwenty-io/jsonplaceholder-client/internal/constants"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jphclient"
	"github.com/fivetwenty-io/jsonplaceholder-client/pkg/jsonph"
)

// OutputKey is the viper key holding the --output flag.
const OutputKey = "output"

// ClientFactory builds the client used by every command. Tests replace it.
var ClientFactory = func() (jsonph.Client, error) {
	return jphclient.NewFromViper(viper.GetViper())
}

// stdoutIsTerminal reports whether stdout is attached to a terminal.
var stdoutIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// outputFormat resolves --output. When unset, tables are rendered on a
// terminal and JSON otherwise.
func outputFormat() (string, error) {
	format := strings.ToLower(viper.GetString(OutputKey))

	switch format {
	case "":
		if stdoutIsTerminal() {
			return constants.FormatTable, nil
		}

		return constants.FormatJSON, nil
	case constants.FormatTable, constants.FormatJSON, constants.FormatYAML:
		return format, nil
	default:
		return "", fmt.Errorf("%w: %q", constants.ErrInvalidOutput, format)
	}
}

// render writes data as JSON or YAML, or calls table for table output.
func render(out io.Writer, data interface{}, table func(*tablewriter.Table) error) error {
	format, err := outputFormat()
	if err != nil {
		return err
	}

	switch format {
	case constants.FormatJSON:
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", strings.Repeat(" ", constants.JSONIndentSize))

		return encoder.Encode(data)
	case constants.FormatYAML:
		encoder := yaml.NewEncoder(out)
		defer func() { _ = encoder.Close() }()

		return encoder.Encode(data)
	default:
		t := tablewriter.NewWriter(out)

		err := table(t)
		if err != nil {
			return err
		}

		err = t.Render()
		if err != nil {
			return fmt.Errorf("failed to render table: %w", err)
		}

		return nil
	}
}

// parsePostID parses a positional post ID.
func parsePostID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("%w: %q", constants.ErrInvalidPostID, arg)
	}

	return id, nil
}

// TruncateString truncates a string to a specified length with ellipsis.
func TruncateString(s string, maxLength int) string {
	runes := []rune(s)
	if len(runes) <= maxLength {
		return s
	}

	return string(runes[:maxLength-3]) + "..."
}

// humanizeKey turns "cache.redis.host" into "Cache Redis Host".
func humanizeKey(key string) string {
	replacer := strings.NewReplacer(".", " ", "_", " ")

	return cases.Title(language.English).String(replacer.Replace(key))
}

func withClient(fn func(client jsonph.Client) error) error {
	client, err := ClientFactory()
	if err != nil {
		return err
	}

	defer func() { _ = client.Close() }()

	return fn(client)
}
