package resources

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"
	"sigs.k8s.io/yaml"

	"github.com/dealerops/dealerctl/internal/dealer"
)

const (
	SetFlagName      = "set"
	FilenameFlagName = "filename"
	FilenameShort    = "f"
)

// AddInputFlags registers the flags create and update read field values from.
func AddInputFlags(flags *pflag.FlagSet) {
	flags.StringArray(SetFlagName, nil,
		`Set a field value, e.g. --set chassis_no=CH-001. May be repeated.`)
	flags.StringP(FilenameFlagName, FilenameShort, "",
		`Read field values from a yaml or json file, or '-' for stdin. --set values take precedence.`)
}

// ReadInput merges the file named by --filename with the --set pairs.
func ReadInput(flags *pflag.FlagSet, stdin io.Reader) (dealer.Input, error) {
	input := dealer.Input{}

	filename, err := flags.GetString(FilenameFlagName)
	if err != nil {
		return nil, err
	}
	if filename != "" {
		fromFile, err := ReadInputFile(filename, stdin)
		if err != nil {
			return nil, err
		}
		for k, v := range fromFile {
			input[k] = v
		}
	}

	pairs, err := flags.GetStringArray(SetFlagName)
	if err != nil {
		return nil, err
	}
	set, err := ParseSet(pairs)
	if err != nil {
		return nil, err
	}
	for k, v := range set {
		input[k] = v
	}
	return input, nil
}

// ParseSet turns key=value pairs into input. An empty value clears the field.
func ParseSet(pairs []string) (dealer.Input, error) {
	input := make(dealer.Input, len(pairs))
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --%s value %q, expected key=value", SetFlagName, pair)
		}
		input[key] = value
	}
	return input, nil
}

// ReadInputFile decodes a yaml or json mapping of field values.
func ReadInputFile(path string, stdin io.Reader) (dealer.Input, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var input dealer.Input
	if err := yaml.Unmarshal(data, &input); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if input == nil {
		input = dealer.Input{}
	}
	return input, nil
}
