package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/hokaccha/go-prettyjson"
	"github.com/mattn/go-isatty"
	"github.com/nuavm/nua"
	"github.com/nuavm/nua/bytecode"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func isTerminal(f *os.File) bool {
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Reads global flags from Viper and adjusts the environment accordingly.
func processGlobalFlags() {
	if viper.GetBool("no-color") || !isTerminal(os.Stdout) {
		color.NoColor = true
	}
}

// readChunk loads a prototype from the path in args[0] or from stdin. Files
// ending in .json or .cbor hold a dumped prototype tree; anything else is a
// binary chunk.
func readChunk(cmd *cobra.Command, args []string, opts ...nua.Option) (*bytecode.Prototype, error) {
	stdin, _ := cmd.Flags().GetBool("stdin")
	if stdin && len(args) > 0 {
		return nil, errors.New("multiple input sources specified")
	}
	if !stdin && len(args) == 0 {
		return nil, errors.New("no input provided")
	}
	var data []byte
	var err error
	var ext string
	if stdin {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(args[0])
		ext = strings.ToLower(filepath.Ext(args[0]))
	}
	if err != nil {
		return nil, err
	}
	switch ext {
	case ".json":
		return bytecode.Unmarshal(data)
	case ".cbor":
		return bytecode.UnmarshalCBOR(data)
	default:
		return nua.Decode(data, opts...)
	}
}

var outputFormatsCompletion = []string{"json", "text"}

func getOutput(result any, format string) (string, error) {
	switch strings.ToLower(format) {
	case "":
		// Print nothing for nil, JSON when the value marshals, and the
		// plain representation otherwise.
		if result == nil {
			return "", nil
		}
		output, err := getOutputJSON(result)
		if err != nil {
			return fmt.Sprintf("%v", result), nil
		}
		return string(output), nil
	case "json":
		output, err := getOutputJSON(result)
		if err != nil {
			return "", err
		}
		return string(output), nil
	case "text":
		if result == nil {
			return "", nil
		}
		return fmt.Sprintf("%v", result), nil
	default:
		return "", fmt.Errorf("unknown output format: %s", format)
	}
}

func getOutputJSON(result any) ([]byte, error) {
	if color.NoColor {
		return json.MarshalIndent(result, "", "  ")
	}
	return prettyjson.Marshal(result)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
