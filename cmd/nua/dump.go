package main

import (
	"fmt"

	"github.com/nuavm/nua/bytecode"
	"github.com/spf13/cobra"
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump [chunk]",
		Short: "Convert a chunk to another encoding",
		Long: `Convert a chunk to another encoding.

The binary format is the standard precompiled chunk. The json and cbor
formats hold the same prototype tree and can be passed to "nua run".`,
		Args: cobra.MaximumNArgs(1),
		RunE: dumpHandler,
	}
	cmd.Flags().Bool("stdin", false, "read the chunk from stdin")
	cmd.Flags().StringP("format", "f", "json", "output format (binary, json, cbor)")
	cmd.Flags().StringP("out", "o", "", "write to this file instead of stdout")
	return cmd
}

func dumpHandler(cmd *cobra.Command, args []string) error {
	proto, err := readChunk(cmd, args)
	if err != nil {
		return err
	}
	format, _ := cmd.Flags().GetString("format")
	var data []byte
	switch format {
	case "binary":
		data, err = bytecode.Encode(bytecode.DefaultHeader(), proto)
	case "json":
		data, err = bytecode.Marshal(proto)
	case "cbor":
		data, err = bytecode.MarshalCBOR(proto)
	default:
		return fmt.Errorf("unknown dump format: %s", format)
	}
	if err != nil {
		return err
	}
	if path, _ := cmd.Flags().GetString("out"); path != "" {
		return writeFile(path, data)
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
