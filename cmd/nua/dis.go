package main

import (
	"fmt"

	"github.com/nuavm/nua/dis"
	"github.com/spf13/cobra"
)

func newDisCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dis [chunk]",
		Short: "Disassemble a precompiled chunk",
		Args:  cobra.MaximumNArgs(1),
		RunE:  disHandler,
	}
	cmd.Flags().Bool("stdin", false, "read the chunk from stdin")
	cmd.Flags().Bool("json", false, "print the listing as JSON")
	cmd.Flags().Int("func", -1, "only disassemble the function with this index (0 is the main chunk)")
	return cmd
}

func disHandler(cmd *cobra.Command, args []string) error {
	proto, err := readChunk(cmd, args)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	index, _ := cmd.Flags().GetInt("func")
	asJSON, _ := cmd.Flags().GetBool("json")

	if index >= 0 || asJSON {
		functions, err := dis.DisassembleAll(proto)
		if err != nil {
			return err
		}
		var selected any = functions
		if index >= 0 {
			if index >= len(functions) {
				return fmt.Errorf("function %d not found (chunk has %d)", index, len(functions))
			}
			if !asJSON {
				return dis.Print(functions[index].Instructions, out)
			}
			selected = functions[index]
		}
		data, err := getOutputJSON(selected)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	return dis.Fprint(out, proto)
}
