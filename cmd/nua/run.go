package main

import (
	"fmt"

	"github.com/nuavm/nua"
	"github.com/nuavm/nua/object"
	"github.com/nuavm/nua/vm"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run [chunk] [-- args...]",
		Short: "Execute a precompiled chunk",
		Long: `Execute a precompiled chunk and print its results.

Remaining arguments are passed to the chunk as varargs.`,
		RunE: runHandler,
	}
	flags := cmd.Flags()
	flags.Bool("stdin", false, "read the chunk from stdin")
	flags.Bool("no-default-globals", false, "disable the default libraries")
	flags.Bool("strict", false, "reject chunks with a mismatched header")
	flags.Bool("conventional-pcall", false, "make pcall return true and the results on success")
	flags.Int("max-depth", vm.DefaultMaxCallDepth, "maximum call stack depth")
	flags.StringP("output", "o", "", "output format (json, text)")
	viper.BindPFlag("no-default-globals", flags.Lookup("no-default-globals"))
	viper.BindPFlag("strict", flags.Lookup("strict"))
	viper.BindPFlag("conventional-pcall", flags.Lookup("conventional-pcall"))
	viper.BindPFlag("max-depth", flags.Lookup("max-depth"))
	viper.BindPFlag("output", flags.Lookup("output"))
	cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return outputFormatsCompletion, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func getNuaOptions(cmd *cobra.Command) ([]nua.Option, error) {
	logger, err := newLogger()
	if err != nil {
		return nil, err
	}
	vmOpts := []vm.Option{
		vm.WithStdout(cmd.OutOrStdout()),
		vm.WithLogger(logger),
		vm.WithMaxCallDepth(viper.GetInt("max-depth")),
	}
	if viper.GetBool("conventional-pcall") {
		vmOpts = append(vmOpts, vm.WithConventionalPcall())
	}
	opts := []nua.Option{nua.WithVMOptions(vmOpts...)}
	if viper.GetBool("no-default-globals") {
		opts = append(opts, nua.WithoutDefaultLibraries())
	}
	if viper.GetBool("strict") {
		opts = append(opts, nua.WithStrictHeader())
	}
	return opts, nil
}

func runHandler(cmd *cobra.Command, args []string) error {
	opts, err := getNuaOptions(cmd)
	if err != nil {
		return err
	}
	var chunkArgs, scriptArgs []string
	if dash := cmd.ArgsLenAtDash(); dash >= 0 {
		chunkArgs, scriptArgs = args[:dash], args[dash:]
	} else if len(args) > 0 {
		chunkArgs, scriptArgs = args[:1], args[1:]
	}
	proto, err := readChunk(cmd, chunkArgs, opts...)
	if err != nil {
		return err
	}
	for _, arg := range scriptArgs {
		opts = append(opts, nua.WithArgs(arg))
	}
	results, err := nua.Run(proto, opts...)
	if err != nil {
		return err
	}
	for _, result := range results {
		output, err := getOutput(toGo(result, 0), viper.GetString("output"))
		if err != nil {
			return err
		}
		if output != "" {
			fmt.Fprintln(cmd.OutOrStdout(), output)
		}
	}
	return nil
}

const maxOutputDepth = 32

// toGo converts a result into a value that encodes cleanly as JSON. Tables
// with keys 1..n become slices, tables with string keys become maps, and
// everything else is rendered as text.
func toGo(v object.Value, depth int) any {
	t, ok := v.(*object.Table)
	if !ok {
		if fn, ok := v.(*object.Function); ok {
			return fn.String()
		}
		return object.OrNil(v).Interface()
	}
	if depth >= maxOutputDepth {
		return t.String()
	}
	n := t.Len()
	list := make([]any, 0, n)
	for i := 1; i <= n; i++ {
		item := t.RawGet(object.Number(i))
		if object.IsNil(item) {
			break
		}
		list = append(list, toGo(item, depth+1))
	}
	if len(list) == n {
		return list
	}
	m := make(map[string]any, n)
	mixed := false
	t.Each(func(k, value object.Value) bool {
		s, isString := k.(object.String)
		if !isString {
			mixed = true
			return false
		}
		m[string(s)] = toGo(value, depth+1)
		return true
	})
	if mixed {
		return t.String()
	}
	return m
}
