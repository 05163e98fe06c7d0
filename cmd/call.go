package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/shiroyk/embedjs/js"
	"github.com/spf13/cast"
	"github.com/spf13/cobra"
)

const (
	defaultSource = "function foo(x, y) { return x + y; }"
	defaultFunc   = "foo"
)

var (
	sourceArg string
	funcArg   string
)

var callCmd = &cobra.Command{
	Use:   "call [ARG...]",
	Short: "call a JavaScript function with arguments from the host",
	Example: `  embedjs call
  embedjs call --source 'function mul(a, b) { return a * b }' --func mul 6 7`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 && !cmd.Flags().Changed("source") {
			args = []string{"5", "3"}
		}
		ctx, cancel := runContext(cmd)
		defer cancel()
		return call(ctx, newVM(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr(), sourceArg, funcArg, args)
	},
}

func init() {
	callCmd.Flags().StringVar(&sourceArg, "source", defaultSource, "the script defines the function")
	callCmd.Flags().StringVar(&funcArg, "func", defaultFunc, "the global function name to call")
	rootCmd.AddCommand(callCmd)
}

// call evaluates the source then calls the global function name,
// the result is printed as int32.
func call(ctx context.Context, vm js.VM, stdout, stderr io.Writer, source, name string, args []string) error {
	if _, err := vm.RunString(ctx, source); err != nil {
		_, _ = fmt.Fprintln(stderr, exception(err))
		return &exitError{code: 255, err: err}
	}

	values := make([]any, len(args))
	for i, arg := range args {
		values[i] = marshalArg(arg)
	}

	result, err := vm.Call(ctx, name, values...)
	if err != nil {
		_, _ = fmt.Fprintln(stderr, exception(err))
		return &exitError{code: 1, err: err}
	}
	_, _ = fmt.Fprintf(stdout, "Result: %d\n", js.ToInt32(result))
	return nil
}

// marshalArg converts the command line argument to a decimal integer,
// a float or a boolean, otherwise keeps the string.
func marshalArg(arg string) any {
	if i, err := strconv.ParseInt(arg, 10, 64); err == nil {
		return i
	}
	if f, err := cast.ToFloat64E(arg); err == nil {
		return f
	}
	if arg == "true" || arg == "false" {
		return cast.ToBool(arg)
	}
	return arg
}
