package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/js"
	"github.com/spf13/cobra"
)

var evalCmd = &cobra.Command{
	Use:   "eval EXPR...",
	Short: "evaluate expressions in order within one VM",
	Example: `  embedjs eval 'const a = 40' 'a + 2'
  embedjs eval 'console.log("hello")'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runContext(cmd)
		defer cancel()
		return eval(ctx, newVM(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func init() {
	rootCmd.AddCommand(evalCmd)
}

// eval runs each expression as a script, the results which are not
// undefined are printed. It stops at the first exception.
func eval(ctx context.Context, vm js.VM, stdout, stderr io.Writer, exprs []string) error {
	for _, expr := range exprs {
		value, err := vm.RunString(ctx, expr)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, exception(err))
			return &exitError{code: 1, err: err}
		}
		if value != nil && !sobek.IsUndefined(value) {
			_, _ = fmt.Fprintln(stdout, value.String())
		}
	}
	return nil
}
