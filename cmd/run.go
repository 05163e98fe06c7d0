package cmd

import (
	"context"
	"fmt"
	"io"
	"path/filepath"

	"github.com/grafana/sobek"
	"github.com/shiroyk/embedjs/js"
	"github.com/shiroyk/embedjs/modules"
	"github.com/shiroyk/embedjs/modules/rand"
	_ "github.com/shiroyk/embedjs/modules/timers"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run FILE...",
	Short: "run module files with the rand module",
	Long: `Run each file as an ES module within one VM.

The native module "rand" is available to import:

	import { Mt19937 } from "rand";
	console.log(new Mt19937().generate());

If the default export is a function, it is called and the result is printed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := runContext(cmd)
		defer cancel()
		return run(ctx, newVM(cmd), cmd.OutOrStdout(), cmd.ErrOrStderr(), args)
	},
}

func init() {
	modules.Register("rand", new(rand.Rand))
	rootCmd.AddCommand(runCmd)
}

// run evaluates each file as a module, it stops at the first error.
func run(ctx context.Context, vm js.VM, stdout, stderr io.Writer, files []string) error {
	for _, file := range files {
		path, err := filepath.Abs(file)
		if err != nil {
			return &exitError{code: 1, err: err}
		}
		module, err := js.ImportModule(path)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, exception(err))
			return &exitError{code: 1, err: fmt.Errorf("%s: %w", file, err)}
		}
		value, err := vm.RunModule(ctx, module)
		if err != nil {
			_, _ = fmt.Fprintln(stderr, exception(err))
			return &exitError{code: 1, err: err}
		}
		if value == nil || sobek.IsUndefined(value) || !isFunc(vm, module) {
			continue
		}
		_, _ = fmt.Fprintln(stdout, value.String())
	}
	return nil
}

// isFunc reports whether the default export of the module is a function.
func isFunc(vm js.VM, module sobek.CyclicModuleRecord) bool {
	instance := vm.Runtime().GetModuleInstance(module)
	if instance == nil {
		return false
	}
	_, ok := sobek.AssertFunction(instance.GetBindingValue("default"))
	return ok
}
