package cmd

import (
	"slices"

	"github.com/shiroyk/embedjs/modules"
	"github.com/shiroyk/embedjs/plugin"
	"github.com/spf13/cobra"
)

var pluginCmd = &cobra.Command{
	Use:   "plugin",
	Short: "manage native module plugins",
}

var pluginLoadCmd = &cobra.Command{
	Use:   "load DIR",
	Short: "load the plugins in the directory and list the modules",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		size, err := plugin.LoadDir(args[0])
		cmd.Printf("loaded %d plugin(s)\n", size)
		listModules(cmd)
		return err
	},
}

var pluginListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "list the registered modules",
	Run: func(cmd *cobra.Command, _ []string) {
		listModules(cmd)
	},
}

func listModules(cmd *cobra.Command) {
	names := make([]string, 0)
	for name, mod := range modules.All() {
		if _, ok := mod.(modules.Global); ok {
			name += " (global)"
		}
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		cmd.Println(name)
	}
}

func init() {
	pluginCmd.AddCommand(pluginLoadCmd, pluginListCmd)
	rootCmd.AddCommand(pluginCmd)
}
