package cmd

import (
	"errors"
	"os"

	"github.com/shiroyk/embedjs/internal/config"
	"github.com/shiroyk/embedjs/internal/utils"
	"github.com/spf13/cobra"
)

var configGenArg string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "embedjs configuration",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if configGenArg != "" {
			return writeDiskConfig(configGenArg)
		}
		return cmd.Help()
	},
}

func writeDiskConfig(path string) error {
	file, err := utils.ExpandPath(path)
	if err != nil {
		return err
	}
	if _, err = os.Stat(file); !errors.Is(err, os.ErrNotExist) {
		return errors.New("configuration file is already exists")
	}
	return utils.WriteYaml(file, config.DefaultConfig())
}

func init() {
	configCmd.Flags().StringVarP(&configGenArg, "gen", "g", "", "generate default configuration file")
	rootCmd.AddCommand(configCmd)
}
