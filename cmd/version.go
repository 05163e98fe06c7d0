package cmd

import (
	"github.com/spf13/cobra"
)

// Banner the banner
const Banner = `
                 _              _   _     
   ___ _ __ ___ | |__   ___  __| | (_)___ 
  / _ \ '_ ` + "`" + ` _ \| '_ \ / _ \/ _` + "`" + ` | | / __|
 |  __/ | | | | | |_) |  __/ (_| | | \__ \
  \___|_| |_| |_|_.__/ \___|\__,_|_/ |___/
                                 |__/     
`

var (
	// Version is the current version.
	Version = "(untracked)"
	// CommitSHA is the commit sha.
	CommitSHA = "(unknown)"
)

func init() {
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("%v\n embedjs %v/%v\n", Banner, Version, CommitSHA)
		},
	})
}
