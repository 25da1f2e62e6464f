// Version command for the matterhub CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is stamped by the release build; the default marks a source
// build.
var Version = "dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the matterhub version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("matterhub", Version)
	},
}
