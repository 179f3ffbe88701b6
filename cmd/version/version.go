package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/fusionswap/settlement-engine/version"
)

func Cmd() *cobra.Command {
	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version of the settlement engine",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.BuildVersion)
		},
	}
	return versionCmd
}
