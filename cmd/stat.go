package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statCmd = &cobra.Command{
	Use:   "stat",
	Short: "Print aggregate checkpoint-file counters",
	RunE: func(cmd *cobra.Command, args []string) error {
		cp, store, err := openCpfile()
		if err != nil {
			return err
		}
		defer store.Close()

		stat, err := cp.GetStat()
		if err != nil {
			return err
		}

		fmt.Printf("next_cno:     %d\n", stat.Cno)
		fmt.Printf("ncheckpoints: %d\n", stat.Ncps)
		fmt.Printf("nsnapshots:   %d\n", stat.Nsss)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statCmd)
}
