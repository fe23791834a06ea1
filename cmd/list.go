package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nilfs-go/cpfile/internal/types"
)

var listMax int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List checkpoints or snapshots",
}

var listCheckpointsCmd = &cobra.Command{
	Use:   "checkpoints",
	Short: "Enumerate checkpoint entries",
	RunE: func(cmd *cobra.Command, args []string) error {
		cp, store, err := openCpfile()
		if err != nil {
			return err
		}
		defer store.Close()

		cursor := types.Cno(1)
		for {
			infos, err := cp.GetCpinfo(&cursor, types.CpinfoCheckpoint, listMax)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return nil
			}
			for _, info := range infos {
				printCpinfo(info)
			}
		}
	},
}

var listSnapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Walk the snapshot list",
	RunE: func(cmd *cobra.Command, args []string) error {
		cp, store, err := openCpfile()
		if err != nil {
			return err
		}
		defer store.Close()

		cursor := types.CnoNone
		for {
			infos, err := cp.GetCpinfo(&cursor, types.CpinfoSnapshot, listMax)
			if err != nil {
				return err
			}
			if len(infos) == 0 {
				return nil
			}
			for _, info := range infos {
				printCpinfo(info)
			}
			if cursor == types.CnoIterEnd {
				return nil
			}
		}
	},
}

func printCpinfo(info types.Cpinfo) {
	fmt.Printf("cno=%d flags=%#x create_time=%d nblk_inc=%d inodes=%d blocks=%d\n",
		info.Cno, uint32(info.Flags), info.CreateTime, info.NblkInc, info.InodesCount, info.BlocksCount)
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.AddCommand(listCheckpointsCmd, listSnapshotsCmd)
	listCmd.PersistentFlags().IntVar(&listMax, "max", 32, "max entries per get_cpinfo call")
}
