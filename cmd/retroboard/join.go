package main

import (
	"github.com/spf13/cobra"

	"github.com/yonagi/retroboard/ui"
)

var joinUserName string

var joinCmd = &cobra.Command{
	Use:   "join [room-id]",
	Short: "Join a retrospective room",
	Long: `Join opens the board for a room. With a room id it first tries to
restore the previous session silently; the join form only appears when
no stored session works for that room.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		roomID := ""
		if len(args) == 1 {
			roomID = args[0]
		}
		return a.runUI(ui.Options{
			Mode:     ui.ModeJoin,
			RoomID:   roomID,
			UserName: joinUserName,
		})
	},
}

func init() {
	joinCmd.Flags().StringVar(&joinUserName, "name", "", "Your display name")
	rootCmd.AddCommand(joinCmd)
}
