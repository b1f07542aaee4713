package main

import (
	"github.com/spf13/cobra"

	"github.com/yonagi/retroboard/ui"
)

var (
	createRoomName string
	createUserName string
)

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a new retrospective room and open its board",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp()
		if err != nil {
			return err
		}
		return a.runUI(ui.Options{
			Mode:     ui.ModeCreate,
			RoomID:   createRoomName,
			UserName: createUserName,
		})
	},
}

func init() {
	createCmd.Flags().StringVar(&createRoomName, "room", "", "Room name to prefill")
	createCmd.Flags().StringVar(&createUserName, "name", "", "Your display name")
	rootCmd.AddCommand(createCmd)
}
