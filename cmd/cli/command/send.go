package command

// send.go is a development helper that publishes a notification to another
// user through the backend, so a second terminal running `watch` has
// something to receive.

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"socialhub/internal/notify"
)

var sendCmd = &cobra.Command{
	Use:   "send",
	Short: "Send a notification to another user (dev helper)",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireCreds(); err != nil {
			return err
		}

		to, _ := cmd.Flags().GetString("to")
		kind, _ := cmd.Flags().GetString("type")
		content, _ := cmd.Flags().GetString("content")
		postID, _ := cmd.Flags().GetInt64("post")
		roomID, _ := cmd.Flags().GetInt64("room")
		callID, _ := cmd.Flags().GetInt64("call")
		callStatus, _ := cmd.Flags().GetString("call-status")
		liveID, _ := cmd.Flags().GetInt64("live")

		payload := notify.Payload{
			Kind:       notify.Kind(kind),
			Content:    content,
			PostID:     postID,
			RoomID:     roomID,
			CallID:     callID,
			CallStatus: callStatus,
			LiveID:     liveID,
		}

		api := newAPIClient()
		if err := api.Publish(context.Background(), to, payload); err != nil {
			return fmt.Errorf("could not send notification: %w", err)
		}
		fmt.Printf("✓ Sent %s notification to %s\n", kind, to)
		return nil
	},
}

func init() {
	sendCmd.Flags().String("to", "", "target username")
	sendCmd.Flags().String("type", "follow", "notification type (follow, mention, like, comment, call, new_chat, live)")
	sendCmd.Flags().String("content", "", "comment content")
	sendCmd.Flags().Int64("post", 0, "referenced post id")
	sendCmd.Flags().Int64("room", 0, "referenced chat room id")
	sendCmd.Flags().Int64("call", 0, "referenced call id")
	sendCmd.Flags().String("call-status", "ongoing", "call status for call notifications")
	sendCmd.Flags().Int64("live", 0, "referenced live stream id")
	sendCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(sendCmd)
}
