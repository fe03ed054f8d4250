package command

// notifications.go: one-shot notification commands against the REST API.

import (
	"context"
	"fmt"
	"strconv"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"socialhub/internal/notify"
)

var notificationsCmd = &cobra.Command{
	Use:     "notifications",
	Aliases: []string{"n"},
	Short:   "Manage your notifications",
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List your most recent notifications",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireCreds(); err != nil {
			return err
		}
		limit, _ := cmd.Flags().GetInt("limit")

		api := newAPIClient()
		notifications, err := api.FetchRecent(context.Background(), limit)
		if err != nil {
			return fmt.Errorf("could not fetch notifications: %w", err)
		}

		if len(notifications) == 0 {
			fmt.Println("No notifications.")
			return nil
		}
		for _, n := range notifications {
			printNotification(n)
		}
		return nil
	},
}

var readCmd = &cobra.Command{
	Use:   "read <id>",
	Short: "Mark a notification as read",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireCreds(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid notification id: %w", err)
		}

		api := newAPIClient()
		if err := api.MarkRead(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("✓ Notification %d marked read\n", id)
		return nil
	},
}

var readAllCmd = &cobra.Command{
	Use:   "read-all",
	Short: "Mark every notification as read",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireCreds(); err != nil {
			return err
		}
		api := newAPIClient()
		if err := api.MarkAllRead(context.Background()); err != nil {
			return err
		}
		fmt.Println("✓ All notifications marked read")
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a notification",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := requireCreds(); err != nil {
			return err
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid notification id: %w", err)
		}

		api := newAPIClient()
		if err := api.Delete(context.Background(), id); err != nil {
			return err
		}
		fmt.Printf("✓ Notification %d deleted\n", id)
		return nil
	},
}

// printNotification renders one notification line, dim when already read
func printNotification(n notify.Notification) {
	marker := color.New(color.FgYellow).Sprint("●")
	line := color.New(color.Bold)
	if n.IsRead {
		marker = " "
		line = color.New(color.Faint)
	}

	fmt.Printf("%s [%d] %s  %s\n",
		marker,
		n.ID,
		line.Sprint(describePayload(n.Payload)),
		n.CreatedAt.Local().Format("2006-01-02 15:04"),
	)
}

// describePayload turns a payload into a one-line human description
func describePayload(p notify.Payload) string {
	from := p.From.Username
	switch p.Kind {
	case notify.KindFollow:
		return fmt.Sprintf("%s started following you", from)
	case notify.KindMention:
		return fmt.Sprintf("%s mentioned you in post %d", from, p.PostID)
	case notify.KindLike:
		return fmt.Sprintf("%s liked your post %d", from, p.PostID)
	case notify.KindComment:
		return fmt.Sprintf("%s commented: %s", from, p.Content)
	case notify.KindCall:
		return fmt.Sprintf("%s call from %s (room %d)", p.CallStatus, from, p.RoomID)
	case notify.KindNewChat:
		return fmt.Sprintf("%s opened a chat with you (room %d)", from, p.RoomID)
	case notify.KindLive:
		return fmt.Sprintf("%s is live now (stream %d)", from, p.LiveID)
	default:
		return fmt.Sprintf("notification from %s", from)
	}
}

func init() {
	listCmd.Flags().IntP("limit", "l", 20, "maximum notifications to fetch")

	notificationsCmd.AddCommand(listCmd)
	notificationsCmd.AddCommand(readCmd)
	notificationsCmd.AddCommand(readAllCmd)
	notificationsCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(notificationsCmd)
}
