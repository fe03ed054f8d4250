package command

// watch.go runs a live notification session: persistent stream, automatic
// reconnection, periodic re-render of the unread badge and recent list, and
// one-shot incoming-call alerts.

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"socialhub/internal/notify"
	"socialhub/internal/stream"
)

const renderInterval = 2 * time.Second

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch your notification feed live",
	RunE: func(cmd *cobra.Command, args []string) error {
		creds, err := requireCreds()
		if err != nil {
			return err
		}
		resolvePosts, _ := cmd.Flags().GetBool("resolve-posts")

		api := newAPIClient()
		session := notify.NewSession(notify.SessionConfig{
			Identity:   creds.UserID,
			API:        api,
			StreamBase: streamBase(),
			Token:      creds.AccessToken,
			OnStatus:   printStatus,
		})

		fmt.Printf("👋 Watching notifications for %s (Ctrl-C to quit)\n", creds.Username)
		session.Start()
		defer session.Stop()

		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, os.Interrupt)

		ticker := time.NewTicker(renderInterval)
		defer ticker.Stop()

		var lastUnread, lastTop int64 = -1, -1
		for {
			select {
			case <-interrupt:
				fmt.Println("\nClosing session...")
				return nil

			case alert := <-session.Calls():
				printCallAlert(api, alert)

			case <-ticker.C:
				unread := int64(session.Unread())
				recent := session.Recent()
				var top int64 = -1
				if len(recent) > 0 {
					top = recent[0].ID
				}
				if unread == lastUnread && top == lastTop {
					continue
				}
				lastUnread, lastTop = unread, top
				renderFeed(api, unread, recent, session.Status(), resolvePosts)
			}
		}
	},
}

// renderFeed prints the badge and the recent list
func renderFeed(api *notify.APIClient, unread int64, recent []notify.Notification, st stream.Status, resolvePosts bool) {
	badge := color.New(color.FgHiWhite, color.BgRed).Sprintf(" %d ", unread)
	if st.Phase != stream.Open {
		// a stopped badge must be distinguishable from "zero unread"
		badge = color.New(color.FgHiBlack).Sprintf(" %d (stale: %s) ", unread, st.Phase)
	}
	fmt.Printf("\n🔔 unread %s\n", badge)

	for _, n := range recent {
		printNotification(n)
		if resolvePosts && n.Payload.PostID != 0 {
			if post, err := api.ResolvePost(context.Background(), n.Payload.PostID); err == nil {
				color.HiBlack("    ↳ %s: %s", post.Author, post.Content)
			}
		}
	}
}

// printCallAlert shows a one-shot incoming-call alert, resolving the room's
// call history for the current status
func printCallAlert(api *notify.APIClient, alert notify.CallAlert) {
	color.Yellow("📞 %s call from %s (room %d)", alert.CallStatus, alert.From.Username, alert.RoomID)

	calls, err := api.CallHistory(context.Background(), alert.RoomID)
	if err != nil || len(calls) == 0 {
		return
	}
	color.HiBlack("    latest in room: %s by %s at %s",
		calls[0].Status, calls[0].Caller, calls[0].StartedAt.Local().Format("15:04:05"))
}

// printStatus logs connection state transitions
func printStatus(st stream.Status) {
	switch st.Phase {
	case stream.Open:
		color.Green("✅ stream connected")
	case stream.Reconnecting:
		color.Yellow("🔌 stream lost, retrying in %s (attempt %d)", st.Delay, st.Attempt+1)
	case stream.GaveUp:
		color.Red("❌ stream gone after %d attempts, restart to reconnect", st.Attempt)
	}
}

func init() {
	watchCmd.Flags().Bool("resolve-posts", false, "fetch referenced posts for previews")
	rootCmd.AddCommand(watchCmd)
}
