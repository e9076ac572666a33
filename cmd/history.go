package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/parley/internal/convlog"
)

var historyCmd = &cobra.Command{
	Use:   "history [session-id]",
	Short: "List past sessions or print one transcript",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := openStore(cmd)
		if err != nil {
			return err
		}
		defer s.Close()

		ctx := cmd.Context()
		repo := s.SessionRepo()

		if len(args) == 1 {
			sess, err := repo.GetSession(ctx, args[0])
			if err != nil {
				return fmt.Errorf("get session: %w", err)
			}
			turns, err := repo.Turns(ctx, sess.ID)
			if err != nil {
				return fmt.Errorf("load transcript: %w", err)
			}

			fmt.Printf("Session:  %s\n", sess.ID)
			fmt.Printf("Mode:     %s\n", sess.Mode)
			fmt.Printf("Topic:    %s\n", sess.Topic)
			fmt.Printf("Started:  %s\n", sess.StartedAt.Local().Format("2006-01-02 15:04:05"))
			fmt.Println(strings.Repeat("─", 60))
			if len(turns) == 0 {
				fmt.Println("(nothing was said)")
			}
			for _, t := range turns {
				who := "Partner"
				switch t.Sender {
				case convlog.SenderUser:
					who = "You"
				case convlog.SenderSystem:
					who = "-"
				}
				fmt.Printf("%-8s %s\n", who, t.Text)
				if t.Translation != "" {
					fmt.Printf("%-8s (%s)\n", "", t.Translation)
				}
			}
			return nil
		}

		limit, _ := cmd.Flags().GetInt("limit")
		list, err := repo.ListSessions(ctx, limit)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		if len(list) == 0 {
			fmt.Println("No sessions recorded yet.")
			return nil
		}

		fmt.Printf("%-36s  %-16s  %-7s  %-24s  %5s\n", "ID", "Started", "Mode", "Topic", "Turns")
		fmt.Println(strings.Repeat("─", 96))
		for _, sess := range list {
			fmt.Printf("%-36s  %-16s  %-7s  %-24s  %5d\n",
				sess.ID,
				sess.StartedAt.Local().Format("2006-01-02 15:04"),
				sess.Mode,
				truncate(sess.Topic, 24),
				sess.Turns,
			)
		}
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of sessions to show")
}
