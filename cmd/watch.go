/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/deojon/studio/config"
	"github.com/deojon/studio/internal/prefs"
	"github.com/deojon/studio/internal/server"
	"github.com/deojon/studio/internal/services"
	"github.com/deojon/studio/internal/store"
	"github.com/deojon/studio/internal/workspace"
	"github.com/spf13/cobra"
)

var (
	watchID       string
	watchPassword string
	watchRemember bool
)

// watchCmd signs in as a client and follows the workspace until interrupted.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Sign in and follow workspace updates",
	Long: `Signs in as a studio member, sends heartbeats and merges remote
changes until interrupted. The id is remembered in the preference file
with --remember and reused when --id is omitted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		prefStore, err := prefs.OpenSQLite(ctx, cfg.PrefsPath)
		if err != nil {
			return err
		}
		defer prefStore.Close()

		transport, closer, err := server.OpenTransport(ctx, cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		ws := workspace.New(ctx, workspace.Options{
			Transport: transport,
			Prefs:     prefStore,
			Interval:  cfg.Sync.Interval,
		})
		defer ws.Close()

		session := ws.Session
		session.Init(ctx)

		id := watchID
		if id == "" {
			id = session.SavedID()
		}
		if !session.Login(ctx, services.LoginParams{ID: id, Password: watchPassword, RememberID: watchRemember}) {
			return fmt.Errorf("login failed: %v", session.LastError())
		}
		user, _ := session.CurrentUser()
		log.Printf("[watch] signed in as %s (%s)", user.Name, user.ID)

		<-ctx.Done()
		session.Logout()
		report(ws, user.ID)
		return nil
	},
}

func report(ws *workspace.Workspace, userID string) {
	online, err := ws.Presence.Online(context.Background())
	if err != nil {
		log.Printf("[watch] presence: %v", err)
	}
	log.Printf("[watch] %d tasks, %d projects, %d posts, %d chat messages, %d members online",
		len(ws.Tasks.Visible(userID)), len(ws.Projects.All()), ws.Board.List(store.Query{Limit: 1}).Total,
		len(ws.Chat.Messages()), len(online))
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchID, "id", "", "Member id to sign in with")
	watchCmd.Flags().StringVar(&watchPassword, "password", "", "Password of a registered account")
	watchCmd.Flags().BoolVar(&watchRemember, "remember", false, "Remember the id for the next run")
}
