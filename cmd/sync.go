/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/deojon/studio/config"
	"github.com/deojon/studio/internal/cloudsync"
	"github.com/deojon/studio/internal/server"
	"github.com/deojon/studio/types"
	"github.com/spf13/cobra"
)

var (
	syncSince    int64
	syncUserID   string
	syncUserName string
	pruneOlder   time.Duration
)

// syncCmd groups the envelope transport tools.
var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Inspect and drive the cloud sync transport",
}

var syncFetchCmd = &cobra.Command{
	Use:   "fetch <category>",
	Short: "Print the envelopes of a category as JSON lines",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category := types.SyncCategory(strings.ToUpper(args[0]))
		if !category.Valid() {
			return fmt.Errorf("unknown category %q", args[0])
		}

		cfg := config.LoadConfig()
		transport, closer, err := server.OpenTransport(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		service := cloudsync.NewService(transport)
		service.Rewind(category, syncSince)
		msgs, err := service.FetchUpdates(cmd.Context(), category)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, msg := range msgs {
			if err := enc.Encode(msg); err != nil {
				return err
			}
		}
		fmt.Fprintf(os.Stderr, "%d envelopes, watermark %d\n", len(msgs), service.LastFetched(category))
		return nil
	},
}

var syncHeartbeatCmd = &cobra.Command{
	Use:   "heartbeat",
	Short: "Publish a single presence ping",
	RunE: func(cmd *cobra.Command, args []string) error {
		if strings.TrimSpace(syncUserID) == "" {
			return fmt.Errorf("--user is required")
		}

		cfg := config.LoadConfig()
		transport, closer, err := server.OpenTransport(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		name := syncUserName
		if name == "" {
			name = syncUserID
		}
		msg, err := cloudsync.NewService(transport).Heartbeat(cmd.Context(), syncUserID, name)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), cloudsync.ObjectName(msg))
		return nil
	},
}

var syncPruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete envelopes older than --older-than from the configured transport",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.LoadConfig()
		transport, closer, err := server.OpenTransport(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer closer.Close()

		pruner, ok := transport.(cloudsync.Pruner)
		if !ok {
			return fmt.Errorf("transport %q does not retain envelopes", cfg.Sync.Transport)
		}
		cutoff := time.Now().Add(-pruneOlder).UnixMilli()
		removed, err := pruner.Prune(cmd.Context(), cutoff)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "removed %d envelopes\n", removed)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.AddCommand(syncFetchCmd, syncHeartbeatCmd, syncPruneCmd)

	syncFetchCmd.Flags().Int64Var(&syncSince, "since", 0, "Only envelopes newer than this Unix millisecond timestamp")
	syncHeartbeatCmd.Flags().StringVar(&syncUserID, "user", "", "User id to report online")
	syncHeartbeatCmd.Flags().StringVar(&syncUserName, "name", "", "Display name of the user")
	syncPruneCmd.Flags().DurationVar(&pruneOlder, "older-than", 7*24*time.Hour, "Retention window")
}
