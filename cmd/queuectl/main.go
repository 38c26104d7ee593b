// cmd/queuectl/main.go - Queue maintenance CLI
package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strconv"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"civicsync/database"
	"civicsync/services"
)

func main() {
	_ = godotenv.Load()

	cmdRoot := &cobra.Command{
		Use:   "queuectl",
		Short: "CivicSync queue maintenance",
		Long:  "Inspect and repair the agent's durable submission queue.",
	}
	cmdRoot.AddCommand(cmdList())
	cmdRoot.AddCommand(cmdRemove())
	cmdRoot.AddCommand(cmdSync())

	if err := cmdRoot.Execute(); err != nil {
		os.Exit(1)
	}
}

func openQueue() *services.DurableQueue {
	path := database.StorePath()
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		log.Fatalf("Failed to open local store %s: %v", path, err)
	}
	database.SetDB(db)
	return services.NewDurableQueue(services.NewGormQueueStore(db))
}

func cmdList() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List queued submissions",
		RunE: func(cmd *cobra.Command, args []string) error {
			queue := openQueue()
			entries, err := queue.ListAll()
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Println("queue is empty")
				return nil
			}
			sort.Slice(entries, func(i, j int) bool {
				return entries[i].TimestampKey < entries[j].TimestampKey
			})
			for _, e := range entries {
				fmt.Printf("%d  attempts=%d  next=%s  [%s] %s\n",
					e.TimestampKey, e.Attempts,
					e.NextAttemptAt.Format(time.RFC3339),
					e.Payload.Category, e.Payload.Title)
			}
			fmt.Printf("%d entr%s queued\n", len(entries), plural(len(entries)))
			return nil
		},
	}
}

func cmdRemove() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <timestampKey>",
		Short: "Drop one queued submission",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid key %q", args[0])
			}
			queue := openQueue()
			if err := queue.RemoveByKey(key); err != nil {
				return err
			}
			fmt.Printf("removed %d (no-op if it was not queued)\n", key)
			return nil
		},
	}
}

func cmdSync() *cobra.Command {
	var agentURL, token string
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Ask a running agent to drain the queue now",
		RunE: func(cmd *cobra.Command, args []string) error {
			if token == "" {
				token = os.Getenv("CIVICSYNC_TOKEN")
			}
			req, err := http.NewRequest(http.MethodPost, agentURL+"/api/sync", nil)
			if err != nil {
				return err
			}
			if token != "" {
				req.Header.Set("Authorization", "Bearer "+token)
			}
			resp, err := (&http.Client{Timeout: 30 * time.Second}).Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("agent answered %s", resp.Status)
			}
			fmt.Println("drain triggered")
			return nil
		},
	}
	cmd.Flags().StringVar(&agentURL, "agent", "http://localhost:8090", "agent base URL")
	cmd.Flags().StringVar(&token, "token", "", "device token (defaults to CIVICSYNC_TOKEN)")
	return cmd
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
