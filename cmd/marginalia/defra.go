package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jackzampolin/marginalia/internal/defra"
	"github.com/jackzampolin/marginalia/internal/output"
	"github.com/jackzampolin/marginalia/internal/schema"
)

var defraCmd = &cobra.Command{
	Use:   "defra",
	Short: "Manage the DefraDB container",
	Long: `Manage the DefraDB container lifecycle.

DefraDB stores book pages when target.backend is "defra", and sync history
when history.enabled is set. The database runs in a Docker container with
data persisted to ~/.marginalia/defradb/.

Examples:
  marginalia defra start   # Start the DefraDB container
  marginalia defra stop    # Stop the container (data preserved)
  marginalia defra status  # Check container status
  marginalia defra logs    # View container logs`,
}

var defraStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the DefraDB container",
	Long: `Start the DefraDB container and apply the BookNote and SyncEvent schemas.

If the container doesn't exist, it will be created and started.
If it exists but is stopped, it will be started.
If it's already running, only the schemas are checked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Println("Starting DefraDB...")
			if err := mgr.Start(ctx); err != nil {
				return fmt.Errorf("failed to start DefraDB: %w", err)
			}
			if err := schema.Initialize(ctx, defra.NewClient(mgr.URL()), logger); err != nil {
				return err
			}

			fmt.Printf("DefraDB is running at %s\n", mgr.URL())
			return nil
		})
	},
}

var defraStopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the DefraDB container",
	Long: `Stop the DefraDB container.

This stops the container but preserves data. Use 'marginalia defra start'
to restart it later.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Println("Stopping DefraDB...")
			if err := mgr.Stop(ctx); err != nil {
				return fmt.Errorf("failed to stop DefraDB: %w", err)
			}
			fmt.Println("DefraDB stopped")
			return nil
		})
	},
}

var defraStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show DefraDB container status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			status, err := mgr.Status(ctx)
			if err != nil {
				return fmt.Errorf("failed to get status: %w", err)
			}

			health := ""
			if status == defra.StatusRunning {
				health = "healthy"
				if err := defra.NewClient(mgr.URL()).HealthCheck(ctx); err != nil {
					health = fmt.Sprintf("unhealthy (%v)", err)
				}
			}

			if output.IsStructured() {
				return output.Print(map[string]string{
					"status": string(status),
					"url":    mgr.URL(),
					"health": health,
				})
			}

			switch status {
			case defra.StatusRunning:
				fmt.Printf("Status: %s\n", status)
				fmt.Printf("URL: %s\n", mgr.URL())
				fmt.Printf("Health: %s\n", health)
			case defra.StatusStopped:
				fmt.Printf("Status: %s (use 'marginalia defra start' to start)\n", status)
			case defra.StatusNotFound:
				fmt.Printf("Status: %s (use 'marginalia defra start' to create)\n", status)
			default:
				fmt.Printf("Status: %s\n", status)
			}
			return nil
		})
	},
}

var logsTail string

var defraLogsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show DefraDB container logs",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			logs, err := mgr.Logs(ctx, logsTail)
			if err != nil {
				return fmt.Errorf("failed to get logs: %w", err)
			}
			fmt.Print(logs)
			return nil
		})
	},
}

var defraRemoveCmd = &cobra.Command{
	Use:   "remove",
	Short: "Remove the DefraDB container",
	Long: `Remove the DefraDB container.

This stops and removes the container. Data in ~/.marginalia/defradb/
is NOT deleted - only the container is removed.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Println("Removing DefraDB container...")
			if err := mgr.Remove(ctx); err != nil {
				return fmt.Errorf("failed to remove container: %w", err)
			}
			fmt.Println("DefraDB container removed (data preserved)")
			return nil
		})
	},
}

var defraWaitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Wait for DefraDB to be ready",
	Long: `Wait for DefraDB to be ready to accept connections.

This is useful in scripts to ensure DefraDB is fully started
before running 'marginalia sync'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		timeout, _ := cmd.Flags().GetDuration("timeout")
		return withDockerManager(cmd, func(ctx context.Context, mgr *defra.DockerManager) error {
			fmt.Printf("Waiting for DefraDB (timeout: %s)...\n", timeout)
			if err := mgr.WaitReady(ctx, timeout); err != nil {
				return fmt.Errorf("DefraDB not ready: %w", err)
			}
			fmt.Println("DefraDB is ready")
			return nil
		})
	},
}

func init() {
	defraCmd.AddCommand(defraStartCmd)
	defraCmd.AddCommand(defraStopCmd)
	defraCmd.AddCommand(defraStatusCmd)
	defraCmd.AddCommand(defraLogsCmd)
	defraCmd.AddCommand(defraRemoveCmd)
	defraCmd.AddCommand(defraWaitCmd)

	defraLogsCmd.Flags().StringVar(&logsTail, "tail", "100", "Number of lines to show from the end")
	defraWaitCmd.Flags().Duration("timeout", 30*time.Second, "Timeout waiting for DefraDB")

	rootCmd.AddCommand(defraCmd)
}

// withDockerManager runs fn with a DockerManager built from the defra config
// section and closes it afterwards.
func withDockerManager(cmd *cobra.Command, fn func(ctx context.Context, mgr *defra.DockerManager) error) error {
	h, err := getHome()
	if err != nil {
		return err
	}

	cfg := cfgMgr.Get().Defra
	mgr, err := defra.NewDockerManager(defra.DockerConfig{
		ContainerName: cfg.ContainerName,
		Image:         cfg.Image,
		DataPath:      h.DefraDataPath(),
		HostPort:      cfg.Port,
	})
	if err != nil {
		return err
	}
	defer mgr.Close()

	return fn(cmd.Context(), mgr)
}
