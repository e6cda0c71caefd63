package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	cronjob "github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/cron"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/domain"
	"github.com/GoSim-25-26J-441/archstudio-backend/internal/projects/service"
)

func historyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Saved project commands",
	}

	// studioctl history list
	var status, query string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved projects (seeds the demo records when empty)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireDevice(); err != nil {
				return err
			}
			s := domain.Status(status)
			if s != "" && !s.Valid() {
				return fmt.Errorf("invalid status %q", status)
			}
			items, err := a.studio.Lifecycle(a.device).History(cmd.Context(), service.HistoryFilter{Status: s, Query: query})
			if err != nil {
				return err
			}
			return a.printProjects(cmd.OutOrStdout(), items)
		},
	}
	listCmd.Flags().StringVarP(&status, "status", "s", "", "Filter by status (processing|completed|error)")
	listCmd.Flags().StringVarP(&query, "query", "q", "", "Case-insensitive title/content search")

	// studioctl history seed
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Replace the history with the demo records",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireDevice(); err != nil {
				return err
			}
			items, err := a.studio.Lifecycle(a.device).SeedHistory(cmd.Context())
			if err != nil {
				return err
			}
			return a.printProjects(cmd.OutOrStdout(), items)
		},
	}

	// studioctl history delete <id>
	deleteCmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved project",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireDevice(); err != nil {
				return err
			}
			if err := a.studio.Lifecycle(a.device).DeleteFromHistory(cmd.Context(), domain.ProjectID(args[0])); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted: %s\n", args[0])
			return nil
		},
	}

	cmd.AddCommand(listCmd, seedCmd, deleteCmd)
	return cmd
}

func currentCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "current",
		Short: "In-progress project commands",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show currentProject and finalProject",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireDevice(); err != nil {
				return err
			}
			l := a.studio.Lifecycle(a.device)
			out := cmd.OutOrStdout()

			cur, err := l.Current(cmd.Context())
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}
			final, err := l.Final(cmd.Context())
			if err != nil && !errors.Is(err, domain.ErrNotFound) {
				return err
			}

			if a.asJSON {
				return writeJSON(out, map[string]*domain.Project{"current": cur, "final": final})
			}
			printSlot(out, "current", cur)
			printSlot(out, "final", final)
			return nil
		},
	})
	return cmd
}

func resetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Clear the transient project slots (history is kept)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireDevice(); err != nil {
				return err
			}
			if err := a.studio.StartNew(cmd.Context(), a.device); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Reset: %s\n", a.device)
			return nil
		},
	}
}

func devicesCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List device namespaces present in the store",
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := a.backend.Namespaces(cmd.Context())
			if err != nil {
				return err
			}
			if a.asJSON {
				return writeJSON(cmd.OutOrStdout(), ids)
			}
			for _, id := range ids {
				fmt.Fprintln(cmd.OutOrStdout(), id)
			}
			return nil
		},
	}
}

func sweepCmd(a *app) *cobra.Command {
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Run one janitor pass over every device now",
		RunE: func(cmd *cobra.Command, args []string) error {
			cleared, err := cronjob.NewJanitor(a.backend, ttl).Sweep(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d stale slot(s)\n", cleared)
			return nil
		},
	}
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "Clear slots untouched for longer than this")
	return cmd
}

func (a *app) printProjects(w io.Writer, items []domain.Project) error {
	if a.asJSON {
		return writeJSON(w, items)
	}
	if len(items) == 0 {
		fmt.Fprintln(w, "No projects")
		return nil
	}
	for _, p := range items {
		fmt.Fprintf(w, "%-16s %-10s %-7s %s  %s\n", p.ID, p.Status, p.Type, formatMillis(p.Timestamp), p.Title)
	}
	return nil
}

func printSlot(w io.Writer, name string, p *domain.Project) {
	if p == nil {
		fmt.Fprintf(w, "%s: (empty)\n", name)
		return
	}
	fmt.Fprintf(w, "%s: %s [%s] %s\n", name, p.ID, p.Status, p.Title)
	for _, m := range p.Modifications {
		fmt.Fprintf(w, "  - %s\n", m)
	}
}

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(time.RFC3339)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
