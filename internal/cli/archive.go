package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"github.com/lazypower/ephemeral/internal/archive"
	"github.com/lazypower/ephemeral/internal/client"
	"github.com/lazypower/ephemeral/internal/decay"
	"github.com/lazypower/ephemeral/internal/tui"
)

var (
	archiveRemote bool
	archiveURL    string
	archiveLimit  int
	clearYes      bool
)

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Inspect the traces of forgotten memories",
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived traces, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(ctx context.Context, ar archiveReader) error {
			entries, err := ar.List(ctx)
			if err != nil {
				return err
			}
			printEntries(cmd.OutOrStdout(), entries, archiveLimit, time.Now())
			return nil
		})
	},
}

var archiveStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarise the archive",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(ctx context.Context, ar archiveReader) error {
			stats, err := ar.Stats(ctx, time.Now())
			if err != nil {
				return err
			}
			printStats(cmd.OutOrStdout(), stats)
			return nil
		})
	},
}

var archiveClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Erase every archived trace",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !clearYes {
			return errors.New("refusing to clear the archive without --yes")
		}
		return withArchive(cmd, func(ctx context.Context, ar archiveReader) error {
			if err := ar.Clear(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Archive cleared.")
			return nil
		})
	},
}

func init() {
	archiveCmd.PersistentFlags().BoolVar(&archiveRemote, "remote", false, "read from a running ephemeral server")
	archiveCmd.PersistentFlags().StringVar(&archiveURL, "url", "", "server URL for --remote (default $EPHEMERAL_URL)")
	archiveListCmd.Flags().IntVarP(&archiveLimit, "limit", "n", 0, "show at most this many entries")
	archiveClearCmd.Flags().BoolVarP(&clearYes, "yes", "y", false, "confirm clearing the archive")

	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveStatsCmd)
	archiveCmd.AddCommand(archiveClearCmd)
}

// archiveReader is the part of archive.Store the commands need, so a remote
// server can stand in for a local store.
type archiveReader interface {
	List(ctx context.Context) ([]archive.Entry, error)
	Stats(ctx context.Context, now time.Time) (archive.Stats, error)
	Clear(ctx context.Context) error
}

type remoteArchive struct {
	c *client.Client
}

func (r remoteArchive) List(ctx context.Context) ([]archive.Entry, error) {
	return r.c.Archive(ctx)
}

// Stats lets the server decide what "today" means.
func (r remoteArchive) Stats(ctx context.Context, _ time.Time) (archive.Stats, error) {
	return r.c.Stats(ctx)
}

func (r remoteArchive) Clear(ctx context.Context) error {
	return r.c.Clear(ctx)
}

func withArchive(cmd *cobra.Command, fn func(context.Context, archiveReader) error) error {
	ctx := cmd.Context()
	if archiveRemote {
		return fn(ctx, remoteArchive{c: client.NewClient(archiveURL)})
	}
	a, err := loadApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.archive)
}

func printEntries(w io.Writer, entries []archive.Entry, limit int, now time.Time) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "The archive is empty.")
		return
	}

	reg := decay.NewRegistry()
	rows := make([][]string, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		if limit > 0 && len(rows) == limit {
			break
		}
		e := entries[i]
		d := reg.Lookup(e.Algorithm)
		rows = append(rows, []string{
			strconv.FormatInt(e.ID, 10),
			d.Name,
			tui.Label(e.Mode),
			strconv.Itoa(e.Length),
			e.Trace,
			archive.FormatWhen(e.Timestamp, now),
		})
	}
	fmt.Fprintln(w, renderTable(
		[]string{"#", "Algorithm", "Mode", "Length", "Trace", "When"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
}

func printStats(w io.Writer, s archive.Stats) {
	common := "none"
	if s.MostCommonCount > 0 {
		common = fmt.Sprintf("%s (%d)", decay.NewRegistry().Lookup(s.MostCommonAlgorithm).Name, s.MostCommonCount)
	}
	fmt.Fprintln(w, renderTable(
		[]string{"Total", "Today", "Most common"},
		[][]string{{strconv.Itoa(s.Total), strconv.Itoa(s.Today), common}},
		[]columnAlignment{alignRight, alignRight, alignLeft},
	))
}
