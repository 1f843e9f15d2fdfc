package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	figmasync "github.com/kataras/figma-sync"
	"github.com/kataras/figma-sync/pkg/syncer"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

func newSyncCmd() *cobra.Command {
	var (
		kind   string
		files  []string
		report string
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync tokens and components from Figma into the cache",
		RunE: func(cmd *cobra.Command, args []string) error {
			k, err := syncer.ParseKind(kind)
			if err != nil {
				return err
			}
			return runSync(cmd.Context(), k, files, report)
		},
	}

	cmd.Flags().StringVarP(&kind, "kind", "k", "delta", "Sync kind: full or delta")
	cmd.Flags().StringSliceVarP(&files, "file", "f", nil, "File keys or URLs to sync (default: every configured file)")
	cmd.Flags().StringVarP(&report, "report", "o", "", "Write a markdown report to this file after syncing")
	return cmd
}

func runSync(ctx context.Context, kind syncer.Kind, files []string, report string) error {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	cyan := color.New(color.FgCyan)

	cyan.Println("\n🎨 Figma Sync")
	cyan.Println("=============")
	cyan.Println()

	opts, err := serviceOptions(cfg, &cliLogger{verbose: verbose})
	if err != nil {
		return err
	}
	svc, err := figmasync.New(opts)
	if err != nil {
		return err
	}
	defer svc.Close()

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	type outcome struct {
		res *syncer.Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := svc.Sync(ctx, kind, files...)
		done <- outcome{res, err}
	}()

	out := watchProgress(svc, done)
	if out.res != nil && out.res.Outcome == syncer.OutcomeAlreadyRunning {
		yellow.Println("A sync is already running")
		return nil
	}
	if out.err != nil {
		return out.err
	}

	res := out.res
	cyan.Println("\n📊 Sync Summary:")
	fmt.Printf("  • Run: %s (%s, %s)\n", res.RunID, res.Kind, res.Duration().Round(time.Millisecond))
	for _, f := range res.Files {
		name := f.FileID
		if f.Name != "" {
			name = fmt.Sprintf("%s (%s)", f.Name, f.FileID)
		}
		switch f.Status {
		case syncer.FileSynced:
			fmt.Printf("  • %s: %d tokens, %d components, %d pages\n", name, f.Tokens, f.Components, f.Pages)
		case syncer.FileUnchanged:
			fmt.Printf("  • %s: unchanged at version %s\n", name, f.Version)
		default:
			yellow.Printf("  • %s: failed: %s\n", name, f.Error)
		}
	}

	if st := svc.SyncStatus().RateLimit; st != nil {
		fmt.Printf("  • API budget: %d/%d used, resets %s\n", st.Used, st.Max, st.ResetAt.Local().Format(time.Kitchen))
	}

	if report != "" {
		md, err := svc.Markdown("")
		if err != nil {
			return err
		}
		green.Printf("\n💾 Writing to %s... ", report)
		if err := os.WriteFile(report, []byte(md), 0644); err != nil {
			return err
		}
		green.Println("✓")
	}

	if res.Outcome == syncer.OutcomePartialFailure {
		yellow.Printf("\n⚠ Synced with failures: %d of %d file(s) kept their previous data\n\n",
			res.Count(syncer.FileFailed), len(res.Files))
		return nil
	}
	green.Printf("\n✨ Successfully synced %d file(s)\n\n", len(res.Files))
	return nil
}

// watchProgress renders the engine progress until the run completes.
func watchProgress[T any](svc *figmasync.Service, done <-chan T) T {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Starting sync"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionClearOnFinish(),
	)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case out := <-done:
			bar.Finish()
			return out
		case <-ticker.C:
			p := svc.SyncStatus().Progress
			bar.Describe(p.Message)
			bar.Set(p.Percent)
		}
	}
}
