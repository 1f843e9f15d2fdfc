package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/kataras/figma-sync/pkg/cache"
	"github.com/kataras/figma-sync/pkg/components"
	"github.com/kataras/figma-sync/pkg/figma"
	"github.com/kataras/figma-sync/pkg/formatter"
	"github.com/kataras/figma-sync/pkg/tokens"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// openCache loads the cached snapshot. Read-only commands do not need an
// access token.
func openCache() (*cache.Store, *cache.Snapshot, error) {
	store, err := cache.Open(cfg.Cache.Dir, cache.WithLogger(&cliLogger{verbose: verbose}))
	if err != nil {
		return nil, nil, err
	}
	snap, err := store.Load()
	if err != nil {
		return nil, nil, err
	}
	return store, snap, nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show what the cache holds and the remaining API budget",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, snap, err := openCache()
			if err != nil {
				return err
			}
			meta := snap.Metadata

			cyan := color.New(color.FgCyan)
			cyan.Printf("\n📦 Cache %s\n\n", store.Dir())
			fmt.Printf("  • Last sync: %s\n", formatTime(meta.LastSync))
			if cfg.Cache.TTL > 0 && meta.IsStale(time.Now(), cfg.Cache.TTL) {
				color.New(color.FgYellow).Printf("  • Stale (older than %s)\n", cfg.Cache.TTL)
			}
			fmt.Printf("  • Tokens: %d, Components: %d, Pages: %d\n", meta.TokenCount, meta.ComponentCount, meta.PageCount)

			for id, fm := range meta.Files {
				fmt.Printf("  • %s (%s): version %s, synced %s\n", fm.Name, id, fm.Version, formatTime(fm.SyncedAt))
			}

			limiter, err := figma.NewRateLimiter(store.Path(cache.RateLimitFile), cfg.RateLimit.MaxCallsPerHour)
			if err != nil {
				return err
			}
			st := limiter.State()
			fmt.Printf("  • API budget: %d/%d used, window resets %s\n\n", st.APICallsThisHour, st.MaxAPICallsPerHour, formatTime(limiter.ResetAt()))
			return nil
		},
	}
}

func newTokensCmd() *cobra.Command {
	var (
		fileID   string
		kind     string
		category string
		usedBy   string
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "List cached design tokens",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := openCache()
			if err != nil {
				return err
			}

			if usedBy != "" {
				ids, ok := snap.TokensUsedBy(usedBy, fileID)
				if !ok {
					return fmt.Errorf("component %s not found", usedBy)
				}
				if asJSON {
					return printJSON(ids)
				}
				for _, id := range ids {
					fmt.Println(id)
				}
				return nil
			}

			k := tokens.Kind(kind)
			if k != "" && !k.Valid() {
				return fmt.Errorf("unknown token kind %q", kind)
			}
			toks, err := snap.Tokens(cache.TokenFilter{FileID: fileID, Kind: k, Category: category})
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(toks)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tKIND\tCATEGORY\tVALUE")
			for _, t := range toks {
				value := t.Value.String()
				if t.Unresolved {
					value = "(unresolved)"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Name, t.Kind, t.Category, value)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&fileID, "file", "f", "", "Only tokens of this file key")
	cmd.Flags().StringVarP(&kind, "kind", "k", "", "Only tokens of this kind (color, typography, spacing, borderRadius, shadow, effect)")
	cmd.Flags().StringVar(&category, "category", "", "Category or category pattern, e.g. colors/*")
	cmd.Flags().StringVar(&usedBy, "used-by", "", "List the ids of the tokens this component uses")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newComponentsCmd() *cobra.Command {
	var (
		fileID string
		typ    string
		using  string
		asJSON bool
	)

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List cached components",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := openCache()
			if err != nil {
				return err
			}

			var comps []components.Component
			if using != "" {
				comps = snap.ComponentsUsing(using, fileID)
			} else {
				comps = snap.Components(cache.ComponentFilter{FileID: fileID, Type: figma.NodeType(strings.ToUpper(typ))})
			}
			if asJSON {
				return printJSON(comps)
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tTYPE\tVARIANTS\tTOKENS\tFILE")
			for _, c := range comps {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\n", c.ID, c.Name, c.Type, len(c.Variants), len(c.UsedTokens.All()), c.FileID)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVarP(&fileID, "file", "f", "", "Only components of this file key")
	cmd.Flags().StringVar(&typ, "type", "", "COMPONENT or COMPONENT_SET")
	cmd.Flags().StringVar(&using, "using", "", "Only components using this token id")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newReportCmd() *cobra.Command {
	var (
		fileID string
		output string
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown report of the cached tokens and components",
		RunE: func(cmd *cobra.Command, args []string) error {
			_, snap, err := openCache()
			if err != nil {
				return err
			}
			toks, err := snap.Tokens(cache.TokenFilter{FileID: fileID})
			if err != nil {
				return err
			}

			title := "All files"
			if fm, ok := snap.Metadata.Files[fileID]; ok && fm.Name != "" {
				title = fm.Name
			} else if fileID != "" {
				title = fileID
			}
			md := formatter.ToMarkdown(title, toks, snap.Components(cache.ComponentFilter{FileID: fileID}))

			if output == "" || output == "-" {
				fmt.Print(md)
				return nil
			}
			if err := os.WriteFile(output, []byte(md), 0644); err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("✨ Wrote %s\n", output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&fileID, "file", "f", "", "Only this file key")
	cmd.Flags().StringVarP(&output, "output", "o", "DESIGN_TOKENS.md", "Output markdown file (- for stdout)")
	return cmd
}
