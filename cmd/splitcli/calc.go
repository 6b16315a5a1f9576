package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mmynk/splitchat/internal/assign"
	"github.com/mmynk/splitchat/internal/chat"
	"github.com/mmynk/splitchat/internal/currency"
	"github.com/mmynk/splitchat/internal/gemini"
	"github.com/mmynk/splitchat/internal/ingest"
	"github.com/mmynk/splitchat/internal/models"
	"github.com/mmynk/splitchat/internal/session"
)

type calcOptions struct {
	say      []string
	currency string
	rates    map[string]string
	gemini   bool
	model    string
}

func newCalcCmd() *cobra.Command {
	opts := &calcOptions{}
	cmd := &cobra.Command{
		Use:   "calc <receipt.json | page image...>",
		Short: "Load a receipt, apply chat commands and print who owes what",
		Long: `Loads a receipt from a JSON file (or parses photos with --gemini), applies each
--say command in order and prints per-person totals in the display currency.

Example:
  splitcli calc dinner.json --say "Alice had the burger" \
    --say "Bob and Carol shared the pizza" --currency EUR --rate EUR=0.92`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCalc(cmd.Context(), cmd.OutOrStdout(), args, opts)
		},
	}
	cmd.Flags().StringArrayVar(&opts.say, "say", nil, "chat command to apply (repeatable)")
	cmd.Flags().StringVar(&opts.currency, "currency", "", "display currency (default: the receipt's)")
	cmd.Flags().StringToStringVar(&opts.rates, "rate", nil, "rate from the receipt currency, e.g. EUR=0.92")
	cmd.Flags().BoolVar(&opts.gemini, "gemini", false, "use Gemini (GEMINI_API_KEY) to parse photos and interpret commands")
	cmd.Flags().StringVar(&opts.model, "model", gemini.DefaultModel, "Gemini model for --gemini")
	return cmd
}

func runCalc(ctx context.Context, out io.Writer, args []string, opts *calcOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	rates := currency.StaticProvider{Rates: make(map[string]float64, len(opts.rates))}
	for code, v := range opts.rates {
		r, err := strconv.ParseFloat(v, 64)
		if err != nil || r <= 0 {
			return fmt.Errorf("invalid rate %s=%s", code, v)
		}
		rates.Rates[currency.Normalize(code)] = r
	}

	var (
		parser      ingest.ReceiptParser = ingest.ParserFunc(noParser)
		interpreter assign.Interpreter   = assign.PatternInterpreter{}
	)
	if opts.gemini {
		client, err := gemini.NewClient(ctx, os.Getenv("GEMINI_API_KEY"), opts.model)
		if err != nil {
			return err
		}
		parser, interpreter = client, client
	}

	orch := chat.New(parser, interpreter, nil, nil)
	s := session.New("cli", rates)

	if err := load(ctx, orch, s, args); err != nil {
		return err
	}
	snap := s.Snapshot()
	fmt.Fprintf(out, "Receipt: %d items, total %s\n", len(snap.Receipt.Items), snap.Format(snap.Receipt.Total))

	for _, text := range opts.say {
		before := len(s.Transcript())
		if err := orch.SendText(ctx, s, text); err != nil {
			return fmt.Errorf("%q: %w", text, err)
		}
		printReplies(out, s.Transcript()[before:])
	}

	if opts.currency != "" {
		before := len(s.Transcript())
		if err := orch.SetDisplayCurrency(ctx, s, opts.currency); err != nil {
			return err
		}
		printReplies(out, s.Transcript()[before:])
	}

	printSummary(out, s.Snapshot())
	return nil
}

// load fills the session from a JSON receipt or from page images.
func load(ctx context.Context, orch *chat.Orchestrator, s *session.Session, args []string) error {
	if len(args) == 1 && strings.EqualFold(filepath.Ext(args[0]), ".json") {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		var r models.Receipt
		if err := json.Unmarshal(data, &r); err != nil {
			return fmt.Errorf("failed to decode %s: %w", args[0], err)
		}
		if err := ingest.Normalize(&r); err != nil {
			return err
		}
		if err := s.StartSubmission(); err != nil {
			return err
		}
		return s.StoreReceipt(&r)
	}

	uploads := make([]ingest.Upload, len(args))
	for i, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		uploads[i] = ingest.Upload{Name: filepath.Base(path), Data: data, ContentType: mime.TypeByExtension(filepath.Ext(path))}
	}
	if err := orch.SubmitFiles(ctx, s, uploads); err != nil {
		return err
	}
	if s.State() != session.StateSplitting {
		msgs := s.Transcript()
		return errors.New(msgs[len(msgs)-1].Text)
	}
	return nil
}

func noParser(context.Context, []models.Image) (*models.Receipt, error) {
	return nil, &ingest.ParseError{Err: errors.New("photos need --gemini")}
}

func printReplies(out io.Writer, msgs []models.Message) {
	for _, m := range msgs {
		if m.Role == models.RoleUser {
			fmt.Fprintf(out, "> %s\n", m.Text)
		} else {
			fmt.Fprintf(out, "  %s\n", m.Text)
		}
	}
}

func printSummary(out io.Writer, snap session.Snapshot) {
	fmt.Fprintln(out)
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tITEMS\tSUBTOTAL\tTAX\tTIP\tTOTAL")
	for _, p := range snap.Split.Summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Name,
			strings.Join(p.Items, ", "),
			snap.Format(p.Subtotal),
			snap.Format(p.TaxShare),
			snap.Format(p.TipShare),
			snap.Format(p.Total),
		)
	}
	w.Flush()
	fmt.Fprintf(out, "Unclaimed: %s\n", snap.Format(snap.Split.Unclaimed))
}
