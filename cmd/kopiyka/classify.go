package main

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kopiyka/internal/cli"
	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/config"
	"github.com/Veraticus/kopiyka/internal/extract"
	"github.com/Veraticus/kopiyka/internal/model"
)

func classifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   `classify "<text>"`,
		Short: "Show how a message would be classified, without recording it",
		Example: `  kopiyka classify "кава 55 грн"
  kopiyka classify "Купив продукти в АТБ на 245,50"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runClassify,
	}
}

func runClassify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	_, classifier, err := newClassifier(cfg, slog.Default())
	if err != nil {
		return err
	}

	// Text needs no media pipeline.
	extractor := extract.NewExtractor(nil, nil, nil, slog.Default())
	text, err := extractor.Extract(ctx, model.TextContent{Text: strings.Join(args, " ")})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	expense, err := classifier.Classify(ctx, 0, text)
	if errors.Is(err, common.ErrUnrecognizedExpense) {
		fmt.Fprintln(out, cli.FormatWarning("Not recognized: "+err.Error()))
		return nil
	}
	if err != nil {
		return err
	}

	if !expense.HasTotal() {
		fmt.Fprintln(out, cli.FormatWarning("No usable total; the user would be asked to resend"))
		return nil
	}

	body := fmt.Sprintf("Total:       %s\nCategory:    %s\nDescription: %s",
		model.FormatMoney(*expense.Total), orDash(expense.Category), orDash(expense.Description))
	fmt.Fprintln(out, cli.RenderBox(text, body))
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
