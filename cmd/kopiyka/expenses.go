package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/Veraticus/kopiyka/internal/cli"
	"github.com/Veraticus/kopiyka/internal/common"
	"github.com/Veraticus/kopiyka/internal/config"
	"github.com/Veraticus/kopiyka/internal/model"
)

func expensesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "expenses",
		Short: "Inspect the ledger",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List a user's recorded expenses, newest first",
		RunE:  runExpensesList,
	}
	list.Flags().Int64("chat", 0, "Telegram chat id of the user (required)")
	list.Flags().Int("limit", 20, "Maximum number of expenses to show (0 for all)")
	_ = list.MarkFlagRequired("chat")

	cmd.AddCommand(list)
	return cmd
}

func runExpensesList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	chatID, _ := cmd.Flags().GetInt64("chat")
	limit, _ := cmd.Flags().GetInt("limit")

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	user, err := store.GetUserByChatID(ctx, chatID)
	if errors.Is(err, common.ErrNotFound) {
		return fmt.Errorf("no user with chat id %d", chatID)
	}
	if err != nil {
		return err
	}

	expenses, err := store.ListExpenses(ctx, user.ID, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, cli.FormatTitle(fmt.Sprintf("%s (chat %d)", user.DisplayName, user.ChatID)))
	if len(expenses) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No expenses recorded"))
		return nil
	}

	table := cli.Table{Headers: []string{"ID", "WHEN", "AMOUNT", "CATEGORY", "DESCRIPTION"}}
	total := decimal.Zero
	for _, e := range expenses {
		total = total.Add(e.Amount)
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(e.ID, 10),
			e.CreatedAt.Local().Format("2006-01-02 15:04"),
			model.FormatMoney(e.Amount),
			e.Category,
			e.Description,
		})
	}
	if err := table.Render(out); err != nil {
		return err
	}

	fmt.Fprintln(out, cli.SubtleStyle.Render(fmt.Sprintf("\n%d expenses, %s total", len(expenses), model.FormatMoney(total))))
	return nil
}
