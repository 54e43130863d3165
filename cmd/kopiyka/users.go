package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Veraticus/kopiyka/internal/cli"
	"github.com/Veraticus/kopiyka/internal/config"
)

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Inspect bot users",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every user and their spreadsheet",
		RunE:  runUsersList,
	})

	return cmd
}

func runUsersList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	store, err := initStorage(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	users, err := store.ListUsers(ctx)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(users) == 0 {
		fmt.Fprintln(out, cli.FormatInfo("No users yet"))
		return nil
	}

	table := cli.Table{Headers: []string{"ID", "CHAT", "NAME", "JOINED", "SPREADSHEET"}}
	for _, u := range users {
		link := u.SpreadsheetURL
		if link == "" {
			link = cli.SubtleStyle.Render("-")
		}
		table.Rows = append(table.Rows, []string{
			strconv.FormatInt(u.ID, 10),
			strconv.FormatInt(u.ChatID, 10),
			u.DisplayName,
			u.CreatedAt.Format("2006-01-02"),
			link,
		})
	}
	return table.Render(out)
}
