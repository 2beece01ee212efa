package cli

import (
	"bufio"
	"fmt"
	"strings"
	"sync"

	"github.com/KarpovAlexandrGo/todo-service/internal/board"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/spf13/cobra"
)

func searchCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search tasks by title",
		Long: `Search tasks by a case-insensitive title substring.

Without an argument the command reads queries line by line from stdin and
re-runs the search after a pause in typing (TODO_SEARCH_DEBOUNCE).`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := d.session(cmd)
			if err != nil {
				return err
			}
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				filter.Query = args[0]
				b := board.New(s.api)
				defer b.Close()
				if err := b.SetFilter(ctx, filter); err != nil {
					return userError(err)
				}
				return s.out.tasks(b.Snapshot().Tasks)
			}

			var mu sync.Mutex
			render := func(snap board.Snapshot) {
				mu.Lock()
				defer mu.Unlock()
				if snap.Err != "" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Error:", snap.Err)
					return
				}
				fmt.Fprintf(s.out.out, "-- %q --\n", snap.Filter.Query)
				_ = s.out.tasks(snap.Tasks)
			}

			b := board.New(s.api,
				board.WithDebounce(s.cfg.SearchDebounce),
				board.WithOnChange(render),
			)
			defer b.Close()

			if err := b.SetFilter(ctx, entity.TaskFilter{IsCompleted: filter.IsCompleted, Category: filter.Category}); err != nil {
				return userError(err)
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				b.Search(ctx, strings.TrimSpace(scanner.Text()))
			}
			if err := scanner.Err(); err != nil {
				return err
			}
			return userError(b.Flush(ctx))
		},
	}
	addFilterFlags(cmd)
	cmd.Flags().Duration("search-debounce", board.DefaultDebounce, "pause before a typed query is sent (TODO_SEARCH_DEBOUNCE)")
	return cmd
}
