package cli

import (
	"fmt"
	"strings"

	"github.com/KarpovAlexandrGo/todo-service/internal/board"
	"github.com/KarpovAlexandrGo/todo-service/internal/client"
	"github.com/KarpovAlexandrGo/todo-service/internal/entity"
	"github.com/spf13/cobra"
)

const clearDueValue = "none"

func parseStatus(status string) (*bool, error) {
	switch strings.ToLower(status) {
	case "", "all":
		return nil, nil
	case "active":
		v := false
		return &v, nil
	case "completed", "done":
		v := true
		return &v, nil
	default:
		return nil, fmt.Errorf("unknown status %q (want all, active or completed)", status)
	}
}

func filterFromFlags(cmd *cobra.Command) (entity.TaskFilter, error) {
	status, _ := cmd.Flags().GetString("status")
	category, _ := cmd.Flags().GetString("category")
	query, _ := cmd.Flags().GetString("query")

	completed, err := parseStatus(status)
	if err != nil {
		return entity.TaskFilter{}, err
	}
	filter := entity.TaskFilter{IsCompleted: completed, Query: query}
	if category != "" {
		filter.Category = &category
	}
	return filter, nil
}

func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().String("status", "all", "all, active or completed")
	cmd.Flags().StringP("category", "c", "", "category id")
	cmd.Flags().StringP("query", "q", "", "case-insensitive title substring")
}

func listCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := d.session(cmd)
			if err != nil {
				return err
			}
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			tasks, err := s.api.ListTasks(cmd.Context(), filter)
			if err != nil {
				return userError(err)
			}
			return s.out.tasks(tasks)
		},
	}
	addFilterFlags(cmd)
	return cmd
}

func showCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show a single task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := d.session(cmd)
			if err != nil {
				return err
			}
			task, err := s.api.GetTask(cmd.Context(), args[0])
			if err != nil {
				return userError(err)
			}
			return s.out.task(task)
		},
	}
}

// inputFromFlags собирает только явно переданные флаги.
func inputFromFlags(cmd *cobra.Command) (client.TaskInput, error) {
	var in client.TaskInput
	flags := cmd.Flags()

	if flags.Changed("title") {
		v, _ := flags.GetString("title")
		in.Title = &v
	}
	if flags.Changed("description") {
		v, _ := flags.GetString("description")
		in.Description = &v
	}
	if flags.Changed("category") {
		v, _ := flags.GetString("category")
		in.Category = &v
	}
	if flags.Changed("due") {
		v, _ := flags.GetString("due")
		if strings.EqualFold(v, clearDueValue) {
			in.ClearDueDate = true
		} else {
			due, err := entity.ParseDate(v)
			if err != nil {
				return client.TaskInput{}, err
			}
			in.DueDate = &due
		}
	}
	return in, nil
}

func taskFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("description", "d", "", "task description")
	cmd.Flags().String("due", "", "due date: YYYY-MM-DD or RFC 3339")
	cmd.Flags().StringP("category", "c", "", "category id")
}

// mutate выполняет действие через доску и печатает перечитанный список.
func (d deps) mutate(cmd *cobra.Command, action func(b *board.Board) error) error {
	s, err := d.session(cmd)
	if err != nil {
		return err
	}
	b := board.New(s.api)
	defer b.Close()

	if err := action(b); err != nil {
		return userError(err)
	}
	return s.out.tasks(b.Snapshot().Tasks)
}

func addCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputFromFlags(cmd)
			if err != nil {
				return err
			}
			title := strings.Join(args, " ")
			in.Title = &title
			return d.mutate(cmd, func(b *board.Board) error {
				return b.Add(cmd.Context(), in)
			})
		},
	}
	taskFlags(cmd)
	return cmd
}

func updateCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change fields of a task",
		Long:  "Change only the fields passed as flags. Use --due none to clear the due date.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, err := inputFromFlags(cmd)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("completed") {
				v, _ := cmd.Flags().GetBool("completed")
				in.IsCompleted = &v
			}
			return d.mutate(cmd, func(b *board.Board) error {
				return b.Update(cmd.Context(), args[0], in)
			})
		},
	}
	cmd.Flags().StringP("title", "t", "", "new title")
	cmd.Flags().Bool("completed", false, "completion status")
	taskFlags(cmd)
	return cmd
}

func doneCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "done <id>",
		Short: "Mark a task as completed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			undo, _ := cmd.Flags().GetBool("undo")
			completed := !undo
			return d.mutate(cmd, func(b *board.Board) error {
				return b.Update(cmd.Context(), args[0], client.TaskInput{IsCompleted: &completed})
			})
		},
	}
	cmd.Flags().Bool("undo", false, "mark as not completed")
	return cmd
}

func toggleCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completion status of a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.mutate(cmd, func(b *board.Board) error {
				if err := b.Refresh(cmd.Context()); err != nil {
					return err
				}
				return b.Toggle(cmd.Context(), args[0])
			})
		},
	}
}

func rmCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return d.mutate(cmd, func(b *board.Board) error {
				return b.Delete(cmd.Context(), args[0])
			})
		},
	}
}

func categoriesCmd(d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List categories",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := d.session(cmd)
			if err != nil {
				return err
			}
			categories, err := s.api.ListCategories(cmd.Context())
			if err != nil {
				return userError(err)
			}
			return s.out.categories(categories)
		},
	}
}

func statsCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show completion statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := d.session(cmd)
			if err != nil {
				return err
			}
			filter, err := filterFromFlags(cmd)
			if err != nil {
				return err
			}
			b := board.New(s.api)
			defer b.Close()
			if err := b.Load(cmd.Context()); err != nil {
				return userError(err)
			}
			if !filter.IsZero() {
				if err := b.SetFilter(cmd.Context(), filter); err != nil {
					return userError(err)
				}
			}
			return s.out.stats(b.Snapshot().Stats(d.now()))
		},
	}
	addFilterFlags(cmd)
	return cmd
}
