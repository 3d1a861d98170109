package cli

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"trivia-chat-service/internal/app"
	"trivia-chat-service/internal/config"
)

// NewQuestionCmd groups shell maintenance of the question store.
func NewQuestionCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "question",
		Short: "Manage the question bank",
	}
	cmd.AddCommand(newQuestionAddCmd(configPath))
	cmd.AddCommand(newQuestionListCmd(configPath))
	cmd.AddCommand(newQuestionStatsCmd(configPath))
	return cmd
}

func newQuestionAddCmd(configPath *string) *cobra.Command {
	var category, difficulty, author string
	cmd := &cobra.Command{
		Use:   `add "Question|Answer1|Answer2"`,
		Short: "Append a question to the store",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nq, err := app.ParseCreationSpec(strings.Join(args, " "))
			if err != nil {
				return err
			}
			nq.Category = category
			nq.Difficulty = difficulty
			nq.CreatedBy = author
			return withStore(cmd.Context(), *configPath, func(store app.QuestionStore) error {
				q, err := store.Append(cmd.Context(), nq.Normalize())
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %s with %d answers\n", q.ID, len(q.Answers))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "question category (default general)")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "question difficulty (default medium)")
	cmd.Flags().StringVar(&author, "by", "cli", "identity recorded as the creator")
	return cmd
}

func newQuestionListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *configPath, func(store app.QuestionStore) error {
				questions, err := store.LoadAll(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tCATEGORY\tQUESTION\tANSWERS")
				for _, q := range questions {
					fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", q.ID, q.Category, q.Text, strings.Join(q.Answers, ", "))
				}
				return w.Flush()
			})
		},
	}
}

func newQuestionStatsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count stored questions per category",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd.Context(), *configPath, func(store app.QuestionStore) error {
				counts, err := store.CountByCategory(cmd.Context())
				if err != nil {
					return err
				}
				printStats(cmd.OutOrStdout(), counts)
				return nil
			})
		},
	}
}

func printStats(out io.Writer, counts map[string]int) {
	categories := make([]string, 0, len(counts))
	total := 0
	for category, n := range counts {
		categories = append(categories, category)
		total += n
	}
	sort.Strings(categories)
	for _, category := range categories {
		fmt.Fprintf(out, "%-20s %d\n", category, counts[category])
	}
	fmt.Fprintf(out, "%-20s %d\n", "total", total)
}

func withStore(ctx context.Context, configPath string, fn func(app.QuestionStore) error) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	opened, err := openQuestionStore(ctx, cfg, newLogger())
	if err != nil {
		return err
	}
	defer opened.Close()
	if !opened.persistent {
		return fmt.Errorf("question commands need postgres.url or sqlite.path")
	}
	return fn(opened.QuestionStore)
}
