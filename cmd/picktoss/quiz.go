package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/quiz"
	"github.com/dharsanguruparan/picktoss/internal/scheduler"
)

func newQuizCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "quiz",
		Short: "Read the daily quiz",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "today",
			Short: "Show today's quiz",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return printToday(cmd.Context(), get())
			},
		},
		&cobra.Command{
			Use:   "public SET_ID",
			Short: "Show a shared question set",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				a := get()
				set, err := a.quiz.Public(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				printQuestions(a.out, set.Questions)
				return nil
			},
		},
		newQuizDailyCmd(get),
	)
	return cmd
}

func printToday(ctx context.Context, a *app) error {
	// The saved selection may name a category deleted elsewhere.
	if _, err := a.categories.Load(ctx); err != nil {
		a.logger.Warn("load categories", zap.Error(err))
	}
	today, err := a.quiz.Today(ctx)
	if err != nil {
		return err
	}
	switch today.Availability {
	case quiz.Ready:
		fmt.Fprintln(a.out, "Today's quiz has arrived")
		printQuestions(a.out, today.Questions)
	case quiz.NotGenerated:
		fmt.Fprintln(a.out, "Today's quiz is still being generated.")
		if today.Email != "" {
			fmt.Fprintf(a.out, "It will be sent to %s when ready.\n", today.Email)
		}
	case quiz.NoDocument:
		fmt.Fprintln(a.out, "No documents yet. Upload one to start receiving daily quizzes.")
		if today.NeedsCategory {
			fmt.Fprintln(a.out, "Create a category first: picktoss category create NAME")
		} else {
			fmt.Fprintln(a.out, "Try: picktoss doc upload notes.md")
		}
	}
	return nil
}

func printQuestions(w io.Writer, questions []model.Question) {
	for i, q := range questions {
		fmt.Fprintf(w, "\n%d. %s\n   %s\n   (%s > %s, doc %d)\n",
			i+1, q.Question, q.Answer, q.Category.Name, q.Document.Name, q.Document.ID)
	}
}

func newQuizDailyCmd(get func() *app) *cobra.Command {
	var at string
	cmd := &cobra.Command{
		Use:   "daily",
		Short: "Stay running and print the quiz every day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			if at == "" {
				at = a.cfg.QuizTime
			}
			sched := scheduler.New(time.Local)
			id, err := sched.ScheduleDaily(at, func() {
				a.api.Cache().Invalidate("categories", "question-set", "user")
				if err := printToday(ctx, a); err != nil {
					a.logger.Warn("daily quiz failed", zap.Error(err))
				}
			})
			if err != nil {
				return err
			}
			sched.Start()
			defer sched.Stop()
			fmt.Fprintf(a.errOut, "next quiz at %s\n", sched.Next(id).Format(time.RFC1123))
			<-ctx.Done()
			return nil
		},
	}
	cmd.Flags().StringVar(&at, "at", "", "Time of day as HH:MM (defaults to PICKTOSS_QUIZ_TIME)")
	return cmd
}
