package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/dirwatch"
	"github.com/dharsanguruparan/picktoss/internal/upload"
)

func newSyncCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "sync DIR",
		Short: "Upload .md files into the selected category as they appear in DIR",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			ctx := cmd.Context()
			sel, err := a.requireSelection(ctx)
			if err != nil {
				return err
			}
			w, err := dirwatch.New(nil, 0, a.logger)
			if err != nil {
				return err
			}
			defer w.Close()
			events, err := w.Watch(ctx, args[0])
			if err != nil {
				return fmt.Errorf("watch %s: %w", args[0], err)
			}
			fmt.Fprintf(a.errOut, "watching %s for %q\n", args[0], sel.Name)
			for ev := range events {
				id, err := a.uploads.Submit(ctx, upload.Request{Kind: upload.KindFile, Source: ev.Path})
				a.uploads.Close()
				switch {
				case err == nil:
					fmt.Fprintf(a.out, "%s %s -> document %d\n", ev.Operation, ev.Path, id)
				case errors.Is(err, upload.ErrLimitReached):
					return err
				default:
					a.logger.Warn("sync upload failed", zap.String("path", ev.Path), zap.Error(err))
				}
			}
			return nil
		},
	}
}
