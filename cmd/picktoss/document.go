package main

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/hibiken/asynq"
	"github.com/spf13/cobra"

	"github.com/dharsanguruparan/picktoss/internal/markdown"
	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/processing"
	"github.com/dharsanguruparan/picktoss/internal/queue"
	"github.com/dharsanguruparan/picktoss/internal/storage"
	"github.com/dharsanguruparan/picktoss/internal/upload"
	"github.com/dharsanguruparan/picktoss/internal/worker"
)

func newDocCmd(get func() *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "doc",
		Aliases: []string{"document"},
		Short:   "Upload, write and inspect documents",
	}
	cmd.AddCommand(
		newDocListCmd(get),
		newDocShowCmd(get),
		newDocUploadCmd(get),
		newDocWriteCmd(get),
		newDocDeleteCmd(get),
		newDocWatchCmd(get),
		newDocStatusCmd(get),
	)
	return cmd
}

func newDocListCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List documents of the selected category",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			sel, err := a.requireSelection(cmd.Context())
			if err != nil {
				return err
			}
			docs, err := a.api.Documents(cmd.Context(), sel.ID)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "%s (%d documents)\n", sel.Name, len(docs))
			printDocuments(a.out, docs)
			return nil
		},
	}
}

func printDocuments(w io.Writer, docs []model.Document) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	for _, d := range docs {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", d.ID, d.DocumentName, d.Status, d.CreatedAt.Format(time.DateOnly))
	}
	tw.Flush()
}

func newDocShowCmd(get func() *app) *cobra.Command {
	var (
		asHTML  bool
		outline bool
	)
	cmd := &cobra.Command{
		Use:   "show ID",
		Short: "Print a document with its summary",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			doc, err := a.api.Document(cmd.Context(), id)
			if err != nil {
				return err
			}
			switch {
			case outline:
				fmt.Fprint(a.out, markdown.FormatOutline(markdown.Outline(doc.Content)))
			case asHTML:
				fmt.Fprintln(a.out, markdown.RenderHTML(doc.Content))
			default:
				fmt.Fprintf(a.out, "# %s\n\n", doc.DocumentName)
				if doc.Processed() {
					fmt.Fprintf(a.out, "Summary: %s\n\n", doc.Summary)
				} else {
					fmt.Fprintln(a.out, "Summary: still being generated")
					fmt.Fprintln(a.out)
				}
				fmt.Fprintln(a.out, doc.Content)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asHTML, "html", false, "Render the content as HTML")
	cmd.Flags().BoolVar(&outline, "outline", false, "Print only the heading outline")
	return cmd
}

type afterUpload struct {
	watch   bool
	enqueue bool
}

func (f *afterUpload) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.watch, "watch", false, "Wait until the server finished processing")
	cmd.Flags().BoolVar(&f.enqueue, "enqueue", false, "Hand processing follow-up to the background worker")
}

func newDocUploadCmd(get func() *app) *cobra.Command {
	var (
		name  string
		after afterUpload
	)
	cmd := &cobra.Command{
		Use:   "upload PATH",
		Short: "Upload a .md file (or s3://bucket/key) into the selected category",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if _, err := a.requireSelection(cmd.Context()); err != nil {
				return err
			}
			return runUpload(cmd, a, upload.Request{Kind: upload.KindFile, Name: name, Source: args[0]}, after)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Document name (defaults to the file name)")
	after.register(cmd)
	return cmd
}

func newDocWriteCmd(get func() *app) *cobra.Command {
	var (
		name       string
		categoryID int64
		after      afterUpload
	)
	cmd := &cobra.Command{
		Use:   "write",
		Short: "Create a document from Markdown read on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if categoryID == 0 {
				sel, err := a.requireSelection(cmd.Context())
				if err != nil {
					return err
				}
				categoryID = sel.ID
			}
			content, err := io.ReadAll(a.in)
			if err != nil {
				return fmt.Errorf("read stdin: %w", err)
			}
			if name == "" {
				name = markdown.Title(string(content))
			}
			if name == "" {
				return errors.New("document name is required (--name or a level-one heading)")
			}
			req := upload.Request{Kind: upload.KindContent, Name: name, Content: string(content), CategoryID: categoryID}
			return runUpload(cmd, a, req, after)
		},
	}
	cmd.Flags().StringVarP(&name, "name", "n", "", "Document name (defaults to the first # heading)")
	cmd.Flags().Int64VarP(&categoryID, "category", "c", 0, "Target category (defaults to the selected one)")
	after.register(cmd)
	return cmd
}

func runUpload(cmd *cobra.Command, a *app, req upload.Request, after afterUpload) error {
	ctx := cmd.Context()
	defer a.uploads.Close()
	fmt.Fprintln(a.errOut, "uploading...")
	id, err := a.uploads.Submit(ctx, req)
	if err != nil {
		return err
	}
	details, err := a.uploads.Details(ctx)
	if err != nil {
		return err
	}
	usage := details.User.DocumentUsage
	fmt.Fprintf(a.out, "uploaded %q (id %d); %d of %d documents used\n",
		details.Document.DocumentName, id, usage.CurrentPossessDocumentNum, details.User.MaxDocuments())

	if after.enqueue {
		taskID, err := enqueueWatch(cmd, a, queue.WatchPayload{DocumentID: id, Name: details.Document.DocumentName})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "worker task %s will report when processing finishes\n", taskID)
	}
	if after.watch {
		return watchDocuments(cmd, a)
	}
	return nil
}

func enqueueWatch(cmd *cobra.Command, a *app, payload queue.WatchPayload) (string, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     a.cfg.RedisAddr,
		Password: a.cfg.RedisPassword,
		DB:       a.cfg.RedisDB,
	})
	defer client.Close()
	if sel := a.selection.Selected(); sel != nil {
		payload.CategoryID = sel.ID
	}
	return queue.EnqueueWatch(cmd.Context(), client, payload, a.cfg.WatchMaxRetry)
}

func newDocDeleteCmd(get func() *app) *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a document and its questions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			if !yes && !confirm(a, fmt.Sprintf("Delete document %d and its questions?", id)) {
				fmt.Fprintln(a.out, "cancelled")
				return nil
			}
			if err := a.api.DeleteDocument(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "deleted document %d\n", id)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Skip the confirmation prompt")
	return cmd
}

func newDocWatchCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Refresh the selected category until every document is processed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			if _, err := a.requireSelection(cmd.Context()); err != nil {
				return err
			}
			return watchDocuments(cmd, a)
		},
	}
}

func watchDocuments(cmd *cobra.Command, a *app) error {
	poller := processing.NewPoller(a.api, a.selection, a.cfg.PollInterval, a.logger)
	err := poller.Run(cmd.Context(), func(categoryID int64, docs []model.Document) {
		pending := 0
		for _, d := range docs {
			if !d.Processed() {
				pending++
			}
		}
		fmt.Fprintf(a.errOut, "%d of %d documents processed\n", len(docs)-pending, len(docs))
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "all documents processed")
	return nil
}

func newDocStatusCmd(get func() *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status ID",
		Short: "Show what the background worker recorded for a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := get()
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			res, err := worker.LoadResult(cmd.Context(), a.store, id)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintf(a.out, "document %d: no worker result yet\n", id)
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "document %d %q %s at %s\n%s\n",
				res.DocumentID, res.Name, res.Status, res.FinishedAt.Format(time.RFC3339), res.Summary)
			return nil
		},
	}
}
