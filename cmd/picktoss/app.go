package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/dharsanguruparan/picktoss/internal/auth"
	"github.com/dharsanguruparan/picktoss/internal/category"
	"github.com/dharsanguruparan/picktoss/internal/config"
	"github.com/dharsanguruparan/picktoss/internal/database"
	"github.com/dharsanguruparan/picktoss/internal/httpclient"
	"github.com/dharsanguruparan/picktoss/internal/logging"
	"github.com/dharsanguruparan/picktoss/internal/model"
	"github.com/dharsanguruparan/picktoss/internal/notify"
	"github.com/dharsanguruparan/picktoss/internal/objectstore"
	"github.com/dharsanguruparan/picktoss/internal/quiz"
	"github.com/dharsanguruparan/picktoss/internal/remote"
	"github.com/dharsanguruparan/picktoss/internal/storage"
	"github.com/dharsanguruparan/picktoss/internal/upload"
)

// selectionKey persists the selected category between invocations.
const selectionKey = "selected-category"

// app is everything a command needs, built once per invocation.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	out    io.Writer
	errOut io.Writer
	in     io.Reader

	store      storage.Store
	tokens     *auth.TokenStore
	api        *remote.API
	selection  *category.Store
	categories *category.Controller
	uploads    *upload.Orchestrator
	quiz       *quiz.Service
}

func newApp(ctx context.Context, cfg *config.Config, streams streams) (*app, error) {
	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	kv, err := database.OpenStore(ctx, cfg.StoreDSN)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}

	notifier := notify.Func(func(n notify.Notice) {
		if n.Description != "" {
			fmt.Fprintf(streams.errOut, "! %s: %s\n", n.Title, n.Description)
			return
		}
		fmt.Fprintf(streams.errOut, "! %s\n", n.Title)
	})

	tokens := auth.NewTokenStore(kv, cfg.TokenKey)
	client := httpclient.New(cfg.APIBaseURL,
		httpclient.WithTimeout(cfg.HTTPTimeout),
		httpclient.WithTokenSource(tokens),
		httpclient.WithRateLimit(cfg.RateLimit),
		httpclient.WithLogger(logger),
	)
	api := remote.New(client, remote.NewCache(remote.WithCacheLogger(logger)))

	selection := category.NewStore()
	if saved, err := loadSelection(ctx, kv); err != nil {
		logger.Warn("ignoring saved selection", zap.Error(err))
	} else {
		selection.Select(saved)
	}

	uploadOpts := []upload.Option{
		upload.WithNotifier(notifier),
		upload.WithLogger(logger),
		upload.WithLimitGuard(),
	}
	if cfg.S3Endpoint != "" {
		objects, err := objectstore.New(cfg, int64(cfg.MaxContentLength)*4)
		if err != nil {
			return nil, err
		}
		uploadOpts = append(uploadOpts, upload.WithFetcher(objects))
	}

	return &app{
		cfg:        cfg,
		logger:     logger,
		out:        streams.out,
		errOut:     streams.errOut,
		in:         streams.in,
		store:      kv,
		tokens:     tokens,
		api:        api,
		selection:  selection,
		categories: category.NewController(api.CategoryRepository(), selection, category.WithNotifier(notifier), category.WithLogger(logger)),
		uploads:    upload.New(api, selection, upload.LimitsFromConfig(cfg), uploadOpts...),
		quiz:       quiz.NewService(api, selection),
	}, nil
}

// closeTimeout bounds the final selection write.
const closeTimeout = 5 * time.Second

// close persists the selection and releases the store. It runs after Ctrl-C
// too, so it detaches from ctx's cancellation.
func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), closeTimeout)
	defer cancel()
	err := saveSelection(ctx, a.store, a.selection.Selected())
	_ = a.logger.Sync()
	return errors.Join(err, a.store.Close())
}

func loadSelection(ctx context.Context, kv storage.Store) (*model.Category, error) {
	raw, err := kv.Get(ctx, selectionKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var c model.Category
	if err := json.Unmarshal([]byte(raw), &c); err != nil {
		return nil, fmt.Errorf("decode selection: %w", err)
	}
	return &c, nil
}

func saveSelection(ctx context.Context, kv storage.Store, c *model.Category) error {
	if c == nil {
		return kv.Delete(ctx, selectionKey)
	}
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode selection: %w", err)
	}
	return kv.Set(ctx, selectionKey, string(data))
}

// requireSelection loads the categories and returns the selected one.
func (a *app) requireSelection(ctx context.Context) (model.Category, error) {
	if _, err := a.categories.Load(ctx); err != nil {
		return model.Category{}, err
	}
	sel := a.selection.Selected()
	if sel == nil {
		return model.Category{}, errors.New("no category yet; create one with `picktoss category create`")
	}
	return *sel, nil
}
