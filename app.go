package main

import (
	"context"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/MixinNetwork/infinite/ledger"
	"github.com/MixinNetwork/infinite/mtg"
	"github.com/MixinNetwork/infinite/store"
	"github.com/MixinNetwork/infinite/vending"
	"github.com/MixinNetwork/mixin/logger"
)

type App struct {
	conf      *mtg.Configuration
	store     *store.BadgerStore
	ledger    *ledger.Ledger
	component string
}

func setupApp(ctx context.Context) (*App, error) {
	conf, err := mtg.Setup(expandHome(configPath))
	if err != nil {
		return nil, err
	}
	logger.SetLevel(conf.Log.Level)

	db, err := store.OpenBadger(ctx, expandHome(dataDir))
	if err != nil {
		return nil, err
	}
	app, err := buildApp(ctx, db, conf)
	if err != nil {
		db.Close()
		return nil, err
	}
	return app, nil
}

func buildApp(ctx context.Context, db *store.BadgerStore, conf *mtg.Configuration) (*App, error) {
	clock, err := mtg.NewClock(db)
	if err != nil {
		return nil, err
	}
	led := ledger.New(db, clock, time.Unix(conf.Vending.Genesis, 0))
	component, err := vending.Deploy(ctx, led, conf.Vending.Symbol, conf.Price())
	if err != nil {
		return nil, err
	}
	logger.Verbosef("vending component %s\n", component)
	return &App{
		conf:      conf,
		store:     db,
		ledger:    led,
		component: component,
	}, nil
}

func (app *App) Close() error {
	return app.store.Close()
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	usr, err := user.Current()
	if err != nil {
		return path
	}
	return filepath.Join(usr.HomeDir, path[2:])
}
