package app

import (
	"context"
	"net/http"

	"gorm.io/gorm"

	"github.com/phenrril/booklibrary/internal/adapters/httpserver"
	"github.com/phenrril/booklibrary/internal/adapters/repo/gormdb"
	"github.com/phenrril/booklibrary/internal/usecase"
)

type App struct {
	DB         *gorm.DB
	Store      *gormdb.Store
	CustomerUC *usecase.CustomerUC
}

func NewApp(db *gorm.DB) (*App, error) {
	store := gormdb.NewStore(db)
	app := &App{
		DB:         db,
		Store:      store,
		CustomerUC: &usecase.CustomerUC{Customers: store.Customers()},
	}
	return app, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.CustomerUC)
}

func (a *App) Migrate(ctx context.Context) error {
	return a.Store.CreateAll(ctx)
}

func (a *App) Drop(ctx context.Context) error {
	return a.Store.DropAll(ctx)
}

func (a *App) Close() error {
	return a.Store.Close()
}
