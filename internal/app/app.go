package app

import (
	"context"
	"fmt"

	"apilab/internal/board"
	"apilab/internal/catalog"
	"apilab/internal/config"
	"apilab/internal/logger"
	"apilab/internal/store/journal"
	labhttp "apilab/internal/transport/http/lab"

	"golang.org/x/sync/errgroup"
)

// App owns the long-lived pieces: the board, its HTTP surface, the card
// catalog and the run journal.
type App struct {
	cfg     *config.Config
	board   *board.Board
	http    *labhttp.Server
	cards   *catalog.Registry
	journal *journal.Store
	Summary *StartupSummary
}

// NewApp builds the application without starting it.
func NewApp(cfg *config.Config) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}
	logger.SetLevel(cfg.App.LogLevel)
	return buildAppWithWire(context.Background(), cfg)
}

// Run serves HTTP until ctx is cancelled, then waits for in-flight runs and
// closes the journal.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.cfg == nil {
		return fmt.Errorf("app not initialized")
	}
	if a.Summary != nil {
		a.Summary.Print()
	}
	defer a.Close()

	group, ctx := errgroup.WithContext(ctx)
	if a.http != nil {
		group.Go(func() error {
			if err := a.http.Start(ctx); err != nil {
				return fmt.Errorf("http server error: %w", err)
			}
			return nil
		})
	}
	return group.Wait()
}

// Close waits for runs still in flight so their results reach the journal
// before it closes.
func (a *App) Close() {
	if a == nil {
		return
	}
	if a.board != nil {
		a.board.Wait()
	}
	if a.journal != nil {
		if err := a.journal.Close(); err != nil {
			logger.Warnf("[app] close journal: %v", err)
		}
		a.journal = nil
	}
}

// Board exposes the board for tests and embedding.
func (a *App) Board() *board.Board {
	if a == nil {
		return nil
	}
	return a.board
}
