// Package tasks runs background work (reminder delivery, audit cleanup) on a
// backlite queue backed by its own SQLite file.
package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
)

type Client struct {
	client *backlite.Client
	db     *sql.DB
	config Config
	log    logger.Logger

	mu      sync.RWMutex
	started bool
}

// TasksDBPath derives the queue database path from the main one,
// e.g. ./library.db becomes ./library-tasks.db.
func TasksDBPath(mainDBPath string) string {
	dir := filepath.Dir(mainDBPath)
	base := filepath.Base(mainDBPath)
	ext := filepath.Ext(base)
	return filepath.Join(dir, strings.TrimSuffix(base, ext)+"-tasks"+ext)
}

// NewClient opens (or creates) the queue database next to mainDBPath and
// installs the backlite schema.
func NewClient(mainDBPath string, cfg Config) (*Client, error) {
	db, err := sql.Open("sqlite3", TasksDBPath(mainDBPath)+"?_journal=WAL&_timeout=5000&_busy_timeout=5000")
	if err != nil {
		return nil, errors.Wrap(err, "open tasks database")
	}

	db.SetMaxOpenConns(cfg.Workers + 5)
	db.SetMaxIdleConns(cfg.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	log := logger.New()
	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          queueLogger{log: log},
	})
	if err != nil {
		db.Close()
		return nil, errors.Wrap(err, "create backlite client")
	}

	if err := client.Install(); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "install backlite schema")
	}

	return &Client{client: client, db: db, config: cfg, log: log}, nil
}

// Register must be called before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start begins processing. It is non-blocking.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	c.log.Info("task queue started", logger.Data{"workers": c.config.Workers})
	c.client.Start(ctx)
}

// Stop waits for active tasks. It returns false if ctx expired first.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	if !c.started {
		c.mu.RUnlock()
		return true
	}
	c.mu.RUnlock()

	c.log.Info("stopping task queue")
	ok := c.client.Stop(ctx)
	if ok {
		c.log.Info("task queue stopped")
	} else {
		c.log.Warn("task queue stopped with timeout, some tasks may not have completed")
	}
	return ok
}

func (c *Client) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

type queueLogger struct {
	log logger.Logger
}

func (l queueLogger) Info(message string, params ...any) {
	l.log.Info(fmt.Sprintf("[task] "+message, params...))
}

func (l queueLogger) Error(message string, params ...any) {
	l.log.Error(fmt.Sprintf("[task] "+message, params...))
}
