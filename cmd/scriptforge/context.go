package main

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/ifuryst/scriptforge/internal/apiclient"
	"github.com/ifuryst/scriptforge/internal/history"
)

type commandContext struct {
	apiURL      string
	historyPath string
	timeout     time.Duration

	historyOnce sync.Once
	history     *history.Store
	historyErr  error
}

func (c *commandContext) client() *apiclient.Client {
	return apiclient.New(strings.TrimSpace(c.apiURL), c.timeout)
}

func (c *commandContext) store(ctx context.Context) (*history.Store, error) {
	c.historyOnce.Do(func() {
		path := strings.TrimSpace(c.historyPath)
		if path == "" {
			path, c.historyErr = history.DefaultPath()
			if c.historyErr != nil {
				return
			}
		}
		c.history, c.historyErr = history.Open(ctx, path)
	})
	return c.history, c.historyErr
}

func (c *commandContext) close() {
	if c.history != nil {
		_ = c.history.Close()
	}
}
