package subscan

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// fetchPage retrieves one zero-based page and returns its rows.
type fetchPage[T any] func(ctx context.Context, page int) ([]T, error)

// paginate drives every collection fetcher. Pages are requested from zero
// until one of the stop conditions fires:
//
//   - a page returns fewer rows than pageSize (the upstream is exhausted;
//     an empty first page is the common "no activity" case),
//   - the configured MaxPages cap is reached,
//   - a page fails, in which case everything accumulated so far is returned
//     together with the cause. Partial data is worth keeping: a wallet with
//     3000 transfers whose page 12 times out still yields 1200 usable rows.
//
// The returned error is therefore a truncation cause, not a hard failure;
// rows are always valid. Between successful full pages paginate sleeps for
// pageDelay to stay inside the explorer's rate limits.
func paginate[T any](ctx context.Context, c *Client, collection string, pageSize int, fetch fetchPage[T]) ([]T, error) {
	rows := make([]T, 0, pageSize)
	for page := 0; ; page++ {
		if c.maxPages > 0 && page >= c.maxPages {
			c.logger.Debug("page cap reached",
				zap.String("collection", collection),
				zap.Int("pages", page),
				zap.Int("rows", len(rows)))
			return rows, nil
		}

		batch, err := fetch(ctx, page)
		if err != nil {
			c.logger.Warn("page fetch failed, keeping partial result",
				zap.String("collection", collection),
				zap.Int("page", page),
				zap.Int("rows", len(rows)),
				zap.Error(err))
			return rows, err
		}

		rows = append(rows, batch...)
		if len(batch) < pageSize {
			return rows, nil
		}

		if err := c.pause(ctx); err != nil {
			return rows, err
		}
	}
}

func (c *Client) pause(ctx context.Context) error {
	if c.pageDelay <= 0 {
		return nil
	}
	t := time.NewTimer(c.pageDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
