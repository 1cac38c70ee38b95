// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Ensurer is a store that owns indexes on its collection.
type Ensurer interface {
	EnsureIndexes(ctx context.Context) error
}

// Collection names an Ensurer for logging and error reports.
type Collection struct {
	Name  string
	Store Ensurer
}

/*
EnsureAll is called at startup. Each EnsureIndexes is idempotent.
We aggregate errors so any problem is visible and startup can fail fast.
*/
func EnsureAll(ctx context.Context, logger *zap.Logger, colls ...Collection) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var problems []string
	for _, c := range colls {
		start := time.Now()
		if err := c.Store.EnsureIndexes(ctx); err != nil {
			logger.Warn("ensure indexes failed", zap.String("collection", c.Name), zap.Error(err))
			problems = append(problems, c.Name+": "+err.Error())
			continue
		}
		logger.Info("indexes ensured",
			zap.String("collection", c.Name),
			zap.Duration("took", time.Since(start)))
	}
	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}
