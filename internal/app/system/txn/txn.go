// Package txn runs multi-document writes in a MongoDB transaction when the
// deployment supports one, and falls back to plain sequential writes on a
// standalone server.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server codes returned when transactions or sessions are unavailable.
var unsupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // IllegalOperation (legacy)
	263: true, // OperationNotSupportedInTransaction
}

// IsNotSupported reports whether err means the server cannot run
// transactions, as opposed to the transaction itself failing.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		if unsupportedCodes[ce.Code] {
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	has := func(s string) bool { return strings.Contains(msg, s) }
	switch {
	case has("transaction") && has("replica set"):
		return true
	case has("session") && has("not supported"):
		return true
	case has("transaction") && has("session"):
		return true
	case has("illegal operation"):
		return true
	}
	return false
}

// Run executes fn inside a transaction on client. If the server does not
// support transactions fn is run once more without one, using ctx.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error) error {
	inTxn := func(ctx context.Context) error {
		return client.UseSession(ctx, func(sc mongo.SessionContext) error {
			_, err := sc.WithTransaction(sc, func(sc mongo.SessionContext) (interface{}, error) {
				return nil, fn(sc)
			})
			return err
		})
	}
	return run(ctx, inTxn, log, fn)
}

func run(ctx context.Context, inTxn func(context.Context) error, log *zap.Logger, fn func(context.Context) error) error {
	err := inTxn(ctx)
	if !IsNotSupported(err) {
		return err
	}
	if log != nil {
		log.Debug("transactions unavailable, running without", zap.Error(err))
	}
	return fn(ctx)
}
