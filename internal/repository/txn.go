package repository

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"go.mongodb.org/mongo-driver/mongo"

	"horizon/internal/apperr"
)

// TxnRunner executes fn atomically: either every store mutation inside fn
// commits or none do. fn may run more than once, so it must not carry state
// across attempts.
type TxnRunner interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// MongoTxnRunner runs fn inside a multi-document transaction, retrying
// transient aborts with exponential backoff.
type MongoTxnRunner struct {
	client *mongo.Client
}

func NewTxnRunner(client *mongo.Client) *MongoTxnRunner {
	return &MongoTxnRunner{client: client}
}

func isTransient(err error) bool {
	var cmdErr mongo.CommandError
	if errors.As(err, &cmdErr) {
		return cmdErr.HasErrorLabel("TransientTransactionError")
	}
	return false
}

func (r *MongoTxnRunner) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	session, err := r.client.StartSession()
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "failed to start store session", err)
	}
	defer session.EndSession(ctx)

	attempt := func() (struct{}, error) {
		_, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
			return nil, fn(sc)
		})
		if err != nil && !isTransient(err) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	}

	_, err = backoff.Retry(ctx, attempt,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(15*time.Second),
	)
	if err == nil {
		return nil
	}
	var domainErr *apperr.Error
	if errors.As(err, &domainErr) {
		return err
	}
	if isTransient(err) {
		return apperr.Wrap(apperr.KindTxnAborted, "transaction aborted, retry the request", err)
	}
	return apperr.Wrap(apperr.KindInternal, "store transaction failed", err)
}
