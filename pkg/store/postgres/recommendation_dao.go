package postgres

import (
	"context"
	"database/sql"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/uptrace/bun"

	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/store"
)

var _ models.RecommendationStore = &RecommendationDAO{}

// RecommendationDAO writes answered questions and their recommendations.
// There is no read path.
type RecommendationDAO struct {
	db          *bun.DB
	retryPolicy retrypolicy.RetryPolicy[any]
}

func NewRecommendationDAO(db *bun.DB) *RecommendationDAO {
	return &RecommendationDAO{
		db:          db,
		retryPolicy: buildTransientRetryPolicy(),
	}
}

func buildTransientRetryPolicy() retrypolicy.RetryPolicy[any] {
	return retrypolicy.Builder[any]().
		HandleIf(func(_ any, err error) bool {
			return store.IsTransient(err)
		}).
		WithBackoff(100*time.Millisecond, 2*time.Second).
		WithMaxRetries(3).
		Build()
}

// Put stores the query row and its recommendation rows in one transaction.
func (dao *RecommendationDAO) Put(ctx context.Context, record *models.RecommendationRecord) error {
	q := newQuerySchema(record)

	err := failsafe.Run(func() error {
		return dao.put(ctx, q)
	}, dao.retryPolicy)
	if err != nil {
		return models.NewPersistenceError("failed to store recommendation record", err)
	}

	log.Debugf("stored query %s for session %s", q.UUID, q.SessionID)
	return nil
}

func (dao *RecommendationDAO) put(ctx context.Context, q *QuerySchema) error {
	return dao.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(q).Exec(ctx); err != nil {
			return err
		}
		if len(q.Recommendations) == 0 {
			return nil
		}
		_, err := tx.NewInsert().Model(&q.Recommendations).Exec(ctx)
		return err
	})
}

func (dao *RecommendationDAO) Close() error {
	if dao.db != nil {
		return dao.db.Close()
	}
	return nil
}
