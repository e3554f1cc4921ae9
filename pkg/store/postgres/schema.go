package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oiime/logrusbun"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bunotel"

	"github.com/introduceourtown/townrec/config"
	"github.com/introduceourtown/townrec/internal"
	"github.com/introduceourtown/townrec/pkg/models"
	"github.com/introduceourtown/townrec/pkg/store"
)

var log = internal.GetLogger()

// QuerySchema is one answered question.
type QuerySchema struct {
	bun.BaseModel `bun:"table:query,alias:q"`

	UUID      uuid.UUID `bun:",pk,type:uuid"`
	SessionID string    `bun:",notnull"`
	Region    *string   `bun:","`
	Radius    *float64  `bun:","`
	Question  string    `bun:",notnull"`
	Prompt    string    `bun:",notnull"`
	Answer    string    `bun:",notnull"`
	Keywords  []string  `bun:"type:jsonb,notnull"`
	CreatedAt time.Time `bun:"type:timestamptz,notnull,default:current_timestamp"`

	Recommendations []*NeighborhoodRecommendationSchema `bun:"rel:has-many,join:uuid=query_uuid"`
}

// NeighborhoodRecommendationSchema is one recommendation parsed from a query's answer.
type NeighborhoodRecommendationSchema struct {
	bun.BaseModel `bun:"table:neighborhood_recommendation,alias:nr"`

	UUID        uuid.UUID    `bun:",pk,type:uuid"`
	QueryUUID   uuid.UUID    `bun:"type:uuid,notnull"`
	Position    int          `bun:",notnull"`
	Location    string       `bun:",notnull"`
	Description string       `bun:",notnull"`
	Query       *QuerySchema `bun:"rel:belongs-to,join:query_uuid=uuid,on_delete:cascade"`
}

var _ bun.AfterCreateTableHook = (*QuerySchema)(nil)
var _ bun.AfterCreateTableHook = (*NeighborhoodRecommendationSchema)(nil)

func (*QuerySchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*QuerySchema)(nil)).
		Index("query_session_id_idx").
		Column("session_id").
		IfNotExists().
		Exec(ctx)
	return err
}

func (*NeighborhoodRecommendationSchema) AfterCreateTable(
	ctx context.Context,
	query *bun.CreateTableQuery,
) error {
	_, err := query.DB().NewCreateIndex().
		Model((*NeighborhoodRecommendationSchema)(nil)).
		Index("neighborhood_recommendation_query_uuid_idx").
		Column("query_uuid").
		IfNotExists().
		Exec(ctx)
	return err
}

// tableList is ordered so referenced tables are created first.
var tableList = []any{
	&QuerySchema{},
	&NeighborhoodRecommendationSchema{},
}

// CreateSchema creates the db schema if it does not exist.
func CreateSchema(ctx context.Context, db *bun.DB) error {
	for _, schema := range tableList {
		_, err := db.NewCreateTable().
			Model(schema).
			IfNotExists().
			WithForeignKeys().
			Exec(ctx)
		if err != nil {
			// bun still trying to create indexes despite IfNotExists flag
			if strings.Contains(err.Error(), "already exists") {
				continue
			}
			return store.NewStorageError(fmt.Sprintf("error creating table for schema %T", schema), err)
		}
	}
	return nil
}

// NewPostgresConn creates a new bun.DB connection to a postgres database using the provided DSN.
// The connection is configured to pool connections based on the number of PROCs available.
func NewPostgresConn(cfg *config.Config) (*bun.DB, error) {
	if cfg.Persistence.Postgres.DSN == "" {
		return nil, store.NewStorageError(store.ErrPostgresDSNNotSet, nil)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	maxOpenConns := 4 * runtime.GOMAXPROCS(0)

	sqldb := sql.OpenDB(
		pgdriver.NewConnector(
			pgdriver.WithDSN(cfg.Persistence.Postgres.DSN),
			pgdriver.WithReadTimeout(15*time.Second),
			pgdriver.WithWriteTimeout(15*time.Second),
		),
	)
	sqldb.SetMaxOpenConns(maxOpenConns)
	sqldb.SetMaxIdleConns(maxOpenConns)

	db := bun.NewDB(sqldb, pgdialect.New())
	db.AddQueryHook(bunotel.NewQueryHook(bunotel.WithDBName(cfg.Telemetry.ServiceName)))

	if cfg.Log.Level == "debug" {
		pgDebugLogging(db)
	}

	if err := db.PingContext(ctx); err != nil {
		return nil, store.NewStorageError("failed to connect to postgres", err)
	}

	return db, nil
}

func pgDebugLogging(db *bun.DB) {
	db.AddQueryHook(logrusbun.NewQueryHook(logrusbun.QueryHookOptions{
		LogSlow:         time.Second,
		Logger:          log,
		QueryLevel:      logrus.DebugLevel,
		ErrorLevel:      logrus.ErrorLevel,
		SlowLevel:       logrus.WarnLevel,
		MessageTemplate: "{{.Operation}}[{{.Duration}}]: {{.Query}}",
		ErrorTemplate:   "{{.Operation}}[{{.Duration}}]: {{.Query}}: {{.Error}}",
	}))
}

func newQuerySchema(record *models.RecommendationRecord) *QuerySchema {
	q := &QuerySchema{
		UUID:      uuid.New(),
		SessionID: record.SessionID,
		Region:    record.Region,
		Radius:    record.Radius,
		Question:  record.Question,
		Prompt:    record.Prompt,
		Answer:    record.Answer,
		Keywords:  record.Keywords,
		CreatedAt: record.CreatedAt,
	}
	if q.Keywords == nil {
		q.Keywords = []string{}
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = time.Now().UTC()
	}

	q.Recommendations = make([]*NeighborhoodRecommendationSchema, len(record.Recommendations))
	for i, r := range record.Recommendations {
		q.Recommendations[i] = &NeighborhoodRecommendationSchema{
			UUID:        uuid.New(),
			QueryUUID:   q.UUID,
			Position:    i,
			Location:    r.Location,
			Description: r.Description,
		}
	}
	return q
}
