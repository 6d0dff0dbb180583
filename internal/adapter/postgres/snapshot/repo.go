// Package snapshot stores whole-dictionary snapshots in PostgreSQL. The
// tables always hold the latest saved state; every save also appends a row
// to dictionary_revisions.
package snapshot

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/heartmarshall/synonyms-backend/internal/adapter/postgres"
	"github.com/heartmarshall/synonyms-backend/internal/domain"
)

const (
	tableRadicals  = "radicals"
	tableFlexions  = "radical_flexions"
	tableGroups    = "synonym_groups"
	tableMembers   = "synonym_group_members"
	tableSenses    = "radical_senses"
	tableRevisions = "dictionary_revisions"
)

// Deletion order respects the foreign keys between the tables.
var clearOrder = []string{tableSenses, tableMembers, tableGroups, tableFlexions, tableRadicals}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// Repo provides snapshot persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	txm  *postgres.TxManager
	now  func() time.Time
}

// New creates a snapshot repository. Saves and loads run in serializable
// transactions so a load never observes half of a save.
func New(pool *pgxpool.Pool, txm *postgres.TxManager) *Repo {
	return &Repo{pool: pool, txm: txm.Serializable(), now: time.Now}
}

// Save replaces the stored dictionary with snap and records a revision.
func (r *Repo) Save(ctx context.Context, snap domain.Snapshot) (domain.Revision, error) {
	rev := domain.Revision{
		ID:        uuid.New(),
		Radicals:  len(snap.Radicals),
		Groups:    len(snap.Groups),
		CreatedAt: r.now().UTC().Truncate(time.Microsecond),
	}

	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		for _, table := range clearOrder {
			sql, args, err := psql.Delete(table).ToSql()
			if err != nil {
				return fmt.Errorf("build delete %s: %w", table, err)
			}
			if _, err := q.Exec(ctx, sql, args...); err != nil {
				return postgres.MapError(err, table, "")
			}
		}

		batch := insertBatch(snap)
		batch.Queue(
			`INSERT INTO dictionary_revisions (id, radical_count, group_count, created_at)
			 VALUES ($1, $2, $3, $4)`,
			rev.ID, rev.Radicals, rev.Groups, rev.CreatedAt,
		)
		return sendBatch(ctx, q, batch)
	})
	if err != nil {
		return domain.Revision{}, err
	}
	return rev, nil
}

// insertBatch queues the rows of snap parents first.
func insertBatch(snap domain.Snapshot) *pgx.Batch {
	batch := &pgx.Batch{}

	for i, rad := range snap.Radicals {
		batch.Queue(`INSERT INTO radicals (key, position) VALUES ($1, $2)`, rad.Key, i)
	}
	for _, rad := range snap.Radicals {
		for i, f := range rad.Flexions {
			batch.Queue(
				`INSERT INTO radical_flexions (radical, position, flexion) VALUES ($1, $2, $3)`,
				rad.Key, i, f,
			)
		}
	}
	for id, members := range snap.Groups {
		batch.Queue(`INSERT INTO synonym_groups (id) VALUES ($1)`, id)
		for i, w := range members {
			batch.Queue(
				`INSERT INTO synonym_group_members (group_id, position, word) VALUES ($1, $2, $3)`,
				id, i, w,
			)
		}
	}
	for _, rad := range snap.Radicals {
		for i, g := range rad.Groups {
			batch.Queue(
				`INSERT INTO radical_senses (radical, position, group_id) VALUES ($1, $2, $3)`,
				rad.Key, i, int(g),
			)
		}
	}

	return batch
}

func sendBatch(ctx context.Context, q postgres.Querier, batch *pgx.Batch) error {
	results := q.SendBatch(ctx, batch)
	defer results.Close()

	for i := range batch.Len() {
		if _, err := results.Exec(); err != nil {
			return postgres.MapError(err, "snapshot batch", fmt.Sprintf("#%d", i))
		}
	}
	return results.Close()
}

// LatestRevision returns the most recent revision, or an error wrapping
// domain.ErrNotFound when nothing was ever saved.
func (r *Repo) LatestRevision(ctx context.Context) (domain.Revision, error) {
	return r.latestRevision(ctx, postgres.QuerierFromCtx(ctx, r.pool))
}

func (r *Repo) latestRevision(ctx context.Context, q postgres.Querier) (domain.Revision, error) {
	sql, args, err := psql.
		Select("id", "radical_count", "group_count", "created_at").
		From(tableRevisions).
		OrderBy("created_at DESC", "id").
		Limit(1).
		ToSql()
	if err != nil {
		return domain.Revision{}, fmt.Errorf("build select revision: %w", err)
	}

	var rev domain.Revision
	err = q.QueryRow(ctx, sql, args...).Scan(&rev.ID, &rev.Radicals, &rev.Groups, &rev.CreatedAt)
	if err != nil {
		return domain.Revision{}, postgres.MapError(err, tableRevisions, "latest")
	}
	rev.CreatedAt = rev.CreatedAt.UTC()
	return rev, nil
}

// Load reads the stored dictionary. It fails with domain.ErrNotFound when
// no revision has been saved.
func (r *Repo) Load(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot

	err := r.txm.RunInTx(ctx, func(ctx context.Context) error {
		q := postgres.QuerierFromCtx(ctx, r.pool)

		if _, err := r.latestRevision(ctx, q); err != nil {
			return err
		}

		radicals, err := loadRadicals(ctx, q)
		if err != nil {
			return err
		}
		groups, err := loadGroups(ctx, q)
		if err != nil {
			return err
		}
		if err := attachFlexions(ctx, q, radicals); err != nil {
			return err
		}
		if err := attachSenses(ctx, q, radicals); err != nil {
			return err
		}

		snap = domain.Snapshot{Radicals: radicals, Groups: groups}
		return nil
	})
	if err != nil {
		return domain.Snapshot{}, err
	}
	return snap, nil
}

func query(ctx context.Context, q postgres.Querier, b sq.SelectBuilder, table string) (pgx.Rows, error) {
	sql, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select %s: %w", table, err)
	}
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, postgres.MapError(err, table, "")
	}
	return rows, nil
}

func loadRadicals(ctx context.Context, q postgres.Querier) ([]domain.Radical, error) {
	rows, err := query(ctx, q, psql.Select("key").From(tableRadicals).OrderBy("position"), tableRadicals)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var radicals []domain.Radical
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, postgres.MapError(err, tableRadicals, "")
		}
		radicals = append(radicals, domain.Radical{Key: key})
	}
	return radicals, postgres.MapError(rows.Err(), tableRadicals, "")
}

func loadGroups(ctx context.Context, q postgres.Querier) ([][]string, error) {
	var count int
	sql, args, err := psql.Select("count(*)").From(tableGroups).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count %s: %w", tableGroups, err)
	}
	if err := q.QueryRow(ctx, sql, args...).Scan(&count); err != nil {
		return nil, postgres.MapError(err, tableGroups, "")
	}

	groups := make([][]string, count)
	rows, err := query(ctx, q,
		psql.Select("group_id", "word").From(tableMembers).OrderBy("group_id", "position"),
		tableMembers,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id   int
			word string
		)
		if err := rows.Scan(&id, &word); err != nil {
			return nil, postgres.MapError(err, tableMembers, "")
		}
		if id < 0 || id >= count {
			return nil, fmt.Errorf("%w: stored group %d outside 0..%d", domain.ErrConstruction, id, count-1)
		}
		groups[id] = append(groups[id], word)
	}
	return groups, postgres.MapError(rows.Err(), tableMembers, "")
}

func index(radicals []domain.Radical) map[string]int {
	byKey := make(map[string]int, len(radicals))
	for i, rad := range radicals {
		byKey[rad.Key] = i
	}
	return byKey
}

func attachFlexions(ctx context.Context, q postgres.Querier, radicals []domain.Radical) error {
	rows, err := query(ctx, q,
		psql.Select("radical", "flexion").From(tableFlexions).OrderBy("radical", "position"),
		tableFlexions,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	byKey := index(radicals)
	for rows.Next() {
		var radical, flexion string
		if err := rows.Scan(&radical, &flexion); err != nil {
			return postgres.MapError(err, tableFlexions, "")
		}
		i := byKey[radical]
		radicals[i].Flexions = append(radicals[i].Flexions, flexion)
	}
	return postgres.MapError(rows.Err(), tableFlexions, "")
}

func attachSenses(ctx context.Context, q postgres.Querier, radicals []domain.Radical) error {
	rows, err := query(ctx, q,
		psql.Select("radical", "group_id").From(tableSenses).OrderBy("radical", "position"),
		tableSenses,
	)
	if err != nil {
		return err
	}
	defer rows.Close()

	byKey := index(radicals)
	for rows.Next() {
		var (
			radical string
			group   int
		)
		if err := rows.Scan(&radical, &group); err != nil {
			return postgres.MapError(err, tableSenses, "")
		}
		i := byKey[radical]
		radicals[i].Groups = append(radicals[i].Groups, domain.GroupID(group))
	}
	return postgres.MapError(rows.Err(), tableSenses, "")
}
