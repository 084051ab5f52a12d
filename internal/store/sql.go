package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/gob"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/ledgerframe/callframe-engine/internal/ids"
	"github.com/ledgerframe/callframe-engine/internal/node"
)

// RegisterValueType registers a concrete substate payload type with the gob
// encoder the SQL store uses to persist Substate.Value. gob can only encode
// an interface-typed Value whose concrete type has been registered; no
// package in this module calls RegisterValueType itself.
func RegisterValueType(v any) {
	gob.Register(v)
}

// SQLStore is an optional SubstateStore backend over PostgreSQL, wiring the
// teacher's jmoiron/sqlx + lib/pq persistence stack behind the same
// interface MemoryStore satisfies. It exists to exercise that stack; the
// engine's correctness never depends on which SubstateStore it runs
// against.
type SQLStore struct {
	db *sqlx.DB
}

// OpenSQLStore connects to Postgres at dsn and applies embedded migrations.
func OpenSQLStore(ctx context.Context, dsn string) (*SQLStore, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: connect postgres: %w", err)
	}
	if err := ApplyMigrations(ctx, db.DB); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLStore{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *SQLStore) Close() error { return s.db.Close() }

type substateRow struct {
	NodeID     string `db:"node_id"`
	OffsetKind string `db:"offset_kind"`
	OffsetName string `db:"offset_name"`
	Value      []byte `db:"value"`
	Referenced string `db:"referenced"`
}

func encodeReferenced(refs []ids.NodeId) string {
	parts := make([]string, len(refs))
	for i, r := range refs {
		parts[i] = r.Encode()
	}
	return strings.Join(parts, ",")
}

func decodeReferenced(s string) ([]ids.NodeId, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	out := make([]ids.NodeId, 0, len(parts))
	for _, p := range parts {
		id, err := ids.ParseNodeId(p)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

func (s *SQLStore) Get(id node.SubstateId) (Substate, bool, error) {
	var row substateRow
	err := s.db.Get(&row, `SELECT node_id, offset_kind, offset_name, value, referenced FROM substates
		WHERE node_id = $1 AND offset_kind = $2 AND offset_name = $3`,
		id.NodeId.Encode(), id.Offset.Kind.String(), id.Offset.Name)
	if err == sql.ErrNoRows {
		return Substate{}, false, nil
	}
	if err != nil {
		return Substate{}, false, fmt.Errorf("store: get %s: %w", id, err)
	}

	var value any
	dec := gob.NewDecoder(bytes.NewReader(row.Value))
	if err := dec.Decode(&value); err != nil {
		return Substate{}, false, fmt.Errorf("store: decode value for %s: %w", id, err)
	}
	refs, err := decodeReferenced(row.Referenced)
	if err != nil {
		return Substate{}, false, err
	}
	return Substate{Value: value, Referenced: refs}, true, nil
}

func (s *SQLStore) Put(id node.SubstateId, val Substate) error {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&val.Value); err != nil {
		return fmt.Errorf("store: encode value for %s: %w", id, err)
	}

	_, err := s.db.Exec(`INSERT INTO substates (node_id, offset_kind, offset_name, value, referenced)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (node_id, offset_kind, offset_name) DO UPDATE SET value = EXCLUDED.value, referenced = EXCLUDED.referenced`,
		id.NodeId.Encode(), id.Offset.Kind.String(), id.Offset.Name, buf.Bytes(), encodeReferenced(val.Referenced))
	if err != nil {
		return fmt.Errorf("store: put %s: %w", id, err)
	}
	return nil
}
