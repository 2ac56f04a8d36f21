package store

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facet-orm/facet/internal/orm/fielderr"
	"github.com/facet-orm/facet/internal/orm/opctx"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db, mock
}

func TestEntityStoreRead(t *testing.T) {
	db, mock := newMock(t)
	store := NewEntityStore(db, "users")

	rows := sqlmock.NewRows([]string{"id", "username", "email"}).
		AddRow(int64(7), "alice", "alice@example.com")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = ?")).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	entity, err := store.Read(context.Background(), int64(7))
	require.NoError(t, err)
	assert.Equal(t, int64(7), entity.RowID())

	se := entity.(*Entity)
	assert.Equal(t, "users", se.Table())
	username, ok := se.Get("username")
	require.True(t, ok)
	assert.Equal(t, "alice", username)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStoreReadNotFound(t *testing.T) {
	db, mock := newMock(t)
	store := NewEntityStore(db, "users")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = ?")).
		WithArgs(int64(404)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "username"}))

	_, err := store.Read(context.Background(), int64(404))
	require.Error(t, err)
	assert.True(t, fielderr.IsReferential(err))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStorePostgresPlaceholders(t *testing.T) {
	db, mock := newMock(t)
	store := NewEntityStore(db, "users", WithPostgresPlaceholders())

	rows := sqlmock.NewRows([]string{"id"}).AddRow(int64(1))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = $1")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	_, err := store.Read(context.Background(), int64(1))
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEntityStoreArrayColumns(t *testing.T) {
	db, mock := newMock(t)
	store := NewEntityStore(db, "users", WithArrayColumns("tags"))

	rows := sqlmock.NewRows([]string{"id", "tags"}).
		AddRow(int64(1), "{a,b}")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT * FROM users WHERE id = ?")).
		WithArgs(int64(1)).
		WillReturnRows(rows)

	entity, err := store.Read(context.Background(), int64(1))
	require.NoError(t, err)

	tags, ok := entity.(*Entity).Get("tags")
	require.True(t, ok)
	assert.Equal(t, []string{"a", "b"}, tags)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNodeStoreSelectors(t *testing.T) {
	tests := []struct {
		name  string
		sel   opctx.NodeSelector
		query string
		arg   interface{}
	}{
		{
			name:  "by path",
			sel:   opctx.ByPath{Path: "/alice/docs"},
			query: "SELECT id, uid, path FROM fsnodes WHERE path = ?",
			arg:   "/alice/docs",
		},
		{
			name:  "by uid",
			sel:   opctx.ByUID{UID: "u-1"},
			query: "SELECT id, uid, path FROM fsnodes WHERE uid = ?",
			arg:   "u-1",
		},
		{
			name:  "by internal id",
			sel:   opctx.ByInternalID{Store: "sql", ID: 12},
			query: "SELECT id, uid, path FROM fsnodes WHERE id = ?",
			arg:   int64(12),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMock(t)
			store := NewNodeStore(db, "fsnodes")

			rows := sqlmock.NewRows([]string{"id", "uid", "path"}).
				AddRow(int64(12), "u-1", "/alice/docs")
			mock.ExpectQuery(regexp.QuoteMeta(tt.query)).
				WithArgs(tt.arg).
				WillReturnRows(rows)

			node, err := store.Node(context.Background(), tt.sel)
			require.NoError(t, err)
			assert.Equal(t, int64(12), node.InternalID())
			assert.Equal(t, "/alice/docs", node.Path())
			require.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestNodeStoreNotFound(t *testing.T) {
	db, mock := newMock(t)
	store := NewNodeStore(db, "fsnodes")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, uid, path FROM fsnodes WHERE path = ?")).
		WithArgs("/nope").
		WillReturnError(sql.ErrNoRows)

	_, err := store.Node(context.Background(), opctx.ByPath{Path: "/nope"})
	require.Error(t, err)
	assert.True(t, fielderr.IsReferential(err))
}

func TestACLStoreCheck(t *testing.T) {
	actor := &opctx.Actor{ID: 4, Username: "alice"}
	node := NewNode(12, "u-1", "/alice/docs")

	t.Run("granted", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewACLStore(db, "permissions")

		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT 1 FROM permissions WHERE actor_id = ? AND node_id = ? AND permission = ?")).
			WithArgs(int64(4), int64(12), "see").
			WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

		ok, err := store.Check(context.Background(), actor, node, "see")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("denied", func(t *testing.T) {
		db, mock := newMock(t)
		store := NewACLStore(db, "permissions")

		mock.ExpectQuery(regexp.QuoteMeta(
			"SELECT 1 FROM permissions WHERE actor_id = ? AND node_id = ? AND permission = ?")).
			WithArgs(int64(4), int64(12), "write").
			WillReturnError(sql.ErrNoRows)

		ok, err := store.Check(context.Background(), actor, node, "write")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("unauthenticated actor holds nothing", func(t *testing.T) {
		db, _ := newMock(t)
		store := NewACLStore(db, "permissions")

		ok, err := store.Check(context.Background(), nil, node, "see")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("safe error carries no node detail", func(t *testing.T) {
		db, _ := newMock(t)
		store := NewACLStore(db, "permissions")

		err := store.SafeError(actor, node, "see")
		require.Error(t, err)
		assert.True(t, fielderr.IsPermission(err))
		assert.NotContains(t, err.Error(), "/alice/docs")
	})
}

func TestConvertDBError(t *testing.T) {
	tests := []struct {
		name string
		in   error
		want error
	}{
		{name: "nil", in: nil, want: nil},
		{name: "no rows", in: sql.ErrNoRows, want: ErrNotFound},
		{name: "unique violation", in: &pgconn.PgError{Code: "23505", Detail: "dup"}, want: ErrUniqueViolation},
		{name: "foreign key violation", in: &pgconn.PgError{Code: "23503"}, want: ErrForeignKeyViolation},
		{name: "not null violation", in: &pgconn.PgError{Code: "23502", ColumnName: "uid"}, want: ErrNotNullViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertDBError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.True(t, errors.Is(got, tt.want), "got %v, want %v", got, tt.want)
		})
	}
}
