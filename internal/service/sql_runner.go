package service

import (
	"bytes"
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"workbench/internal/dbclient"
	"workbench/internal/domain"
	"workbench/internal/logging"
	"workbench/internal/metrics"
)

// RunRequest is the body of POST /sql/run.
type RunRequest struct {
	SQL        string            `json:"sql" validate:"required"`
	Connection string            `json:"connection" validate:"required"`
	Variables  map[string]string `json:"variables"`
}

// RunOutcome is a successful run.
type RunOutcome struct {
	Result *domain.QueryResult
	// SchemaChanged is set when the statement looks like DDL.
	SchemaChanged bool
}

// SQLOptions tunes query execution. Zero values mean no limit.
type SQLOptions struct {
	QueryTimeout time.Duration
	MaxRows      int
}

// SQLService runs ad-hoc queries against saved connections and keeps the
// last result set for CSV export.
type SQLService struct {
	conns   *ConnectionRegistry
	pools   *dbclient.PoolCache
	queries domain.SavedQueryStore
	emitter EventEmitter
	opts    SQLOptions

	mu   sync.Mutex
	last *domain.QueryResult

	qmu sync.Mutex
}

func NewSQLService(
	conns *ConnectionRegistry,
	pools *dbclient.PoolCache,
	queries domain.SavedQueryStore,
	emitter EventEmitter,
	opts SQLOptions,
) *SQLService {
	return &SQLService{
		conns:   conns,
		pools:   pools,
		queries: queries,
		emitter: emitter,
		opts:    opts,
		last:    domain.NewQueryResult(nil, nil),
	}
}

// ── Running ────────────────────────────────────────────────

// Run substitutes variables, runs the statement, and on success replaces
// the last result set. On failure the previous results are kept.
func (s *SQLService) Run(ctx context.Context, req RunRequest) (*RunOutcome, error) {
	query := dbclient.Substitute(req.SQL, req.Variables)

	conn, err := s.conns.Get(req.Connection)
	if err != nil {
		return nil, err
	}
	c, err := s.pools.Get(ctx, &conn)
	if err != nil {
		metrics.RecordQuery(string(conn.DBType), err)
		return nil, err
	}

	if s.opts.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := c.Query(ctx, query, s.opts.MaxRows)
	metrics.RecordQuery(string(conn.DBType), err)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("connection", conn.Nickname).Msg("query failed")
		return nil, err
	}
	logging.Ctx(ctx).Debug().
		Str("connection", conn.Nickname).
		Int("rows", len(res.Rows)).
		Dur("took", time.Since(start)).
		Msg("query ran")

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	out := &RunOutcome{Result: res, SchemaChanged: dbclient.IsDDL(query)}
	if out.SchemaChanged {
		s.emitter.Emit(ctx, "sql:schema-changed", conn.Nickname)
	}
	return out, nil
}

// LastResults returns the most recent successful result set.
func (s *SQLService) LastResults() *domain.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// ExportCSV renders the last result set. The header row is the sorted key
// set of the first row, so column order can differ from the table view.
// Every field is quoted. With no rows the output is empty.
func (s *SQLService) ExportCSV() []byte {
	return EncodeCSV(s.LastResults().Export)
}

// EncodeCSV writes rows as CSV with every field double-quoted.
func EncodeCSV(rows []map[string]string) []byte {
	if len(rows) == 0 {
		return nil
	}
	headers := make([]string, 0, len(rows[0]))
	for k := range rows[0] {
		headers = append(headers, k)
	}
	sort.Strings(headers)

	var buf bytes.Buffer
	writeCSVLine(&buf, headers)
	fields := make([]string, len(headers))
	for _, row := range rows {
		for i, h := range headers {
			fields[i] = row[h]
		}
		writeCSVLine(&buf, fields)
	}
	return buf.Bytes()
}

func writeCSVLine(buf *bytes.Buffer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		buf.WriteByte('"')
		buf.WriteString(strings.ReplaceAll(f, `"`, `""`))
		buf.WriteByte('"')
	}
	buf.WriteByte('\n')
}

// Schema returns table → columns for the named connection.
func (s *SQLService) Schema(ctx context.Context, nickname string) (map[string][]string, error) {
	conn, err := s.conns.Get(nickname)
	if err != nil {
		return nil, err
	}
	c, err := s.pools.Get(ctx, &conn)
	if err != nil {
		return nil, err
	}
	return c.Schema(ctx)
}

// ── Saved queries ──────────────────────────────────────────

func (s *SQLService) SavedQueries() []domain.SavedQuery {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	return s.loadQueriesLocked()
}

func (s *SQLService) loadQueriesLocked() []domain.SavedQuery {
	qs, err := s.queries.LoadQueries()
	if err != nil {
		log := logging.WithComponent("sql")
		log.Error().Err(err).Msg("load saved queries")
		return []domain.SavedQuery{}
	}
	return qs
}

// SaveQuery inserts q or replaces the saved query with the same name.
func (s *SQLService) SaveQuery(q domain.SavedQuery) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	qs := s.loadQueriesLocked()
	replaced := false
	for i := range qs {
		if qs[i].Name == q.Name {
			qs[i] = q
			replaced = true
			break
		}
	}
	if !replaced {
		qs = append(qs, q)
	}
	s.persistQueriesLocked(qs)
}

func (s *SQLService) DeleteQuery(name string) {
	s.qmu.Lock()
	defer s.qmu.Unlock()
	qs := s.loadQueriesLocked()
	kept := qs[:0]
	for _, q := range qs {
		if q.Name != name {
			kept = append(kept, q)
		}
	}
	s.persistQueriesLocked(kept)
}

func (s *SQLService) persistQueriesLocked(qs []domain.SavedQuery) {
	if err := s.queries.SaveQueries(qs); err != nil {
		log := logging.WithComponent("sql")
		log.Error().Err(err).Msg("save saved queries")
	}
}
