package brain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"
	sqlx "github.com/jmoiron/sqlx" //make alias name the package to sqlx
)

const recordsTable = "computed_records"

// mysqlDuplicateEntry is the server error number of a primary key clash.
const mysqlDuplicateEntry = 1062

func ConnectToDatabase(user string, pass string, host string, port int, dbname string) (*sqlx.DB, error) {
	dbURI := fmt.Sprintf("%s:%s@(%s:%d)/%s?parseTime=true", user, pass, host, port, dbname)
	db, err := sqlx.Connect("mysql", dbURI)
	return db, err
}

// SQLKV stores computed records in a single MySQL table keyed by the record
// key. Keys are binary so that ORDER BY matches the byte order of the
// other backends.
type SQLKV struct {
	db *sqlx.DB
}

func NewSQLKV(db *sqlx.DB) *SQLKV {
	return &SQLKV{db: db}
}

type recordRow struct {
	Key     string `db:"record_key"`
	Payload []byte `db:"payload"`
}

func (s *SQLKV) CreateTable(ctx context.Context) error {
	query := "CREATE TABLE IF NOT EXISTS " + recordsTable +
		" (record_key VARBINARY(255) NOT NULL PRIMARY KEY, payload LONGBLOB NOT NULL)"
	if _, err := s.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("error creating table %s: %w", recordsTable, err)
	}
	return nil
}

func (s *SQLKV) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	query := "SELECT payload FROM " + recordsTable + " WHERE record_key = ?"
	err := s.db.GetContext(ctx, &payload, query, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return payload, nil
}

func (s *SQLKV) Has(ctx context.Context, key string) (bool, error) {
	var count int
	query := "SELECT COUNT(*) FROM " + recordsTable + " WHERE record_key = ?"
	if err := s.db.GetContext(ctx, &count, query, key); err != nil {
		return false, fmt.Errorf("error querying database: %w", err)
	}
	return count > 0, nil
}

func (s *SQLKV) Insert(ctx context.Context, key string, value []byte) error {
	query := "INSERT INTO " + recordsTable + " (record_key, payload) VALUES (?, ?)"
	_, err := s.db.ExecContext(ctx, query, key, value)
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry {
		return fmt.Errorf("%s: %w", key, ErrExists)
	}
	if err != nil {
		return fmt.Errorf("error inserting %s: %w", key, err)
	}
	return nil
}

func (s *SQLKV) Scan(ctx context.Context, prefix string, fn func(key string, value []byte) error) error {
	query := "SELECT record_key, payload FROM " + recordsTable +
		" WHERE record_key LIKE ? ESCAPE '!' ORDER BY record_key"
	rows, err := s.db.QueryxContext(ctx, query, likePrefix(prefix))
	if err != nil {
		return fmt.Errorf("error querying database: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		result := recordRow{}
		if err := rows.StructScan(&result); err != nil {
			return fmt.Errorf("error scanning DB row: %w", err)
		}
		if err := fn(result.Key, result.Payload); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLKV) Close() error {
	return s.db.Close()
}

// likePrefix builds a LIKE pattern matching every string that starts with
// prefix, using '!' as the escape character.
func likePrefix(prefix string) string {
	replacer := strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")
	return replacer.Replace(prefix) + "%"
}

// SQLSource reads the upstream session, neuron, trial, alignment, condition
// and filter tables. Sample index sequences are stored as int64 blobs.
type SQLSource struct {
	db        *sqlx.DB
	logger    Logger
	verbosity int
}

func NewSQLSource(db *sqlx.DB, logger Logger, verbosity int) *SQLSource {
	if logger == nil {
		logger = nopLogger{}
	}
	return &SQLSource{db: db, logger: logger, verbosity: verbosity}
}

func (s *SQLSource) logQuery(query string) {
	if s.verbosity > 2 {
		message := fmt.Sprintf("Query: %s", query)
		s.logger.Info(message, "database")
	}
}

func (s *SQLSource) Session(ctx context.Context, key SessionKey) (Session, error) {
	query := "SELECT subject, session_date, ephys_sample_rate, behavior_sample_rate FROM sessions " +
		"WHERE subject = ? AND session_date = ?"
	s.logQuery(query)
	session := Session{}
	err := s.db.GetContext(ctx, &session, query, key.Subject, key.SessionDate)
	if errors.Is(err, sql.ErrNoRows) {
		return Session{}, fmt.Errorf("session %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return Session{}, fmt.Errorf("error querying database: %w", err)
	}
	return session, nil
}

func (s *SQLSource) Neurons(ctx context.Context, key SessionKey) ([]NeuronKey, error) {
	query := "SELECT subject, session_date, neuron_id FROM neurons " +
		"WHERE subject = ? AND session_date = ? ORDER BY neuron_id"
	s.logQuery(query)
	neurons := make([]NeuronKey, 0)
	if err := s.db.SelectContext(ctx, &neurons, query, key.Subject, key.SessionDate); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	if s.verbosity > 0 {
		message := fmt.Sprintf("Read %d neurons of session %s from database", len(neurons), key)
		s.logger.Info(message, "database")
	}
	return neurons, nil
}

func (s *SQLSource) SpikeIndices(ctx context.Context, key NeuronKey) ([]int64, error) {
	query := "SELECT spike_indices FROM neurons WHERE subject = ? AND session_date = ? AND neuron_id = ?"
	s.logQuery(query)
	var blob []byte
	err := s.db.GetContext(ctx, &blob, query, key.Subject, key.SessionDate, key.NeuronID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("neuron %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	indices, err := DecodeInt64s(blob)
	if err != nil {
		return nil, fmt.Errorf("error decoding spike indices of neuron %s: %w", key, err)
	}
	return indices, nil
}

func (s *SQLSource) Trials(ctx context.Context, key SessionKey) ([]Trial, error) {
	query := "SELECT subject, session_date, trial, block_id, condition_id, good_trial, " +
		"behavior_quality_params_id, save_tag FROM trials " +
		"WHERE subject = ? AND session_date = ? ORDER BY trial"
	s.logQuery(query)
	trials := make([]Trial, 0)
	if err := s.db.SelectContext(ctx, &trials, query, key.Subject, key.SessionDate); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return trials, nil
}

func (s *SQLSource) ValidAlignments(ctx context.Context, key SessionKey) ([]TrialAlignmentKey, error) {
	query := "SELECT subject, session_date, trial, alignment_params_id FROM trial_alignments " +
		"WHERE subject = ? AND session_date = ? AND valid_alignment = 1 ORDER BY trial, alignment_params_id"
	s.logQuery(query)
	keys := make([]TrialAlignmentKey, 0)
	if err := s.db.SelectContext(ctx, &keys, query, key.Subject, key.SessionDate); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	return keys, nil
}

type alignmentRow struct {
	TrialAlignmentKey
	ValidAlignment bool   `db:"valid_alignment"`
	EphysAlignment []byte `db:"ephys_alignment"`
}

func (s *SQLSource) Alignment(ctx context.Context, key TrialAlignmentKey) (TrialAlignment, error) {
	query := "SELECT subject, session_date, trial, alignment_params_id, valid_alignment, ephys_alignment " +
		"FROM trial_alignments WHERE subject = ? AND session_date = ? AND trial = ? AND alignment_params_id = ?"
	s.logQuery(query)
	row := alignmentRow{}
	err := s.db.GetContext(ctx, &row, query, key.Subject, key.SessionDate, key.Trial, key.AlignmentParamsID)
	if errors.Is(err, sql.ErrNoRows) {
		return TrialAlignment{}, fmt.Errorf("trial alignment %s: %w", key, ErrNotFound)
	}
	if err != nil {
		return TrialAlignment{}, fmt.Errorf("error querying database: %w", err)
	}
	alignment, err := DecodeInt64s(row.EphysAlignment)
	if err != nil {
		return TrialAlignment{}, fmt.Errorf("error decoding alignment %s: %w", key, err)
	}
	return TrialAlignment{
		TrialAlignmentKey: row.TrialAlignmentKey,
		ValidAlignment:    row.ValidAlignment,
		EphysAlignment:    alignment,
	}, nil
}

func (s *SQLSource) Conditions(ctx context.Context) ([]Condition, error) {
	query := "SELECT condition_id, duration, pre_pad, post_pad FROM conditions ORDER BY condition_id"
	s.logQuery(query)
	conditions := make([]Condition, 0)
	if err := s.db.SelectContext(ctx, &conditions, query); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	if s.verbosity > 0 {
		s.logger.Info("Condition table read from DB", "database")
	}
	return conditions, nil
}

func (s *SQLSource) Filters(ctx context.Context) ([]FilterParams, error) {
	query := "SELECT filter_params_id, filter_kind, sigma, width, duration FROM filters ORDER BY filter_params_id"
	s.logQuery(query)
	filters := make([]FilterParams, 0)
	if err := s.db.SelectContext(ctx, &filters, query); err != nil {
		return nil, fmt.Errorf("error querying database: %w", err)
	}
	if s.verbosity > 0 {
		s.logger.Info("Filter parameters read from DB", "database")
	}
	return filters, nil
}
