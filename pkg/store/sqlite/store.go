// Package sqlite provides a persistent SQLite cache of retrieved spectra
package sqlite

import (
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/klauspost/compress/zstd"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ChrisMcGann/SpecView/pkg/core"
)

const (
	// Date format for HeaderTable (ISO 8601)
	headerDateFormat = "2006-01-02"
	schemaVersion    = 1
)

// Store keeps spectra keyed by USI.
type Store struct {
	db      *sql.DB
	path    string
	putStmt *sql.Stmt
	getStmt *sql.Stmt
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// Open opens or creates the store at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for sqlite: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &Store{db: db, path: path}

	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, err
	}

	s.encoder, err = zstd.NewWriter(nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	s.decoder, err = zstd.NewReader(nil)
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("failed to create zstd decoder: %w", err)
	}

	return s, nil
}

// createTables creates the required database schema
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS SpectrumTable (
		SpectrumId INTEGER PRIMARY KEY,
		USI TEXT NOT NULL UNIQUE,
		PeakCount INTEGER,
		blobMass BLOB,
		blobIntensity BLOB,
		Attributes TEXT,
		CreationDate TEXT
	);

	CREATE TABLE IF NOT EXISTS HeaderTable (
		version INTEGER NOT NULL DEFAULT 0,
		CreationDate TEXT
	);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}

	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM HeaderTable`).Scan(&n); err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	if n == 0 {
		_, err := s.db.Exec(`INSERT INTO HeaderTable (version, CreationDate) VALUES (?, ?)`,
			schemaVersion, time.Now().Format(headerDateFormat))
		if err != nil {
			return fmt.Errorf("failed to insert header: %w", err)
		}
	}
	return nil
}

// prepareStatements prepares the SQL statements used per spectrum
func (s *Store) prepareStatements() error {
	var err error

	s.putStmt, err = s.db.Prepare(`
		INSERT INTO SpectrumTable (USI, PeakCount, blobMass, blobIntensity, Attributes, CreationDate)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(USI) DO UPDATE SET
			PeakCount = excluded.PeakCount,
			blobMass = excluded.blobMass,
			blobIntensity = excluded.blobIntensity,
			Attributes = excluded.Attributes,
			CreationDate = excluded.CreationDate
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare put statement: %w", err)
	}

	s.getStmt, err = s.db.Prepare(`
		SELECT PeakCount, blobMass, blobIntensity, Attributes FROM SpectrumTable WHERE USI = ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare get statement: %w", err)
	}

	return nil
}

// Put stores spec under usi, replacing any earlier entry.
func (s *Store) Put(usi string, spec *core.Spectrum) error {
	attrs, err := json.Marshal(spec.Attributes)
	if err != nil {
		return fmt.Errorf("failed to encode attributes: %w", err)
	}

	// Peaks are stored as zstd-compressed little-endian float64 blobs
	mzBlob := s.encoder.EncodeAll(encodeFloat64(spec.MZs), nil)
	intBlob := s.encoder.EncodeAll(encodeFloat64(spec.Intensities), nil)

	_, err = s.putStmt.Exec(
		usi,                                 // USI
		spec.Len(),                          // PeakCount
		mzBlob,                              // blobMass
		intBlob,                             // blobIntensity
		string(attrs),                       // Attributes
		time.Now().Format(headerDateFormat), // CreationDate
	)
	if err != nil {
		return fmt.Errorf("failed to insert spectrum: %w", err)
	}
	return nil
}

// Get returns the spectrum stored under usi. ok is false when there is none.
func (s *Store) Get(usi string) (*core.Spectrum, bool, error) {
	var (
		count           int
		mzBlob, intBlob []byte
		attrs           sql.NullString
	)
	err := s.getStmt.QueryRow(usi).Scan(&count, &mzBlob, &intBlob, &attrs)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query spectrum: %w", err)
	}

	mzs, err := s.decodeBlob(mzBlob, count)
	if err != nil {
		return nil, false, fmt.Errorf("blobMass of %s: %w", usi, err)
	}
	intensities, err := s.decodeBlob(intBlob, count)
	if err != nil {
		return nil, false, fmt.Errorf("blobIntensity of %s: %w", usi, err)
	}

	spec := &core.Spectrum{MZs: mzs, Intensities: intensities}
	if attrs.Valid && attrs.String != "" {
		if err := json.Unmarshal([]byte(attrs.String), &spec.Attributes); err != nil {
			return nil, false, fmt.Errorf("failed to decode attributes of %s: %w", usi, err)
		}
	}
	return spec, true, nil
}

// Path returns the database file.
func (s *Store) Path() string { return s.path }

// Count returns the number of stored spectra.
func (s *Store) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM SpectrumTable`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count spectra: %w", err)
	}
	return n, nil
}

// USIs lists the stored identifiers in insertion order.
func (s *Store) USIs() ([]string, error) {
	rows, err := s.db.Query(`SELECT USI FROM SpectrumTable ORDER BY SpectrumId`)
	if err != nil {
		return nil, fmt.Errorf("failed to list spectra: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var usi string
		if err := rows.Scan(&usi); err != nil {
			return nil, err
		}
		out = append(out, usi)
	}
	return out, rows.Err()
}

func (s *Store) decodeBlob(blob []byte, count int) ([]float64, error) {
	if count == 0 {
		return []float64{}, nil
	}
	raw, err := s.decoder.DecodeAll(blob, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress failed: %w", err)
	}
	if len(raw) != count*8 {
		return nil, fmt.Errorf("expected %d values, blob holds %d bytes", count, len(raw))
	}
	return decodeFloat64(raw), nil
}

// encodeFloat64 encodes values as a little-endian float64 blob
func encodeFloat64(values []float64) []byte {
	buf := make([]byte, len(values)*8)
	for i, v := range values {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(v))
	}
	return buf
}

func decodeFloat64(buf []byte) []float64 {
	out := make([]float64, len(buf)/8)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[i*8:]))
	}
	return out
}

// Close releases the statements, codecs and the database connection.
func (s *Store) Close() error {
	if s.putStmt != nil {
		s.putStmt.Close()
	}
	if s.getStmt != nil {
		s.getStmt.Close()
	}
	if s.encoder != nil {
		s.encoder.Close()
	}
	if s.decoder != nil {
		s.decoder.Close()
	}

	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}
