package sqlite

import (
	"bytes"
	"database/sql"
	"encoding/binary"
	"testing"
)

func TestSQLiteVecExtension(t *testing.T) {
	db, err := sql.Open("sqlite3_vec", ":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	var version string
	if err := db.QueryRow("SELECT vec_version()").Scan(&version); err != nil {
		t.Fatalf("vec_version() failed: %v — extension not linked or loaded", err)
	}

	if version == "" {
		t.Error("expected a version string, got empty")
	}
}

func TestFactVectorRelation(t *testing.T) {
	db, err := sql.Open("sqlite3_vec", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE facts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fact TEXT
	)`)
	if err != nil {
		t.Fatal(err)
	}

	// rowid is the primary key of the vec0 virtual table.
	if _, err = db.Exec(`CREATE VIRTUAL TABLE facts_vec USING vec0(embedding float[3])`); err != nil {
		t.Fatal(err)
	}

	fact := "the user prefers espresso"
	res, err := db.Exec(`INSERT INTO facts (fact) VALUES (?)`, fact)
	if err != nil {
		t.Fatal(err)
	}
	factID, err := res.LastInsertId()
	if err != nil {
		t.Fatal(err)
	}

	vec := []float32{0.1, 0.2, 0.3}
	buf := new(bytes.Buffer)
	if err := binary.Write(buf, binary.LittleEndian, vec); err != nil {
		t.Fatal(err)
	}

	if _, err = db.Exec(`INSERT INTO facts_vec(rowid, embedding) VALUES (?, ?)`, factID, buf.Bytes()); err != nil {
		t.Fatalf("failed to insert vector with rowid: %v", err)
	}

	var got string
	err = db.QueryRow(`
		SELECT f.fact
		FROM facts f
		JOIN facts_vec v ON f.id = v.rowid
		WHERE v.rowid = ?`, factID).Scan(&got)
	if err != nil {
		t.Fatalf("join query failed: %v", err)
	}

	if got != fact {
		t.Errorf("expected %q, got %q", fact, got)
	}
}
