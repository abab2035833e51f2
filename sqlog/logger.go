package sqlog

import (
	"database/sql"
	"strconv"
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// Record is one submitted message.
type Record struct {
	ID       string // submission identifier
	Called   string // destination number
	Text     string // message text
	Alphabet string // narrow or wide
	Parts    int    // number of frames
	Ref      byte   // concatenation reference
	Refs     []int  // message references returned by the modem
	Failed   bool   // submission failed
}

// RefList returns the modem references as a comma separated list.
func (r Record) RefList() string {
	list := make([]string, len(r.Refs))
	for i, ref := range r.Refs {
		list[i] = strconv.Itoa(ref)
	}
	return strings.Join(list, ",")
}

type DB struct {
	db *sql.DB
}

// Connect opens the MySQL journal, e.g. "root@/pdusms?charset=utf8".
func Connect(url string) (*DB, error) {
	db, err := sql.Open("mysql", url)
	if err != nil {
		return nil, err
	}
	err = db.Ping()
	if err != nil {
		db.Close()
		return nil, err
	}
	return &DB{db: db}, nil
}

func (db *DB) Close() error {
	return db.db.Close()
}

// Insert appends a record to the log table.
func (db *DB) Insert(rec Record) error {
	stmt, err := db.db.Prepare(`INSERT log SET id=?,called=?,text=?,alphabet=?,parts=?,ref=?,refs=?,failed=?,created=NOW()`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	_, err = stmt.Exec(rec.ID, rec.Called, rec.Text, rec.Alphabet, rec.Parts, rec.Ref, rec.RefList(), rec.Failed)
	return err
}
