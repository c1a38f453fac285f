package sqlite

import (
	"context"
	"database/sql"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/dekarrin/rezi"
	"github.com/dekarrin/rulecheck/internal/grammar"
	"github.com/dekarrin/rulecheck/server/dao"
	"github.com/google/uuid"
)

// NewGrammarsDBConn opens a GrammarsDB on its own connection to the given
// SQLite file.
func NewGrammarsDBConn(file string) (*GrammarsDB, error) {
	repo := &GrammarsDB{}

	var err error
	repo.db, err = sql.Open("sqlite", file)
	if err != nil {
		return nil, wrapDBError(err)
	}

	return repo, repo.init()
}

type GrammarsDB struct {
	db *sql.DB
}

func (repo *GrammarsDB) init() error {
	stmt := `CREATE TABLE IF NOT EXISTS grammars (
		id TEXT NOT NULL PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		rules TEXT NOT NULL,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL
	);`
	_, err := repo.db.Exec(stmt)
	if err != nil {
		return wrapDBError(err)
	}
	return nil
}

func (repo *GrammarsDB) Create(ctx context.Context, g dao.Grammar) (dao.Grammar, error) {
	if g.Rules == nil {
		return dao.Grammar{}, fmt.Errorf("grammar has no rules table")
	}

	newUUID, err := uuid.NewRandom()
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("could not generate ID: %w", err)
	}

	stmt, err := repo.db.Prepare(`INSERT INTO grammars (id, name, rules, created, modified) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	defer stmt.Close()

	now := time.Now()

	_, err = stmt.ExecContext(ctx, newUUID.String(), g.Name, encodeRules(g.Rules), now.Unix(), now.Unix())
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	return repo.GetByID(ctx, newUUID)
}

func (repo *GrammarsDB) GetAll(ctx context.Context) ([]dao.Grammar, error) {
	rows, err := repo.db.QueryContext(ctx, `SELECT id, name, rules, created, modified FROM grammars ORDER BY name;`)
	if err != nil {
		return nil, wrapDBError(err)
	}
	defer rows.Close()

	var all []dao.Grammar

	for rows.Next() {
		g, err := scanGrammar(rows)
		if err != nil {
			return all, err
		}
		all = append(all, g)
	}

	if err := rows.Err(); err != nil {
		return all, wrapDBError(err)
	}

	return all, nil
}

func (repo *GrammarsDB) GetByID(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, name, rules, created, modified FROM grammars WHERE id = ?;`,
		id.String(),
	)

	return scanGrammar(row)
}

func (repo *GrammarsDB) GetByName(ctx context.Context, name string) (dao.Grammar, error) {
	row := repo.db.QueryRowContext(ctx, `SELECT id, name, rules, created, modified FROM grammars WHERE name = ?;`,
		name,
	)

	return scanGrammar(row)
}

func (repo *GrammarsDB) Update(ctx context.Context, id uuid.UUID, g dao.Grammar) (dao.Grammar, error) {
	if g.Rules == nil {
		return dao.Grammar{}, fmt.Errorf("grammar has no rules table")
	}

	res, err := repo.db.ExecContext(ctx, `UPDATE grammars SET id=?, name=?, rules=?, modified=? WHERE id=?;`,
		g.ID.String(),
		g.Name,
		encodeRules(g.Rules),
		time.Now().Unix(),
		id.String(),
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	rowsAff, err := res.RowsAffected()
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}
	if rowsAff < 1 {
		return dao.Grammar{}, dao.ErrNotFound
	}

	return repo.GetByID(ctx, g.ID)
}

func (repo *GrammarsDB) Delete(ctx context.Context, id uuid.UUID) (dao.Grammar, error) {
	curVal, err := repo.GetByID(ctx, id)
	if err != nil {
		return curVal, err
	}

	_, err = repo.db.ExecContext(ctx, `DELETE FROM grammars WHERE id = ?`, id.String())
	if err != nil {
		return curVal, wrapDBError(err)
	}

	return curVal, nil
}

func (repo *GrammarsDB) Close() error {
	return repo.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

// scanGrammar reads one row of id, name, rules, created, and modified. The
// decoded rule table is frozen.
func scanGrammar(row scanner) (dao.Grammar, error) {
	var g dao.Grammar
	var id string
	var encRules string
	var created int64
	var modified int64

	err := row.Scan(
		&id,
		&g.Name,
		&encRules,
		&created,
		&modified,
	)
	if err != nil {
		return dao.Grammar{}, wrapDBError(err)
	}

	g.ID, err = uuid.Parse(id)
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("stored UUID %q is invalid", id)
	}
	g.Rules, err = decodeRules(encRules)
	if err != nil {
		return dao.Grammar{}, fmt.Errorf("stored rules for grammar %s are invalid: %w", id, err)
	}
	g.Created = time.Unix(created, 0)
	g.Modified = time.Unix(modified, 0)

	return g, nil
}

func encodeRules(g *grammar.Grammar) string {
	return base64.StdEncoding.EncodeToString(rezi.EncBinary(g))
}

func decodeRules(enc string) (*grammar.Grammar, error) {
	data, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return nil, err
	}

	g := grammar.New()
	_, err = rezi.DecBinary(data, g)
	if err != nil {
		return nil, err
	}
	g.Freeze()

	return g, nil
}
