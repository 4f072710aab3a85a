package sqlite

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/recall-agent/recall/internal/core"
	"github.com/recall-agent/recall/pkg/log"
)

// SemanticRepo stores semantic facts with their embeddings in sqlite-vec.
type SemanticRepo struct {
	db       *sql.DB
	embedder core.Embedder
}

func NewSemanticRepo(db *sql.DB, embedder core.Embedder) *SemanticRepo {
	return &SemanticRepo{db: db, embedder: embedder}
}

func (r *SemanticRepo) Store(ctx context.Context, userID string, fact core.SemanticFact) (string, error) {
	embedding, err := r.embedder.Embed(ctx, fact.Fact)
	if err != nil {
		return "", fmt.Errorf("embed fact: %w", err)
	}

	vecBlob, err := serializeVector(embedding)
	if err != nil {
		return "", err
	}

	entitiesJSON, err := json.Marshal(fact.Entities)
	if err != nil {
		return "", fmt.Errorf("marshal entities: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO facts (user_id, fact, category, confidence, source_type, entities, extraction_method, fact_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, fact_hash) DO NOTHING`,
		userID, fact.Fact, fact.Category, fact.Confidence, fact.SourceType,
		string(entitiesJSON), fact.ExtractionMethod, factHash(fact.Fact),
	)
	if err != nil {
		return "", fmt.Errorf("insert fact: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return "", err
	}
	if affected == 0 {
		// Duplicate of an already stored fact.
		log.FromCtx(ctx).Debug().Str("fact", fact.Fact).Msg("skipping duplicate fact")
		return "", tx.Commit()
	}

	id, err := res.LastInsertId()
	if err != nil {
		return "", err
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO facts_vec (rowid, embedding) VALUES (?, ?)`,
		id, vecBlob,
	)
	if err != nil {
		return "", fmt.Errorf("insert fact vector: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

func (r *SemanticRepo) QuerySimilar(ctx context.Context, userID, query string, k int) ([]core.ScoredFact, error) {
	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	vecBlob, err := serializeVector(embedding)
	if err != nil {
		return nil, err
	}

	// Vector scan first, then filter by user. Over-fetch so per-user results
	// still fill k when the store holds several users.
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.id, f.fact, f.category, f.confidence, f.source_type, f.entities, f.extraction_method, f.created_at, v.distance
		FROM facts_vec v
		JOIN facts f ON f.id = v.rowid
		WHERE v.embedding MATCH ? AND k = ? AND f.user_id = ?
		ORDER BY v.distance`,
		vecBlob, k*4, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("fact search failed: %w", err)
	}
	defer rows.Close()

	var results []core.ScoredFact
	for rows.Next() {
		var sf core.ScoredFact
		var id int64
		var entitiesJSON string
		var distance float64
		if err := rows.Scan(&id, &sf.Fact.Fact, &sf.Fact.Category, &sf.Fact.Confidence,
			&sf.Fact.SourceType, &entitiesJSON, &sf.Fact.ExtractionMethod,
			&sf.Fact.ExtractedAt, &distance); err != nil {
			return nil, err
		}
		sf.ID = strconv.FormatInt(id, 10)
		if entitiesJSON != "" {
			if err := json.Unmarshal([]byte(entitiesJSON), &sf.Fact.Entities); err != nil {
				return nil, fmt.Errorf("unmarshal entities: %w", err)
			}
		}
		// sqlite-vec reports L2 distance; fold it into a 0..1 relevance score.
		sf.Score = 1.0 / (1.0 + distance)
		results = append(results, sf)
		if len(results) == k {
			break
		}
	}
	return results, rows.Err()
}

func (r *SemanticRepo) Delete(ctx context.Context, id string) error {
	rowID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return fmt.Errorf("invalid fact id %q: %w", id, err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM facts_vec WHERE rowid = ?`, rowID); err != nil {
		return fmt.Errorf("delete fact vector: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM facts WHERE id = ?`, rowID); err != nil {
		return fmt.Errorf("delete fact: %w", err)
	}
	return tx.Commit()
}

func factHash(fact string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(fact))))
	return hex.EncodeToString(sum[:])
}
