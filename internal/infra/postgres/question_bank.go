// Package postgres loads curated question-bank content from Postgres.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"quizbot-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// BankLoader loads per-topic question lists stored as JSONB.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadTopic(ctx context.Context, topic string) ([]domain.QuizItem, error) {
	var raw []byte
	err := l.pool.QueryRow(ctx, `SELECT data FROM question_banks WHERE topic=$1`, topic).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrBankTopicNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question bank: %w", err)
	}
	var items []domain.QuizItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("unmarshal question bank: %w", err)
	}
	return items, nil
}
