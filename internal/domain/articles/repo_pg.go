package articles

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/healthlink/healthlink/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const articleSelect = `
	SELECT a.id, a.title, a.content, a.thumbnail, a.category, a.author_id,
	       a.published, a.views, a.created_at, a.updated_at,
	       u.name, u.email
	FROM article a
	JOIN app_user u ON u.id = a.author_id`

func scanArticle(row pgx.Row) (*Article, error) {
	var a Article
	var authorName, authorEmail string
	err := row.Scan(&a.ID, &a.Title, &a.Content, &a.Thumbnail, &a.Category, &a.AuthorID,
		&a.Published, &a.Views, &a.CreatedAt, &a.UpdatedAt,
		&authorName, &authorEmail)
	if err != nil {
		return nil, err
	}
	a.Author = &PersonRef{ID: a.AuthorID, Name: authorName, Email: authorEmail}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Article) error {
	a.ID = uuid.New()
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO article (id, title, content, thumbnail, category, author_id, published)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING views, created_at, updated_at`,
		a.ID, a.Title, a.Content, a.Thumbnail, a.Category, a.AuthorID, a.Published).
		Scan(&a.Views, &a.CreatedAt, &a.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Article, error) {
	a, err := scanArticle(r.conn(ctx).QueryRow(ctx, articleSelect+` WHERE a.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return a, err
}

func (r *repoPG) ListPublished(ctx context.Context, f ListFilter, limit, offset int) ([]*Article, int, error) {
	where := `WHERE a.published`
	args := []interface{}{}
	n := 0
	if f.Category != "" {
		n++
		where += fmt.Sprintf(` AND a.category = $%d`, n)
		args = append(args, f.Category)
	}
	if f.Search != "" {
		n++
		where += fmt.Sprintf(` AND (a.title ILIKE $%d OR a.content ILIKE $%d)`, n, n)
		args = append(args, "%"+f.Search+"%")
	}

	var total int
	countSQL := `SELECT COUNT(*) FROM article a ` + where
	if err := r.conn(ctx).QueryRow(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	dataSQL := articleSelect + ` ` + where +
		fmt.Sprintf(` ORDER BY a.created_at DESC LIMIT $%d OFFSET $%d`, n+1, n+2)
	rows, err := r.conn(ctx).Query(ctx, dataSQL, append(args, limit, offset)...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var items []*Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, a)
	}
	return items, total, rows.Err()
}

func (r *repoPG) Update(ctx context.Context, a *Article) error {
	_, err := r.conn(ctx).Exec(ctx, `
		UPDATE article SET title=$2, content=$3, thumbnail=$4, category=$5,
			published=$6, updated_at=NOW()
		WHERE id = $1`,
		a.ID, a.Title, a.Content, a.Thumbnail, a.Category, a.Published)
	return err
}

func (r *repoPG) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `DELETE FROM article WHERE id = $1`, id)
	return err
}

func (r *repoPG) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := r.conn(ctx).Exec(ctx, `UPDATE article SET views = views + 1 WHERE id = $1`, id)
	return err
}
