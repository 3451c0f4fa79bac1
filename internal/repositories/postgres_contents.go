package repositories

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/fmeta/backend/internal/db"
	"github.com/fmeta/backend/internal/models"
)

const (
	postColumns  = `id, author_id, visibility, likes, comments, created_at, updated_at, text, images, location, hashtags`
	reelColumns  = `id, author_id, visibility, likes, comments, created_at, updated_at, text, video_url, video_thumbnail, video_duration, hashtags, mentions`
	storyColumns = `id, author_id, visibility, likes, created_at, updated_at, media_url, media_type, media_thumbnail, media_duration, views, expires_at`
)

var contentTables = map[models.ContentKind]string{
	models.KindPost:  "posts",
	models.KindReel:  "reels",
	models.KindStory: "stories",
}

// commentRecord is the JSONB shape of a stored comment.
type commentRecord struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"authorId"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"createdAt"`
}

// viewRecord is the JSONB shape of a stored story view.
type viewRecord struct {
	ViewerID string    `json:"viewerId"`
	ViewedAt time.Time `json:"viewedAt"`
}

// PostgresContentRepository stores posts, reels and stories in one table per kind.
type PostgresContentRepository struct {
	pool db.Pool
}

// NewPostgresContentRepository constructs a content repository backed by PostgreSQL.
func NewPostgresContentRepository(pool db.Pool) *PostgresContentRepository {
	return &PostgresContentRepository{pool: pool}
}

var _ ContentRepository = (*PostgresContentRepository)(nil)

// Create persists a new content item in the table matching its kind.
func (r *PostgresContentRepository) Create(ctx context.Context, content models.Content) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	comments, err := encodeComments(content.Comments)
	if err != nil {
		return err
	}

	switch {
	case content.Kind == models.KindPost && content.Post != nil:
		_, err = conn.Exec(ctx, `
            INSERT INTO posts (`+postColumns+`)
            VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11)
        `, content.ID, content.AuthorID, string(content.Visibility), nonNil(content.Likes), comments,
			content.CreatedAt, content.UpdatedAt, content.Post.Text, nonNil(content.Post.Images),
			content.Post.Location, nonNil(content.Post.Hashtags))
	case content.Kind == models.KindReel && content.Reel != nil:
		_, err = conn.Exec(ctx, `
            INSERT INTO reels (`+reelColumns+`)
            VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7, $8, $9, $10, $11, $12, $13)
        `, content.ID, content.AuthorID, string(content.Visibility), nonNil(content.Likes), comments,
			content.CreatedAt, content.UpdatedAt, content.Reel.Text, content.Reel.Video.URL,
			content.Reel.Video.Thumbnail, content.Reel.Video.Duration, nonNil(content.Reel.Hashtags),
			nonNil(content.Reel.Mentions))
	case content.Kind == models.KindStory && content.Story != nil:
		var views string
		views, err = encodeViews(content.Story.Views)
		if err != nil {
			return err
		}
		_, err = conn.Exec(ctx, `
            INSERT INTO stories (`+storyColumns+`)
            VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11::jsonb, $12)
        `, content.ID, content.AuthorID, string(content.Visibility), nonNil(content.Likes),
			content.CreatedAt, content.UpdatedAt, content.Story.Media.URL, string(content.Story.Media.Type),
			content.Story.Media.Thumbnail, content.Story.Media.Duration, views, content.Story.ExpiresAt)
	default:
		return fmt.Errorf("insert content: body does not match kind %q", content.Kind)
	}

	if err != nil {
		if mapped := translatePgError(err); mapped != nil {
			return mapped
		}
		return fmt.Errorf("insert %s: %w", content.Kind, err)
	}
	return nil
}

// Find loads a content item by kind and id.
func (r *PostgresContentRepository) Find(ctx context.Context, kind models.ContentKind, id string) (models.Content, error) {
	table, columns, err := kindSchema(kind)
	if err != nil {
		return models.Content{}, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return models.Content{}, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `SELECT `+columns+` FROM `+table+` WHERE id = $1`, id)
	content, err := scanContent(kind, row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Content{}, ErrNotFound
		}
		return models.Content{}, fmt.Errorf("select %s: %w", kind, err)
	}
	return content, nil
}

// Delete removes a content item.
func (r *PostgresContentRepository) Delete(ctx context.Context, kind models.ContentKind, id string) error {
	table, _, err := kindSchema(kind)
	if err != nil {
		return err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns a page of items of one kind and the total number of matches.
func (r *PostgresContentRepository) List(ctx context.Context, query ContentQuery) ([]models.Content, int, error) {
	table, columns, err := kindSchema(query.Kind)
	if err != nil {
		return nil, 0, err
	}

	var (
		conditions []string
		args       []any
	)
	if query.AuthorIDs != nil {
		args = append(args, query.AuthorIDs)
		conditions = append(conditions, fmt.Sprintf("author_id = ANY($%d)", len(args)))
	}
	if query.Kind == models.KindStory && !query.ActiveAt.IsZero() {
		args = append(args, query.ActiveAt.UTC())
		conditions = append(conditions, fmt.Sprintf("expires_at > $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var total int
	if err := conn.QueryRow(ctx, `SELECT count(*) FROM `+table+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", table, err)
	}

	sql := `SELECT ` + columns + ` FROM ` + table + where + ` ORDER BY created_at DESC, id DESC`
	if query.Limit > 0 {
		args = append(args, query.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if query.Offset > 0 {
		args = append(args, query.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := conn.Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()

	var items []models.Content
	for rows.Next() {
		content, err := scanContent(query.Kind, rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan %s: %w", query.Kind, err)
		}
		items = append(items, content)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate %s: %w", table, err)
	}
	return items, total, nil
}

// ToggleLike flips the viewer's like in a single statement so concurrent toggles on
// one row serialise.
func (r *PostgresContentRepository) ToggleLike(ctx context.Context, kind models.ContentKind, id, viewerID string) (bool, int, error) {
	table, _, err := kindSchema(kind)
	if err != nil {
		return false, 0, err
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return false, 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var (
		liked bool
		count int
	)
	err = conn.QueryRow(ctx, `
        UPDATE `+table+`
        SET likes = CASE WHEN $2::text = ANY(likes) THEN array_remove(likes, $2::text)
                         ELSE array_append(likes, $2::text) END,
            updated_at = $3
        WHERE id = $1
        RETURNING $2::text = ANY(likes), COALESCE(array_length(likes, 1), 0)
    `, id, viewerID, time.Now().UTC()).Scan(&liked, &count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, 0, ErrNotFound
		}
		return false, 0, fmt.Errorf("toggle like on %s: %w", kind, err)
	}
	return liked, count, nil
}

// AddComment appends a comment to a post or reel.
func (r *PostgresContentRepository) AddComment(ctx context.Context, kind models.ContentKind, id string, comment models.Comment) (int, error) {
	if !kind.SupportsComments() {
		return 0, ErrNotFound
	}
	table, _, err := kindSchema(kind)
	if err != nil {
		return 0, err
	}

	encoded, err := json.Marshal(commentRecord(comment))
	if err != nil {
		return 0, fmt.Errorf("encode comment: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	err = conn.QueryRow(ctx, `
        UPDATE `+table+`
        SET comments = comments || jsonb_build_array($2::jsonb), updated_at = $3
        WHERE id = $1
        RETURNING jsonb_array_length(comments)
    `, id, string(encoded), comment.CreatedAt).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("add comment to %s: %w", kind, err)
	}
	return count, nil
}

// AddStoryView appends a view unless the viewer is already recorded.
func (r *PostgresContentRepository) AddStoryView(ctx context.Context, id string, view models.StoryView) (int, error) {
	encoded, err := json.Marshal(viewRecord(view))
	if err != nil {
		return 0, fmt.Errorf("encode story view: %w", err)
	}

	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	var count int
	err = conn.QueryRow(ctx, `
        UPDATE stories
        SET views = CASE WHEN views @> jsonb_build_array(jsonb_build_object('viewerId', $2::text))
                         THEN views ELSE views || jsonb_build_array($3::jsonb) END
        WHERE id = $1
        RETURNING jsonb_array_length(views)
    `, id, view.ViewerID, string(encoded)).Scan(&count)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("add story view: %w", err)
	}
	return count, nil
}

func kindSchema(kind models.ContentKind) (string, string, error) {
	switch kind {
	case models.KindPost:
		return contentTables[kind], postColumns, nil
	case models.KindReel:
		return contentTables[kind], reelColumns, nil
	case models.KindStory:
		return contentTables[kind], storyColumns, nil
	}
	return "", "", fmt.Errorf("unknown content kind %q", kind)
}

func scanContent(kind models.ContentKind, row pgx.Row) (models.Content, error) {
	content := models.Content{Kind: kind}
	var visibility string

	switch kind {
	case models.KindPost:
		var comments []byte
		post := &models.PostBody{}
		if err := row.Scan(&content.ID, &content.AuthorID, &visibility, &content.Likes, &comments,
			&content.CreatedAt, &content.UpdatedAt, &post.Text, &post.Images, &post.Location,
			&post.Hashtags); err != nil {
			return models.Content{}, err
		}
		decoded, err := decodeComments(comments)
		if err != nil {
			return models.Content{}, err
		}
		content.Comments = decoded
		content.Post = post
	case models.KindReel:
		var comments []byte
		reel := &models.ReelBody{Video: models.MediaItem{Type: models.MediaVideo}}
		if err := row.Scan(&content.ID, &content.AuthorID, &visibility, &content.Likes, &comments,
			&content.CreatedAt, &content.UpdatedAt, &reel.Text, &reel.Video.URL, &reel.Video.Thumbnail,
			&reel.Video.Duration, &reel.Hashtags, &reel.Mentions); err != nil {
			return models.Content{}, err
		}
		decoded, err := decodeComments(comments)
		if err != nil {
			return models.Content{}, err
		}
		content.Comments = decoded
		content.Reel = reel
	case models.KindStory:
		var (
			views     []byte
			mediaType string
		)
		story := &models.StoryBody{}
		if err := row.Scan(&content.ID, &content.AuthorID, &visibility, &content.Likes,
			&content.CreatedAt, &content.UpdatedAt, &story.Media.URL, &mediaType, &story.Media.Thumbnail,
			&story.Media.Duration, &views, &story.ExpiresAt); err != nil {
			return models.Content{}, err
		}
		story.Media.Type = models.MediaType(mediaType)
		decoded, err := decodeViews(views)
		if err != nil {
			return models.Content{}, err
		}
		story.Views = decoded
		story.ExpiresAt = story.ExpiresAt.UTC()
		content.Story = story
	default:
		return models.Content{}, fmt.Errorf("unknown content kind %q", kind)
	}

	content.Visibility = models.Visibility(visibility)
	content.CreatedAt = content.CreatedAt.UTC()
	content.UpdatedAt = content.UpdatedAt.UTC()
	return content, nil
}

func encodeComments(comments []models.Comment) (string, error) {
	records := make([]commentRecord, 0, len(comments))
	for _, c := range comments {
		records = append(records, commentRecord(c))
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode comments: %w", err)
	}
	return string(encoded), nil
}

func decodeComments(raw []byte) ([]models.Comment, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var records []commentRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	comments := make([]models.Comment, 0, len(records))
	for _, rec := range records {
		comments = append(comments, models.Comment(rec))
	}
	return comments, nil
}

func encodeViews(views []models.StoryView) (string, error) {
	records := make([]viewRecord, 0, len(views))
	for _, v := range views {
		records = append(records, viewRecord(v))
	}
	encoded, err := json.Marshal(records)
	if err != nil {
		return "", fmt.Errorf("encode story views: %w", err)
	}
	return string(encoded), nil
}

func decodeViews(raw []byte) ([]models.StoryView, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var records []viewRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("decode story views: %w", err)
	}
	views := make([]models.StoryView, 0, len(records))
	for _, rec := range records {
		views = append(views, models.StoryView(rec))
	}
	return views, nil
}
