package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"poll-be/internal/domain"
	"poll-be/pkg/database"

	"github.com/jackc/pgx/v5"
)

const pollColumns = `id, question, type, options, responses, creator_id, voters, closed, version, created_at`

type PostgresPollRepository struct {
	db  *database.PostgresDB
	now func() time.Time
}

func NewPostgresPollRepository(db *database.PostgresDB) *PostgresPollRepository {
	return &PostgresPollRepository{db: db, now: time.Now}
}

func scanPoll(row pgx.Row) (*domain.Poll, error) {
	var (
		p        domain.Poll
		pollType string
	)
	err := row.Scan(
		&p.ID,
		&p.Question,
		&pollType,
		&p.Options,
		&p.Responses,
		&p.CreatorID,
		&p.Voters,
		&p.Closed,
		&p.Version,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.Type = domain.PollType(pollType)
	p.Normalize()
	return &p, nil
}

// buildPollWhere renders the filter as a WHERE clause. Placeholders continue
// after the arguments already in args.
func buildPollWhere(f domain.PollFilter, args []any) (string, []any) {
	var conds []string
	if f.Type != "" {
		args = append(args, string(f.Type))
		conds = append(conds, fmt.Sprintf("type = $%d", len(args)))
	}
	if f.CreatorID != "" {
		args = append(args, f.CreatorID)
		conds = append(conds, fmt.Sprintf("creator_id = $%d", len(args)))
	}
	if f.VoterID != "" {
		args = append(args, f.VoterID)
		conds = append(conds, fmt.Sprintf("$%d::text = ANY(voters)", len(args)))
	}
	if f.IDs != nil {
		args = append(args, f.IDs)
		conds = append(conds, fmt.Sprintf("id = ANY($%d::text[])", len(args)))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Create inserts a new poll
func (r *PostgresPollRepository) Create(ctx context.Context, poll *domain.Poll) error {
	poll.Normalize()
	query := `
		INSERT INTO polls (id, question, type, options, responses, creator_id, voters, closed, version, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.Pool.Exec(ctx, query,
		poll.ID,
		poll.Question,
		string(poll.Type),
		poll.Options,
		poll.Responses,
		poll.CreatorID,
		poll.Voters,
		poll.Closed,
		poll.Version,
		poll.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create poll: %w", err)
	}
	return nil
}

// FindByID gets a poll by ID
func (r *PostgresPollRepository) FindByID(ctx context.Context, id string) (*domain.Poll, error) {
	query := `SELECT ` + pollColumns + ` FROM polls WHERE id = $1`
	p, err := scanPoll(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrPollNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get poll: %w", err)
	}
	return p, nil
}

// List returns a page of polls, newest first
func (r *PostgresPollRepository) List(ctx context.Context, filter domain.PollFilter, page domain.PageRequest) ([]*domain.Poll, int, error) {
	total, err := r.Count(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 || page.Offset() >= total {
		return []*domain.Poll{}, total, nil
	}

	where, args := buildPollWhere(filter, nil)
	args = append(args, page.Limit, page.Offset())
	query := fmt.Sprintf(`SELECT %s FROM polls%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
		pollColumns, where, len(args)-1, len(args))

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list polls: %w", err)
	}
	defer rows.Close()

	polls := make([]*domain.Poll, 0, page.Limit)
	for rows.Next() {
		p, err := scanPoll(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan poll: %w", err)
		}
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate polls: %w", err)
	}
	return polls, total, nil
}

// Count returns the number of matching polls
func (r *PostgresPollRepository) Count(ctx context.Context, filter domain.PollFilter) (int, error) {
	where, args := buildPollWhere(filter, nil)
	var count int
	if err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM polls`+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count polls: %w", err)
	}
	return count, nil
}

// CountByType groups matching polls by type
func (r *PostgresPollRepository) CountByType(ctx context.Context, filter domain.PollFilter) (map[domain.PollType]int, error) {
	where, args := buildPollWhere(filter, nil)
	rows, err := r.db.Pool.Query(ctx, `SELECT type, COUNT(*) FROM polls`+where+` GROUP BY type`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to count polls by type: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.PollType]int)
	for rows.Next() {
		var (
			pollType string
			count    int
		)
		if err := rows.Scan(&pollType, &count); err != nil {
			return nil, fmt.Errorf("failed to scan type count: %w", err)
		}
		counts[domain.PollType(pollType)] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type counts: %w", err)
	}
	return counts, nil
}

// CastVote records a ballot with a single conditional UPDATE. The row lock
// taken by the UPDATE serializes concurrent ballots on the same poll, and the
// WHERE clause is re-evaluated after the lock is acquired, so a second ballot
// by the same voter matches no row.
func (r *PostgresPollRepository) CastVote(ctx context.Context, pollID string, ballot domain.Ballot) (*domain.Poll, error) {
	current, err := r.FindByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if err := current.CheckVote(ballot); err != nil {
		return nil, err
	}

	var row pgx.Row
	if current.Type.AcceptsResponses() {
		query := `
			UPDATE polls
			SET responses = responses || jsonb_build_array(jsonb_build_object(
			        'voterId', $2::text,
			        'responseText', $3::text,
			        'createdAt', $4::text)),
			    voters = array_append(voters, $2::text),
			    version = version + 1
			WHERE id = $1 AND NOT closed AND NOT ($2::text = ANY(voters)) AND type = 'open-ended'
			RETURNING ` + pollColumns
		row = r.db.Pool.QueryRow(ctx, query,
			pollID,
			ballot.VoterID,
			strings.TrimSpace(ballot.ResponseText),
			r.now().UTC().Format(time.RFC3339Nano),
		)
	} else {
		idx := *ballot.OptionIndex
		query := `
			UPDATE polls
			SET options = jsonb_set(options, ARRAY[$3::text, 'votes'],
			        to_jsonb(COALESCE((options->$4::int->>'votes')::int, 0) + 1)),
			    voters = array_append(voters, $2::text),
			    version = version + 1
			WHERE id = $1 AND NOT closed AND NOT ($2::text = ANY(voters))
			  AND type <> 'open-ended' AND $4::int < jsonb_array_length(options)
			RETURNING ` + pollColumns
		row = r.db.Pool.QueryRow(ctx, query, pollID, ballot.VoterID, fmt.Sprint(idx), idx)
	}

	updated, err := scanPoll(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.classifyRejectedVote(ctx, pollID, ballot)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to cast vote: %w", err)
	}
	return updated, nil
}

// classifyRejectedVote re-reads a poll whose conditional update matched no row
func (r *PostgresPollRepository) classifyRejectedVote(ctx context.Context, pollID string, ballot domain.Ballot) error {
	current, err := r.FindByID(ctx, pollID)
	if err != nil {
		return err
	}
	if err := current.CheckVote(ballot); err != nil {
		return err
	}
	return fmt.Errorf("vote on poll %s was not applied", pollID)
}

// Close marks a poll closed if requesterID created it
func (r *PostgresPollRepository) Close(ctx context.Context, pollID, requesterID string) (*domain.Poll, error) {
	query := `
		UPDATE polls
		SET version = version + CASE WHEN closed THEN 0 ELSE 1 END,
		    closed = TRUE
		WHERE id = $1 AND creator_id = $2
		RETURNING ` + pollColumns
	p, err := scanPoll(r.db.Pool.QueryRow(ctx, query, pollID, requesterID))
	if errors.Is(err, pgx.ErrNoRows) {
		if _, err := r.FindByID(ctx, pollID); err != nil {
			return nil, err
		}
		return nil, domain.ErrNotCreator
	}
	if err != nil {
		return nil, fmt.Errorf("failed to close poll: %w", err)
	}
	return p, nil
}

// Delete removes a poll and drops it from every bookmark set in one transaction
func (r *PostgresPollRepository) Delete(ctx context.Context, pollID, requesterID string) error {
	return r.db.RunInTx(ctx, func(tx pgx.Tx) error {
		var creatorID string
		err := tx.QueryRow(ctx, `SELECT creator_id FROM polls WHERE id = $1 FOR UPDATE`, pollID).Scan(&creatorID)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrPollNotFound
		}
		if err != nil {
			return fmt.Errorf("failed to lock poll: %w", err)
		}
		if creatorID != requesterID {
			return domain.ErrNotCreator
		}

		if _, err := tx.Exec(ctx, `DELETE FROM polls WHERE id = $1`, pollID); err != nil {
			return fmt.Errorf("failed to delete poll: %w", err)
		}
		if _, err := tx.Exec(ctx, removeBookmarkQuery, pollID); err != nil {
			return fmt.Errorf("failed to remove bookmarks: %w", err)
		}
		return nil
	})
}
