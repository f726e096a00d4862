package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/hathak/notifications/common"
	"github.com/hathak/notifications/model"
)

// GetRequest looks up the purchase request that triggered a dispatch, denormalizing the
// customer fields that notifications need. A NotFoundError is returned if the request does
// not exist.
func GetRequest(ctx context.Context, tx *sql.Tx, id string) (*model.Request, error) {
	wrapMsg := "unable to look up the request"

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select(
			"r.id",
			"r.request_number",
			"r.customer_id",
			"u.name",
			"u.email",
			"r.last_modified_by").
		From("requests r").
		Join("users u ON r.customer_id = u.id").
		Where(sq.Eq{"r.id": id}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	var (
		request        model.Request
		lastModifiedBy sql.NullString
	)
	row := tx.QueryRowContext(ctx, statement, args...)
	err = row.Scan(
		&request.ID,
		&request.RequestNumber,
		&request.CustomerID,
		&request.CustomerName,
		&request.CustomerEmail,
		&lastModifiedBy,
	)
	if err == sql.ErrNoRows {
		return nil, common.NewNotFoundError("request %s does not exist", id)
	}
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	if lastModifiedBy.Valid {
		request.LastModifiedBy = lastModifiedBy.String
	}

	return &request, nil
}
