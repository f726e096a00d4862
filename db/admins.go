package db

import (
	"context"
	"database/sql"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/hathak/notifications/model"
)

// ListActiveAdmins returns every administrator account that is currently flagged active. The
// set is evaluated fresh on every call so that admin fan-outs always reflect the live roster.
func ListActiveAdmins(ctx context.Context, tx *sql.Tx) ([]*model.Admin, error) {
	wrapMsg := "unable to list active admins"

	// Build the query.
	statement, args, err := sq.StatementBuilder.
		PlaceholderFormat(sq.Dollar).
		Select("id", "username", "email").
		From("admins").
		Where(sq.Eq{"active": true}).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	// Query the database.
	rows, err := tx.QueryContext(ctx, statement, args...)
	if err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}
	defer rows.Close()

	// Scan the results.
	var admins []*model.Admin
	for rows.Next() {
		var admin model.Admin
		if err := rows.Scan(&admin.ID, &admin.Username, &admin.Email); err != nil {
			return nil, errors.Wrap(err, wrapMsg)
		}
		admins = append(admins, &admin)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, wrapMsg)
	}

	return admins, nil
}
