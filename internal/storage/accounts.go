package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/doug-martin/goqu/v9"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/model"
)

var accountListTable = goqu.T("ACCOUNTLIST_V1")

// ListAccounts returns every account, open and closed, ordered by
// name.
func (s *Store) ListAccounts(ctx context.Context) ([]model.Account, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	query, args, err := s.dialect.From(accountListTable).
		Select(
			goqu.C("ACCOUNTID"),
			goqu.C("ACCOUNTNAME"),
			goqu.C("ACCOUNTTYPE"),
			goqu.C("STATUS"),
			goqu.C("INITIALBAL"),
		).
		Order(goqu.C("ACCOUNTNAME").Asc()).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: building account query: %v", common.ErrQueryFailed, err)
	}

	var accounts []model.Account
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: listing accounts: %v", common.ErrQueryFailed, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				acct    model.Account
				acctTyp sql.NullString
				status  sql.NullString
				initial sql.NullFloat64
			)
			if scanErr := rows.Scan(&acct.ID, &acct.Name, &acctTyp, &status, &initial); scanErr != nil {
				return fmt.Errorf("%w: scanning account row: %v", common.ErrQueryFailed, scanErr)
			}
			acct.Type = acctTyp.String
			acct.Status = status.String
			acct.InitialBalance = initial.Float64
			accounts = append(accounts, acct)
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return fmt.Errorf("%w: iterating account rows: %v", common.ErrQueryFailed, rowsErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return accounts, nil
}

// AccountBalance computes the account's balance: the initial balance
// plus deposits minus withdrawals over live rows. Transfers are
// excluded, matching how the account register totals its column.
func (s *Store) AccountBalance(ctx context.Context, accountID int64) (float64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if accountID <= 0 {
		return 0, fmt.Errorf("%w: id %d", common.ErrAccountNotFound, accountID)
	}

	initialQuery, initialArgs, err := s.dialect.From(accountListTable).
		Select(goqu.C("INITIALBAL")).
		Where(goqu.C("ACCOUNTID").Eq(accountID)).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("%w: building balance query: %v", common.ErrQueryFailed, err)
	}

	sumsQuery, sumsArgs, err := s.dialect.From(transactionTable).
		Select(
			goqu.L("COALESCE(SUM(CASE WHEN t.TRANSCODE = 'Deposit' THEN t.TRANSAMOUNT ELSE 0 END), 0)"),
			goqu.L("COALESCE(SUM(CASE WHEN t.TRANSCODE = 'Withdrawal' THEN t.TRANSAMOUNT ELSE 0 END), 0)"),
		).
		Where(colAccountID.Eq(accountID), colDeletedTime.Eq("")).
		Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("%w: building balance query: %v", common.ErrQueryFailed, err)
	}

	var balance float64
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		var initial sql.NullFloat64
		if scanErr := conn.QueryRowContext(ctx, initialQuery, initialArgs...).Scan(&initial); scanErr != nil {
			if errors.Is(scanErr, sql.ErrNoRows) {
				return fmt.Errorf("%w: id %d", common.ErrAccountNotFound, accountID)
			}
			return fmt.Errorf("%w: reading initial balance: %v", common.ErrQueryFailed, scanErr)
		}

		var deposits, withdrawals float64
		if scanErr := conn.QueryRowContext(ctx, sumsQuery, sumsArgs...).Scan(&deposits, &withdrawals); scanErr != nil {
			return fmt.Errorf("%w: summing transactions: %v", common.ErrQueryFailed, scanErr)
		}

		balance = initial.Float64 + deposits - withdrawals
		return nil
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}
