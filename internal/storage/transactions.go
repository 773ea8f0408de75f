package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"

	"github.com/mmex-tools/mmexplore/internal/common"
	"github.com/mmex-tools/mmexplore/internal/model"
)

// MMEX tables joined into the transaction view.
var (
	transactionTable = goqu.T("CHECKINGACCOUNT_V1").As("t")
	accountTable     = goqu.T("ACCOUNTLIST_V1").As("a")
	categoryTable    = goqu.T("CATEGORY_V1").As("c")
	subcategoryTable = goqu.T("SUBCATEGORY_V1").As("s")
	payeeTable       = goqu.T("PAYEE_V1").As("p")

	colTransID      = goqu.I("t.TRANSID")
	colTransDate    = goqu.I("t.TRANSDATE")
	colTransCode    = goqu.I("t.TRANSCODE")
	colTransAmount  = goqu.I("t.TRANSAMOUNT")
	colTransNumber  = goqu.I("t.TRANSACTIONNUMBER")
	colNotes        = goqu.I("t.NOTES")
	colDeletedTime  = goqu.I("t.DELETEDTIME")
	colAccountID    = goqu.I("t.ACCOUNTID")
	colAccountName  = goqu.I("a.ACCOUNTNAME")
	colCategName    = goqu.I("c.CATEGNAME")
	colSubcategName = goqu.I("s.SUBCATEGNAME")
	colPayeeName    = goqu.I("p.PAYEENAME")

	// Tags are a one-to-many side relation; flatten each row's tag
	// list into a single comma-separated column.
	tagsColumn = goqu.L(`(SELECT group_concat(tg.TAGNAME, ', ')
		FROM TAG_V1 tg
		JOIN TAGLINK_V1 tl ON tl.TAGID = tg.TAGID
		WHERE tl.REFTYPE = 'Transaction' AND tl.REFID = t.TRANSID)`).As("TAGS")
)

// tagMatch builds an EXISTS predicate over the tag link table.
func tagMatch(pattern string) goqu.Expression {
	return goqu.L(`EXISTS (SELECT 1 FROM TAG_V1 tg
		JOIN TAGLINK_V1 tl ON tl.TAGID = tg.TAGID
		WHERE tl.REFTYPE = 'Transaction' AND tl.REFID = t.TRANSID
		AND tg.TAGNAME LIKE ?)`, pattern)
}

// basePredicates builds the predicate set shared by the row query,
// the count query and every report: live rows only, optional account
// filter, date window inclusive on both ends. Date validation happens
// here, before any SQL executes.
func basePredicates(f model.Filter) ([]goqu.Expression, error) {
	if err := validateDateRange(f.StartDate, f.EndDate); err != nil {
		return nil, err
	}

	preds := []goqu.Expression{
		colDeletedTime.Eq(""), // soft-deleted rows carry a deletion timestamp
	}

	if f.AccountID > 0 {
		preds = append(preds, colAccountID.Eq(f.AccountID))
	}
	if f.StartDate != "" {
		preds = append(preds, colTransDate.Gte(f.StartDate))
	}
	if f.EndDate != "" {
		preds = append(preds, colTransDate.Lte(f.EndDate))
	}

	return preds, nil
}

// transactionPredicates adds the search predicate for the selected
// filter type on top of the base set.
func transactionPredicates(f model.Filter) ([]goqu.Expression, error) {
	preds, err := basePredicates(f)
	if err != nil {
		return nil, err
	}

	if f.SearchText == "" {
		return preds, nil
	}

	pattern := "%" + f.SearchText + "%"
	switch f.FilterType {
	case model.FilterAccount:
		preds = append(preds, colAccountName.Like(pattern))
	case model.FilterPayee:
		preds = append(preds, colPayeeName.Like(pattern))
	case model.FilterCategory:
		preds = append(preds, goqu.Or(
			colCategName.Like(pattern),
			colSubcategName.Like(pattern),
		))
	case model.FilterNotes:
		preds = append(preds, colNotes.Like(pattern))
	case model.FilterTags:
		preds = append(preds, tagMatch(pattern))
	default: // all fields
		preds = append(preds, goqu.Or(
			colPayeeName.Like(pattern),
			colCategName.Like(pattern),
			colSubcategName.Like(pattern),
			colNotes.Like(pattern),
			colAccountName.Like(pattern),
			colTransNumber.Like(pattern),
			tagMatch(pattern),
		))
	}

	return preds, nil
}

// transactionDataset is the joined, filtered dataset both the count
// and the page query derive from.
func (s *Store) transactionDataset(f model.Filter) (*goqu.SelectDataset, error) {
	preds, err := transactionPredicates(f)
	if err != nil {
		return nil, err
	}

	ds := s.dialect.From(transactionTable).
		LeftJoin(accountTable, goqu.On(goqu.I("a.ACCOUNTID").Eq(colAccountID))).
		LeftJoin(categoryTable, goqu.On(goqu.I("c.CATEGID").Eq(goqu.I("t.CATEGID")))).
		LeftJoin(subcategoryTable, goqu.On(goqu.I("s.SUBCATEGID").Eq(goqu.I("t.SUBCATEGID")))).
		LeftJoin(payeeTable, goqu.On(goqu.I("p.PAYEEID").Eq(goqu.I("t.PAYEEID")))).
		Where(preds...)

	return ds, nil
}

// sortColumns whitelists the caller-selectable sort fields; anything
// else is rejected before it can reach the SQL.
var sortColumns = map[model.SortField]exp.IdentifierExpression{
	model.SortDate:     colTransDate,
	model.SortAmount:   colTransAmount,
	model.SortPayee:    colPayeeName,
	model.SortAccount:  colAccountName,
	model.SortCategory: colCategName,
}

// sortOrderings maps the filter's sort choice to ordered expressions.
// The transaction id is always the secondary key so pagination stays
// deterministic across equal primary values.
func sortOrderings(f model.Filter) ([]exp.OrderedExpression, error) {
	field := f.Sort
	if field == "" {
		field = model.SortDate
	}

	col, ok := sortColumns[field]
	if !ok {
		return nil, fmt.Errorf("%w: unknown sort field %q", common.ErrInvalidConfig, field)
	}

	primary := col.Asc()
	if f.SortDesc {
		primary = col.Desc()
	}
	return []exp.OrderedExpression{primary, colTransID.Asc()}, nil
}

// CountTransactions returns how many transactions match the filter.
// An empty result set is 0 with a nil error.
func (s *Store) CountTransactions(ctx context.Context, f model.Filter) (int, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}

	ds, err := s.transactionDataset(f)
	if err != nil {
		return 0, err
	}

	query, args, err := ds.Select(goqu.COUNT(goqu.Star())).Prepared(true).ToSQL()
	if err != nil {
		return 0, fmt.Errorf("%w: building count query: %v", common.ErrQueryFailed, err)
	}

	var count int
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		if scanErr := conn.QueryRowContext(ctx, query, args...).Scan(&count); scanErr != nil {
			return fmt.Errorf("%w: counting transactions: %v", common.ErrQueryFailed, scanErr)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return count, nil
}

// FetchTransactionPage returns one page of filtered transactions with
// account, payee, category and tag names joined in for display.
func (s *Store) FetchTransactionPage(ctx context.Context, f model.Filter, page, pageSize int) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("%w: page size must be positive, got %d", common.ErrInvalidConfig, pageSize)
	}
	if page < 1 {
		page = 1
	}

	ds, err := s.transactionDataset(f)
	if err != nil {
		return nil, err
	}

	orderings, err := sortOrderings(f)
	if err != nil {
		return nil, err
	}

	query, args, err := ds.
		Select(
			colTransID,
			colTransDate,
			colTransCode,
			colTransAmount,
			colTransNumber,
			colNotes,
			colAccountName,
			colPayeeName,
			colCategName,
			colSubcategName,
			tagsColumn,
		).
		Order(orderings...).
		Offset(uint((page - 1) * pageSize)).
		Limit(uint(pageSize)).
		Prepared(true).ToSQL()
	if err != nil {
		return nil, fmt.Errorf("%w: building page query: %v", common.ErrQueryFailed, err)
	}

	var txns []model.Transaction
	err = s.withConn(ctx, func(conn *sql.Conn) error {
		rows, queryErr := conn.QueryContext(ctx, query, args...)
		if queryErr != nil {
			return fmt.Errorf("%w: fetching transaction page: %v", common.ErrQueryFailed, queryErr)
		}
		defer func() { _ = rows.Close() }()

		for rows.Next() {
			var (
				id       int64
				date     string
				amount   float64
				code     sql.NullString
				number   sql.NullString
				notes    sql.NullString
				account  sql.NullString
				payee    sql.NullString
				categ    sql.NullString
				subcateg sql.NullString
				tags     sql.NullString
			)
			if scanErr := rows.Scan(&id, &date, &code, &amount, &number, &notes,
				&account, &payee, &categ, &subcateg, &tags); scanErr != nil {
				return fmt.Errorf("%w: scanning transaction row: %v", common.ErrQueryFailed, scanErr)
			}

			when, parseErr := parseTransDate(date)
			if parseErr != nil {
				return parseErr
			}

			txns = append(txns, model.Transaction{
				ID:          id,
				Date:        when,
				Type:        code.String,
				Amount:      amount,
				Number:      number.String,
				Notes:       notes.String,
				Account:     account.String,
				Payee:       payee.String,
				Category:    categ.String,
				Subcategory: subcateg.String,
				Tags:        tags.String,
			})
		}
		if rowsErr := rows.Err(); rowsErr != nil {
			return fmt.Errorf("%w: iterating transaction rows: %v", common.ErrQueryFailed, rowsErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return txns, nil
}

// transDateLayouts covers the date encodings seen in MMEX files:
// plain ISO dates and two datetime variants.
var transDateLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func parseTransDate(value string) (time.Time, error) {
	for _, layout := range transDateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: transaction date %q", common.ErrMalformedDate, value)
}
