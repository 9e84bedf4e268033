// Package requests is the queue of add requests submitted through the web
// intake and drained by the worker.
package requests

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bibhubhatta/wecare/internal/assert"
	"github.com/bibhubhatta/wecare/internal/chrono"
	"github.com/bibhubhatta/wecare/internal/db"
	"github.com/bibhubhatta/wecare/internal/inventory"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
)

// Request is an add request. It is manual when ItemName is set.
type Request struct {
	ID        string    `json:"id"`
	UPC       string    `json:"upc"`
	ItemName  string    `json:"item_name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	// Success is nil while the request is pending.
	Success         *bool  `json:"success"`
	Message         string `json:"message"`
	ItemDescription string `json:"item_description"`
	ItemImageURL    string `json:"item_image_url"`
}

func (r Request) Manual() bool {
	return r.ItemName != ""
}

func (r Request) Pending() bool {
	return r.Success == nil
}

func fromRow(row db.AddRequest) Request {
	r := Request{
		ID:              row.ID,
		UPC:             row.Upc,
		ItemName:        row.ItemName,
		CreatedAt:       time.UnixMilli(row.CreatedAt),
		Message:         row.Message,
		ItemDescription: row.ItemDescription,
		ItemImageURL:    row.ItemImageUrl,
	}
	if row.Success.Valid {
		success := row.Success.Int64 != 0
		r.Success = &success
	}
	return r
}

type Store struct {
	sqlDB *sql.DB
	qry   *db.Queries
	time  chrono.TimeAPI
}

func NewStore(sqlDB *sql.DB, time chrono.TimeAPI) Store {
	assert.NotNil(sqlDB)
	assert.NotNil(time)
	return Store{
		sqlDB: sqlDB,
		qry:   db.New(sqlDB),
		time:  time,
	}
}

func (s Store) enqueue(ctx context.Context, code, name string) (Request, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Request{}, inventory.Errorf(inventory.KindInvalid, "requests.enqueue", "upc is required")
	}

	id := uuid.NewString()
	err := s.qry.CreateAddRequest(ctx, db.CreateAddRequestParams{
		ID:        id,
		Upc:       code,
		ItemName:  name,
		CreatedAt: s.time.Now().UnixMilli(),
	})
	if err != nil {
		return Request{}, fmt.Errorf("create add request: %w", err)
	}
	return s.Get(ctx, id)
}

// Enqueue queues an automatic add request.
func (s Store) Enqueue(ctx context.Context, code string) (Request, error) {
	return s.enqueue(ctx, code, "")
}

// EnqueueManual queues an add request for an item the operator names.
func (s Store) EnqueueManual(ctx context.Context, code, name string) (Request, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Request{}, inventory.Errorf(inventory.KindInvalid, "requests.enqueue-manual", "item name is required")
	}
	return s.enqueue(ctx, code, name)
}

func (s Store) Get(ctx context.Context, id string) (Request, error) {
	row, err := s.qry.GetAddRequest(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return Request{}, inventory.Errorf(inventory.KindNotFound, "requests.get", "request %s", id)
	}
	if err != nil {
		return Request{}, fmt.Errorf("get add request: %w", err)
	}
	return fromRow(row), nil
}

// Pending returns unprocessed requests, oldest first.
func (s Store) Pending(ctx context.Context) ([]Request, error) {
	rows, err := s.qry.GetPendingAddRequests(ctx)
	if err != nil {
		return nil, fmt.Errorf("get pending add requests: %w", err)
	}
	out := make([]Request, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

// AppendMessage adds a line to the request's message log.
func (s Store) AppendMessage(ctx context.Context, id, message string) error {
	return s.qry.AppendAddRequestMessage(ctx, db.AppendAddRequestMessageParams{
		ID:      id,
		Message: message + "\n",
	})
}

// Result is what processing a request produced.
type Result struct {
	Success         bool
	Message         string
	ItemDescription string
	ItemImageURL    string
}

// Complete records the final message and result of a request atomically.
func (s Store) Complete(ctx context.Context, id string, result Result) error {
	var success int64
	if result.Success {
		success = 1
	}
	return db.InTx(ctx, s.sqlDB, func(tx *db.Queries) error {
		if result.Message != "" {
			err := tx.AppendAddRequestMessage(ctx, db.AppendAddRequestMessageParams{
				ID:      id,
				Message: result.Message + "\n",
			})
			if err != nil {
				return fmt.Errorf("append message: %w", err)
			}
		}
		err := tx.CompleteAddRequest(ctx, db.CompleteAddRequestParams{
			ID:              id,
			Success:         sql.NullInt64{Int64: success, Valid: true},
			ItemDescription: result.ItemDescription,
			ItemImageUrl:    result.ItemImageURL,
		})
		if err != nil {
			return fmt.Errorf("complete add request: %w", err)
		}
		return nil
	})
}

type Status string

const (
	StatusAny       Status = ""
	StatusPending   Status = "pending"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Filter narrows List, zero values match everything.
type Filter struct {
	Status Status
	UPC    string
	Since  time.Time
	Limit  uint64
}

var columns = []string{
	"id", "upc", "item_name", "created_at", "success",
	"message", "item_description", "item_image_url",
}

// List returns requests matching the filter, newest first.
func (s Store) List(ctx context.Context, filter Filter) ([]Request, error) {
	query := sq.Select(columns...).
		From("add_request").
		OrderBy("created_at desc")

	switch filter.Status {
	case StatusAny:
	case StatusPending:
		query = query.Where(sq.Eq{"success": nil})
	case StatusSucceeded:
		query = query.Where(sq.Eq{"success": 1})
	case StatusFailed:
		query = query.Where(sq.Eq{"success": 0})
	default:
		return nil, inventory.Errorf(inventory.KindInvalid, "requests.list", "unknown status %q", filter.Status)
	}
	if filter.UPC != "" {
		query = query.Where(sq.Eq{"upc": filter.UPC})
	}
	if !filter.Since.IsZero() {
		query = query.Where(sq.GtOrEq{"created_at": filter.Since.UnixMilli()})
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	rows, err := query.RunWith(s.sqlDB).QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list add requests: %w", err)
	}
	defer rows.Close()

	var out []Request
	for rows.Next() {
		var row db.AddRequest
		err := rows.Scan(
			&row.ID,
			&row.Upc,
			&row.ItemName,
			&row.CreatedAt,
			&row.Success,
			&row.Message,
			&row.ItemDescription,
			&row.ItemImageUrl,
		)
		if err != nil {
			return nil, err
		}
		out = append(out, fromRow(row))
	}
	return out, rows.Err()
}
