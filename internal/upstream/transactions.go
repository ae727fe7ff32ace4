package upstream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"detector/internal/domain"
)

// DefaultPageSize caps how many transactions one GET asks for.
const DefaultPageSize = 25

// Transactions is the transaction source and outcome sink.
type Transactions struct {
	client   *Client
	pageSize int
}

func NewTransactions(client *Client, pageSize int) (*Transactions, error) {
	if client == nil {
		return nil, errors.New("upstream client is required")
	}
	if pageSize <= 0 {
		return nil, fmt.Errorf("page size must be positive, got %d", pageSize)
	}
	return &Transactions{client: client, pageSize: pageSize}, nil
}

// FetchUnverified pulls up to max unverified transactions in pages of at most
// the page size. It stops early when a page comes back short or empty. A
// failure on the first page is returned; a later failure ends paging and the
// pages already read are returned.
func (t *Transactions) FetchUnverified(ctx context.Context, max int) ([]domain.Transaction, error) {
	var out []domain.Transaction
	for remaining := max; remaining > 0; {
		size := min(remaining, t.pageSize)

		page, err := t.unverifiedPage(ctx, size)
		if err != nil {
			if len(out) == 0 {
				return nil, err
			}
			break
		}
		if len(page) > size {
			page = page[:size]
		}
		out = append(out, page...)
		remaining -= len(page)

		if len(page) < size {
			break
		}
	}
	return out, nil
}

func (t *Transactions) unverifiedPage(ctx context.Context, size int) ([]domain.Transaction, error) {
	var page []domain.Transaction
	query := url.Values{"amount": {strconv.Itoa(size)}}
	if err := t.client.getJSON(ctx, "/transactions/unverified", query, &page); err != nil {
		return nil, err
	}
	return page, nil
}

// Verify marks ids as legitimate.
func (t *Transactions) Verify(ctx context.Context, ids []string) error {
	return t.send(ctx, "/transactions/verify", ids)
}

// Reject marks ids as fraudulent.
func (t *Transactions) Reject(ctx context.Context, ids []string) error {
	return t.send(ctx, "/transactions/reject", ids)
}

func (t *Transactions) send(ctx context.Context, path string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	return t.client.postJSON(ctx, path, ids)
}
