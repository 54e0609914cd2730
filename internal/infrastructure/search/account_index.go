package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-event-api/internal/domain/entity"
	"github.com/oksasatya/go-event-api/internal/domain/repository"
)

const requestTimeout = 3 * time.Second

type accountDoc struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	EmailVerified   bool      `json:"email_verified"`
	ProfileImageURL string    `json:"profile_image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AccountIndex mirrors accounts into an Elasticsearch index. Password hashes are never indexed.
type AccountIndex struct {
	es     *elasticsearch.Client
	index  string
	logger *logrus.Logger
}

func NewAccountIndex(es *elasticsearch.Client, index string, logger *logrus.Logger) *AccountIndex {
	return &AccountIndex{es: es, index: index, logger: logger}
}

func (x *AccountIndex) Index(ctx context.Context, a *entity.Account) error {
	b, err := json.Marshal(accountDoc{
		ID:              a.ID,
		Email:           a.Email,
		Role:            string(a.Role),
		EmailVerified:   a.EmailVerified,
		ProfileImageURL: a.ProfileImageURL,
		CreatedAt:       a.CreatedAt,
		UpdatedAt:       a.UpdatedAt,
	})
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: a.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()
	res, err := req.Do(c, x.es)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		x.logger.WithFields(logrus.Fields{"status": res.Status(), "account_id": a.ID}).Warn("es index response error")
		return fmt.Errorf("es index: %s", res.Status())
	}
	return nil
}

// Search runs a multi_match over email and role.
func (x *AccountIndex) Search(ctx context.Context, q string, size int) ([]entity.Account, error) {
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"fields": []string{"email^2", "role"},
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	res, err := x.es.Search(
		x.es.Search.WithContext(c),
		x.es.Search.WithIndex(x.index),
		x.es.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source accountDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]entity.Account, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		d := h.Source
		out = append(out, entity.Account{
			ID:              d.ID,
			Email:           d.Email,
			Role:            entity.Role(d.Role),
			EmailVerified:   d.EmailVerified,
			ProfileImageURL: d.ProfileImageURL,
			CreatedAt:       d.CreatedAt,
			UpdatedAt:       d.UpdatedAt,
		})
	}
	return out, nil
}

var _ repository.AccountIndex = (*AccountIndex)(nil)
