package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/mother-community/internal/domain/entity"
	"github.com/oksasatya/mother-community/internal/domain/repository"
)

// ProfileIndex mirrors the searchable part of profiles into Elasticsearch.
type ProfileIndex struct {
	client *es.Client
	index  string
	logger *logrus.Logger
}

func NewProfileIndex(client *es.Client, index string, logger *logrus.Logger) *ProfileIndex {
	return &ProfileIndex{client: client, index: index, logger: logger}
}

type profileDoc struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	City      string `json:"city"`
	AvatarURL string `json:"avatar_url,omitempty"`
	UpdatedAt string `json:"updated_at"`
}

func (x *ProfileIndex) Index(ctx context.Context, p *entity.Profile) error {
	if x.client == nil || x.index == "" {
		return nil
	}
	doc := profileDoc{
		ID:        p.ID,
		FullName:  entity.Deref(p.FullName),
		City:      entity.Deref(p.City),
		AvatarURL: entity.Deref(p.AvatarURL),
		UpdatedAt: p.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{Index: x.index, DocumentID: p.ID, Body: bytes.NewReader(b), Refresh: "false"}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.client)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return fmt.Errorf("es index %s: %s", p.ID, res.Status())
	}
	return nil
}

// Remove deletes a profile document. A missing document is not an error.
func (x *ProfileIndex) Remove(ctx context.Context, id string) error {
	if x.client == nil || x.index == "" {
		return nil
	}
	req := esapi.DeleteRequest{Index: x.index, DocumentID: id}
	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	res, err := req.Do(c, x.client)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("es delete %s: %s", id, res.Status())
	}
	return nil
}

// Search runs a fuzzy multi_match over name and city.
func (x *ProfileIndex) Search(ctx context.Context, q string, size int) ([]repository.ProfileHit, error) {
	if x.client == nil || x.index == "" {
		return []repository.ProfileHit{}, nil
	}
	if size <= 0 || size > 50 {
		size = 10
	}
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     q,
				"fields":    []string{"full_name^2", "city"},
				"fuzziness": "AUTO",
			},
		},
		"size": size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	res, err := x.client.Search(
		x.client.Search.WithContext(c),
		x.client.Search.WithIndex(x.index),
		x.client.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		if x.logger != nil {
			x.logger.WithField("status", res.Status()).Warn("es search response error")
		}
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				ID     string     `json:"_id"`
				Source profileDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}

	out := make([]repository.ProfileHit, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, repository.ProfileHit{
			ID:        h.ID,
			FullName:  h.Source.FullName,
			City:      h.Source.City,
			AvatarURL: h.Source.AvatarURL,
		})
	}
	return out, nil
}

var _ repository.ProfileIndex = (*ProfileIndex)(nil)
