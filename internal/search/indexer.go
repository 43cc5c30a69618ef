// Package search mirrors scored risk profiles into Elasticsearch for
// analytics dashboards.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"score-handler/internal/models"
	"score-handler/internal/riskdistance"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "userId":       {"type": "keyword"},
      "riskLevel":    {"type": "double"},
      "riskCategory": {"type": "keyword"},
      "distance":     {"type": "double"},
      "factors":      {"type": "object"},
      "scoredAt":     {"type": "date"}
    }
  }
}`

// ProfileDocument is the indexed shape of a scored profile.
type ProfileDocument struct {
	UserID       string                `json:"userId"`
	RiskLevel    float64               `json:"riskLevel"`
	Factors      models.Factors        `json:"factors"`
	RiskCategory riskdistance.Category `json:"riskCategory,omitempty"`
	Distance     *float64              `json:"distance,omitempty"`
	ScoredAt     string                `json:"scoredAt"`
}

type ProfileIndexer struct {
	client *elasticsearch.Client
	index  string
	now    func() time.Time
}

func NewProfileIndexer(client *elasticsearch.Client, index string) *ProfileIndexer {
	return &ProfileIndexer{client: client, index: index, now: time.Now}
}

// EnsureIndex creates the index with its mapping when it does not exist.
func (p *ProfileIndexer) EnsureIndex(ctx context.Context) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{p.index}}.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("check index %s: %w", p.index, err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = esapi.IndicesCreateRequest{
		Index: p.index,
		Body:  bytes.NewReader([]byte(indexMapping)),
	}.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("create index %s: %w", p.index, err)
	}
	defer drain(res)
	if res.IsError() {
		return fmt.Errorf("create index %s: %s", p.index, res.Status())
	}
	return nil
}

// IndexProfile upserts the profile document keyed by user id.
func (p *ProfileIndexer) IndexProfile(ctx context.Context, profile *models.UserRiskProfile, distance *riskdistance.Result) error {
	doc := ProfileDocument{
		UserID:    profile.UserID,
		RiskLevel: profile.RiskLevel,
		Factors:   profile.Factors,
		ScoredAt:  p.now().UTC().Format(time.RFC3339),
	}
	if distance != nil {
		d := distance.Distance
		doc.Distance = &d
		doc.RiskCategory = distance.Category
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("marshal profile document: %w", err)
	}

	res, err := esapi.IndexRequest{
		Index:      p.index,
		DocumentID: profile.UserID,
		Body:       bytes.NewReader(body),
	}.Do(ctx, p.client)
	if err != nil {
		return fmt.Errorf("index profile %s: %w", profile.UserID, err)
	}
	defer drain(res)

	if res.IsError() {
		return fmt.Errorf("index profile %s: %s", profile.UserID, res.Status())
	}
	return nil
}

// ProfileScored indexes every persisted profile.
func (p *ProfileIndexer) ProfileScored(ctx context.Context, profile *models.UserRiskProfile, distance *riskdistance.Result) error {
	return p.IndexProfile(ctx, profile, distance)
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		io.Copy(io.Discard, res.Body)
		res.Body.Close()
	}
}
