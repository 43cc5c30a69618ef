// Package secrets loads deployment secrets from the Doppler API.
package secrets

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"score-handler/internal/common/config"
	commonhttp "score-handler/internal/common/http"
)

const keyDatabaseURL = "DATABASE_URL"

type Doppler struct {
	client *commonhttp.Client
	url    string
	token  string
}

func NewDoppler(cfg config.SecretsConfig) *Doppler {
	return &Doppler{
		client: commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
		url:    cfg.DopplerURL,
		token:  cfg.DopplerToken,
	}
}

// Download fetches every secret of the token's config as a flat map.
func (d *Doppler) Download(ctx context.Context) (map[string]string, error) {
	var secrets map[string]string
	err := d.client.GetJSON(ctx, d.url,
		map[string]string{"Authorization": "Bearer " + d.token},
		url.Values{"format": []string{"json"}},
		&secrets,
	)
	if err != nil {
		return nil, fmt.Errorf("download doppler secrets: %w", err)
	}
	return secrets, nil
}

// Apply fills config values that Doppler owns. Values already set in the
// config file or environment win. Without a token it does nothing.
func Apply(ctx context.Context, cfg *config.Config) error {
	if cfg.Secrets.DopplerToken == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	secrets, err := NewDoppler(cfg.Secrets).Download(ctx)
	if err != nil {
		return err
	}
	if cfg.Database.Postgres.URL == "" {
		cfg.Database.Postgres.URL = secrets[keyDatabaseURL]
	}
	return nil
}
