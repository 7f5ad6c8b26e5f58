package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// ConsumerBootstrapURL is the well-known location of the default consumer
// key/secret pair. Overridable in tests.
var ConsumerBootstrapURL = "https://thegarth.s3.amazonaws.com/oauth_consumer.json"

// ConsumerCredentials identify the client application to the exchange and
// pre-authorization endpoints, independent of any end user.
type ConsumerCredentials struct {
	Key    string `json:"consumer_key"`
	Secret string `json:"consumer_secret"`
}

var (
	consumerMu     sync.Mutex
	cachedConsumer *ConsumerCredentials
)

// FetchConsumerCredentials returns the default consumer credentials from the
// bootstrap location, fetching them at most once per process.
func FetchConsumerCredentials(ctx context.Context) (*ConsumerCredentials, error) {
	consumerMu.Lock()
	defer consumerMu.Unlock()
	if cachedConsumer != nil {
		return cachedConsumer, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ConsumerBootstrapURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create consumer bootstrap request: %w", err)
	}
	httpClient := &http.Client{Timeout: 30 * time.Second}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch consumer credentials: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read consumer credentials response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	var creds ConsumerCredentials
	if err := json.Unmarshal(body, &creds); err != nil {
		return nil, fmt.Errorf("failed to parse consumer credentials: %w", err)
	}
	if creds.Key == "" || creds.Secret == "" {
		return nil, fmt.Errorf("consumer credentials response is missing key or secret")
	}

	cachedConsumer = &creds
	log.Debug().Msg("Consumer credentials fetched")
	return cachedConsumer, nil
}

// resetConsumerCache clears the process-wide consumer cache. Test hook.
func resetConsumerCache() {
	consumerMu.Lock()
	cachedConsumer = nil
	consumerMu.Unlock()
}
