package translator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Engine drives the translation of a global ordered string list: it
// partitions the list into contiguous batches, calls the Client per batch
// strictly in order, repairs unusable items, and retries failed calls.
type Engine struct {
	client      Client
	batchSize   int
	maxRetries  int
	batchDelay  time.Duration
	backoffUnit time.Duration
}

// NewEngine creates a batch engine. maxRetries is the total attempt count
// per batch; batchDelay is the fixed pause observed between successful
// batch calls.
func NewEngine(client Client, batchSize, maxRetries int, batchDelay time.Duration) *Engine {
	if batchSize < 1 {
		batchSize = 1
	}
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Engine{
		client:      client,
		batchSize:   batchSize,
		maxRetries:  maxRetries,
		batchDelay:  batchDelay,
		backoffUnit: 2 * time.Second,
	}
}

// Partition splits items into contiguous order-preserving slices of at
// most size elements.
func Partition(items []string, size int) [][]string {
	if size <= 0 {
		size = 1
	}
	var batches [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[i:end])
	}
	return batches
}

// Translate runs the whole list through the collaborator and returns the
// translations in input order. One batch exhausting its attempts aborts
// the run; no partial result is returned.
func (e *Engine) Translate(ctx context.Context, items []string) ([]string, error) {
	if len(items) == 0 {
		return nil, nil
	}

	batches := Partition(items, e.batchSize)
	results := make([]string, 0, len(items))

	for i, batch := range batches {
		log.Info().
			Int("batch", i+1).
			Int("total_batches", len(batches)).
			Int("size", len(batch)).
			Msg("Translating batch")

		translated, err := e.translateBatch(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("batch %d/%d: %w", i+1, len(batches), err)
		}
		results = append(results, translated...)

		if i < len(batches)-1 && e.batchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.batchDelay):
			}
		}
	}

	if len(results) != len(items) {
		return nil, fmt.Errorf("translated %d items, expected %d", len(results), len(items))
	}
	return results, nil
}

// translateBatch attempts one batch up to maxRetries times with linear
// backoff, then repairs empty and sentinel items from the original inputs.
func (e *Engine) translateBatch(ctx context.Context, batch []string) ([]string, error) {
	var lastErr error
	attempts := 0

	for attempt := 0; attempt < e.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(attempt) * e.backoffUnit
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Dur("backoff", backoff).
				Msg("Retrying batch")
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		attempts++
		translated, err := e.client.Translate(ctx, batch)
		if err == nil && len(translated) != len(batch) {
			err = &RequestError{
				Message:   fmt.Sprintf("got %d translations, expected %d", len(translated), len(batch)),
				Retryable: true,
			}
		}
		if err == nil {
			return repair(batch, translated), nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		var reqErr *RequestError
		if errors.As(err, &reqErr) && !reqErr.Retryable {
			break
		}
	}

	return nil, fmt.Errorf("translation failed after %d attempts: %w", attempts, lastErr)
}

// repair substitutes the original input wherever the service produced an
// empty string or the NoTranslation sentinel. The item stays untranslated
// rather than leaking an empty or sentinel value into the document.
func repair(batch, translated []string) []string {
	out := make([]string, len(translated))
	for i, s := range translated {
		if s == "" || s == NoTranslation {
			log.Debug().Int("index", i).Msg("Falling back to original text")
			out[i] = batch[i]
			continue
		}
		out[i] = s
	}
	return out
}
