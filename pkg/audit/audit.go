// Package audit indexes request log entries, read from Kafka, into Elasticsearch.
package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/segmentio/kafka-go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/models"
)

// Reader is the consuming side of a Kafka topic. *kafka.Reader satisfies it.
type Reader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
}

// maxReadFailures is how many consecutive read errors Run tolerates before giving up.
const maxReadFailures = 5

type Keeper struct {
	es         *elasticsearch.Client
	index      string
	workers    int
	retryDelay time.Duration
}

// New creates a keeper writing into index with the given number of workers (at least one).
func New(es *elasticsearch.Client, index string, workers int) *Keeper {
	if workers < 1 {
		workers = 1
	}
	return &Keeper{es: es, index: index, workers: workers, retryDelay: time.Second}
}

// DocumentID identifies an entry so a redelivered message overwrites its first copy.
func DocumentID(entry models.LogEntry) string {
	return entry.Service + entry.RequestID
}

// Run reads messages from r and indexes them until ctx is cancelled or the
// reader is closed, both of which return nil. A read error is retried after a
// pause; after maxReadFailures in a row Run stops and returns the last one.
func (k *Keeper) Run(ctx context.Context, r Reader) error {
	jobs := make(chan kafka.Message, k.workers*5)

	var wg sync.WaitGroup
	wg.Add(k.workers)
	for id := 0; id < k.workers; id++ {
		go func(id int) {
			defer wg.Done()
			k.worker(ctx, jobs, id)
		}(id)
	}
	defer func() {
		close(jobs)
		wg.Wait()
	}()

	log.Info("[logkeeper] accepting logs...")
	failures := 0
	for {
		msg, err := r.ReadMessage(ctx)
		switch {
		case err == nil:
			failures = 0
		case ctx.Err() != nil:
			return nil
		case errors.Is(err, io.EOF), errors.Is(err, io.ErrClosedPipe):
			log.Info("[logkeeper] reader closed, stopping")
			return nil
		default:
			failures++
			if failures >= maxReadFailures {
				return fmt.Errorf("failed to read message from Kafka: %w", err)
			}
			log.Errorf("[logkeeper] failed to read message from Kafka (attempt %d): %v", failures, err)
			select {
			case <-time.After(k.retryDelay):
			case <-ctx.Done():
				return nil
			}
			continue
		}
		log.Debugf("[logkeeper] received message: %s", msg.Value)

		select {
		case jobs <- msg:
		case <-ctx.Done():
			return nil
		}
	}
}

func (k *Keeper) worker(ctx context.Context, jobs <-chan kafka.Message, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Debugf("[logkeeper][worker:%d] context cancelled, exiting", id)
			return
		case msg, ok := <-jobs:
			if !ok {
				return
			}
			if err := k.Index(ctx, msg.Value); err != nil {
				log.Errorf("[logkeeper][worker:%d] %v", id, err)
			}
		}
	}
}

// Index stores one JSON-encoded log entry.
func (k *Keeper) Index(ctx context.Context, value []byte) error {
	var entry models.LogEntry
	if err := json.Unmarshal(value, &entry); err != nil {
		return fmt.Errorf("failed to unmarshal log entry: %w", err)
	}
	if entry.RequestID == "" {
		return errors.New("log entry without request id")
	}

	res, err := k.es.Index(
		k.index,
		bytes.NewReader(value),
		k.es.Index.WithContext(ctx),
		k.es.Index.WithDocumentID(DocumentID(entry)),
	)
	if err != nil {
		return fmt.Errorf("failed to index document: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("failed to index document: %s", res.Status())
	}

	log.Debugf("[logkeeper][%s] log entry indexed", shorten(entry.RequestID))
	return nil
}

func shorten(s string) string {
	if len(s) > 6 {
		return s[:6] + "..."
	}
	return s
}
