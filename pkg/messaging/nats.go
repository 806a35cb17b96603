// Package messaging carries asynchronous moderation checks over NATS
// request/reply. Moderators subscribe in a queue group so each request is
// answered once.
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gofrs/uuid"
	"github.com/nats-io/nats.go"
	log "github.com/sirupsen/logrus"

	"censorship/pkg/models"
)

const (
	SubjectCheck = "censor.check"
	QueueGroup   = "censor-moderators"
)

var ErrModeration = fmt.Errorf("moderator rejected request")

// Checker reports whether a text is profane. *censor.Censor satisfies it.
type Checker interface {
	Contains(text string) bool
}

// NATSClient wraps the NATS connection and tracks its subscriptions for draining.
type NATSClient struct {
	conn *nats.Conn
	mu   sync.Mutex
	subs []*nats.Subscription
}

type NATSConfig struct {
	URL           string
	Name          string
	ReconnectWait time.Duration
	// MaxReconnects is the number of reconnect attempts, -1 for unlimited.
	MaxReconnects int
}

func DefaultNATSConfig() NATSConfig {
	return NATSConfig{
		URL:           nats.DefaultURL,
		Name:          "censor",
		ReconnectWait: 2 * time.Second,
		MaxReconnects: -1,
	}
}

func NewNATSClient(config NATSConfig) (*NATSClient, error) {
	opts := []nats.Option{
		nats.Name(config.Name),
		nats.ReconnectWait(config.ReconnectWait),
		nats.MaxReconnects(config.MaxReconnects),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warnf("[nats] disconnected: %v", err)
			} else {
				log.Warn("[nats] disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infof("[nats] reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("[nats] connection closed")
		}),
	}

	nc, err := nats.Connect(config.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	log.Infof("[nats] connected to %s", nc.ConnectedUrl())

	return &NATSClient{conn: nc}, nil
}

// ServeChecks answers check requests with c until the client is closed.
func (n *NATSClient) ServeChecks(c Checker) error {
	sub, err := n.conn.QueueSubscribe(SubjectCheck, QueueGroup, func(msg *nats.Msg) {
		if err := msg.Respond(handle(c, msg.Data)); err != nil {
			log.Errorf("[nats] failed to respond on %s: %v", msg.Reply, err)
		}
	})
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", SubjectCheck, err)
	}

	n.mu.Lock()
	n.subs = append(n.subs, sub)
	n.mu.Unlock()

	log.Infof("[nats] serving %s in queue group %s", SubjectCheck, QueueGroup)
	return nil
}

// Check asks a moderator whether text is profane. ctx bounds the wait for a reply.
func (n *NATSClient) Check(ctx context.Context, text string) (bool, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return false, err
	}
	data, err := json.Marshal(models.ModerationRequest{ID: id.String(), Text: text})
	if err != nil {
		return false, err
	}

	msg, err := n.conn.RequestWithContext(ctx, SubjectCheck, data)
	if err != nil {
		return false, fmt.Errorf("nats request %s: %w", SubjectCheck, err)
	}

	var res models.ModerationResult
	if err := json.Unmarshal(msg.Data, &res); err != nil {
		return false, fmt.Errorf("invalid moderation reply: %w", err)
	}
	if res.Error != "" {
		return false, fmt.Errorf("%w: %s", ErrModeration, res.Error)
	}
	return res.Profane, nil
}

// Close drains subscriptions so in-flight requests are answered, then closes the connection.
func (n *NATSClient) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for _, sub := range n.subs {
		if err := sub.Drain(); err != nil {
			log.Errorf("[nats] drain %s: %v", sub.Subject, err)
		}
	}
	n.subs = nil

	if err := n.conn.Drain(); err != nil {
		log.Errorf("[nats] connection drain: %v", err)
	}
}

// handle turns one encoded request into an encoded reply.
func handle(c Checker, data []byte) []byte {
	var req models.ModerationRequest
	var res models.ModerationResult

	if err := json.Unmarshal(data, &req); err != nil {
		log.Debugf("[nats] invalid moderation request: %v", err)
		res.Error = "invalid request"
	} else {
		res.ID = req.ID
		res.Profane = c.Contains(req.Text)
	}

	b, _ := json.Marshal(res)
	return b
}
