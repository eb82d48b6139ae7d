package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"f1racetelemetry/pkg/model"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

const silenceTimeout = 5 * time.Second

type MessageHandler interface {
	Handle(model.Message) error
}

// Client reads decoded telemetry messages from a websocket feed and hands
// them to a MessageHandler, reconnecting until its context ends.
type Client struct {
	url            string
	reconnectDelay time.Duration
	handler        MessageHandler
	log            *slog.Logger

	mu           sync.Mutex
	connected    bool
	recevingData bool
}

func NewClient(url string, reconnectDelay time.Duration, handler MessageHandler, log *slog.Logger) *Client {
	return &Client{
		url:            url,
		reconnectDelay: reconnectDelay,
		handler:        handler,
		log:            log,
	}
}

// Connected reports whether the feed is connected and whether a message was
// received in the last few seconds.
func (c *Client) Connected() (connected, receivingData bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected, c.recevingData
}

func (c *Client) setStatus(connected, receivingData bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.connected = connected
	c.recevingData = receivingData
}

func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.readFeed(ctx)
		if ctx.Err() != nil {
			return nil
		}
		c.log.Warn("telemetry feed disconnected", "url", c.url, "err", err, "retryIn", c.reconnectDelay)

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(c.reconnectDelay):
		}
	}
}

func (c *Client) readFeed(ctx context.Context) error {
	dialer := &websocket.Dialer{
		HandshakeTimeout:  10 * time.Second,
		EnableCompression: true,
	}
	conn, _, err := dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return errors.Wrapf(err, "connecting to %s", c.url)
	}
	defer conn.Close()

	c.setStatus(true, false)
	defer c.setStatus(false, false)
	c.log.Info("connected to telemetry feed", "url", c.url)

	doneErr := make(chan error, 1)
	messageChan := make(chan model.Message)

	go func() {
		for {
			var m model.Message
			if err := conn.ReadJSON(&m); err != nil {
				doneErr <- errors.Wrap(err, "read error")
				return
			}
			select {
			case messageChan <- m:
			case <-ctx.Done():
				return
			}
		}
	}()

	return c.dispatchMessage(ctx, messageChan, doneErr)
}

func (c *Client) dispatchMessage(ctx context.Context, messageChan <-chan model.Message, doneErr <-chan error) error {
	timeout := time.After(silenceTimeout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-doneErr:
			return err
		case <-timeout:
			c.setStatus(true, false)
			timeout = time.After(silenceTimeout)
		case m := <-messageChan:
			timeout = time.After(silenceTimeout)
			c.setStatus(true, true)
			if err := c.handler.Handle(m); err != nil {
				c.log.Error("dropping telemetry message", "type", m.MessageType, "err", err)
			}
		}
	}
}
