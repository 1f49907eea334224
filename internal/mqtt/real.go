package mqtt

import (
	"context"
	"errors"
	"fmt"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog/log"

	"github.com/sweeney/aux-power/internal/logic"
)

// Client is the broker connection a RemoteReader needs.
type Client interface {
	// Connect opens the connection. onConnect runs after every successful
	// connect, including automatic reconnects.
	Connect(onConnect func()) error

	// Subscribe registers handler for messages on topic.
	Subscribe(topic string, handler func(topic string, payload []byte)) error

	// Unsubscribe removes the subscription on topic.
	Unsubscribe(topic string) error

	// IsConnectionOpen reports whether the connection is up.
	IsConnectionOpen() bool

	// Disconnect closes the connection and stops reconnect attempts,
	// waiting up to quiesce milliseconds for in-flight work.
	Disconnect(quiesce uint)
}

// Options configures a RemoteReader.
type Options struct {
	Broker   string
	Topic    string
	ClientID string
	// Stale is how long a sample stays valid. Zero disables the check.
	Stale time.Duration
}

// RemoteReader subscribes to the switch unit topic and serves the latest sample.
type RemoteReader struct {
	client Client
	topic  string
	last   *latest
}

// NewRemoteReader connects to the broker and subscribes to the input topic.
// The subscription is renewed on every reconnect.
func NewRemoteReader(opts Options) (*RemoteReader, error) {
	return NewRemoteReaderWithClient(newPahoClient(opts), opts)
}

// NewRemoteReaderWithClient connects c and subscribes to the input topic.
// On failure c is disconnected so it stops retrying in the background.
func NewRemoteReaderWithClient(c Client, opts Options) (*RemoteReader, error) {
	if opts.Topic == "" {
		opts.Topic = DefaultTopic
	}
	r := &RemoteReader{
		client: c,
		topic:  opts.Topic,
		last:   newLatest(opts.Stale, time.Now),
	}

	if err := c.Connect(r.subscribe); err != nil {
		c.Disconnect(0)
		return nil, err
	}
	return r, nil
}

func (r *RemoteReader) subscribe() {
	if err := r.client.Subscribe(r.topic, r.onMessage); err != nil {
		log.Error().Err(err).Str("topic", r.topic).Msg("mqtt subscribe failed")
		return
	}
	log.Info().Str("topic", r.topic).Msg("subscribed to driver input")
}

func (r *RemoteReader) onMessage(topic string, payload []byte) {
	if err := r.last.handle(payload); err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("dropping malformed input sample")
	}
}

// Read returns the latest sample, or ErrNoSample / ErrStale.
func (r *RemoteReader) Read() (logic.DriverInput, error) {
	return r.last.read()
}

// WaitSample blocks until the first sample has arrived or ctx is done.
func (r *RemoteReader) WaitSample(ctx context.Context) error {
	select {
	case <-r.last.ready:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("%w: %v", ErrNoSample, ctx.Err())
	}
}

// IsConnected reports whether the broker connection is up.
func (r *RemoteReader) IsConnected() bool {
	return r.client.IsConnectionOpen()
}

// Close unsubscribes and disconnects from the broker.
func (r *RemoteReader) Close() error {
	var err error
	if r.client.IsConnectionOpen() {
		if uerr := r.client.Unsubscribe(r.topic); uerr != nil {
			err = fmt.Errorf("unsubscribe: %w", uerr)
		}
	}
	r.client.Disconnect(1000) // 1 second timeout
	return err
}

// pahoClient adapts a paho client to Client.
type pahoClient struct {
	client    paho.Client
	onConnect func()
}

func newPahoClient(opts Options) *pahoClient {
	p := &pahoClient{}
	co := paho.NewClientOptions().
		AddBroker(opts.Broker).
		SetClientID(opts.ClientID).
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(paho.Client) {
			if p.onConnect != nil {
				p.onConnect()
			}
		}).
		SetConnectionLostHandler(func(_ paho.Client, err error) {
			log.Warn().Err(err).Str("broker", opts.Broker).Msg("mqtt connection lost")
		})
	p.client = paho.NewClient(co)
	return p
}

func (p *pahoClient) Connect(onConnect func()) error {
	p.onConnect = onConnect
	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return errors.New("connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("connect to broker: %w", err)
	}
	return nil
}

func (p *pahoClient) Subscribe(topic string, handler func(topic string, payload []byte)) error {
	// QoS 0: only the newest sample matters.
	token := p.client.Subscribe(topic, 0, func(_ paho.Client, m paho.Message) {
		handler(m.Topic(), m.Payload())
	})
	if !token.WaitTimeout(5 * time.Second) {
		return errors.New("subscribe timeout")
	}
	return token.Error()
}

func (p *pahoClient) Unsubscribe(topic string) error {
	token := p.client.Unsubscribe(topic)
	if !token.WaitTimeout(time.Second) {
		return errors.New("unsubscribe timeout")
	}
	return token.Error()
}

func (p *pahoClient) IsConnectionOpen() bool {
	return p.client.IsConnectionOpen()
}

func (p *pahoClient) Disconnect(quiesce uint) {
	p.client.Disconnect(quiesce)
}
