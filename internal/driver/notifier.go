package driver

import (
	"context"
	"fmt"
	"log"
	"net/url"

	svix "github.com/svix/svix-webhooks/go"
	svixmodels "github.com/svix/svix-webhooks/go/models"
)

// Notifier announces driver lifecycle and ingestion events to the outside
// world. SvixNotifier is the reference implementation, grounded on the
// teacher's webhooks.WebhookDelivery/SvixClient; NoopNotifier is used when
// no Svix application is configured.
type Notifier interface {
	// NotifyBlock announces that blockNum has been fully processed.
	NotifyBlock(ctx context.Context, blockNum uint32, traceCount, deltaCount int) error
	// NotifyWarning announces a non-fatal decode warning encountered while
	// enriching a result, so an operator can track data-quality drift.
	NotifyWarning(ctx context.Context, blockNum uint32, section, reason string) error
}

// SvixNotifier wraps the Svix Go SDK to deliver driver events as webhook
// messages under a single Svix application.
type SvixNotifier struct {
	client *svix.Svix
	appID  string
}

var _ Notifier = (*SvixNotifier)(nil)

// NewSvixNotifier creates a Svix application named appName (idempotently,
// via GetOrCreate keyed on appID) and returns a Notifier that publishes to
// it. If serverURL is empty the default Svix cloud endpoint is used.
func NewSvixNotifier(ctx context.Context, authToken, serverURL, appID, appName string) (*SvixNotifier, error) {
	var opts *svix.SvixOptions
	if serverURL != "" {
		u, err := url.Parse(serverURL)
		if err != nil {
			return nil, fmt.Errorf("driver: parse svix server url: %w", err)
		}
		opts = &svix.SvixOptions{ServerUrl: u}
	}

	client, err := svix.New(authToken, opts)
	if err != nil {
		return nil, fmt.Errorf("driver: create svix client: %w", err)
	}

	uid := appID
	app, err := client.Application.GetOrCreate(ctx, svixmodels.ApplicationIn{
		Name: appName,
		Uid:  &uid,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("driver: svix create application: %w", err)
	}

	return &SvixNotifier{client: client, appID: app.Id}, nil
}

func (n *SvixNotifier) NotifyBlock(ctx context.Context, blockNum uint32, traceCount, deltaCount int) error {
	_, err := n.client.Message.Create(ctx, n.appID, svixmodels.MessageIn{
		EventType: "ship.block_processed",
		Payload: map[string]interface{}{
			"block_num":   blockNum,
			"trace_count": traceCount,
			"delta_count": deltaCount,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("driver: svix send block notification: %w", err)
	}
	return nil
}

func (n *SvixNotifier) NotifyWarning(ctx context.Context, blockNum uint32, section, reason string) error {
	_, err := n.client.Message.Create(ctx, n.appID, svixmodels.MessageIn{
		EventType: "ship.decode_warning",
		Payload: map[string]interface{}{
			"block_num": blockNum,
			"context":   section,
			"reason":    reason,
		},
	}, nil)
	if err != nil {
		return fmt.Errorf("driver: svix send warning notification: %w", err)
	}
	return nil
}

// NoopNotifier logs events instead of delivering them, for use when no
// Svix application is configured.
type NoopNotifier struct{}

var _ Notifier = (*NoopNotifier)(nil)

func (NoopNotifier) NotifyBlock(_ context.Context, blockNum uint32, traceCount, deltaCount int) error {
	log.Printf("[driver/noop] block %d processed: %d traces, %d deltas", blockNum, traceCount, deltaCount)
	return nil
}

func (NoopNotifier) NotifyWarning(_ context.Context, blockNum uint32, section, reason string) error {
	log.Printf("[driver/noop] block %d warning (%s): %s", blockNum, section, reason)
	return nil
}
