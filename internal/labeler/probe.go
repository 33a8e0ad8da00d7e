// Package labeler checks whether the Bluesky AppView can reach the labelers
// an account subscribes to and prepares the research prompt for the
// bluesky-labelers task.
package labeler

import (
	"context"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/moolen/sentinel/internal/atproto"
	"github.com/moolen/sentinel/internal/logging"
	"github.com/moolen/sentinel/internal/metrics"
)

// Connectivity is the result of probing one labeler.
type Connectivity int

const (
	_ Connectivity = iota
	// Reachable means the AppView applied the labeler to the response.
	Reachable
	// Unreachable means the request succeeded but the labeler was not applied.
	Unreachable
	// ProbeError means the probe request itself failed.
	ProbeError
)

// String returns the status word used in reports and metrics.
func (c Connectivity) String() string {
	switch c {
	case Reachable:
		return "connected"
	case Unreachable:
		return "not_connected"
	case ProbeError:
		return "error"
	default:
		return "invalid"
	}
}

// ProfileFetcher issues getProfile requests and exposes response headers.
type ProfileFetcher interface {
	GetProfileHeaders(ctx context.Context, actor string, acceptLabelers ...string) (http.Header, error)
}

// Prober checks labeler connectivity one labeler at a time.
type Prober struct {
	client  ProfileFetcher
	metrics *metrics.Metrics
	logger  *logging.Logger
}

// NewProber creates a Prober. m may be nil.
func NewProber(client ProfileFetcher, m *metrics.Metrics) *Prober {
	return &Prober{
		client:  client,
		metrics: m,
		logger:  logging.GetLogger("labeler.probe"),
	}
}

// Probe fetches userDID's profile asking the AppView to apply labelerDID and
// reports whether the AppView says it did. Failures are logged and returned
// as ProbeError, never as an error.
func (p *Prober) Probe(ctx context.Context, labelerDID, userDID string) Connectivity {
	ctx, span := otel.Tracer("sentinel/labeler").Start(ctx, "labeler.probe")
	defer span.End()
	span.SetAttributes(attribute.String("labeler.did", labelerDID))

	result := p.probe(ctx, labelerDID, userDID)

	span.SetAttributes(attribute.String("labeler.connectivity", result.String()))
	p.metrics.ObserveProbe(result.String())
	return result
}

func (p *Prober) probe(ctx context.Context, labelerDID, userDID string) Connectivity {
	logger := p.logger.WithContext(ctx)

	if labelerDID == "" || userDID == "" {
		logger.Error("Error checking connectivity: labeler DID %q and user DID %q must both be set", labelerDID, userDID)
		return ProbeError
	}

	headers, err := p.client.GetProfileHeaders(ctx, userDID, labelerDID)
	if err != nil {
		logger.Error("Error checking connectivity for %s: %v", labelerDID, err)
		return ProbeError
	}

	values := headers.Values(atproto.HeaderContentLabelers)
	if len(values) == 0 {
		logger.Debug("Response for %s carried no %s header", labelerDID, atproto.HeaderContentLabelers)
		return Unreachable
	}

	for _, did := range ParseContentLabelers(strings.Join(values, ",")) {
		if did == labelerDID {
			return Reachable
		}
	}
	return Unreachable
}

// ParseContentLabelers splits an atproto-content-labelers header value into
// labeler DIDs, dropping parameters such as ";redact".
func ParseContentLabelers(header string) []string {
	var dids []string
	for _, item := range strings.Split(header, ",") {
		if i := strings.IndexByte(item, ';'); i >= 0 {
			item = item[:i]
		}
		item = strings.TrimSpace(item)
		if item != "" {
			dids = append(dids, item)
		}
	}
	return dids
}
