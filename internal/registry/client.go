// Package registry talks to the ONDC network registry: subscribing this
// participant and looking up other participants' signing keys.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"ondc-seller/internal/models"
	"ondc-seller/internal/util"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Endpoints are the registry URLs for one network environment.
type Endpoints struct {
	SubscribeURL string
	LookupURL    string
}

// Client is the registry HTTP client.
type Client struct {
	client    *resty.Client
	endpoints map[string]Endpoints
	logger    *zap.Logger
}

// NewClient creates a registry client with per-environment endpoints keyed
// by the environment constants in models.
func NewClient(endpoints map[string]Endpoints, timeout time.Duration) *Client {
	return &Client{
		client: resty.New().
			SetTimeout(timeout).
			SetHeader("Content-Type", "application/json"),
		endpoints: endpoints,
		logger:    util.GetLogger(),
	}
}

type subscribeKeyPair struct {
	SigningPublicKey    string `json:"signing_public_key"`
	EncryptionPublicKey string `json:"encryption_public_key"`
	ValidFrom           string `json:"valid_from"`
	ValidUntil          string `json:"valid_until"`
}

type subscribeEntity struct {
	GST         map[string]string `json:"gst"`
	CallbackURL string            `json:"callback_url"`
	KeyPair     subscribeKeyPair  `json:"key_pair"`
}

type networkParticipant struct {
	SubscriberURL string   `json:"subscriber_url"`
	Domain        string   `json:"domain"`
	Type          string   `json:"type"`
	MSN           bool     `json:"msn"`
	CityCode      []string `json:"city_code"`
}

type subscribeMessage struct {
	RequestID          string               `json:"request_id"`
	Timestamp          string               `json:"timestamp"`
	Entity             subscribeEntity      `json:"entity"`
	NetworkParticipant []networkParticipant `json:"network_participant"`
}

type subscribeRequest struct {
	Context map[string]interface{} `json:"context"`
	Message subscribeMessage       `json:"message"`
}

// Subscribe registers the subscriber with the network registry as a seller
// platform. On a 2xx response the registration is marked INITIATED; the
// registry then calls back on_subscribe with an encrypted challenge before
// granting SUBSCRIBED. Any failure marks the registration FAILED.
func (c *Client) Subscribe(ctx context.Context, sub *models.Subscriber) (string, error) {
	ctx, span := util.StartSpan(ctx, "registry.subscribe")
	defer span.End()

	eps, ok := c.endpoints[sub.Environment]
	if !ok || eps.SubscribeURL == "" {
		return models.RegistrationStatusFailed, fmt.Errorf("no registry endpoints configured for environment %s", sub.Environment)
	}

	now := time.Now().UTC()
	req := subscribeRequest{
		Context: map[string]interface{}{
			"operation": map[string]interface{}{"ops_no": 2},
		},
		Message: subscribeMessage{
			RequestID: uuid.New().String(),
			Timestamp: now.Format(time.RFC3339),
			Entity: subscribeEntity{
				GST:         map[string]string{"legal_entity_name": ""},
				CallbackURL: sub.SubscriberURL,
				KeyPair: subscribeKeyPair{
					SigningPublicKey:    sub.SigningPublicKey,
					EncryptionPublicKey: sub.EncryptionPublicKey,
					ValidFrom:           now.Format(time.RFC3339),
					ValidUntil:          now.AddDate(1, 0, 0).Format(time.RFC3339),
				},
			},
			NetworkParticipant: []networkParticipant{{
				SubscriberURL: sub.SubscriberURL,
				Domain:        sub.Domain,
				Type:          "BPP",
				MSN:           false,
				CityCode:      splitCityCodes(sub.CityCodes),
			}},
		},
	}

	c.logger.Info("Subscribing to ONDC registry",
		zap.String("subscriber_id", sub.SubscriberID),
		zap.String("url", eps.SubscribeURL))

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(eps.SubscribeURL)
	if err != nil {
		c.logger.Error("Registry subscribe failed",
			zap.String("subscriber_id", sub.SubscriberID), zap.Error(err))
		return models.RegistrationStatusFailed, err
	}

	if resp.StatusCode() >= 300 {
		c.logger.Error("Registry subscribe rejected",
			zap.String("subscriber_id", sub.SubscriberID),
			zap.Int("status", resp.StatusCode()),
			zap.String("body", string(resp.Body())))
		return models.RegistrationStatusFailed, fmt.Errorf("registry subscribe returned status %d", resp.StatusCode())
	}

	c.logger.Info("ONDC subscription initiated",
		zap.String("subscriber_id", sub.SubscriberID))
	return models.RegistrationStatusInitiated, nil
}

type lookupRequest struct {
	SubscriberID string `json:"subscriber_id"`
	UniqueKeyID  string `json:"unique_key_id,omitempty"`
	Type         string `json:"type"`
}

type lookupEntry struct {
	SubscriberID     string `json:"subscriber_id"`
	SigningPublicKey string `json:"signing_public_key"`
}

// LookupPublicKey fetches a participant's signing public key from the
// registry. Returns an empty string when the participant is unknown.
func (c *Client) LookupPublicKey(ctx context.Context, environment, subscriberID, uniqueKeyID string) (string, error) {
	ctx, span := util.StartSpan(ctx, "registry.lookup")
	defer span.End()

	eps, ok := c.endpoints[environment]
	if !ok || eps.LookupURL == "" {
		return "", fmt.Errorf("no registry endpoints configured for environment %s", environment)
	}

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(lookupRequest{
			SubscriberID: subscriberID,
			UniqueKeyID:  uniqueKeyID,
			Type:         "BAP",
		}).
		Post(eps.LookupURL)
	if err != nil {
		return "", fmt.Errorf("registry lookup failed for %s: %w", subscriberID, err)
	}
	if resp.StatusCode() >= 300 {
		return "", fmt.Errorf("registry lookup returned status %d for %s", resp.StatusCode(), subscriberID)
	}

	var entries []lookupEntry
	if err := json.Unmarshal(resp.Body(), &entries); err != nil {
		return "", fmt.Errorf("failed to parse registry lookup response: %w", err)
	}
	if len(entries) == 0 {
		c.logger.Warn("No registry entry for subscriber",
			zap.String("subscriber_id", subscriberID))
		return "", nil
	}
	return entries[0].SigningPublicKey, nil
}

func splitCityCodes(raw string) []string {
	if raw == "" {
		return []string{}
	}
	parts := strings.Split(raw, ",")
	codes := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			codes = append(codes, trimmed)
		}
	}
	return codes
}
