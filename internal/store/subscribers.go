package store

import (
	"context"
	"database/sql"
	"fmt"

	"ondc-seller/internal/models"
)

// GetSubscriberForEnvironment returns the first subscriber registered for the
// given environment, or nil when none exists. Multiple subscribers per
// environment are not disambiguated; callers get the oldest one.
func (s *Store) GetSubscriberForEnvironment(ctx context.Context, environment string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.GetContext(ctx, &sub,
		"SELECT * FROM subscribers WHERE environment = $1 ORDER BY created_at LIMIT 1", environment)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// GetSubscribersForEnvironment returns every subscriber in an environment.
func (s *Store) GetSubscribersForEnvironment(ctx context.Context, environment string) ([]models.Subscriber, error) {
	var subs []models.Subscriber
	err := s.db.SelectContext(ctx, &subs,
		"SELECT * FROM subscribers WHERE environment = $1 ORDER BY created_at", environment)
	return subs, err
}

// GetSubscriberByID retrieves a subscriber by its network id.
func (s *Store) GetSubscriberByID(ctx context.Context, subscriberID string) (*models.Subscriber, error) {
	var sub models.Subscriber
	err := s.db.GetContext(ctx, &sub,
		"SELECT * FROM subscribers WHERE subscriber_id = $1", subscriberID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("subscriber not found: %s", subscriberID)
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CreateSubscriber inserts a new subscriber row.
func (s *Store) CreateSubscriber(ctx context.Context, sub *models.Subscriber) error {
	query := `
		INSERT INTO subscribers (
			id, tenant_id, subscriber_id, subscriber_url, environment,
			signing_public_key, signing_private_key,
			encryption_public_key, encryption_private_key,
			unique_key_id, domain, city_codes, registration_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING created_at, updated_at`

	return s.db.GetContext(ctx, sub, query,
		sub.ID, sub.TenantID, sub.SubscriberID, sub.SubscriberURL, sub.Environment,
		sub.SigningPublicKey, sub.SigningPrivateKey,
		sub.EncryptionPublicKey, sub.EncryptionPrivateKey,
		sub.UniqueKeyID, sub.Domain, sub.CityCodes, sub.RegistrationStatus)
}

// UpdateSubscriberKeys replaces a subscriber's key material.
func (s *Store) UpdateSubscriberKeys(ctx context.Context, sub *models.Subscriber) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE subscribers
		SET signing_public_key = $1, signing_private_key = $2,
		    encryption_public_key = $3, encryption_private_key = $4,
		    unique_key_id = $5, updated_at = NOW()
		WHERE id = $6`,
		sub.SigningPublicKey, sub.SigningPrivateKey,
		sub.EncryptionPublicKey, sub.EncryptionPrivateKey,
		sub.UniqueKeyID, sub.ID)
	return err
}

// UpdateRegistrationStatus records the outcome of a registry interaction.
func (s *Store) UpdateRegistrationStatus(ctx context.Context, subscriberID, status string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE subscribers
		SET registration_status = $1, last_subscribe_at = NOW(), updated_at = NOW()
		WHERE subscriber_id = $2`,
		status, subscriberID)
	return err
}
