package service

import (
	"context"
	"fmt"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"snaps_engagement/internal/logger"
)

// fcmMaxTokens is the FCM limit of tokens per multicast request.
const fcmMaxTokens = 500

// Pusher delivers push notifications to device tokens. It returns the tokens
// the provider reported as no longer registered so callers can forget them.
type Pusher interface {
	SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) (unregistered []string, err error)
}

// FCMClient wraps the Firebase Cloud Messaging client.
type FCMClient struct {
	client *messaging.Client
}

// NewFCMClient builds a service-account credential from its parts. The
// private key usually arrives from an env file with literal "\n" sequences.
func NewFCMClient(ctx context.Context, projectID, clientEmail, privateKey string) (*FCMClient, error) {
	privateKey = strings.ReplaceAll(privateKey, "\\n", "\n")

	credsJSON := fmt.Sprintf(`{
		"type": "service_account",
		"project_id": %q,
		"private_key": %q,
		"client_email": %q,
		"token_uri": "https://oauth2.googleapis.com/token"
	}`, projectID, privateKey, clientEmail)

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID}, option.WithCredentialsJSON([]byte(credsJSON)))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}

	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("get messaging client: %w", err)
	}

	log := logger.L()
	log.Info().Str("project_id", projectID).Msg("fcm initialized")
	return &FCMClient{client: client}, nil
}

// SendToTokens sends one notification to every token, in batches of 500.
func (c *FCMClient) SendToTokens(ctx context.Context, tokens []string, title, body string, data map[string]string) ([]string, error) {
	var unregistered []string
	for start := 0; start < len(tokens); start += fcmMaxTokens {
		end := min(start+fcmMaxTokens, len(tokens))
		batch := tokens[start:end]

		response, err := c.client.SendEachForMulticast(ctx, buildMulticast(batch, title, body, data))
		if err != nil {
			return unregistered, fmt.Errorf("send multicast: %w", err)
		}

		log := logger.Ctx(ctx)
		log.Debug().
			Int("tokens", len(batch)).
			Int("success", response.SuccessCount).
			Int("failure", response.FailureCount).
			Msg("fcm multicast sent")

		for i, resp := range response.Responses {
			if resp.Success {
				continue
			}
			if messaging.IsUnregistered(resp.Error) {
				unregistered = append(unregistered, batch[i])
				continue
			}
			log.Warn().Err(resp.Error).Int("index", start+i).Msg("fcm delivery failed")
		}
	}
	return unregistered, nil
}

func buildMulticast(tokens []string, title, body string, data map[string]string) *messaging.MulticastMessage {
	return &messaging.MulticastMessage{
		Tokens: tokens,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}
}
