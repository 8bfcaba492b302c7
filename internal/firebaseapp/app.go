// Package firebaseapp builds the Firebase app shared by the Firestore
// backend and the Firebase credential provider.
package firebaseapp

import (
	"context"
	"encoding/base64"
	"os"
	"strings"

	firebase "firebase.google.com/go/v4"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"saadSocialAPI/internal/logger"
)

// New first tries credentialsJSON, either raw or base64 encoded, and falls
// back to the service account key at credentialsFile.
func New(ctx context.Context, projectID, credentialsJSON, credentialsFile string) (*firebase.App, error) {
	opt, err := credentials(credentialsJSON, credentialsFile)
	if err != nil {
		return nil, err
	}

	var cfg *firebase.Config
	if projectID != "" {
		cfg = &firebase.Config{ProjectID: projectID}
	}

	app, err := firebase.NewApp(ctx, cfg, opt)
	if err != nil {
		return nil, errors.Wrap(err, "error initializing firebase app")
	}
	return app, nil
}

func credentials(credentialsJSON, credentialsFile string) (option.ClientOption, error) {
	if credentialsJSON != "" {
		raw := []byte(credentialsJSON)
		if !strings.HasPrefix(strings.TrimSpace(credentialsJSON), "{") {
			decoded, err := base64.StdEncoding.DecodeString(credentialsJSON)
			if err != nil {
				return nil, errors.Wrap(err, "failed to decode base64 firebase credentials")
			}
			raw = decoded
		}
		logger.L().Info("Firebase: initializing from FIREBASE_SERVICE_ACCOUNT_JSON")
		return option.WithCredentialsJSON(raw), nil
	}

	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, errors.Errorf("local firebase file not found: %s, and FIREBASE_SERVICE_ACCOUNT_JSON is not set", credentialsFile)
	}
	logger.L().Info("Firebase: initializing from local file", zap.String("path", credentialsFile))
	return option.WithCredentialsFile(credentialsFile), nil
}
