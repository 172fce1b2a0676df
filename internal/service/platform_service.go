package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/maheshrc27/viralflow/internal/models"
	"github.com/maheshrc27/viralflow/internal/platform"
	"github.com/maheshrc27/viralflow/internal/repository"
	"github.com/maheshrc27/viralflow/pkg/utils"
)

// Connector is the dispatcher's connection surface.
type Connector interface {
	Connect(ctx context.Context, platform string, creds platform.Credentials) platform.ConnectResult
	Revoke(ctx context.Context, platform string) error
	IsConnected(platform string) bool
	Status() []models.PlatformStatus
}

type PlatformService interface {
	// Connect validates credentials with the platform and persists them encrypted on success.
	Connect(ctx context.Context, platformName string, creds map[string]string) (platform.ConnectResult, error)
	Status(ctx context.Context) []models.PlatformStatus
	// Revoke disconnects the platform and deactivates its stored credentials.
	Revoke(ctx context.Context, platformName string) error
	// Restore reconnects every platform with active stored credentials that is not connected.
	Restore(ctx context.Context) (int, error)
}

type platformService struct {
	connector Connector
	creds     repository.CredentialRepository
	key       []byte
}

func NewPlatformService(connector Connector, creds repository.CredentialRepository, secret string) PlatformService {
	return &platformService{
		connector: connector,
		creds:     creds,
		key:       utils.DeriveKey(secret),
	}
}

func (s *platformService) Connect(ctx context.Context, platformName string, creds map[string]string) (platform.ConnectResult, error) {
	res := s.connector.Connect(ctx, platformName, platform.Credentials(creds))
	if !res.Success {
		return res, nil
	}

	sealed, err := utils.SealJSON(creds, s.key)
	if err != nil {
		return res, fmt.Errorf("encrypt credentials: %w", err)
	}
	id, err := gonanoid.New()
	if err != nil {
		return res, err
	}

	err = s.creds.Upsert(ctx, &models.PlatformCredential{
		ID:          id,
		Platform:    platformName,
		Credentials: sealed,
	})
	if err != nil {
		slog.Error("persist credentials", "platform", platformName, "error", err)
		return res, fmt.Errorf("persist credentials: %w", err)
	}
	return res, nil
}

func (s *platformService) Status(ctx context.Context) []models.PlatformStatus {
	return s.connector.Status()
}

func (s *platformService) Revoke(ctx context.Context, platformName string) error {
	wasConnected := s.connector.IsConnected(platformName)
	if err := s.connector.Revoke(ctx, platformName); err != nil {
		slog.Info(err.Error(), "platform", platformName)
	}

	err := s.creds.Deactivate(ctx, platformName)
	if errors.Is(err, repository.ErrNotFound) {
		if !wasConnected {
			return platform.ErrNotConnected
		}
		return nil
	}
	return err
}

func (s *platformService) Restore(ctx context.Context) (int, error) {
	stored, err := s.creds.ListActive(ctx)
	if err != nil {
		return 0, fmt.Errorf("list credentials: %w", err)
	}

	restored := 0
	for _, cred := range stored {
		if s.connector.IsConnected(cred.Platform) {
			continue
		}

		var creds map[string]string
		if err := utils.OpenJSON(cred.Credentials, s.key, &creds); err != nil {
			slog.Error("decrypt credentials", "platform", cred.Platform, "error", err)
			continue
		}

		res := s.connector.Connect(ctx, cred.Platform, platform.Credentials(creds))
		if !res.Success {
			slog.Info("reconnect failed", "platform", cred.Platform, "error", res.Error)
			continue
		}
		restored++
	}
	return restored, nil
}
