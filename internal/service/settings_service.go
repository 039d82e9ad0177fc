package service

import (
	"context"
	"strings"

	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/store"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrInvalidKioskPIN = domain.Validation("INVALID_PIN_FORMAT", "kiosk PIN must have 4 to 8 digits")
	ErrHashingFailed   = domain.Validation("PIN_HASHING_FAILED", "failed to hash kiosk PIN")
)

// --- Service Interface ---

type SettingsService interface {
	GetSettings(ctx context.Context) (*domain.Settings, error)
	// SaveSettings replaces the settings. An empty PIN hash keeps the stored one.
	SaveSettings(ctx context.Context, actorID string, settings domain.Settings) (*domain.Settings, error)
	SetKioskPIN(ctx context.Context, actorID, pin string) error
}

// --- Service Implementation ---

type settingsService struct {
	store DocumentStore
}

// NewSettingsService creates a new instance of settingsService.
func NewSettingsService(ds DocumentStore) SettingsService {
	return &settingsService{store: ds}
}

func (s *settingsService) GetSettings(ctx context.Context) (*domain.Settings, error) {
	doc, err := s.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	settings := doc.Settings
	return &settings, nil
}

func (s *settingsService) SaveSettings(ctx context.Context, actorID string, settings domain.Settings) (*domain.Settings, error) {
	settings.StudioName = strings.TrimSpace(settings.StudioName)
	if settings.StudioName == "" {
		return nil, domain.Validation("STUDIO_NAME_REQUIRED", "studio name is required")
	}
	err := s.store.Mutate(ctx, func(doc *domain.Document) error {
		if settings.KioskExitPINHash == "" {
			settings.KioskExitPINHash = doc.Settings.KioskExitPINHash
		}
		doc.Settings = settings
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionSettingsUpdated,
			EntityType: entitySettings,
			EntityID:   "settings",
			Details:    "Configurações atualizadas",
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &settings, nil
}

// SetKioskPIN stores the bcrypt hash of a new kiosk exit PIN.
func (s *settingsService) SetKioskPIN(ctx context.Context, actorID, pin string) error {
	if len(pin) < 4 || len(pin) > 8 || strings.Trim(pin, "0123456789") != "" {
		return ErrInvalidKioskPIN
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), bcrypt.DefaultCost)
	if err != nil {
		return ErrHashingFailed
	}
	return s.store.Mutate(ctx, func(doc *domain.Document) error {
		doc.Settings.KioskExitPINHash = string(hash)
		audit(s.store, doc, store.AuditEntry{
			UserID:     actorID,
			Action:     ActionKioskPINChanged,
			EntityType: entitySettings,
			EntityID:   "settings",
			Details:    "PIN do quiosque alterado",
		})
		return nil
	})
}
