package commands

import (
	"GophDrive/internal/cli/api"
	"GophDrive/internal/cli/auth"
	"GophDrive/internal/cli/service"
	"GophDrive/internal/config"
)

// newDrive собирает сервис CLI с сохранённым токеном.
func newDrive(cfg *config.Config) (service.DriveService, error) {
	token, err := auth.LoadToken(cfg)
	if err != nil {
		return nil, err
	}
	return service.NewDriveService(api.NewClient(cfg.ServerURL, token)), nil
}
