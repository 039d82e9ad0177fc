// Package main mints a bearer token for the FisioStudio API. It reads the same
// configuration as the server, so JWT_SECRET must match.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lucap2714-svg/fisiostudio/internal/config"
	"github.com/lucap2714-svg/fisiostudio/internal/domain"
	"github.com/lucap2714-svg/fisiostudio/internal/service"
)

func main() {
	var actorID string
	var role string
	var configPath string

	flag.StringVar(&actorID, "actor", "", "actor id recorded in audit entries (required)")
	flag.StringVar(&role, "role", string(domain.RoleStaff), "token role: staff or kiosk")
	flag.StringVar(&configPath, "config", ".", "directory holding config.yaml")
	flag.Parse()

	if err := run(actorID, domain.Role(role), configPath); err != nil {
		fmt.Fprintf(os.Stderr, "mint-token: %v\n", err)
		os.Exit(1)
	}
}

func run(actorID string, role domain.Role, configPath string) error {
	if actorID == "" {
		return fmt.Errorf("-actor is required")
	}
	if !role.Valid() {
		return fmt.Errorf("unknown role %q", role)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.JWT.Secret == "" {
		return fmt.Errorf("jwt.secret must be set (JWT_SECRET)")
	}
	token, err := service.NewAuthService(cfg.JWT.Secret, cfg.JWT.Expiration).IssueToken(actorID, role)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
