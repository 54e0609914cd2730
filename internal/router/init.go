package router

import (
	"github.com/oksasatya/go-event-api/config"
	"github.com/oksasatya/go-event-api/internal/application"
	"github.com/oksasatya/go-event-api/internal/container"
	"github.com/oksasatya/go-event-api/internal/domain/entity"
	handlers "github.com/oksasatya/go-event-api/internal/interface/http"
	"github.com/oksasatya/go-event-api/internal/interface/middleware"
	"github.com/oksasatya/go-event-api/internal/router/modules"
	"github.com/oksasatya/go-event-api/pkg/helpers"
)

type AuthModuleDeps struct {
	Registration *application.RegistrationService
	Auth         *application.AuthService
	Handler      *handlers.AuthHandler
}

type ProfileModuleDeps struct {
	Service *application.ProfileService
	Handler *handlers.ProfileHandler
}

func buildAuthDeps() (AuthModuleDeps, error) {
	cfg := container.GetConfig()
	logger := container.GetLogger()

	table, err := config.ParsePromotionTable(cfg.PromotionTable)
	if err != nil {
		return AuthModuleDeps{}, err
	}
	policy, err := entity.NewPromotionPolicy(table)
	if err != nil {
		return AuthModuleDeps{}, err
	}
	hasher := helpers.NewBcryptHasher(cfg.BcryptCost)

	reg := application.NewRegistrationService(
		container.GetAccounts(),
		container.GetCodes(),
		container.GetMailer(),
		hasher,
		container.GetLocker(),
		logger,
		application.RegistrationOptions{
			AppName:              cfg.AppName,
			CompanyName:          cfg.CompanyName,
			RequireVerifiedEmail: cfg.RequireVerifiedBeforeJoin,
			Index:                container.GetAccountIndex(),
		},
	)
	auth := application.NewAuthService(
		container.GetAccounts(),
		hasher,
		container.GetJWT(),
		container.GetLocker(),
		policy,
		container.GetAccountIndex(),
		logger,
	)

	return AuthModuleDeps{
		Registration: reg,
		Auth:         auth,
		Handler:      handlers.NewAuthHandler(reg, auth, logger),
	}, nil
}

func buildProfileDeps() ProfileModuleDeps {
	svc := application.NewProfileService(
		container.GetAccounts(),
		container.GetLocker(),
		container.GetUploader(),
		container.GetAccountIndex(),
		container.GetLogger(),
	)
	return ProfileModuleDeps{
		Service: svc,
		Handler: handlers.NewProfileHandler(svc, container.GetLogger(), container.GetConfig().ProfileImageMaxBytes),
	}
}

// InitModules builds services from the container and registers every module.
// Call once at startup, after the container is populated.
func InitModules(r *Registry) error {
	authDeps, err := buildAuthDeps()
	if err != nil {
		return err
	}
	profileDeps := buildProfileDeps()

	r.Use(middleware.Authenticate(container.GetJWT(), container.GetLogger()))
	r.Add(
		modules.NewAuthModule(authDeps.Handler),
		modules.NewProfileModule(profileDeps.Handler),
	)
	if container.GetConfig().DebugMetricsEnabled {
		r.Add(modules.NewDebugModule())
	}
	return nil
}
