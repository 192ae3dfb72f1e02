// internal/api/app.go
package api

import (
	"context"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwk"
	"go.uber.org/zap"

	"pacer/internal/dispatch"
	"pacer/pkg/audit"
	"pacer/pkg/config"
	"pacer/pkg/rules"
)

// PassRunner executes one processing pass (the dispatcher in production).
type PassRunner interface {
	Run(ctx context.Context, now time.Time) (dispatch.Report, error)
}

// App is the scheduler's HTTP application container: the cron trigger plus
// the maintenance CRUD the admin UI drives. Shared deps and config only;
// request-scoped work uses context.
type App struct {
	cfg        config.Config
	log        *zap.SugaredLogger
	rules      rules.Store
	audit      audit.Store
	dispatcher PassRunner

	adminJWKS jwk.Set
	now       func() time.Time
}

// New constructs the App. JWKS fetch happens once here; when no JWKS is
// configured the maintenance surface is open (dev).
func New(cfg config.Config, log *zap.SugaredLogger, ruleStore rules.Store, auditStore audit.Store, dispatcher PassRunner) *App {
	app := &App{
		cfg:        cfg,
		log:        log,
		rules:      ruleStore,
		audit:      auditStore,
		dispatcher: dispatcher,
		now:        time.Now,
	}
	if cfg.AdminJWKSURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		set, err := jwk.Fetch(ctx, cfg.AdminJWKSURL)
		if err != nil {
			log.Fatalw("admin jwks fetch", "url", cfg.AdminJWKSURL, "err", err)
		}
		app.adminJWKS = set
	}
	return app
}
