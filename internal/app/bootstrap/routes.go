// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"
	"time"

	analyticsfeature "github.com/dalemusser/vidcollab/internal/app/features/analytics"
	assignmentsfeature "github.com/dalemusser/vidcollab/internal/app/features/assignments"
	channelfeature "github.com/dalemusser/vidcollab/internal/app/features/channel"
	commentsfeature "github.com/dalemusser/vidcollab/internal/app/features/comments"
	errorsfeature "github.com/dalemusser/vidcollab/internal/app/features/errors"
	eventsfeature "github.com/dalemusser/vidcollab/internal/app/features/events"
	healthfeature "github.com/dalemusser/vidcollab/internal/app/features/health"
	teamfeature "github.com/dalemusser/vidcollab/internal/app/features/team"
	videosfeature "github.com/dalemusser/vidcollab/internal/app/features/videos"
	"github.com/dalemusser/vidcollab/internal/app/policy/videopolicy"
	"github.com/dalemusser/vidcollab/internal/app/services/youtube"
	assignmentstore "github.com/dalemusser/vidcollab/internal/app/store/assignments"
	"github.com/dalemusser/vidcollab/internal/app/store/audit"
	commentstore "github.com/dalemusser/vidcollab/internal/app/store/comments"
	creatorstore "github.com/dalemusser/vidcollab/internal/app/store/creators"
	editorstore "github.com/dalemusser/vidcollab/internal/app/store/editors"
	"github.com/dalemusser/vidcollab/internal/app/store/oauthstate"
	teamstore "github.com/dalemusser/vidcollab/internal/app/store/teams"
	uploadlockstore "github.com/dalemusser/vidcollab/internal/app/store/uploadlocks"
	videostore "github.com/dalemusser/vidcollab/internal/app/store/videos"
	"github.com/dalemusser/vidcollab/internal/app/system/auditlog"
	"github.com/dalemusser/vidcollab/internal/app/system/filestore"
	"github.com/dalemusser/vidcollab/internal/app/system/mailer"
	"github.com/dalemusser/vidcollab/internal/app/system/metrics"
	"github.com/dalemusser/vidcollab/internal/app/system/notify"
	"github.com/dalemusser/vidcollab/internal/app/system/presence"
	"github.com/dalemusser/vidcollab/internal/app/system/ratelimit"
	"github.com/dalemusser/vidcollab/internal/app/system/tasks"
	"github.com/dalemusser/vidcollab/internal/app/system/timeouts"
	"github.com/dalemusser/vidcollab/internal/app/system/tokencrypt"
	"github.com/dalemusser/vidcollab/internal/app/system/txn"
	"github.com/dalemusser/vidcollab/internal/app/system/workers"
	"github.com/dalemusser/vidcollab/internal/app/workflow/lifecycle"
	"github.com/dalemusser/vidcollab/internal/app/workflow/publish"
	"github.com/dalemusser/vidcollab/internal/app/workflow/team"
	workflowtasks "github.com/dalemusser/vidcollab/internal/app/workflow/tasks"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. It builds the stores, the workflow
// services and their notification fan-out, starts the housekeeping
// scheduler, and mounts every feature router under /api.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	sealer, err := tokencrypt.New(appCfg.TokenKey)
	if err != nil {
		logger.Error("token sealer init failed", zap.Error(err))
		return nil, err
	}

	files, err := buildFileStore(appCfg)
	if err != nil {
		logger.Error("file storage init failed", zap.Error(err), zap.String("type", appCfg.StorageType))
		return nil, err
	}

	// Stores
	members := teamstore.New(db)
	editors := editorstore.New(db)
	creators := creatorstore.New(db, sealer)
	vids := videostore.New(db)
	assignments := assignmentstore.New(db)
	comments := commentstore.New(db)
	states := oauthstate.New(db)
	locks := uploadlockstore.New(db)

	auditLog := auditlog.New(audit.New(db), logger, auditlog.Config{
		Team:    appCfg.AuditLogTeam,
		Video:   appCfg.AuditLogVideo,
		Channel: appCfg.AuditLogChannel,
	})

	// Notifications: mail, event bus and live streams, delivered off the
	// request path by a bounded pool.
	pool, err := ants.NewPool(appCfg.NotifyWorkers, ants.WithNonblocking(true))
	if err != nil {
		return nil, err
	}
	registry := presence.NewRegistry()
	sinks := []notify.Sink{
		&notify.MailSink{
			Mailer: mailer.New(mailer.Config{
				Host:     appCfg.MailSMTPHost,
				Port:     appCfg.MailSMTPPort,
				User:     appCfg.MailSMTPUser,
				Pass:     appCfg.MailSMTPPass,
				From:     appCfg.MailFrom,
				FromName: appCfg.MailFromName,
			}, logger),
			SiteName: appCfg.SiteName,
			BaseURL:  appCfg.BaseURL,
		},
		&notify.PushSink{Registry: registry},
	}
	if deps.Broker != nil {
		sinks = append(sinks, &notify.BusSink{Publisher: deps.Broker})
	}
	notifier := notify.NewDispatcher(pool, logger, sinks...)

	// Workflow services
	yt := youtube.New(appCfg.GoogleClientID, appCfg.GoogleClientSecret, appCfg.BaseURL+"/api/channel/callback")
	teamSvc := team.New(members, editors, creators, notifier, auditLog, logger)
	taskSvc := workflowtasks.New(assignments, vids, members, notifier, auditLog, logger)
	videoSvc := lifecycle.New(lifecycle.Deps{
		Videos:      vids,
		Assignments: assignments,
		Completion:  taskSvc,
		Policy:      videopolicy.New(members),
		Comments:    comments,
		Editors:     editors,
		Creators:    creators,
		Files:       files,
		Notifier:    notifier,
		Audit:       auditLog,
		Log:         logger,
		Tx: func(ctx context.Context, fn func(context.Context) error) error {
			return txn.Run(ctx, db, logger, fn)
		},
	})
	pipeline := publish.New(publish.Deps{
		Videos:      vids,
		Credentials: creators,
		Platform:    yt,
		Locks:       locks,
		Files:       files,
		Notifier:    notifier,
		Audit:       auditLog,
		Log:         logger,
		LockTTL:     appCfg.PublishLockTTL,
	})

	var publishLimit *ratelimit.Limiter
	if appCfg.PublishRateLimit > 0 {
		publishLimit = ratelimit.New(appCfg.PublishRateLimit, time.Hour)
	}

	// Housekeeping
	jobs := []tasks.Job{
		tasks.OAuthStateCleanupJob(states, logger),
		tasks.UploadLockCleanupJob(locks, logger, 10*time.Minute),
	}
	if publishLimit != nil {
		jobs = append(jobs, tasks.RateLimitSweepJob(publishLimit, 15*time.Minute))
	}
	scheduler := workers.NewScheduler(logger, timeouts.Long(), jobs...)
	scheduler.Start()
	if deps.Background != nil {
		deps.Background.Scheduler = scheduler
		deps.Background.Pool = pool
	}

	// Create error logger for handlers.
	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()
	r.NotFound(errorsfeature.NotFound)
	r.MethodNotAllowed(errorsfeature.MethodNotAllowed)

	// Health check endpoint for load balancers and orchestrators
	var broker healthfeature.Checker
	if deps.Broker != nil {
		broker = deps.Broker
	}
	r.Mount("/health", healthfeature.Routes(healthfeature.NewHandler(deps.MongoClient, broker, logger)))
	r.Handle("/metrics", metrics.Handler())

	teamHandler := teamfeature.NewHandler(teamSvc, errLog, logger)
	r.Mount("/api/team", teamfeature.Routes(teamHandler))
	r.Mount("/api/editors", teamfeature.EditorRoutes(teamHandler))
	r.Mount("/api/creators", teamfeature.CreatorRoutes(teamHandler))

	assignmentsHandler := assignmentsfeature.NewHandler(taskSvc, errLog, logger)
	r.Mount("/api/assignments", assignmentsfeature.Routes(assignmentsHandler))

	videosHandler := videosfeature.NewHandler(videoSvc, pipeline, publishLimit, errLog, logger)
	videosHandler.MaxUploadBytes = appCfg.MaxUploadBytes
	r.Mount("/api/videos", videosfeature.Routes(videosHandler))

	commentsHandler := commentsfeature.NewHandler(videoSvc, comments, assignments, notifier, auditLog, errLog, logger)
	r.Mount("/api/comments", commentsfeature.Routes(commentsHandler))

	analyticsHandler := analyticsfeature.NewHandler(db, errLog, logger)
	r.Mount("/api/analytics", analyticsfeature.Routes(analyticsHandler))

	channelHandler := channelfeature.NewHandler(yt, creators, states, []byte(appCfg.StateKey), auditLog, errLog, logger)
	channelHandler.Secure = coreCfg.Env == "prod"
	r.Mount("/api/channel", channelfeature.Routes(channelHandler))

	r.Mount("/api/events", eventsfeature.Routes(eventsfeature.NewHandler(registry, logger)))

	return r, nil
}

func buildFileStore(appCfg AppConfig) (filestore.Store, error) {
	if appCfg.StorageType == "s3" {
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Medium())
		defer cancel()
		return filestore.NewS3(ctx, appCfg.StorageS3Region, appCfg.StorageS3Bucket, appCfg.StorageS3Prefix)
	}
	return filestore.NewLocal(appCfg.StorageLocalPath)
}
