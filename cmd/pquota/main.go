package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/iamwavecut/pquota/internal/audit"
	"github.com/iamwavecut/pquota/internal/bot"
	"github.com/iamwavecut/pquota/internal/config"
	"github.com/iamwavecut/pquota/internal/db/sqlite"
	"github.com/iamwavecut/pquota/internal/event"
	chat "github.com/iamwavecut/pquota/internal/handlers/chat"
	moderation "github.com/iamwavecut/pquota/internal/handlers/moderation"
	"github.com/iamwavecut/pquota/internal/i18n"
	"github.com/iamwavecut/pquota/internal/infra"
	"github.com/iamwavecut/pquota/internal/infra/reg"
	"github.com/iamwavecut/pquota/internal/infrastructure/telegram"
	"github.com/iamwavecut/pquota/internal/lifecycle"
	"github.com/iamwavecut/pquota/internal/observability"
	"github.com/iamwavecut/pquota/internal/quota"
)

const (
	shutdownTimeout = 15 * time.Second
	maxLoopPanics   = 3
)

var errExecutableModified = errors.New("executable file was modified")

func main() {
	log.SetFormatter(&config.NbFormatter{})
	log.SetOutput(os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetLevel(log.Level(cfg.LogLevel))
	i18n.SetDefaultLanguage(cfg.DefaultLanguage)

	err = run(ctx, cfg)
	switch {
	case errors.Is(err, errExecutableModified):
		log.Errorln("executable file was modified")
	case err != nil && !errors.Is(err, context.Canceled):
		log.WithError(err).Fatalln("exiting")
	}
	log.Info("stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	dbClient, err := sqlite.NewSQLiteClient(ctx, cfg.DotPath, cfg.DBFile)
	if err != nil {
		return err
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			log.WithError(err).Warn("cant close database")
		}
	}()

	registry := reg.New(dbClient)
	registry.OnChange(observability.SetRestrictedChannels)
	if err := registry.Reload(ctx); err != nil {
		return err
	}
	log.WithField("restricted_channels", registry.Len()).Info("restrictions loaded")

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		return err
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	defer botAPI.StopReceivingUpdates()

	auditLog := audit.NewLog(dbClient)
	pipeline := moderation.NewPipeline(
		registry,
		quota.NewCounter(),
		auditLog,
		telegram.NewOperations(botAPI, cfg.Moderation.DeleteRPS),
	)
	queue := event.NewQueue(cfg.Moderation.EventQueueSize, cfg.Moderation.EventTimeout)
	queue.Subscribe(chat.MessageEventType, chat.Subscriber(pipeline))

	components := lifecycle.NewRuntime()
	components.Register("event_queue", queue)
	components.Register("quota_compactor", pipeline)
	components.Register("retention_sweeper", audit.NewSweeper(auditLog))
	components.Register("metrics_server", observability.NewServer(cfg.Observability.MetricsAddr))
	if err := components.Start(ctx); err != nil {
		return err
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := components.Stop(stopCtx); err != nil {
			log.WithError(err).Error("shutdown incomplete")
		}
	}()

	service := bot.NewService(botAPI, cfg.DefaultLanguage)
	updateProcessor := bot.NewUpdateProcessor(chat.NewReactor(service, registry, auditLog, queue))

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = cfg.UpdateTimeout
	updateConfig.AllowedUpdates = []string{"message"}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		errCh := make(chan error, 1)
		go infra.GoRecoverable(maxLoopPanics, "process_updates", func() {
			errCh <- processUpdates(gctx, botAPI, updateConfig, updateProcessor)
		})
		return <-errCh
	})
	g.Go(func() error {
		if _, modified := <-infra.MonitorExecutable(gctx); modified {
			return errExecutableModified
		}
		<-gctx.Done()
		return nil
	})
	return g.Wait()
}

func processUpdates(ctx context.Context, botAPI *api.BotAPI, updateConfig api.UpdateConfig, up *bot.UpdateProcessor) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)
	log.WithField("bot", botAPI.Self.UserName).Info("processing updates")
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errorChan:
			if !ok || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		case update, ok := <-updateChan:
			if !ok {
				return nil
			}
			if err := up.Process(ctx, &update); err != nil {
				log.WithError(err).Errorln("cant process update")
			}
		}
	}
}
