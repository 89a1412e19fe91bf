package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/OvyFlash/telegram-bot-api"
	log "github.com/sirupsen/logrus"

	"github.com/pakhadai/wartovyi/internal/bot"
	"github.com/pakhadai/wartovyi/internal/config"
	"github.com/pakhadai/wartovyi/internal/db/sqlite"
	"github.com/pakhadai/wartovyi/internal/event"
	adminhandlers "github.com/pakhadai/wartovyi/internal/handlers/admin"
	chathandlers "github.com/pakhadai/wartovyi/internal/handlers/chat"
	moderationhandlers "github.com/pakhadai/wartovyi/internal/handlers/moderation"
	"github.com/pakhadai/wartovyi/internal/infra"
	"github.com/pakhadai/wartovyi/internal/lifecycle"
	"github.com/pakhadai/wartovyi/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatalln("cant load config")
	}
	log.SetFormatter(&config.WvFormatter{})
	log.SetOutput(os.Stdout)
	log.SetLevel(log.Level(cfg.LogLevel))

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := observability.Init(ctx, cfg.MetricsAddr); err != nil {
		log.WithError(err).Fatalln("cant init observability")
	}

	botAPI, err := api.NewBotAPI(cfg.TelegramAPIToken)
	if err != nil {
		log.WithError(err).Errorln("cant initialize bot api")
		time.Sleep(1 * time.Second)
		log.Fatalln("exiting")
	}
	if log.Level(cfg.LogLevel) == log.TraceLevel {
		botAPI.Debug = true
	}
	defer botAPI.StopReceivingUpdates()

	dbClient, err := sqlite.NewSQLiteClient(ctx, infra.GetWorkDir(), "bot.db")
	if err != nil {
		log.WithError(err).Fatalln("cant open db")
	}
	defer dbClient.Close()

	service := bot.NewService(botAPI, dbClient, cfg)
	dispatcher := event.NewDispatcher(1024, 4, 30*time.Second)
	gatekeeper := chathandlers.NewGatekeeper(service, cfg, dispatcher)
	messageFilter := moderationhandlers.NewMessageFilter(service, cfg, dispatcher)

	bot.RegisterUpdateHandler("registrar", adminhandlers.NewRegistrar(service, cfg, gatekeeper, messageFilter))
	bot.RegisterUpdateHandler("gatekeeper", gatekeeper)
	bot.RegisterUpdateHandler("moderation", messageFilter)

	runtime := lifecycle.NewRuntime(dispatcher, gatekeeper, messageFilter)
	if err := runtime.Start(ctx); err != nil {
		log.WithError(err).Fatalln("cant start components")
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer stopCancel()
		if err := runtime.Stop(stopCtx); err != nil {
			log.WithError(err).Errorln("cant stop components")
		}
	}()

	updateConfig := api.NewUpdate(0)
	updateConfig.Timeout = 60
	// chat_member updates are opt-in, without them joins are invisible
	updateConfig.AllowedUpdates = []string{
		api.UpdateTypeMessage,
		api.UpdateTypeEditedMessage,
		api.UpdateTypeCallbackQuery,
		api.UpdateTypeMyChatMember,
		api.UpdateTypeChatMember,
	}
	updateProcessor := bot.NewUpdateProcessor(service)

	updateChan, errorChan := bot.GetUpdatesChans(ctx, botAPI, updateConfig)

	infra.GoRecoverable(-1, "update_loop", func() {
		for {
			select {
			case err := <-errorChan:
				log.WithError(err).Fatalln("bot api get updates error")
			case update := <-updateChan:
				processCtx, processCancel := context.WithTimeout(ctx, time.Minute)
				if err := updateProcessor.Process(processCtx, &update); err != nil {
					log.WithError(err).Errorln("cant process update")
				}
				processCancel()
			case <-ctx.Done():
				log.WithError(ctx.Err()).Errorln("no more updates")
				return
			}
		}
	})

	// GoRecoverable hands a panicking loop off to a fresh goroutine, so
	// only a shutdown signal may end the process.
	<-ctx.Done()
}
