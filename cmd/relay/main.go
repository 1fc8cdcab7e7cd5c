package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/sirupsen/logrus"

	"github.com/maxzillabong/encrypt-chat-ai/config"
	"github.com/maxzillabong/encrypt-chat-ai/internal/generator"
	"github.com/maxzillabong/encrypt-chat-ai/internal/handler"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/conversation_store"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/memory_store"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/server_keystore"
	"github.com/maxzillabong/encrypt-chat-ai/internal/repository/session_store"
	"github.com/maxzillabong/encrypt-chat-ai/internal/routes"
	"github.com/maxzillabong/encrypt-chat-ai/internal/service/exchange"
	"github.com/maxzillabong/encrypt-chat-ai/internal/service/relay"
)

func init() {
	binding.EnableDecoderDisallowUnknownFields = true // reject extra fields on strict DTOs
}

func main() {
	cfg := config.MustLoad()

	// server identity: loaded from disk, or generated and persisted on first run
	serverKeys, err := server_keystore.NewFileKeyStore(cfg.ServKeys.ServerKeyPath)
	if err != nil {
		panic(err)
	}

	sessions := session_store.NewMemorySessionStore()

	convs := conversation_store.NewRedisConversationStore(cfg.Redis.ServerAddr)
	memories := memory_store.NewRedisMemoryStore(cfg.Redis.ServerAddr)

	gen := generator.NewHTTPGenerator(cfg.Generator.UpstreamURL, cfg.Generator.Timeout)

	exchangeMgr := exchange.NewManager(serverKeys, sessions)
	legacyCodec := exchange.NewPassphraseCodec(cfg.Secure.LegacyPassphrase)
	relaySvc := relay.NewService(gen, convs, memories, cfg.Generator.Timeout)

	h := handler.NewHandler(exchangeMgr, legacyCodec, relaySvc)

	// the session sweep is not self-scheduling; the process owns the ticker
	go func() {
		ticker := time.NewTicker(cfg.Secure.SweepInterval)
		defer ticker.Stop()
		for range ticker.C {
			if removed := exchangeMgr.CleanupSessions(cfg.Secure.SessionMaxAge); removed > 0 {
				logrus.Infof("session sweep removed %d expired sessions", removed)
			}
		}
	}()

	r := gin.Default()
	r.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"POST", "OPTIONS"},
		AllowHeaders: []string{
			"Content-Type", "X-Request-ID", "X-Correlation-ID",
			"X-API-Version", "X-Client-Version", "X-Timestamp",
		},
		MaxAge: 12 * time.Hour,
	}))

	routes.RegisterRoutes(r, cfg, h)

	logrus.Infof("Starting relay on %s", cfg.HTTPServ.ServerAddr)
	if err := r.Run(cfg.HTTPServ.ServerAddr); err != nil {
		panic(err)
	}
}
