package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/dhlee-dev/portfolio-api/internal/ai"
	"github.com/dhlee-dev/portfolio-api/internal/chat"
	"github.com/dhlee-dev/portfolio-api/internal/common"
	"github.com/dhlee-dev/portfolio-api/internal/config"
	"github.com/dhlee-dev/portfolio-api/internal/portfolio"
	"github.com/dhlee-dev/portfolio-api/internal/store/rabbitmq"
	"github.com/dhlee-dev/portfolio-api/internal/store/redisstore"
)

type Handler struct {
	DB        *gorm.DB
	Cfg       config.Config
	Redis     *redisstore.Store
	ChatSvc   *chat.Service
	Portfolio *portfolio.Repo
}

func NewHandler(db *gorm.DB, cfg config.Config, rds *redisstore.Store, events *rabbitmq.Publisher) *Handler {
	reg := ai.NewRegistry()
	reg.Register("ollama", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OllamaModel
		}
		return ai.NewOllamaProvider(cfg.OllamaBaseURL, m), nil
	})
	reg.Register("openrouter", func(ctx context.Context, model string) (ai.Provider, error) {
		m := strings.TrimSpace(model)
		if m == "" {
			m = cfg.OpenRouterModel
		}
		return ai.NewOpenRouterProvider(cfg.OpenRouterBaseURL, cfg.OpenRouterAPIKey, m,
			cfg.OpenRouterSiteURL, cfg.OpenRouterAppName), nil
	})

	provider, err := reg.Get(context.Background(), cfg.AIProvider, "")
	if err != nil {
		panic(fmt.Sprintf("unsupported AI_PROVIDER=%q", cfg.AIProvider))
	}

	pfRepo := portfolio.NewRepo(db)
	chatRepo := chat.NewRepo(db)
	contexts := chat.NewContextProvider(pfRepo, rds, cfg.ContextCacheTTL)
	completer := chat.NewCompleter(provider)
	chatSvc := chat.NewService(chatRepo, contexts, completer, events)

	return &Handler{
		DB:        db,
		Cfg:       cfg,
		Redis:     rds,
		ChatSvc:   chatSvc,
		Portfolio: pfRepo,
	}
}

func (h *Handler) Ping(c *gin.Context) {
	common.OK(c, gin.H{"pong": true})
}
