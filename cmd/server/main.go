// Caminho: cmd/server/main.go
// Resumo: Servidor HTTP local. Monta configuração, store remoto, sessões e serviços,
// garante o superadmin de bootstrap e expõe a API na porta configurada.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/lfcontato/key_manager_api/internal/config"
	"github.com/lfcontato/key_manager_api/internal/kv"
	adminsvc "github.com/lfcontato/key_manager_api/internal/services/admins"
	authsvc "github.com/lfcontato/key_manager_api/internal/services/auth"
	keysvc "github.com/lfcontato/key_manager_api/internal/services/keys"
	notifysvc "github.com/lfcontato/key_manager_api/internal/services/notify"
	"github.com/lfcontato/key_manager_api/internal/session"
	"github.com/lfcontato/key_manager_api/internal/store"
	"github.com/lfcontato/key_manager_api/pkg/httpapi"
)

func main() {
	// Em desenvolvimento, o .env local sobrescreve variáveis já definidas.
	_ = godotenv.Overload()
	cfg := config.Load()
	setupLogger(cfg)

	if cfg.GitHubToken == "" {
		log.Fatal().Msg("GITHUB_TOKEN ausente; defina a credencial do repositório remoto")
	}
	if cfg.GitHubUser == "" || cfg.GitHubRepo == "" {
		log.Fatal().Msg("GITHUB_USER/GITHUB_REPO ausentes")
	}

	st := store.NewClient(cfg.GitHubUser, cfg.GitHubRepo, cfg.GitHubBranch, cfg.GitHubToken,
		time.Duration(cfg.StoreTimeoutSeconds)*time.Second)

	sessions := session.NewManager(
		time.Duration(cfg.SessionTTLHours)*time.Hour,
		time.Duration(cfg.SessionRememberTTLDays)*24*time.Hour,
	)
	notify := notifysvc.New(cfg.ServiceName, cfg.PublicBaseURL)
	keys := keysvc.New(st, cfg.KeysFilePath)
	admins := adminsvc.New(st, cfg.AdminsFilePath, notify)
	auth := authsvc.New(admins, sessions, cfg.RootAdminUsername)

	// Redis (rate limit / lockout de login) é opcional.
	if err := kv.Init(cfg.RedisURL, cfg.RedisHost, cfg.RedisPort, cfg.RedisPass, cfg.RedisTLS); err != nil {
		log.Warn().Err(err).Msg("redis init failed")
	}

	// Seed do superadmin se a senha estiver nas envs.
	if cfg.RootAdminPassword == "" {
		log.Info().Msg("ROOT_ADMIN_PASSWORD não definido, omitindo seed do superadmin")
	} else {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := admins.EnsureBootstrap(ctx, cfg.RootAdminUsername, cfg.RootAdminPassword, cfg.RootAdminPhone); err != nil {
			log.Warn().Err(err).Msg("seed do superadmin falhou")
		}
		cancel()
	}

	api := httpapi.New(cfg, sessions, auth, keys, admins)
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Info().Str("addr", addr).Str("repository", cfg.GitHubUser+"/"+cfg.GitHubRepo).
		Str("keysFile", cfg.KeysFilePath).Msg("API iniciada")
	if err := http.ListenAndServe(addr, api.Router()); err != nil {
		log.Fatal().Err(err).Msg("server error")
	}
}

// setupLogger configura o zerolog global a partir de LOG_LEVEL, com saída de
// console em desenvolvimento.
func setupLogger(cfg *config.Config) {
	level := zerolog.InfoLevel
	switch strings.ToUpper(strings.TrimSpace(cfg.LogLevel)) {
	case "DEBUG":
		level = zerolog.DebugLevel
	case "WARN":
		level = zerolog.WarnLevel
	case "ERROR":
		level = zerolog.ErrorLevel
	}
	zerolog.SetGlobalLevel(level)
	if cfg.DeploymentEnv == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}
