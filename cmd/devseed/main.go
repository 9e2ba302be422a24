// Caminho: cmd/devseed/main.go
// Resumo: Utilitário de desenvolvimento: garante o superadmin do .env, autentica e
// cria uma chave de exemplo. Sem GITHUB_TOKEN, roda contra um store em memória.

package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/lfcontato/key_manager_api/internal/config"
	"github.com/lfcontato/key_manager_api/internal/domain"
	adminsvc "github.com/lfcontato/key_manager_api/internal/services/admins"
	authsvc "github.com/lfcontato/key_manager_api/internal/services/auth"
	keysvc "github.com/lfcontato/key_manager_api/internal/services/keys"
	notifysvc "github.com/lfcontato/key_manager_api/internal/services/notify"
	"github.com/lfcontato/key_manager_api/internal/session"
	"github.com/lfcontato/key_manager_api/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	if cfg.RootAdminPassword == "" {
		log.Fatal("ROOT_ADMIN_PASSWORD não definido, nada a semear")
	}

	var st store.Contents
	if cfg.GitHubToken == "" {
		log.Println("GITHUB_TOKEN ausente, usando store em memória (somente demonstração)")
		st = store.NewMemStore()
	} else {
		st = store.NewClient(cfg.GitHubUser, cfg.GitHubRepo, cfg.GitHubBranch, cfg.GitHubToken,
			time.Duration(cfg.StoreTimeoutSeconds)*time.Second)
	}

	notify := notifysvc.New(cfg.ServiceName, cfg.PublicBaseURL)
	admins := adminsvc.New(st, cfg.AdminsFilePath, notify)
	keys := keysvc.New(st, cfg.KeysFilePath)
	sessions := session.NewManager(0, 0)
	auth := authsvc.New(admins, sessions, cfg.RootAdminUsername)

	ctx := context.Background()
	if err := admins.EnsureBootstrap(ctx, cfg.RootAdminUsername, cfg.RootAdminPassword, cfg.RootAdminPhone); err != nil {
		log.Fatalf("seed superadmin: %v", err)
	}
	log.Println("superadmin garantido:", cfg.RootAdminUsername)

	token, id, err := auth.Login(ctx, cfg.RootAdminUsername, cfg.RootAdminPassword, false)
	if err != nil {
		log.Fatalf("login: %v", err)
	}
	fmt.Println("SESSION_ID=", token)
	fmt.Println("ROLE=", id.Role)

	key, err := keys.Create(ctx, domain.KeyRecord{Username: "demo-user", Password: "demo-pass"}, id.Username)
	if err != nil {
		if errors.Is(err, domain.ErrConflict) {
			log.Println("chave de exemplo já existe, pulando criação")
			return
		}
		log.Fatalf("seed key: %v", err)
	}
	log.Println("chave de exemplo criada:", key.Username)
}
