// Caminho: pkg/httpapi/httpapi.go
// Resumo: Superfície HTTP da API: rotas, autenticação Bearer por sessão, handlers
// de chaves/administradores e envelope JSON padrão de respostas.

package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/lfcontato/key_manager_api/internal/config"
	"github.com/lfcontato/key_manager_api/internal/domain"
	"github.com/lfcontato/key_manager_api/internal/kv"
	"github.com/lfcontato/key_manager_api/internal/policy"
	adminsvc "github.com/lfcontato/key_manager_api/internal/services/admins"
	authsvc "github.com/lfcontato/key_manager_api/internal/services/auth"
	keysvc "github.com/lfcontato/key_manager_api/internal/services/keys"
	"github.com/lfcontato/key_manager_api/internal/session"
	"github.com/lfcontato/key_manager_api/internal/store"
)

// API agrega as dependências da camada HTTP. Sessões e serviços são passados
// explicitamente — nenhum estado de login vive em variável de pacote.
type API struct {
	cfg      *config.Config
	sessions *session.Manager
	auth     *authsvc.Service
	keys     *keysvc.Service
	admins   *adminsvc.Service
}

// New monta a API com as dependências informadas.
func New(cfg *config.Config, sessions *session.Manager, auth *authsvc.Service, keys *keysvc.Service, admins *adminsvc.Service) *API {
	return &API{cfg: cfg, sessions: sessions, auth: auth, keys: keys, admins: admins}
}

// Router registra todas as rotas da API.
func (a *API) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(a.logMiddleware)

	r.HandleFunc("/api/auth/login", a.loginHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/auth/logout", a.logoutHandler).Methods(http.MethodPost)

	r.HandleFunc("/api/keys", a.keysListHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/keys", a.keysCreateHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/keys/{username}", a.keysUpdateHandler).Methods(http.MethodPut)
	r.HandleFunc("/api/keys/{username}", a.keysDeleteHandler).Methods(http.MethodDelete)

	r.HandleFunc("/api/admins", a.adminsListHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/admins", a.adminsCreateHandler).Methods(http.MethodPost)
	r.HandleFunc("/api/admins/{id}", a.adminsUpdateHandler).Methods(http.MethodPut)
	r.HandleFunc("/api/admins/{id}", a.adminsDeleteHandler).Methods(http.MethodDelete)

	r.HandleFunc("/api/health", a.healthHandler).Methods(http.MethodGet)
	return r
}

// writeJSON escreve uma resposta JSON com status e payload arbitrários.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// fail escreve o envelope padrão de erro {success, code, message}.
func fail(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{"success": false, "code": code, "message": message})
}

// loginHandler autentica por senha (username opcional: ausência assume o
// superadmin de bootstrap, como o painel legado) e emite o token de sessão.
func (a *API) loginHandler(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if ok, _, _ := kv.AllowRate(r.Context(), "rl:login:ip:"+ip, int64(a.cfg.LoginIPLimit), time.Duration(a.cfg.LoginIPWindowMinutes)*time.Minute); !ok {
		fail(w, http.StatusTooManyRequests, "AUTH_429_IP", "Muitas tentativas. Tente mais tarde.")
		return
	}

	var req struct {
		Username   string `json:"username"`
		Password   string `json:"password"`
		RememberMe bool   `json:"rememberMe"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "AUTH_400_001", "JSON inválido")
		return
	}
	if req.Password == "" {
		fail(w, http.StatusBadRequest, "AUTH_400_002", "Senha é obrigatória")
		return
	}

	uname := strings.ToLower(strings.TrimSpace(req.Username))
	if locked, _ := kv.IsLocked(r.Context(), "lock:login:user:"+uname); locked {
		fail(w, http.StatusTooManyRequests, "AUTH_429_LOCK", "Conta temporariamente bloqueada.")
		return
	}

	token, id, err := a.auth.Login(r.Context(), uname, req.Password, req.RememberMe)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidCredentials) {
			logWarn("login failed for '%s'", uname)
			if ok, n, _ := kv.AllowRate(r.Context(), "rl:loginfail:user:"+uname, int64(a.cfg.LoginFailLockThreshold), time.Duration(a.cfg.LoginFailLockTTLMinutes)*time.Minute); !ok || n >= int64(a.cfg.LoginFailLockThreshold) {
				_ = kv.SetLock(r.Context(), "lock:login:user:"+uname, time.Duration(a.cfg.LoginFailLockTTLMinutes)*time.Minute)
			}
			fail(w, http.StatusUnauthorized, "AUTH_401_001", "Credenciais inválidas")
			return
		}
		logError("login: %v", err)
		fail(w, http.StatusInternalServerError, "AUTH_500_001", "Falha ao autenticar")
		return
	}

	logInfo("login success for '%s'", id.Username)
	kv.Del(r.Context(), "rl:loginfail:user:"+uname, "lock:login:user:"+uname)
	writeJSON(w, http.StatusOK, map[string]any{
		"success":   true,
		"sessionId": token,
		"admin":     map[string]string{"username": id.Username, "role": id.Role},
	})
}

// logoutHandler destrói a sessão do token apresentado.
func (a *API) logoutHandler(w http.ResponseWriter, r *http.Request) {
	token, ok := bearerToken(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "AUTH_401_002", "Token ausente")
		return
	}
	if _, err := a.sessions.Validate(token); err != nil {
		a.writeAuthError(w, err)
		return
	}
	a.auth.Logout(token)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// keysListHandler lista a coleção de chaves como está no store.
func (a *API) keysListHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireSession(w, r); !ok {
		return
	}
	keys, err := a.keys.List(r.Context())
	if err != nil {
		a.writeServiceError(w, "KEYS", err)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

// keysCreateHandler adiciona um registro de chave novo.
func (a *API) keysCreateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	var req struct {
		DeviceID string `json:"deviceId"`
		Username string `json:"username"`
		Password string `json:"password"`
		Expiry   string `json:"expiry"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "KEYS_400_001", "JSON inválido")
		return
	}
	key, err := a.keys.Create(r.Context(), domain.KeyRecord{
		DeviceID: req.DeviceID,
		Username: req.Username,
		Password: req.Password,
		Expiry:   req.Expiry,
		Status:   req.Status,
	}, id.Username)
	if err != nil {
		a.writeServiceError(w, "KEYS", err)
		return
	}
	logInfo("key added: %s (by %s)", key.Username, id.Username)
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "key": key})
}

// keysUpdateHandler aplica merge parcial sobre a chave da URL. Campos
// desconhecidos no payload são rejeitados, não silenciosamente mesclados.
func (a *API) keysUpdateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	username := mux.Vars(r)["username"]

	var upd domain.KeyUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		fail(w, http.StatusBadRequest, "KEYS_400_002", "JSON inválido ou campo não permitido")
		return
	}
	key, err := a.keys.Update(r.Context(), username, upd, id.Username)
	if err != nil {
		a.writeServiceError(w, "KEYS", err)
		return
	}
	logInfo("key updated: %s (by %s)", username, id.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "key": key})
}

// keysDeleteHandler remove a chave da URL.
func (a *API) keysDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireSession(w, r)
	if !ok {
		return
	}
	username := mux.Vars(r)["username"]
	if err := a.keys.Delete(r.Context(), username); err != nil {
		a.writeServiceError(w, "KEYS", err)
		return
	}
	logInfo("key deleted: %s (by %s)", username, id.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// adminsListHandler lista contas administrativas (somente superadmin).
func (a *API) adminsListHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireSuperAdmin(w, r); !ok {
		return
	}
	accounts, err := a.admins.List(r.Context())
	if err != nil {
		a.writeServiceError(w, "ADMINS", err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

// adminsCreateHandler provisiona uma conta administrativa. A senha gerada e o
// payload de convite voltam nesta resposta e em nenhum outro lugar.
func (a *API) adminsCreateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireSuperAdmin(w, r)
	if !ok {
		return
	}
	var req adminsvc.CreateInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "ADMINS_400_001", "JSON inválido")
		return
	}
	res, err := a.admins.Create(r.Context(), req, id.Username)
	if err != nil {
		a.writeServiceError(w, "ADMINS", err)
		return
	}
	logInfo("admin created: %s (by %s)", res.Account.Username, id.Username)
	writeJSON(w, http.StatusCreated, map[string]any{
		"success":  true,
		"admin":    res.Account,
		"password": res.Password,
		"invite":   res.Invite,
	})
}

// adminsUpdateHandler aplica merge parcial sobre a conta da URL.
func (a *API) adminsUpdateHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := a.requireSuperAdmin(w, r); !ok {
		return
	}
	targetID := mux.Vars(r)["id"]

	var upd domain.AdminUpdate
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&upd); err != nil {
		fail(w, http.StatusBadRequest, "ADMINS_400_002", "JSON inválido ou campo não permitido")
		return
	}
	account, err := a.admins.Update(r.Context(), targetID, upd)
	if err != nil {
		a.writeServiceError(w, "ADMINS", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "admin": account})
}

// adminsDeleteHandler remove a conta da URL.
func (a *API) adminsDeleteHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := a.requireSuperAdmin(w, r)
	if !ok {
		return
	}
	targetID := mux.Vars(r)["id"]
	if err := a.admins.Delete(r.Context(), targetID); err != nil {
		a.writeServiceError(w, "ADMINS", err)
		return
	}
	logInfo("admin deleted: %s (by %s)", targetID, id.Username)
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// healthHandler informa conectividade com o store e contagem de registros.
func (a *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	keys, err := a.keys.List(r.Context())
	if err != nil {
		logError("health: keys fetch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "unhealthy", "error": "store unreachable"})
		return
	}
	admins, err := a.admins.List(r.Context())
	if err != nil {
		logError("health: admins fetch: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": "unhealthy", "error": "store unreachable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "healthy",
		"keysCount":   len(keys),
		"adminsCount": len(admins),
		"repository":  a.cfg.GitHubUser + "/" + a.cfg.GitHubRepo,
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
	})
}

// bearerToken extrai o token do cabeçalho Authorization: Bearer.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return "", false
	}
	return strings.TrimSpace(h[len("Bearer "):]), true
}

// requireSession valida o Bearer e devolve a identidade da sessão.
func (a *API) requireSession(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	token, ok := bearerToken(r)
	if !ok {
		fail(w, http.StatusUnauthorized, "AUTH_401_003", "Token ausente")
		return domain.Identity{}, false
	}
	id, err := a.sessions.Validate(token)
	if err != nil {
		a.writeAuthError(w, err)
		return domain.Identity{}, false
	}
	return id, true
}

// requireSuperAdmin valida a sessão e exige papel superadmin.
func (a *API) requireSuperAdmin(w http.ResponseWriter, r *http.Request) (domain.Identity, bool) {
	id, ok := a.requireSession(w, r)
	if !ok {
		return domain.Identity{}, false
	}
	if !policy.CanManageAdmins(id.Role) {
		fail(w, http.StatusForbidden, "ADMINS_403_001", "Operação restrita a superadmin")
		return domain.Identity{}, false
	}
	return id, true
}

// writeAuthError mapeia erros de sessão para 401 com código específico.
func (a *API) writeAuthError(w http.ResponseWriter, err error) {
	logDebug("session rejected: %v", err)
	if errors.Is(err, domain.ErrSessionExpired) {
		fail(w, http.StatusUnauthorized, "AUTH_401_005", "Sessão expirada")
		return
	}
	fail(w, http.StatusUnauthorized, "AUTH_401_004", "Token inválido")
}

// writeServiceError mapeia erros de domínio/store para o status e código HTTP.
// Falhas transitórias ou inesperadas do store viram 500 genérico; o detalhe
// completo fica apenas no log do servidor.
func (a *API) writeServiceError(w http.ResponseWriter, prefix string, err error) {
	switch {
	case domain.IsValidation(err):
		fail(w, http.StatusBadRequest, prefix+"_400_010", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		fail(w, http.StatusNotFound, prefix+"_404_001", "Registro não encontrado")
	case errors.Is(err, domain.ErrConflict):
		fail(w, http.StatusConflict, prefix+"_409_001", "Registro já existe")
	case errors.Is(err, domain.ErrForbidden):
		fail(w, http.StatusForbidden, prefix+"_403_002", "Conta superadmin não pode ser alterada ou removida")
	case errors.Is(err, store.ErrConflict):
		// Outro escritor venceu esta geração do documento; o chamador deve
		// reemitir a requisição inteira.
		fail(w, http.StatusConflict, prefix+"_409_002", "Documento alterado por outra operação. Repita a requisição.")
	default:
		logError("%s: %v", prefix, err)
		fail(w, http.StatusInternalServerError, prefix+"_500_001", "Falha interna")
	}
}

// logMiddleware registra método, caminho, status, duração e bytes da resposta.
func (a *API) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(sw, r)
		logInfo("%s %s -> %d (%s) bytes=%d", r.Method, r.URL.Path, sw.status, time.Since(start).String(), sw.nbytes)
	})
}

// statusWriter captura status/bytes para logging.
type statusWriter struct {
	http.ResponseWriter
	status int
	nbytes int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.nbytes += n
	return n, err
}

// clientIP extrai IP do X-Forwarded-For ou RemoteAddr.
func clientIP(r *http.Request) string {
	if xff := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return host
}

// Helpers de log com níveis; o nível efetivo é configurado em zerolog no start.
func logDebug(format string, args ...any) { log.Debug().Msgf(format, args...) }
func logInfo(format string, args ...any)  { log.Info().Msgf(format, args...) }
func logWarn(format string, args ...any)  { log.Warn().Msgf(format, args...) }
func logError(format string, args ...any) { log.Error().Msgf(format, args...) }
