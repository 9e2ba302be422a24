// Caminho: internal/config/config.go
// Resumo: Carrega e expõe variáveis de configuração do sistema a partir de variáveis de ambiente.
// Inclui defaults seguros para desenvolvimento e centraliza chaves usadas no serviço.

package config

import (
    "os"
    "strconv"
)

// Config representa as configurações necessárias do serviço.
type Config struct {
    DeploymentEnv string
    LogLevel      string

    // Porta HTTP local
    Port int

    // Repositório remoto (GitHub Contents API)
    GitHubToken  string
    GitHubUser   string
    GitHubRepo   string
    GitHubBranch string

    // Caminhos dos documentos dentro do repositório
    KeysFilePath   string
    AdminsFilePath string

    // Timeout (segundos) por chamada ao store remoto
    StoreTimeoutSeconds int

    // Sessões
    SessionTTLHours        int
    SessionRememberTTLDays int

    // Conta superadmin de bootstrap
    RootAdminUsername string
    RootAdminPassword string
    RootAdminPhone    string

    // Redis (opcional)
    RedisHost string
    RedisPort int
    RedisPass string
    RedisTLS  bool
    RedisURL  string

    // Rate limit / Lockout de login (configuráveis por env)
    LoginIPLimit            int
    LoginIPWindowMinutes    int
    LoginFailLockThreshold  int
    LoginFailLockTTLMinutes int

    // Metadados
    ServiceName string
    Version     string

    // URL pública base (painel) para compor links em convites
    PublicBaseURL string
}

// getenv retorna o valor de uma variável de ambiente, ou o default se não definido.
func getenv(key, def string) string {
    if v := os.Getenv(key); v != "" {
        return v
    }
    return def
}

// getenvInt retorna uma variável de ambiente como inteiro, ou o default se ausente/inválido.
func getenvInt(key string, def int) int {
    if v := os.Getenv(key); v != "" {
        if n, err := strconv.Atoi(v); err == nil {
            return n
        }
    }
    return def
}

// getenvBool retorna uma variável de ambiente como bool, ou o default se ausente/inválido.
func getenvBool(key string, def bool) bool {
    if v := os.Getenv(key); v != "" {
        if b, err := strconv.ParseBool(v); err == nil {
            return b
        }
    }
    return def
}

// Load carrega as variáveis de configuração a partir do ambiente e devolve uma instância de Config.
func Load() *Config {
    return &Config{
        DeploymentEnv: getenv("DEPLOYMENT_ENVIRONMENT", "development"),
        LogLevel:      getenv("LOG_LEVEL", "INFO"),
        Port:          getenvInt("PORT", 3000),

        GitHubToken:  getenv("GITHUB_TOKEN", ""),
        GitHubUser:   getenv("GITHUB_USER", ""),
        GitHubRepo:   getenv("GITHUB_REPO", ""),
        GitHubBranch: getenv("GITHUB_BRANCH", "main"),

        KeysFilePath:   getenv("KEYS_FILE_PATH", "Acceckey.json"),
        AdminsFilePath: getenv("ADMINS_FILE_PATH", "admins.json"),

        StoreTimeoutSeconds: getenvInt("STORE_TIMEOUT_SECONDS", 10),

        SessionTTLHours:        getenvInt("SESSION_TTL_HOURS", 2),
        SessionRememberTTLDays: getenvInt("SESSION_REMEMBER_TTL_DAYS", 30),

        RootAdminUsername: getenv("ROOT_ADMIN_USERNAME", "superadmin"),
        RootAdminPassword: getenv("ROOT_ADMIN_PASSWORD", ""),
        RootAdminPhone:    getenv("ROOT_ADMIN_PHONE", ""),

        RedisHost: getenv("REDIS_HOST", ""),
        RedisPort: getenvInt("REDIS_PORT", 0),
        RedisPass: getenv("REDIS_PASSWORD", ""),
        RedisTLS:  getenvBool("REDIS_USE_TLS", false),
        RedisURL:  getenv("REDIS_URL", ""),

        // Defaults: login IP 20/5min; lock >=5 falhas por 15min
        LoginIPLimit:            getenvInt("LOGIN_IP_LIMIT", 20),
        LoginIPWindowMinutes:    getenvInt("LOGIN_IP_WINDOW_MINUTES", 5),
        LoginFailLockThreshold:  getenvInt("LOGIN_FAIL_LOCK_THRESHOLD", 5),
        LoginFailLockTTLMinutes: getenvInt("LOGIN_FAIL_LOCK_TTL_MINUTES", 15),

        ServiceName: getenv("SERVICE_NAME", "key_manager_api"),
        Version:     getenv("SERVICE_VERSION", "0.1.0"),

        PublicBaseURL: getenv("PUBLIC_BASE_URL", ""),
    }
}
