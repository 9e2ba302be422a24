// Caminho: internal/store/github.go
// Resumo: Cliente da GitHub Contents API: busca documento com token de versão (sha)
// e escrita com verificação otimista. Leituras têm fallback para a URL raw.

package store

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client acessa documentos JSON versionados em um repositório GitHub.
type Client struct {
	Owner  string
	Repo   string
	Branch string
	Token  string

	// Overridable em testes; New preenche com os endpoints públicos.
	APIBase string
	RawBase string

	UserAgent string
	HTTP      *http.Client
}

// NewClient cria um cliente com timeout fixo por chamada.
func NewClient(owner, repo, branch, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		Owner:     owner,
		Repo:      repo,
		Branch:    branch,
		Token:     token,
		APIBase:   "https://api.github.com",
		RawBase:   "https://raw.githubusercontent.com",
		UserAgent: "key-manager-api",
		HTTP:      &http.Client{Timeout: timeout},
	}
}

// apiURL monta a URL da Contents API para o documento informado.
func (c *Client) apiURL(path string) string {
	return fmt.Sprintf("%s/repos/%s/%s/contents/%s", c.APIBase, c.Owner, c.Repo, path)
}

// rawURL monta a URL raw (sem token de versão) para o documento informado.
func (c *Client) rawURL(path string) string {
	return fmt.Sprintf("%s/%s/%s/%s/%s", c.RawBase, c.Owner, c.Repo, c.Branch, path)
}

// contentsResponse é o payload relevante da Contents API em leituras.
type contentsResponse struct {
	Content string `json:"content"`
	SHA     string `json:"sha"`
}

// Fetch busca o documento e o sha de versão pela Contents API.
// HTTP 404 significa "documento não existe" e retorna (nil, "", nil).
func (c *Client) Fetch(ctx context.Context, path string) ([]json.RawMessage, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL(path)+"?ref="+c.Branch, nil)
	if err != nil {
		return nil, "", errors.Wrap(err, "build fetch request")
	}
	c.setHeaders(req)

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, "", nil
	case resp.StatusCode >= 500:
		return nil, "", fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, "", fmt.Errorf("github fetch: unexpected status %d", resp.StatusCode)
	}

	var cr contentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	// A API devolve base64 com quebras de linha a cada 60 colunas.
	data, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(cr.Content, "\n", ""))
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	items, err := parseDocument(data)
	if err != nil {
		return nil, "", err
	}
	return items, cr.SHA, nil
}

// fetchRaw busca somente o conteúdo pela URL raw. Não fornece token de versão,
// portanto serve apenas a caminhos somente-leitura.
func (c *Client) fetchRaw(ctx context.Context, path string) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.rawURL(path), nil)
	if err != nil {
		return nil, errors.Wrap(err, "build raw request")
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("github raw fetch: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTransient, err)
	}
	return parseDocument(data)
}

// Read percorre a lista ordenada de estratégias de leitura: Contents API primeiro,
// URL raw em seguida. O fallback dispara SOMENTE em ErrTransient; "não existe" e
// erro de parse são respostas definitivas da primeira estratégia.
func (c *Client) Read(ctx context.Context, path string) ([]json.RawMessage, error) {
	strategies := []func(context.Context, string) ([]json.RawMessage, error){
		func(ctx context.Context, p string) ([]json.RawMessage, error) {
			items, _, err := c.Fetch(ctx, p)
			return items, err
		},
		c.fetchRaw,
	}
	var lastErr error
	for _, fetch := range strategies {
		items, err := fetch(ctx, path)
		if err == nil {
			return items, nil
		}
		if !errors.Is(err, ErrTransient) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

// writeRequest é o payload de escrita da Contents API.
type writeRequest struct {
	Message string `json:"message"`
	Content string `json:"content"`
	Branch  string `json:"branch"`
	SHA     string `json:"sha,omitempty"`
}

// Write substitui o documento pelo conteúdo informado, indentado como o painel
// legado publicava. previousToken vazio omite o sha (criação); sha defasado é
// reportado como ErrConflict — nunca retried às cegas, sob risco de sobrescrever
// a escrita de um concorrente.
func (c *Client) Write(ctx context.Context, path string, content any, previousToken, commitMessage string) error {
	payload, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshal document")
	}
	body, err := json.Marshal(writeRequest{
		Message: commitMessage,
		Content: base64.StdEncoding.EncodeToString(payload),
		Branch:  c.Branch,
		SHA:     previousToken,
	})
	if err != nil {
		return errors.Wrap(err, "marshal write request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.apiURL(path), bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build write request")
	}
	c.setHeaders(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		return nil
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		// O GitHub responde 409 (e às vezes 422) quando o sha não corresponde
		// à revisão corrente do arquivo.
		return fmt.Errorf("%w: status %d", ErrConflict, resp.StatusCode)
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: status %d", ErrTransient, resp.StatusCode)
	default:
		return fmt.Errorf("github write: unexpected status %d", resp.StatusCode)
	}
}

// setHeaders aplica autenticação e cabeçalhos exigidos pela API.
func (c *Client) setHeaders(req *http.Request) {
	if c.Token != "" {
		req.Header.Set("Authorization", "token "+c.Token)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", c.UserAgent)
}
