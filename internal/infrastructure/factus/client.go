// Package factus cliente de la API de Factus (proveedor tecnológico DIAN).
// Autentica con OAuth2 password grant y valida facturas y notas crédito.
package factus

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/invorya-erp/pkg/config"
)

const (
	tokenPath      = "/oauth/token"
	billsPath      = "/v1/bills/validate"
	creditNotePath = "/v1/credit-notes/validate"

	// el token se renueva un poco antes de expirar
	expirySkew = 30 * time.Second
	maxBody    = 1 << 20
)

// APIError respuesta no exitosa de Factus con sus mensajes de validación.
type APIError struct {
	Status  int
	Message string
	Fields  map[string][]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("factus %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("factus %d: %s (%s)", e.Status, e.Message, e.Details())
}

// Details mensajes de validación en una sola línea.
func (e *APIError) Details() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, field+": "+strings.Join(msgs, ", "))
	}
	sort.Strings(parts)
	return strings.Join(parts, "; ")
}

// Rejected true cuando Factus o la DIAN rechazaron el contenido del documento.
func (e *APIError) Rejected() bool {
	return e.Status == http.StatusUnprocessableEntity || e.Status == http.StatusConflict || e.Status == http.StatusBadRequest
}

type token struct {
	access  string
	refresh string
	expires time.Time
}

// Client cliente HTTP con caché del token de acceso.
type Client struct {
	cfg  config.FactusConfig
	http *http.Client
	log  zerolog.Logger
	now  func() time.Time

	mu  sync.Mutex
	tok *token
}

func NewClient(cfg config.FactusConfig, httpClient *http.Client, log zerolog.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient, log: log.With().Str("component", "factus").Logger(), now: time.Now}
}

type tokenResponse struct {
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// accessToken devuelve el token vigente; lo renueva con refresh_token o vuelve a autenticar.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.tok != nil && c.now().Before(c.tok.expires) {
		return c.tok.access, nil
	}
	if c.tok != nil && c.tok.refresh != "" {
		tok, err := c.requestToken(ctx, url.Values{
			"grant_type":    {"refresh_token"},
			"refresh_token": {c.tok.refresh},
		})
		if err == nil {
			c.tok = tok
			return tok.access, nil
		}
		c.log.Warn().Err(err).Msg("refresh token rechazado, autenticando de nuevo")
	}
	tok, err := c.requestToken(ctx, url.Values{
		"grant_type": {"password"},
		"username":   {c.cfg.Username},
		"password":   {c.cfg.Password},
	})
	if err != nil {
		c.tok = nil
		return "", err
	}
	c.tok = tok
	return tok.access, nil
}

func (c *Client) requestToken(ctx context.Context, form url.Values) (*token, error) {
	form.Set("client_id", c.cfg.ClientID)
	form.Set("client_secret", c.cfg.ClientSecret)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+tokenPath, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("factus: crear request de token: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	var out tokenResponse
	if err := c.send(req, &out); err != nil {
		return nil, fmt.Errorf("factus: autenticar: %w", err)
	}
	if out.AccessToken == "" {
		return nil, errors.New("factus: respuesta de token sin access_token")
	}
	return &token{
		access:  out.AccessToken,
		refresh: out.RefreshToken,
		expires: c.now().Add(time.Duration(out.ExpiresIn)*time.Second - expirySkew),
	}, nil
}

// post envía JSON autenticado. Ante un 401 invalida el token y reintenta una vez.
func (c *Client) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("factus: serializar: %w", err)
	}
	for attempt := 0; ; attempt++ {
		tok, err := c.accessToken(ctx)
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("factus: crear request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+tok)
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")

		err = c.send(req, out)
		var apiErr *APIError
		if attempt == 0 && errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			c.mu.Lock()
			c.tok = nil
			c.mu.Unlock()
			continue
		}
		return err
	}
}

type errorEnvelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		Errors map[string]json.RawMessage `json:"errors"`
	} `json:"data"`
}

func (c *Client) send(req *http.Request, out any) error {
	start := c.now()
	resp, err := c.http.Do(req)
	if err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return fmt.Errorf("factus: timeout o cancelación: %w", ctxErr)
		}
		return fmt.Errorf("factus: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("factus: leer respuesta: %w", err)
	}
	c.log.Debug().Str("path", req.URL.Path).Int("status", resp.StatusCode).Dur("latency", c.now().Sub(start)).Msg("factus")

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("factus: respuesta inválida: %w", err)
		}
		return nil
	}
	return parseError(resp.StatusCode, raw)
}

// parseError los errores de campo llegan como lista de mensajes o como texto.
func parseError(status int, raw []byte) *APIError {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}
	var env errorEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		if s := strings.TrimSpace(string(raw)); s != "" && len(s) < 500 {
			apiErr.Message = s
		}
		return apiErr
	}
	if env.Message != "" {
		apiErr.Message = env.Message
	}
	if len(env.Data.Errors) > 0 {
		apiErr.Fields = make(map[string][]string, len(env.Data.Errors))
		for field, v := range env.Data.Errors {
			var list []string
			if json.Unmarshal(v, &list) != nil {
				var one string
				if json.Unmarshal(v, &one) == nil {
					list = []string{one}
				} else {
					list = []string{string(v)}
				}
			}
			apiErr.Fields[field] = list
		}
	}
	return apiErr
}
