package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cedbrasilia/enroll-api/internal/models"
	"github.com/cedbrasilia/enroll-api/pkg/config"
	appErrors "github.com/cedbrasilia/enroll-api/pkg/errors"
)

// duplicateCodeMarker is the free-text fragment the directory returns when a
// student code collides. The upstream API has no structured error code for
// this, so the match lives in exactly one place (classifyCreateFailure) and
// any other wording is treated as a fatal registration failure.
const duplicateCodeMarker = "já está em uso"

// apiResponse is the directory's uniform envelope. Status is the string
// "true" on success, anything else on failure; Info carries free-text detail.
type apiResponse struct {
	Status string          `json:"status"`
	Info   string          `json:"info"`
	Data   json.RawMessage `json:"data"`
}

func (r apiResponse) ok() bool { return r.Status == "true" }

// Client is a bounded-timeout REST client for the LMS directory.
type Client struct {
	baseURL         string
	basicAuth       string
	unitID          string
	defaultPassword string
	httpClient      *http.Client
	logger          *zap.Logger
}

// NewClient constructs a directory Client from configuration.
func NewClient(cfg config.DirectoryConfig, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:         strings.TrimRight(cfg.BaseURL, "/"),
		basicAuth:       cfg.BasicAuth,
		unitID:          cfg.UnitID,
		defaultPassword: cfg.DefaultPassword,
		httpClient:      &http.Client{Timeout: timeout},
		logger:          logger,
	}
}

// UnitToken fetches the rotating unit token used to authorize student
// creation and course binding.
func (c *Client) UnitToken(ctx context.Context) (string, error) {
	var payload struct {
		Token string `json:"token"`
	}
	resp, err := c.get(ctx, fmt.Sprintf("/unidades/token/%s", c.unitID))
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrAuthUnavailable.Code, appErrors.ErrAuthUnavailable.Status, "failed to fetch unit token")
	}
	if !resp.ok() {
		return "", appErrors.Clone(appErrors.ErrAuthUnavailable, fmt.Sprintf("unit token request rejected: %s", resp.Info))
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil || payload.Token == "" {
		return "", appErrors.Clone(appErrors.ErrAuthUnavailable, "unit token missing from response")
	}
	return payload.Token, nil
}

// TotalStudents returns the directory's total student count for the unit.
func (c *Client) TotalStudents(ctx context.Context) (int, error) {
	var payload struct {
		Total json.Number `json:"total"`
	}
	resp, err := c.get(ctx, fmt.Sprintf("/alunos/total/%s", c.unitID))
	if err != nil {
		return 0, err
	}
	if !resp.ok() {
		return 0, fmt.Errorf("total students request rejected: %s", resp.Info)
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil {
		return 0, fmt.Errorf("malformed total students payload: %w", err)
	}
	total, err := strconv.Atoi(payload.Total.String())
	if err != nil {
		return 0, fmt.Errorf("malformed student total %q", payload.Total.String())
	}
	return total, nil
}

// CountByCodePrefix counts directory entries whose document field matches the
// institutional code prefix. Secondary count source for the allocator.
func (c *Client) CountByCodePrefix(ctx context.Context, prefix string) (int, error) {
	var entries []json.RawMessage
	resp, err := c.get(ctx, fmt.Sprintf("/alunos?unidade_id=%s&cpf_like=%s", c.unitID, url.QueryEscape(prefix)))
	if err != nil {
		return 0, err
	}
	if !resp.ok() {
		return 0, fmt.Errorf("student listing rejected: %s", resp.Info)
	}
	if err := json.Unmarshal(resp.Data, &entries); err != nil {
		return 0, fmt.Errorf("malformed student listing payload: %w", err)
	}
	return len(entries), nil
}

// CreateStudent registers a student record under the candidate code. The
// returned id is the directory's own identifier for the student.
func (c *Client) CreateStudent(ctx context.Context, profile models.StudentProfile, token string) (string, error) {
	password := profile.Password
	if password == "" {
		password = c.defaultPassword
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("nome", profile.Name)
	form.Set("email", profile.Email)
	form.Set("whatsapp", profile.Whatsapp)
	form.Set("fone", profile.Whatsapp)
	form.Set("celular", profile.Whatsapp)
	form.Set("data_nascimento", "2000-01-01")
	form.Set("doc_cpf", profile.Code)
	form.Set("doc_rg", "000000000")
	form.Set("pais", "Brasil")
	form.Set("uf", "DF")
	form.Set("cidade", "Brasília")
	form.Set("endereco", "Não informado")
	form.Set("bairro", "Centro")
	form.Set("cep", "70000-000")
	form.Set("complemento", "")
	form.Set("numero", "0")
	form.Set("unidade_id", c.unitID)
	form.Set("senha", password)

	resp, err := c.postForm(ctx, "/alunos", form)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrRegistrationRejected.Code, appErrors.ErrRegistrationRejected.Status, "student creation request failed")
	}
	if !resp.ok() {
		return "", classifyCreateFailure(resp.Info)
	}

	var payload struct {
		ID json.Number `json:"id"`
	}
	if err := json.Unmarshal(resp.Data, &payload); err != nil || payload.ID.String() == "" {
		return "", appErrors.Clone(appErrors.ErrRegistrationRejected, "student id missing from creation response")
	}
	return payload.ID.String(), nil
}

// BindCourses enrolls the student into the given course offerings. An empty
// offering list is a success no-op: registration without immediate course
// access is a valid terminal state.
func (c *Client) BindCourses(ctx context.Context, studentID string, offeringIDs []int, token string) error {
	if len(offeringIDs) == 0 {
		return nil
	}

	courses := make([]string, len(offeringIDs))
	for i, id := range offeringIDs {
		courses[i] = strconv.Itoa(id)
	}

	form := url.Values{}
	form.Set("token", token)
	form.Set("cursos", strings.Join(courses, ","))

	resp, err := c.postForm(ctx, fmt.Sprintf("/alunos/matricula/%s", studentID), form)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrBindingRejected.Code, appErrors.ErrBindingRejected.Status, "course binding request failed")
	}
	if !resp.ok() {
		return appErrors.Clone(appErrors.ErrBindingRejected, fmt.Sprintf("course binding rejected: %s", resp.Info))
	}
	return nil
}

// classifyCreateFailure is the single call site for the fragile free-text
// duplicate-code contract.
func classifyCreateFailure(info string) error {
	if strings.Contains(strings.ToLower(info), duplicateCodeMarker) {
		return appErrors.Clone(appErrors.ErrDuplicateCode, "")
	}
	return appErrors.Clone(appErrors.ErrRegistrationRejected, fmt.Sprintf("student creation rejected: %s", info))
}

func (c *Client) get(ctx context.Context, path string) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (*apiResponse, error) {
	req.Header.Set("Authorization", "Basic "+c.basicAuth)

	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		c.logger.Warn("directory request failed",
			zap.String("path", req.URL.Path),
			zap.Int("status", res.StatusCode))
		return nil, fmt.Errorf("directory returned status %d", res.StatusCode)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("malformed directory response: %w", err)
	}
	return &parsed, nil
}
