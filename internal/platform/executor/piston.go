package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/config"
	"algoryth/internal/platform/logger"
)

type FailureKind string

const (
	FailureNone        FailureKind = ""
	FailureCompilation FailureKind = "compilation"
	FailureRuntime     FailureKind = "runtime"
	FailureTimeout     FailureKind = "timeout"
	FailureInternal    FailureKind = "internal"
)

// Runner executes one program against one stdin.
type Runner interface {
	Run(ctx context.Context, lang model.Language, code, stdin string) (*RunResult, error)
}

type RunResult struct {
	Stdout   string
	Stderr   string
	ExitCode int
	Signal   string
	Failure  FailureKind
	Message  string // compiler or runtime output shown on failure
	TimeMs   int
	MemoryKb int
}

func (r *RunResult) Succeeded() bool {
	return r.Failure == FailureNone
}

type PistonExecuteRequest struct {
	Language           string `json:"language"`
	Version            string `json:"version"`
	Files              []File `json:"files"`
	Stdin              string `json:"stdin"`
	CompileTimeout     int    `json:"compile_timeout"`
	RunTimeout         int    `json:"run_timeout"`
	CompileMemoryLimit int    `json:"compile_memory_limit"`
	RunMemoryLimit     int    `json:"run_memory_limit"`
}

type File struct {
	Name    string `json:"name,omitempty"`
	Content string `json:"content"`
}

type PistonStage struct {
	Stdout   string   `json:"stdout"`
	Stderr   string   `json:"stderr"`
	Output   string   `json:"output"`
	Code     *int     `json:"code"`
	Signal   *string  `json:"signal"`
	Message  *string  `json:"message"`
	Status   *string  `json:"status"`
	WallTime *float64 `json:"wall_time"` // ms
	Memory   *int     `json:"memory"`    // bytes
}

type PistonExecuteResponse struct {
	Language string       `json:"language"`
	Version  string       `json:"version"`
	Compile  *PistonStage `json:"compile,omitempty"`
	Run      PistonStage  `json:"run"`
	Message  string       `json:"message,omitempty"`
}

type PistonClient struct {
	baseURL        string
	httpClient     *http.Client
	compileTimeout int
	runTimeout     int
	runMemoryLimit int
}

func NewPistonClient(cfg *config.Config) *PistonClient {
	return &PistonClient{
		baseURL:        cfg.PistonURL,
		httpClient:     &http.Client{Timeout: cfg.PistonHTTPTimeout},
		compileTimeout: cfg.PistonCompileTimeoutMs,
		runTimeout:     cfg.PistonRunTimeoutMs,
		runMemoryLimit: cfg.PistonRunMemoryLimitBytes,
	}
}

// Run returns an error wrapping common.ErrServiceUnavailable when Piston cannot be reached
// or answers with a non-2xx status. Failures of the program itself are reported in RunResult.
func (c *PistonClient) Run(ctx context.Context, lang model.Language, code, stdin string) (*RunResult, error) {
	reqBody := PistonExecuteRequest{
		Language:           lang.ID,
		Version:            lang.Version,
		Files:              []File{{Name: lang.FileName, Content: code}},
		Stdin:              stdin,
		CompileTimeout:     c.compileTimeout,
		RunTimeout:         c.runTimeout,
		CompileMemoryLimit: -1,
		RunMemoryLimit:     c.runMemoryLimit,
	}
	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("PistonClient.Run marshal: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/execute", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("PistonClient.Run request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("piston unreachable: %v: %w", err, common.ErrServiceUnavailable)
	}
	defer resp.Body.Close()
	elapsed := time.Since(start)

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("piston read body: %v: %w", err, common.ErrServiceUnavailable)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warn().Int("status", resp.StatusCode).Str("language", lang.ID).Bytes("body", truncate(body, 512)).Msg("Piston returned non-2xx")
		return nil, fmt.Errorf("piston returned status %d: %w", resp.StatusCode, common.ErrServiceUnavailable)
	}

	var out PistonExecuteResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("piston decode: %v: %w", err, common.ErrServiceUnavailable)
	}
	return interpret(&out, elapsed), nil
}

func interpret(out *PistonExecuteResponse, elapsed time.Duration) *RunResult {
	res := &RunResult{
		Stdout:  out.Run.Stdout,
		Stderr:  out.Run.Stderr,
		TimeMs:  int(elapsed.Milliseconds()),
		Failure: FailureNone,
	}
	if out.Run.WallTime != nil {
		res.TimeMs = int(*out.Run.WallTime)
	}
	if out.Run.Memory != nil {
		res.MemoryKb = *out.Run.Memory / 1024
	}

	if c := out.Compile; c != nil && c.Code != nil && *c.Code != 0 {
		res.Failure = FailureCompilation
		res.ExitCode = *c.Code
		res.Message = firstNonEmpty(c.Stderr, c.Output, c.Stdout, "Compilation failed")
		return res
	}

	if out.Run.Signal != nil {
		res.Signal = *out.Run.Signal
	}
	if out.Run.Code != nil {
		res.ExitCode = *out.Run.Code
	}

	switch {
	case res.Signal == "SIGKILL" || (out.Run.Status != nil && *out.Run.Status == "TO"):
		res.Failure = FailureTimeout
		res.Message = "Time Limit Exceeded"
	case res.Signal != "" || res.ExitCode != 0:
		res.Failure = FailureRuntime
		res.Message = firstNonEmpty(out.Run.Stderr, out.Run.Output, "Runtime error")
	}
	return res
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(b []byte, n int) []byte {
	if len(b) <= n {
		return b
	}
	return b[:n]
}
