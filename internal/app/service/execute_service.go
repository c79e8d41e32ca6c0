package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/executor"
	"algoryth/internal/platform/logger"
)

const (
	ExecStatusSuccess     = "Success"
	ExecStatusError       = "Error"
	ExecStatusAccepted    = "Accepted"
	ExecStatusWrongAnswer = "Wrong Answer"

	MsgExecutorUnavailable = "Code execution service unavailable"
)

// ExecuteService runs ad-hoc code without persisting anything.
type ExecuteService struct {
	runner        executor.Runner
	maxCodeLength int
}

func NewExecuteService(runner executor.Runner, maxCodeLength int) *ExecuteService {
	return &ExecuteService{runner: runner, maxCodeLength: maxCodeLength}
}

type ExecuteTestCase struct {
	Input          string `json:"input"`
	ExpectedOutput string `json:"expected_output"`
}

type ExecuteRequest struct {
	Language  string            `json:"language"`
	Code      string            `json:"code"`
	Input     string            `json:"input"` // stdin for a single run
	TestCases []ExecuteTestCase `json:"test_cases"`
}

type ErrorDetails struct {
	Type    string `json:"type"`
	Message string `json:"message"`
	Line    *int   `json:"line"`
}

type OutputVisualization struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Preview string `json:"preview"`
}

type TestResult struct {
	Input          string        `json:"input"`
	ExpectedOutput string        `json:"expected_output"`
	ActualOutput   string        `json:"actual_output"`
	Passed         bool          `json:"passed"`
	ExecutionTime  int           `json:"execution_time"`
	MemoryUsed     int           `json:"memory_used"`
	Error          string        `json:"error,omitempty"`
	ErrorDetails   *ErrorDetails `json:"error_details,omitempty"`
}

type ExecuteResponse struct {
	Status        string `json:"status"`
	Language      string `json:"language"`
	ExecutionTime int    `json:"execution_time"`
	MemoryUsed    int    `json:"memory_used"`

	// Single run.
	Output              string               `json:"output,omitempty"`
	Error               string               `json:"error,omitempty"`
	Input               *string              `json:"input,omitempty"`
	OutputVisualization *OutputVisualization `json:"output_visualization,omitempty"`
	ErrorDetails        *ErrorDetails        `json:"error_details,omitempty"`

	// Test case run.
	TestResults              []TestResult          `json:"test_results,omitempty"`
	TotalTests               int                   `json:"total_tests,omitempty"`
	PassedTests              int                   `json:"passed_tests"`
	InputOutputVisualization []OutputVisualization `json:"input_output_visualization,omitempty"`
}

// ResolveLanguage checks the language id and code size shared by execute and submissions.
func ResolveLanguage(languageID, code string, maxCodeLength int) (model.Language, error) {
	lang, ok := model.LookupLanguage(strings.ToLower(strings.TrimSpace(languageID)))
	if !ok {
		return model.Language{}, common.ValidationError(common.CodeUnsupportedLanguage, "language", fmt.Sprintf("Unsupported language: %s", languageID))
	}
	if maxCodeLength > 0 && len(code) > maxCodeLength {
		return model.Language{}, common.ValidationError(common.CodeCodeTooLong, "code", fmt.Sprintf("Code exceeds maximum length of %d characters", maxCodeLength))
	}
	return lang, nil
}

func (s *ExecuteService) Execute(ctx context.Context, req ExecuteRequest) (*ExecuteResponse, error) {
	if strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.Language) == "" {
		return nil, common.ValidationError(common.CodeMissingRequiredFields, "", "Code and language are required")
	}
	lang, err := ResolveLanguage(req.Language, req.Code, s.maxCodeLength)
	if err != nil {
		return nil, err
	}

	if len(req.TestCases) == 0 {
		return s.single(ctx, lang, req.Code, req.Input), nil
	}
	return s.withTests(ctx, lang, req.Code, req.TestCases), nil
}

func (s *ExecuteService) single(ctx context.Context, lang model.Language, code, stdin string) *ExecuteResponse {
	res := s.run(ctx, lang, code, stdin)
	output := strings.TrimRight(res.Stdout, "\n")

	resp := &ExecuteResponse{
		Status:        ExecStatusSuccess,
		Language:      lang.ID,
		Output:        output,
		ExecutionTime: res.TimeMs,
		MemoryUsed:    res.MemoryKb,
		Input:         &stdin,
		OutputVisualization: &OutputVisualization{
			Input:   stdin,
			Output:  output,
			Preview: preview(stdin, output),
		},
	}
	if !res.Succeeded() {
		resp.Status = ExecStatusError
		resp.Error = res.Message
		resp.ErrorDetails = errorDetails(res)
	}
	return resp
}

func (s *ExecuteService) withTests(ctx context.Context, lang model.Language, code string, cases []ExecuteTestCase) *ExecuteResponse {
	resp := &ExecuteResponse{
		Language:   lang.ID,
		TotalTests: len(cases),
	}

	for _, tc := range cases {
		res := s.run(ctx, lang, code, tc.Input)
		actual := executor.NormalizeOutput(res.Stdout)
		tr := TestResult{
			Input:          tc.Input,
			ExpectedOutput: tc.ExpectedOutput,
			ActualOutput:   actual,
			Passed:         res.Succeeded() && executor.OutputsMatch(res.Stdout, tc.ExpectedOutput),
			ExecutionTime:  res.TimeMs,
			MemoryUsed:     res.MemoryKb,
		}
		if !res.Succeeded() {
			tr.Error = res.Message
			tr.ErrorDetails = errorDetails(res)
		}
		if tr.Passed {
			resp.PassedTests++
		}
		resp.ExecutionTime = max(resp.ExecutionTime, res.TimeMs)
		resp.MemoryUsed = max(resp.MemoryUsed, res.MemoryKb)
		resp.TestResults = append(resp.TestResults, tr)
		resp.InputOutputVisualization = append(resp.InputOutputVisualization, OutputVisualization{
			Input:   tc.Input,
			Output:  actual,
			Preview: preview(tc.Input, actual),
		})
	}

	resp.Status = ExecStatusWrongAnswer
	if resp.PassedTests == resp.TotalTests {
		resp.Status = ExecStatusAccepted
	}
	return resp
}

// run turns executor transport failures into an internal failure result.
func (s *ExecuteService) run(ctx context.Context, lang model.Language, code, stdin string) *executor.RunResult {
	res, err := s.runner.Run(ctx, lang, code, stdin)
	if err == nil {
		return res
	}
	logger.Error().Err(err).Str("language", lang.ID).Msg("Code execution failed")
	msg := MsgExecutorUnavailable
	if !errors.Is(err, common.ErrServiceUnavailable) {
		msg = "Code execution failed"
	}
	return &executor.RunResult{Failure: executor.FailureInternal, Message: msg}
}

func errorDetails(res *executor.RunResult) *ErrorDetails {
	kind := string(res.Failure)
	if res.Failure == executor.FailureTimeout {
		kind = string(executor.FailureRuntime)
	}
	return &ErrorDetails{
		Type:    kind,
		Message: res.Message,
		Line:    executor.ExtractLineNumber(res.Message),
	}
}

func preview(input, output string) string {
	return fmt.Sprintf("Input:\n%s\n\nOutput:\n%s", input, output)
}
