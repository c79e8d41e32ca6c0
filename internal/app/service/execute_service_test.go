package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"algoryth/internal/common"
	"algoryth/internal/domain/model"
	"algoryth/internal/platform/executor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveLanguage(t *testing.T) {
	lang, err := ResolveLanguage(" Python ", "print(1)", 100)
	require.NoError(t, err)
	assert.Equal(t, "python", lang.ID)

	_, err = ResolveLanguage("cobol", "x", 100)
	assert.Equal(t, common.CodeUnsupportedLanguage, codeOf(err))
	assert.Equal(t, "Unsupported language: cobol", err.Error())

	_, err = ResolveLanguage("python", strings.Repeat("x", 101), 100)
	assert.Equal(t, common.CodeCodeTooLong, codeOf(err))

	_, err = ResolveLanguage("python", strings.Repeat("x", 101), 0)
	assert.NoError(t, err, "zero disables the length check")
}

func TestExecuteSingleRun(t *testing.T) {
	svc := NewExecuteService(echoRunner(), 1000)

	resp, err := svc.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "print(input())", Input: "42"})
	require.NoError(t, err)

	assert.Equal(t, ExecStatusSuccess, resp.Status)
	assert.Equal(t, "python", resp.Language)
	assert.Equal(t, "42", resp.Output)
	require.NotNil(t, resp.Input)
	assert.Equal(t, "42", *resp.Input)
	require.NotNil(t, resp.OutputVisualization)
	assert.Equal(t, "Input:\n42\n\nOutput:\n42", resp.OutputVisualization.Preview)
	assert.Nil(t, resp.ErrorDetails)
	assert.Empty(t, resp.TestResults)
}

func TestExecuteSingleRunFailure(t *testing.T) {
	runner := &fakeRunner{fn: func(model.Language, string, string) (*executor.RunResult, error) {
		return &executor.RunResult{Failure: executor.FailureTimeout, Message: "Time limit exceeded at line 3"}, nil
	}}
	svc := NewExecuteService(runner, 1000)

	resp, err := svc.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "while True: pass"})
	require.NoError(t, err)
	assert.Equal(t, ExecStatusError, resp.Status)
	assert.Equal(t, "Time limit exceeded at line 3", resp.Error)
	require.NotNil(t, resp.ErrorDetails)
	assert.Equal(t, "runtime", resp.ErrorDetails.Type)
	require.NotNil(t, resp.ErrorDetails.Line)
	assert.Equal(t, 3, *resp.ErrorDetails.Line)
}

func TestExecuteWithTestCases(t *testing.T) {
	runner := echoRunner()
	svc := NewExecuteService(runner, 1000)

	resp, err := svc.Execute(context.Background(), ExecuteRequest{
		Language: "javascript",
		Code:     "console.log(1)",
		TestCases: []ExecuteTestCase{
			{Input: "1", ExpectedOutput: "1  \r\n"},
			{Input: "2", ExpectedOutput: "3"},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, runner.calls())
	assert.Equal(t, ExecStatusWrongAnswer, resp.Status)
	assert.Equal(t, 2, resp.TotalTests)
	assert.Equal(t, 1, resp.PassedTests)
	require.Len(t, resp.TestResults, 2)
	assert.True(t, resp.TestResults[0].Passed)
	assert.False(t, resp.TestResults[1].Passed)
	assert.Equal(t, "2", resp.TestResults[1].ActualOutput)
	assert.Len(t, resp.InputOutputVisualization, 2)
	assert.Equal(t, 10, resp.ExecutionTime)
}

func TestExecuteAllPassingIsAccepted(t *testing.T) {
	svc := NewExecuteService(echoRunner(), 1000)

	resp, err := svc.Execute(context.Background(), ExecuteRequest{
		Language:  "go",
		Code:      "package main",
		TestCases: []ExecuteTestCase{{Input: "a", ExpectedOutput: "a"}, {Input: "b", ExpectedOutput: "b"}},
	})
	require.NoError(t, err)
	assert.Equal(t, ExecStatusAccepted, resp.Status)
	assert.Equal(t, resp.TotalTests, resp.PassedTests)
}

func TestExecuteRunnerUnavailable(t *testing.T) {
	runner := &fakeRunner{fn: func(model.Language, string, string) (*executor.RunResult, error) {
		return nil, fmt.Errorf("dial tcp: %w", common.ErrServiceUnavailable)
	}}
	svc := NewExecuteService(runner, 1000)

	resp, err := svc.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "print(1)"})
	require.NoError(t, err)
	assert.Equal(t, ExecStatusError, resp.Status)
	assert.Equal(t, "Code execution service unavailable", resp.Error)

	runner.fn = func(model.Language, string, string) (*executor.RunResult, error) {
		return nil, errors.New("boom")
	}
	resp, err = svc.Execute(context.Background(), ExecuteRequest{Language: "python", Code: "print(1)"})
	require.NoError(t, err)
	assert.Equal(t, "Code execution failed", resp.Error)
}

func TestExecuteValidation(t *testing.T) {
	svc := NewExecuteService(echoRunner(), 10)

	_, err := svc.Execute(context.Background(), ExecuteRequest{Language: "python"})
	assert.Equal(t, common.CodeMissingRequiredFields, codeOf(err))

	_, err = svc.Execute(context.Background(), ExecuteRequest{Language: "brainfuck", Code: "+"})
	assert.Equal(t, common.CodeUnsupportedLanguage, codeOf(err))

	_, err = svc.Execute(context.Background(), ExecuteRequest{Language: "python", Code: strings.Repeat("#", 11)})
	assert.Equal(t, common.CodeCodeTooLong, codeOf(err))
}
