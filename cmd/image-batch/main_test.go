package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/zlog"

	"github.com/aliskhannn/image-batch/internal/model"
)

func TestMain(m *testing.M) {
	zlog.Init()
	os.Exit(m.Run())
}

func TestLogReport_ExitCode(t *testing.T) {
	report := &model.BatchReport{
		RunID: uuid.New(),
		Results: []model.PairResult{
			{Status: model.StatusProcessed},
			{Status: model.StatusFailed},
		},
	}

	tests := []struct {
		name   string
		report *model.BatchReport
		err    error
		want   int
	}{
		{"completed with failed pairs", report, nil, 0},
		{"interrupted", report, fmt.Errorf("overlay batch interrupted: %w", context.Canceled), 1},
		{"aborted before start", nil, errors.New("prepare output: permission denied"), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, logReport(tt.report, tt.err))
		})
	}
}
