package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRun(t *testing.T) {
	t.Setenv("AGENTCHAT_BACKEND", "echo")

	tests := []struct {
		name string
		args []string
		code int
	}{
		{"help", []string{"--help"}, 0},
		{"version", []string{"--version"}, 0},
		{"channels", []string{"channels", "--env-file", ""}, 0},
		{"unknown flag", []string{"--unknown-flag"}, 1},
		{"dm without agent", []string{"dm"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, Run(context.Background(), tt.args))
		})
	}
}
