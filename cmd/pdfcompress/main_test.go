package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{name: "interactive", args: nil},
		{name: "one file", args: []string{"report.pdf"}},
		{name: "flag after file", args: []string{"report.pdf", "-t", "100"}, wantErr: "flags must come before the file"},
		{name: "two files", args: []string{"a.pdf", "b.pdf"}, wantErr: "only one PDF"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checkArgs(tt.args)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
