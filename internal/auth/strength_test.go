// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/latchkey/latchkey/internal/auth"
)

func TestZxcvbnChecker_IsStrong(t *testing.T) {
	checker := auth.NewZxcvbnChecker()

	tests := []struct {
		name     string
		password string
		inputs   []string
		want     bool
	}{
		{name: "empty", password: "", want: false},
		{name: "common password", password: "password", want: false},
		{name: "keyboard walk", password: "qwerty123", want: false},
		{name: "equals username", password: "alice", inputs: []string{"a@x.com", "alice"}, want: false},
		{name: "capitalized username", password: "Alice", inputs: []string{"a@x.com", "alice"}, want: false},
		{name: "username repeated", password: "alicealice", inputs: []string{"a@x.com", "alice"}, want: false},
		{name: "equals email", password: "a@x.com", inputs: []string{"a@x.com", "alice"}, want: false},
		{name: "email local part", password: "jonathan.smithers", inputs: []string{"jonathan.smithers@example.com", "jsmith"}, want: false},
		{name: "reversed username", password: "mortsgrebnailimixam", inputs: []string{"maximilian@corp.io", "maximilianbergstrom"}, want: false},
		{name: "reversed email local part", password: "srehtims.nahtanoj", inputs: []string{"jonathan.smithers@example.com", "jsmith"}, want: false},
		{name: "reversed email", password: "moc.elpmaxe@srehtims.nahtanoj", inputs: []string{"jonathan.smithers@example.com", "jsmith"}, want: false},
		{name: "long passphrase", password: "correct-Horse-battery-staple-91!", inputs: []string{"a@x.com", "alice"}, want: true},
		{name: "mangled phrase with suffix", password: "Tr0ub4dor&3xyz!", inputs: []string{"a@x.com", "alice"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, checker.IsStrong(tt.password, tt.inputs...))
		})
	}
}
