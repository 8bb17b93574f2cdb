// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Latchkey Contributors

package auth

import (
	"slices"
	"strings"

	"github.com/nbutton23/zxcvbn-go"
)

// MinStrengthScore is the lowest acceptable zxcvbn score (0-4).
const MinStrengthScore = 3

// StrengthChecker decides whether a password is hard enough to guess.
type StrengthChecker interface {
	// IsStrong reports whether password passes the policy. userInputs are
	// strings an attacker would try first, such as the email and username.
	IsStrong(password string, userInputs ...string) bool
}

// ZxcvbnChecker scores passwords with the zxcvbn pattern estimator.
type ZxcvbnChecker struct {
	minScore int
}

// NewZxcvbnChecker creates a checker enforcing MinStrengthScore.
func NewZxcvbnChecker() *ZxcvbnChecker {
	return &ZxcvbnChecker{minScore: MinStrengthScore}
}

// IsStrong implements StrengthChecker.
func (c *ZxcvbnChecker) IsStrong(password string, userInputs ...string) bool {
	if password == "" {
		return false
	}
	return zxcvbn.PasswordStrength(password, expandUserInputs(userInputs)).Score >= c.minScore
}

// expandUserInputs adds the local part of email addresses and the reversed
// form of every input. The estimator has no reverse-dictionary matcher, so
// a reversed username would otherwise score as random text.
func expandUserInputs(inputs []string) []string {
	out := make([]string, 0, len(inputs)*4)
	for _, in := range inputs {
		if in == "" {
			continue
		}
		out = append(out, in, reverse(in))
		if local, _, ok := strings.Cut(in, "@"); ok && local != "" {
			out = append(out, local, reverse(local))
		}
	}
	return out
}

func reverse(s string) string {
	r := []rune(s)
	slices.Reverse(r)
	return string(r)
}
