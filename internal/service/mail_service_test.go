package service

import (
	"strings"
	"testing"

	"infinity/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMailService_DisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewMailService(config.MailConfig{}))
	assert.NotNil(t, NewMailService(config.MailConfig{Host: "smtp.test", Port: 587, From: "no-reply@test"}))
}

func TestVerificationTemplate(t *testing.T) {
	var b strings.Builder
	require.NoError(t, verificationTmpl.Execute(&b, struct{ Name, Link string }{"Zoë <3", "https://app.test/verify?token=abc"}))
	out := b.String()
	assert.Contains(t, out, "Zoë &lt;3")
	assert.Contains(t, out, `href="https://app.test/verify?token=abc"`)
}
