package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"
)

type fakeSender struct {
	sent []*gomail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*gomail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func testEmailSettings() EmailSettings {
	return EmailSettings{
		SMTPHost:    "smtp.example.com",
		SMTPPort:    587,
		FromEmail:   "noreply@example.com",
		FromName:    "Auth",
		CompanyName: "Acme",
	}
}

func TestEmailService_SendVerification(t *testing.T) {
	sender := &fakeSender{}
	svc := newEmailService(sender, testEmailSettings(), discardLogger())

	require.NoError(t, svc.SendVerification(context.Background(), "a@x.com", "123456"))
	require.Len(t, sender.sent, 1)

	m := sender.sent[0]
	assert.Equal(t, []string{"a@x.com"}, m.GetHeader("To"))
	assert.Equal(t, []string{"Verify your email"}, m.GetHeader("Subject"))
	assert.Equal(t, []string{"Email Verification"}, m.GetHeader("X-MT-Category"))
	assert.Contains(t, m.GetHeader("From")[0], "noreply@example.com")
}

func TestEmailService_OtherMessages(t *testing.T) {
	sender := &fakeSender{}
	svc := newEmailService(sender, testEmailSettings(), discardLogger())
	ctx := context.Background()

	require.NoError(t, svc.SendWelcome(ctx, "a@x.com", "A"))
	require.NoError(t, svc.SendPasswordResetRequest(ctx, "a@x.com", "http://localhost/reset-password/abc"))
	require.NoError(t, svc.SendPasswordResetSuccess(ctx, "a@x.com"))
	require.Len(t, sender.sent, 3)

	assert.Equal(t, []string{"Welcome to Acme!"}, sender.sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"Reset your password"}, sender.sent[1].GetHeader("Subject"))
	assert.Equal(t, []string{"Password reset successful"}, sender.sent[2].GetHeader("Subject"))
}

func TestEmailService_DryRunWithoutHost(t *testing.T) {
	sender := &fakeSender{err: errors.New("must not dial")}
	s := testEmailSettings()
	s.SMTPHost = ""
	svc := newEmailService(sender, s, discardLogger())

	assert.NoError(t, svc.SendVerification(context.Background(), "a@x.com", "123456"))
	assert.Empty(t, sender.sent)
}

func TestEmailService_SenderFailure(t *testing.T) {
	sender := &fakeSender{err: errors.New("connection refused")}
	svc := newEmailService(sender, testEmailSettings(), discardLogger())

	err := svc.SendWelcome(context.Background(), "a@x.com", "A")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestEmailService_CanceledContext(t *testing.T) {
	sender := &fakeSender{}
	svc := newEmailService(sender, testEmailSettings(), discardLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := svc.SendPasswordResetSuccess(ctx, "a@x.com")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sender.sent)
}

func TestEmailTemplates_Render(t *testing.T) {
	body, err := render(verificationTpl, map[string]string{"Code": "654321"})
	require.NoError(t, err)
	assert.Contains(t, body, "654321")

	body, err = render(resetRequestTpl, map[string]string{"URL": "http://localhost/reset-password/abc"})
	require.NoError(t, err)
	assert.Contains(t, body, `href="http://localhost/reset-password/abc"`)

	body, err = render(welcomeTpl, map[string]string{"Name": "<b>A</b>", "Company": "Acme"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<b>A</b>")
	assert.Contains(t, body, "Welcome to Acme")
}
