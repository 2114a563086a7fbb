package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSES struct {
	sent []*sesv2.SendEmailInput
	err  error
}

func (f *fakeSES) SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, params)
	return &sesv2.SendEmailOutput{}, nil
}

func TestSend(t *testing.T) {
	ses := &fakeSES{}
	m, err := New(ses, "broadcast@nylund.us")
	require.NoError(t, err)

	err = m.Send(context.Background(), "alice@example.com", "You're invited", "org-invite", map[string]string{
		"OrganizationName": "Acme",
		"URL":              "https://app.nylund.us/invitations/inv-1",
	})
	require.NoError(t, err)

	require.Len(t, ses.sent, 1)
	in := ses.sent[0]
	assert.Equal(t, "broadcast@nylund.us", aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"alice@example.com"}, in.Destination.ToAddresses)
	assert.Equal(t, "You're invited", aws.ToString(in.Content.Simple.Subject.Data))

	html := aws.ToString(in.Content.Simple.Body.Html.Data)
	assert.Contains(t, html, "Acme")
	assert.Contains(t, html, "https://app.nylund.us/invitations/inv-1")
}

func TestSend_UnknownTemplate(t *testing.T) {
	ses := &fakeSES{}
	m, err := New(ses, "broadcast@nylund.us")
	require.NoError(t, err)

	err = m.Send(context.Background(), "alice@example.com", "subject", "no-such-template", nil)
	require.Error(t, err)
	assert.Empty(t, ses.sent, "nothing may be sent when rendering fails")
}

func TestSend_ProviderError(t *testing.T) {
	ses := &fakeSES{err: errors.New("rate exceeded")}
	m, err := New(ses, "broadcast@nylund.us")
	require.NoError(t, err)

	err = m.Send(context.Background(), "alice@example.com", "subject", "org-invite", map[string]string{})
	assert.ErrorContains(t, err, "rate exceeded")
}
