package message

import (
	"fmt"

	apperrors "github.com/ilKhr/simple-phone-and-email-auth/pkg/errors"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
)

// Type identifies the kind of outbound message.
type Type string

const (
	TypeOtp          Type = "otp"
	TypeWelcome      Type = "welcome"
	TypeVerification Type = "verification"
)

// Params carries the values a template can interpolate.
type Params struct {
	To   string
	Code string
	Name string
	Link string
}

// EmailRenderer produces a ready-to-send email from params.
type EmailRenderer func(p Params) domain.EmailMessage

// SMSRenderer produces a ready-to-send text message from params.
type SMSRenderer func(p Params) domain.SMSMessage

// Provider resolves a renderer for a message type on a given channel. The
// two axes are independent: a type can exist for one channel and not the
// other, and asking for a missing combination is an error, not a fallback.
type Provider struct {
	email map[Type]EmailRenderer
	phone map[Type]SMSRenderer
}

// NewProvider creates a provider with the built-in template set. The from
// address is stamped on every email.
func NewProvider(from string) *Provider {
	p := &Provider{
		email: make(map[Type]EmailRenderer),
		phone: make(map[Type]SMSRenderer),
	}

	p.email[TypeOtp] = func(params Params) domain.EmailMessage {
		return domain.EmailMessage{
			From:    from,
			To:      params.To,
			Subject: "Your OTP Code",
			Text:    fmt.Sprintf("Your OTP code is: %s", params.Code),
		}
	}
	p.email[TypeWelcome] = func(params Params) domain.EmailMessage {
		return domain.EmailMessage{
			From:    from,
			To:      params.To,
			Subject: "Welcome",
			Text:    fmt.Sprintf("Hi %s, your account is ready.", params.Name),
		}
	}
	p.email[TypeVerification] = func(params Params) domain.EmailMessage {
		return domain.EmailMessage{
			From:    from,
			To:      params.To,
			Subject: "Verify your email",
			Text:    fmt.Sprintf("Follow the link to verify your email: %s", params.Link),
		}
	}

	p.phone[TypeOtp] = func(params Params) domain.SMSMessage {
		return domain.SMSMessage{
			To:   params.To,
			Text: fmt.Sprintf("Your OTP code is: %s", params.Code),
		}
	}
	p.phone[TypeWelcome] = func(params Params) domain.SMSMessage {
		return domain.SMSMessage{
			To:   params.To,
			Text: fmt.Sprintf("Hi %s, your account is ready.", params.Name),
		}
	}

	return p
}

// Email returns the email renderer for the given type.
func (p *Provider) Email(t Type) (EmailRenderer, error) {
	r, ok := p.email[t]
	if !ok {
		return nil, apperrors.NotFound("email template", string(t))
	}
	return r, nil
}

// Phone returns the sms renderer for the given type.
func (p *Provider) Phone(t Type) (SMSRenderer, error) {
	r, ok := p.phone[t]
	if !ok {
		return nil, apperrors.NotFound("phone template", string(t))
	}
	return r, nil
}
