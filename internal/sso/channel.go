package sso

import (
	"context"
	"fmt"

	"github.com/ilKhr/simple-phone-and-email-auth/internal/domain"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/message"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/notification"
	"github.com/ilKhr/simple-phone-and-email-auth/internal/repository"
)

// Channel adapts the contact-specific collaborators into a single shape so
// the strategies stay channel-agnostic. A strategy only needs to look up a
// user by the destination it holds, deliver a rendered message to that
// destination, read the matching contact back off a user, and build a new
// account with the proven contact pre-verified. Everything email- or
// phone-specific lives behind these four functions.
type Channel struct {
	Name domain.Channel

	// Lookup finds the user owning the destination. Not-found surfaces as
	// an apperrors.ErrNotFound match.
	Lookup func(ctx context.Context, destination string) (domain.User, error)

	// Notify renders the message type for this channel and dispatches it.
	Notify func(ctx context.Context, msgType message.Type, params message.Params) error

	// Identity reads the contact value this channel authenticates.
	Identity func(user domain.User) string

	// NewUser builds an unpersisted account with the destination attached
	// as a verified contact.
	NewUser func(firstName, lastName, destination string) domain.User
}

// EmailChannel builds the channel adapter for email destinations.
func EmailChannel(users repository.UserRepository, provider *message.Provider, sender notification.EmailSender) Channel {
	return Channel{
		Name:   domain.ChannelEmail,
		Lookup: users.GetByEmail,
		Notify: func(ctx context.Context, msgType message.Type, params message.Params) error {
			render, err := provider.Email(msgType)
			if err != nil {
				return err
			}
			if err := sender.Send(ctx, render(params)); err != nil {
				return fmt.Errorf("send %s email: %w", msgType, err)
			}
			return nil
		},
		Identity: func(user domain.User) string { return user.Email.Value },
		NewUser: func(firstName, lastName, destination string) domain.User {
			return domain.NewUser(firstName, lastName).WithEmail(destination, true)
		},
	}
}

// PhoneChannel builds the channel adapter for phone destinations. The sender
// is normally the country-routing resolver, but any SMSSender works.
func PhoneChannel(users repository.UserRepository, provider *message.Provider, sender notification.SMSSender) Channel {
	return Channel{
		Name:   domain.ChannelPhone,
		Lookup: users.GetByPhone,
		Notify: func(ctx context.Context, msgType message.Type, params message.Params) error {
			render, err := provider.Phone(msgType)
			if err != nil {
				return err
			}
			if err := sender.Send(ctx, render(params)); err != nil {
				return fmt.Errorf("send %s sms: %w", msgType, err)
			}
			return nil
		},
		Identity: func(user domain.User) string { return user.Phone.Value },
		NewUser: func(firstName, lastName, destination string) domain.User {
			return domain.NewUser(firstName, lastName).WithPhone(destination, true)
		},
	}
}
