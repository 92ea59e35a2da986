package templates

import (
	"strings"
	"time"

	"github.com/oksasatya/go-social-graph/config"
)

type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

// WithActor records who triggered the notification and links to their profile.
func WithActor(cfg *config.Config, username, name string) Option {
	return func(d *EmailData) {
		d.ActorUsername = username
		d.ActorName = strings.TrimSpace(name)
		if cfg.ProfileURLBase != "" {
			d.ProfileURL = strings.TrimRight(cfg.ProfileURLBase, "/") + "/" + username
		}
	}
}

// NewBaseEmailData fills the common fields from config, then applies opts.
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:           name,
		Email:          email,
		RecipientEmail: email,
		Type:           typ,

		CompanyName:    cfg.CompanyName,
		CompanyAddress: cfg.CompanyAddress,
		AppName:        cfg.AppName,

		LogoURL:        cfg.LogoURL,
		SupportURL:     cfg.SupportURL,
		UnsubscribeURL: cfg.UnsubscribeURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewWelcomeData(cfg *config.Config, name, email string, opts ...Option) map[string]any {
	return ToMap(NewBaseEmailData(cfg, Welcome, name, email, opts...))
}

func NewFollowerData(cfg *config.Config, name, email, followerUsername, followerName string, opts ...Option) map[string]any {
	opts = append([]Option{WithActor(cfg, followerUsername, followerName)}, opts...)
	return ToMap(NewBaseEmailData(cfg, NewFollower, name, email, opts...))
}
