package templates

import (
	"time"

	"github.com/oksasatya/account-service/config"
)

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.TimeAt = utc
		d.Time = utc.Format("02 January 2006, 15:04")
	}
}

func WithVerifyURL(url string) Option { return func(d *EmailData) { d.VerifyURL = url } }

func WithTemporaryPassword(p string) Option {
	return func(d *EmailData) { d.TemporaryPassword = p }
}

func WithExpiresAt(t time.Time) Option {
	return func(d *EmailData) {
		utc := t.UTC()
		d.ExpiresAt = utc
		d.ExpiresAtText = utc.Format("02 January 2006, 15:04 MST")
	}
}

// WithExpiresIn sets both the absolute expiry and a human readable window such as "6 hours".
func WithExpiresIn(dur time.Duration) Option {
	return func(d *EmailData) {
		WithExpiresAt(time.Now().Add(dur))(d)
		d.ExpiresIn = humanDuration(dur)
	}
}

// NewBaseEmailData fills the common fields from config, then applies the options
func NewBaseEmailData(cfg *config.Config, typ string, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:  name,
		Email: email,
		Type:  typ,
	}
	if cfg != nil {
		d.CompanyName = cfg.CompanyName
		d.CompanyAddress = cfg.CompanyAddress
		d.AppName = cfg.AppName
		d.LogoURL = cfg.LogoURL
		d.SupportURL = cfg.SupportURL
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

func NewVerifyEmailData(cfg *config.Config, name, email, verifyURL string, opts ...Option) map[string]any {
	opts = append([]Option{WithVerifyURL(verifyURL)}, opts...)
	d := NewBaseEmailData(cfg, VerifyEmail, name, email, opts...)
	return ToMap(d)
}

func NewTemporaryPasswordData(cfg *config.Config, name, email, temporaryPassword string, opts ...Option) map[string]any {
	opts = append([]Option{WithTemporaryPassword(temporaryPassword)}, opts...)
	d := NewBaseEmailData(cfg, TemporaryPassword, name, email, opts...)
	return ToMap(d)
}
