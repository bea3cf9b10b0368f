package templates

import (
	"time"

	"github.com/oksasatya/mother-community/config"
)

// EmailData defines the fields available to every template.
type EmailData struct {
	Name        string
	Email       string
	CompanyName string
	AppName     string
	AppURL      string
	LogoURL     string
	SupportURL  string
	Time        string

	// new_message
	SenderName string
	Preview    string
	ThreadURL  string
}

// Option pattern
type Option func(*EmailData)

func WithTime(t time.Time) Option {
	return func(d *EmailData) { d.Time = t.UTC().Format("02 January 2006, 15:04") }
}

func WithMessage(senderName, content, threadURL string) Option {
	return func(d *EmailData) {
		d.SenderName = senderName
		d.Preview = content
		d.ThreadURL = threadURL
	}
}

// NewEmailData fills the common fields from config, then applies opts.
func NewEmailData(cfg *config.Config, name, email string, opts ...Option) EmailData {
	d := EmailData{
		Name:        name,
		Email:       email,
		CompanyName: cfg.CompanyName,
		AppName:     cfg.AppName,
		AppURL:      cfg.AppURL,
		LogoURL:     cfg.LogoURL,
		SupportURL:  cfg.SupportURL,
	}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// ToMap converts EmailData to the loosely typed map carried by EmailJob.Data.
func ToMap(d EmailData) map[string]any {
	return map[string]any{
		"Name":        d.Name,
		"Email":       d.Email,
		"CompanyName": d.CompanyName,
		"AppName":     d.AppName,
		"AppURL":      d.AppURL,
		"LogoURL":     d.LogoURL,
		"SupportURL":  d.SupportURL,
		"Time":        d.Time,
		"SenderName":  d.SenderName,
		"Preview":     d.Preview,
		"ThreadURL":   d.ThreadURL,
	}
}
