// File: internal/timings/timings.go
package timings

import (
	"context"
	"time"
)

// Timings holds every wait bound and pause used while driving the console.
// A zero duration on a wait means "unbounded".
type Timings struct {
	Default          time.Duration `mapstructure:"default" yaml:"default"`
	Probe            time.Duration `mapstructure:"probe" yaml:"probe"`
	ChallengeDetect  time.Duration `mapstructure:"challenge_detect" yaml:"challenge_detect"`
	SecondChallenge  time.Duration `mapstructure:"second_challenge" yaml:"second_challenge"`
	Liveness         time.Duration `mapstructure:"liveness" yaml:"liveness"`
	Recovery         time.Duration `mapstructure:"recovery" yaml:"recovery"`
	Avatar           time.Duration `mapstructure:"avatar" yaml:"avatar"`
	Playlist         time.Duration `mapstructure:"playlist" yaml:"playlist"`
	OptionalDialog   time.Duration `mapstructure:"optional_dialog" yaml:"optional_dialog"`
	EditEntry        time.Duration `mapstructure:"edit_entry" yaml:"edit_entry"`
	EditForm         time.Duration `mapstructure:"edit_form" yaml:"edit_form"`
	PublishBackoff   time.Duration `mapstructure:"publish_backoff" yaml:"publish_backoff"`
	ProgressInterval time.Duration `mapstructure:"progress_interval" yaml:"progress_interval"`
	LinkPoll         time.Duration `mapstructure:"link_poll" yaml:"link_poll"`
	SkipProcessing   time.Duration `mapstructure:"skip_processing" yaml:"skip_processing"`
	Settle           time.Duration `mapstructure:"settle" yaml:"settle"`
	PageSettle       time.Duration `mapstructure:"page_settle" yaml:"page_settle"`
	Pin              time.Duration `mapstructure:"pin" yaml:"pin"`
	KeyDelay         time.Duration `mapstructure:"key_delay" yaml:"key_delay"`
	ChatSend         time.Duration `mapstructure:"chat_send" yaml:"chat_send"`

	PublishAttempts  int `mapstructure:"publish_attempts" yaml:"publish_attempts"`
	ComposerAttempts int `mapstructure:"composer_attempts" yaml:"composer_attempts"`
	PlaylistAttempts int `mapstructure:"playlist_attempts" yaml:"playlist_attempts"`
	LoginAttempts    int `mapstructure:"login_attempts" yaml:"login_attempts"`
	MaxScrolls       int `mapstructure:"max_scrolls" yaml:"max_scrolls"`
	ShowMoreAttempts int `mapstructure:"show_more_attempts" yaml:"show_more_attempts"`
	LinkPollAttempts int `mapstructure:"link_poll_attempts" yaml:"link_poll_attempts"`
	LanguageRounds   int `mapstructure:"language_rounds" yaml:"language_rounds"`
}

// Default returns the production timings.
func Default() Timings {
	return Timings{
		Default:          60 * time.Second,
		Probe:            5 * time.Second,
		ChallengeDetect:  30 * time.Second,
		SecondChallenge:  5 * time.Second,
		Liveness:         70 * time.Second,
		Recovery:         60 * time.Second,
		Avatar:           15 * time.Second,
		Playlist:         10 * time.Second,
		OptionalDialog:   10 * time.Second,
		EditEntry:        7 * time.Second,
		EditForm:         70 * time.Second,
		PublishBackoff:   5 * time.Second,
		ProgressInterval: 500 * time.Millisecond,
		LinkPoll:         500 * time.Millisecond,
		SkipProcessing:   5 * time.Second,
		Settle:           time.Second,
		PageSettle:       3 * time.Second,
		Pin:              30 * time.Second,
		KeyDelay:         50 * time.Millisecond,
		ChatSend:         200 * time.Millisecond,

		PublishAttempts:  10,
		ComposerAttempts: 2,
		PlaylistAttempts: 2,
		LoginAttempts:    2,
		MaxScrolls:       20,
		ShowMoreAttempts: 10,
		LinkPollAttempts: 120,
		LanguageRounds:   3,
	}
}

// Fast returns timings for scripted pages in tests: every bound is short and
// every pause is zero.
func Fast() Timings {
	t := Default()
	t.Default = 200 * time.Millisecond
	t.Probe = 20 * time.Millisecond
	t.ChallengeDetect = 100 * time.Millisecond
	t.SecondChallenge = 20 * time.Millisecond
	t.Liveness = 50 * time.Millisecond
	t.Recovery = 50 * time.Millisecond
	t.Avatar = 20 * time.Millisecond
	t.Playlist = 20 * time.Millisecond
	t.OptionalDialog = 20 * time.Millisecond
	t.EditEntry = 20 * time.Millisecond
	t.EditForm = 50 * time.Millisecond
	t.PublishBackoff = time.Millisecond
	t.ProgressInterval = 2 * time.Millisecond
	t.LinkPoll = time.Millisecond
	t.SkipProcessing = 0
	t.Settle = 0
	t.PageSettle = 0
	t.Pin = 200 * time.Millisecond
	t.KeyDelay = 0
	t.ChatSend = 0
	return t
}

// Sleep pauses for d or until ctx ends.
func Sleep(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-ctx.Done():
	}
}
